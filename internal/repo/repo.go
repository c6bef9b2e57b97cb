package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrReferenced = errors.New("record is referenced")
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID uint, customerID string) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type PaymentMethodRepository interface {
	CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error
	GetPaymentMethod(ctx context.Context, id uint) (*models.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, userID uint) ([]models.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id uint) error
}

type OrderRepository interface {
	CreateOrderWithItems(ctx context.Context, order *models.Order) error
	FindOrderByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error)
	SalesReport(ctx context.Context, f SalesFilter) (int64, []models.Order, error)
}

type GormRepo struct {
	DB *gorm.DB
}

var (
	_ UserRepository          = (*GormRepo)(nil)
	_ ProductRepository       = (*GormRepo)(nil)
	_ PaymentMethodRepository = (*GormRepo)(nil)
	_ OrderRepository         = (*GormRepo)(nil)
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return errors.Join(ErrDuplicate, err)
	case isForeignKey(err):
		return errors.Join(ErrReferenced, err)
	default:
		return err
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func isForeignKey(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}
