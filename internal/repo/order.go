package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	SortByCreatedAt = "createdAt"
	SortByTotal     = "total"
)

type SalesFilter struct {
	Offset int
	Limit  int
	SortBy string
	Desc   bool
	From   *time.Time
	To     *time.Time
	Email  string
}

// CreateOrderWithItems writes the order and all of its items in one transaction.
func (r *GormRepo) CreateOrderWithItems(ctx context.Context, order *models.Order) error {
	items := order.Items
	order.Items = nil

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].ID = 0
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		order.ID = 0
		order.Items = items
		return translate(err)
	}

	order.Items = items
	return nil
}

func (r *GormRepo) FindOrderByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, nil, translate(err)
	}

	orders := make([]models.Order, 0, limit)
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return 0, nil, translate(err)
	}
	return total, orders, nil
}

func (r *GormRepo) SalesReport(ctx context.Context, f SalesFilter) (int64, []models.Order, error) {
	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).
			Model(&models.Order{}).
			Joins("JOIN users ON users.id = orders.user_id")
		if f.From != nil {
			q = q.Where("orders.created_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("orders.created_at <= ?", *f.To)
		}
		if email := strings.TrimSpace(f.Email); email != "" {
			q = q.Where(`LOWER(users.email) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(email))+"%")
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, translate(err)
	}

	column := "created_at"
	if f.SortBy == SortByTotal {
		column = "total"
	}

	orders := make([]models.Order, 0, f.Limit)
	err := base().
		Select("orders.*").
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "email") }).
		Preload("Items").
		Preload("Items.Product").
		Order(clause.OrderByColumn{Column: clause.Column{Table: "orders", Name: column}, Desc: f.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "orders", Name: "id"}, Desc: f.Desc}).
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&orders).Error
	if err != nil {
		return 0, nil, translate(err)
	}
	return total, orders, nil
}
