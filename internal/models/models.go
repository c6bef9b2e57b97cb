package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID               uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Email            string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash     string    `gorm:"not null"                  json:"-"`
	Role             string    `gorm:"not null;default:USER"     json:"role"`
	StripeCustomerID *string   `gorm:"uniqueIndex"               json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (u *User) HasPaymentCustomer() bool {
	return u.StripeCustomerID != nil && *u.StripeCustomerID != ""
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string          `gorm:"not null"                      json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type PaymentMethod struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                uint      `gorm:"index;not null"           json:"userId"`
	StripePaymentMethodID string    `gorm:"uniqueIndex;not null"     json:"stripePaymentMethodId"`
	CreatedAt             time.Time `json:"createdAt"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"                          json:"id"`
	UserID          uint            `gorm:"index;not null;uniqueIndex:idx_orders_user_idem,priority:1" json:"userId"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2);not null"                       json:"total"`
	PaymentIntentID string          `gorm:"index;not null"                                    json:"paymentIntentId"`
	IdempotencyKey  *string         `gorm:"uniqueIndex:idx_orders_user_idem,priority:2"       json:"-"`
	CreatedAt       time.Time       `gorm:"index"                                             json:"createdAt"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE"                       json:"items,omitempty"`
	User            *User           `gorm:"constraint:OnDelete:RESTRICT"                      json:"user,omitempty"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	OrderID   uint            `gorm:"index;not null"                    json:"orderId"`
	ProductID uint            `gorm:"index;not null"                    json:"productId"`
	Quantity  int             `gorm:"not null;check:quantity > 0"       json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"unitPrice"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT"      json:"product,omitempty"`
}

// All lists every table for AutoMigrate, parents first.
func All() []any {
	return []any{&User{}, &Product{}, &PaymentMethod{}, &Order{}, &OrderItem{}}
}
