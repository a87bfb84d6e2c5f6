package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem immutable product snapshot taken at order creation.
// Later price changes on the product never touch these rows.
type OrderItem struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	OrderID        uint           `gorm:"index;not null" json:"order_id"`
	ProductID      uint           `gorm:"index;not null" json:"product_id"`
	Title          string         `gorm:"not null" json:"title"`
	UnitPriceCents int64          `gorm:"not null;default:0" json:"unit_price_cents"`
	Quantity       int            `gorm:"not null" json:"quantity"`
	TotalCents     int64          `gorm:"not null;default:0" json:"total_cents"`
	DiscountCents  int64          `gorm:"not null;default:0" json:"discount_cents"` // share of the order discount allocated to this line
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName table name
func (OrderItem) TableName() string {
	return "order_items"
}
