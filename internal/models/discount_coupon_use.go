package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountCouponUse one application of a percent coupon to one order.
// The unique order index enforces "one discount per order" jointly with
// Order.discount_cents.
type DiscountCouponUse struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	DiscountCouponID uint           `gorm:"index;not null" json:"discount_coupon_id"`
	OrderID          uint           `gorm:"uniqueIndex;not null" json:"order_id"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	DiscountCents    int64          `gorm:"not null" json:"discount_cents"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName table name
func (DiscountCouponUse) TableName() string {
	return "discount_coupon_uses"
}
