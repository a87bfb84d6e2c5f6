package models

import (
	"time"

	"gorm.io/gorm"
)

// Order storefront order table.
// Invariant: final_cents = max(0, total_cents - discount_cents) + shipping_cents.
// At most one discount application ever succeeds; discount_cents == 0 is the guard.
type Order struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	UserID             uint           `gorm:"index;not null" json:"user_id"`
	Status             string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // pending / paid / cancelled
	TotalCents         int64          `gorm:"not null;default:0" json:"total_cents"`
	DiscountCents      int64          `gorm:"not null;default:0" json:"discount_cents"`
	ShippingCents      int64          `gorm:"not null;default:0" json:"shipping_cents"`
	FinalCents         int64          `gorm:"not null;default:0" json:"final_cents"`
	CouponCode         string         `gorm:"type:varchar(64);index" json:"coupon_code,omitempty"`          // applied value coupon
	DiscountCouponCode string         `gorm:"type:varchar(64);index" json:"discount_coupon_code,omitempty"` // applied percent coupon
	ExternalReference  string         `gorm:"type:varchar(128);index" json:"external_reference,omitempty"`
	PreferenceID       string         `gorm:"type:varchar(128)" json:"preference_id,omitempty"`
	CheckoutURL        string         `gorm:"type:varchar(1024)" json:"checkout_url,omitempty"`
	PaidAt             *time.Time     `json:"paid_at,omitempty"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName table name
func (Order) TableName() string {
	return "orders"
}
