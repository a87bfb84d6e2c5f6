package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon single-use fixed-value coupon. Minted AVAILABLE when the purchase
// payment is approved, flips to USED exactly once when applied to an order.
// Expiry is computed against expires_at, not persisted eagerly.
type Coupon struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	Code           string         `gorm:"uniqueIndex;not null" json:"code"`
	FaceValueCents int64          `gorm:"not null" json:"face_value_cents"`
	SalePriceCents int64          `gorm:"not null" json:"sale_price_cents"`
	Status         string         `gorm:"type:varchar(20);not null;default:'available';index" json:"status"` // available / used / expired
	BuyerID        *uint          `gorm:"index" json:"buyer_id,omitempty"`
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at,omitempty"`
	UsedAt         *time.Time     `json:"used_at,omitempty"`
	UsedInOrderID  *uint          `gorm:"index" json:"used_in_order_id,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName table name
func (Coupon) TableName() string {
	return "coupons"
}

// IsExpiredAt reports whether the coupon is logically expired at the given time.
func (c *Coupon) IsExpiredAt(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return now.After(*c.ExpiresAt)
}
