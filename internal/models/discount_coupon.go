package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountCoupon percent-off coupon. REGULAR coupons are always valid while
// active; AUCTION coupons are bound to a date window and auction products.
type DiscountCoupon struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Code        string         `gorm:"uniqueIndex;not null" json:"code"`
	Type        string         `gorm:"type:varchar(20);not null;index" json:"type"` // regular / auction
	Percent     int            `gorm:"not null" json:"percent"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	ValidFrom   *time.Time     `json:"valid_from,omitempty"`
	ValidUntil  *time.Time     `json:"valid_until,omitempty"`
	MaxUses     *int           `json:"max_uses,omitempty"`
	CurrentUses int            `gorm:"not null;default:0" json:"current_uses"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName table name
func (DiscountCoupon) TableName() string {
	return "discount_coupons"
}
