package models

import "time"

// CategoryRestriction allow/forbid rule binding a category to a discount
// coupon type. ALLOW rules whitelist categories; FORBID rules blacklist them.
type CategoryRestriction struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CategoryID uint      `gorm:"index:idx_restriction_category_type,unique;not null" json:"category_id"`
	CouponType string    `gorm:"index:idx_restriction_category_type,unique;type:varchar(20);not null" json:"coupon_type"`
	Mode       string    `gorm:"type:varchar(10);not null" json:"mode"` // allow / forbid
	CreatedAt  time.Time `json:"created_at"`
}

// TableName table name
func (CategoryRestriction) TableName() string {
	return "category_restrictions"
}
