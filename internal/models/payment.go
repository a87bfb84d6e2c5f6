package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment one row per external provider payment id. The unique index on
// external_id is the idempotency guard for webhook processing: a second
// notification for the same id finds this row and becomes a no-op.
type Payment struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	ExternalID  string         `gorm:"uniqueIndex;not null" json:"external_id"`
	Provider    string         `gorm:"type:varchar(30);not null;default:'mercadopago'" json:"provider"`
	Kind        string         `gorm:"type:varchar(30);not null;index" json:"kind"` // coupon_purchase / order_payment
	Reference   string         `gorm:"type:varchar(128);index" json:"reference"`
	AmountCents int64          `gorm:"not null;default:0" json:"amount_cents"`
	Status      string         `gorm:"type:varchar(20);not null;index" json:"status"` // pending / approved / rejected
	Method      string         `gorm:"type:varchar(40)" json:"method,omitempty"`
	OrderID     *uint          `gorm:"index" json:"order_id,omitempty"`
	CouponID    *uint          `gorm:"index" json:"coupon_id,omitempty"`
	RawPayload  JSON           `gorm:"type:json" json:"-"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName table name
func (Payment) TableName() string {
	return "payments"
}
