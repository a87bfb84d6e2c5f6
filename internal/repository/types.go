package repository

import "time"

// ProductListFilter product listing filter
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   uint
	Search       string
	OnlyActive   bool
	OnlyAuction  bool
	WithCategory bool
}

// OrderListFilter order listing filter
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentListFilter payment listing filter
type PaymentListFilter struct {
	Page        int
	PageSize    int
	Kind        string
	Status      string
	OrderID     uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CouponListFilter value coupon listing filter
type CouponListFilter struct {
	Page     int
	PageSize int
	BuyerID  uint
	Status   string
}

// DiscountCouponListFilter percent coupon listing filter
type DiscountCouponListFilter struct {
	Page     int
	PageSize int
	Type     string
	IsActive *bool
}
