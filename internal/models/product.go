package models

import (
	"time"

	"gorm.io/gorm"
)

// Product catalog product table
type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CategoryID   *uint          `gorm:"index" json:"category_id,omitempty"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	PriceCents   int64          `gorm:"not null;default:0" json:"price_cents"`
	Stock        int            `gorm:"not null;default:0" json:"stock"`
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`
	IsAuction    bool           `gorm:"default:false;index" json:"is_auction"` // eligible for auction discount coupons
	AuctionStart *time.Time     `json:"auction_start,omitempty"`
	AuctionEnd   *time.Time     `json:"auction_end,omitempty"`
	SortOrder    int            `gorm:"default:0;index" json:"sort_order"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName table name
func (Product) TableName() string {
	return "products"
}

// AuctionWindowContains reports whether the given day falls inside the
// auction window. Comparison is date-level and inclusive on both ends.
func (p *Product) AuctionWindowContains(day time.Time) bool {
	if p == nil || !p.IsAuction || p.AuctionStart == nil || p.AuctionEnd == nil {
		return false
	}
	y, m, d := day.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	sy, sm, sd := p.AuctionStart.Date()
	start := time.Date(sy, sm, sd, 0, 0, 0, 0, day.Location())
	ey, em, ed := p.AuctionEnd.Date()
	end := time.Date(ey, em, ed, 0, 0, 0, 0, day.Location())
	return !today.Before(start) && !today.After(end)
}
