package models

import "time"

// CartItem per-user cart row
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index:idx_cart_user_product,unique;not null" json:"user_id"`
	ProductID uint      `gorm:"index:idx_cart_user_product,unique;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName table name
func (CartItem) TableName() string {
	return "cart_items"
}
