package repository

import (
	"errors"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"

	"gorm.io/gorm"
)

// CartRepository cart data access interface
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	GetItem(userID, productID uint) (*models.CartItem, error)
	Upsert(item *models.CartItem) error
	DeleteItem(userID, productID uint) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM implementation
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates the cart repository
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx binds a transaction
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser returns the user's cart rows with products preloaded
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem fetches one cart row
func (r *GormCartRepository) GetItem(userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Upsert creates or updates a cart row
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	existing, err := r.GetItem(item.UserID, item.ProductID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(item).Error
	}
	existing.Quantity = item.Quantity
	return r.db.Save(existing).Error
}

// DeleteItem removes one cart row
func (r *GormCartRepository) DeleteItem(userID, productID uint) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.CartItem{}).Error
}

// ClearByUser removes all cart rows for a user
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
