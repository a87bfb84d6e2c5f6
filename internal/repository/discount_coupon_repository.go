package repository

import (
	"errors"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"

	"gorm.io/gorm"
)

// DiscountCouponRepository percent coupon data access interface
type DiscountCouponRepository interface {
	GetByID(id uint) (*models.DiscountCoupon, error)
	GetByCode(code string) (*models.DiscountCoupon, error)
	List(filter DiscountCouponListFilter) ([]models.DiscountCoupon, int64, error)
	Create(coupon *models.DiscountCoupon) error
	Update(coupon *models.DiscountCoupon) error
	Delete(id uint) error
	IncrementUses(id uint) error
	GetUseByOrder(orderID uint) (*models.DiscountCouponUse, error)
	CreateUse(use *models.DiscountCouponUse) error
	WithTx(tx *gorm.DB) *GormDiscountCouponRepository
}

// GormDiscountCouponRepository GORM implementation
type GormDiscountCouponRepository struct {
	db *gorm.DB
}

// NewDiscountCouponRepository creates the percent coupon repository
func NewDiscountCouponRepository(db *gorm.DB) *GormDiscountCouponRepository {
	return &GormDiscountCouponRepository{db: db}
}

// WithTx binds a transaction
func (r *GormDiscountCouponRepository) WithTx(tx *gorm.DB) *GormDiscountCouponRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountCouponRepository{db: tx}
}

// GetByID fetches a percent coupon by id
func (r *GormDiscountCouponRepository) GetByID(id uint) (*models.DiscountCoupon, error) {
	var coupon models.DiscountCoupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode fetches a percent coupon by code
func (r *GormDiscountCouponRepository) GetByCode(code string) (*models.DiscountCoupon, error) {
	var coupon models.DiscountCoupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// List returns a filtered percent coupon page
func (r *GormDiscountCouponRepository) List(filter DiscountCouponListFilter) ([]models.DiscountCoupon, int64, error) {
	var coupons []models.DiscountCoupon
	query := r.db.Model(&models.DiscountCoupon{})

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// Create inserts a percent coupon
func (r *GormDiscountCouponRepository) Create(coupon *models.DiscountCoupon) error {
	return r.db.Create(coupon).Error
}

// Update saves a percent coupon
func (r *GormDiscountCouponRepository) Update(coupon *models.DiscountCoupon) error {
	return r.db.Save(coupon).Error
}

// Delete soft-deletes a percent coupon
func (r *GormDiscountCouponRepository) Delete(id uint) error {
	return r.db.Delete(&models.DiscountCoupon{}, id).Error
}

// IncrementUses bumps current_uses by one
func (r *GormDiscountCouponRepository) IncrementUses(id uint) error {
	return r.db.Model(&models.DiscountCoupon{}).
		Where("id = ?", id).
		UpdateColumn("current_uses", gorm.Expr("current_uses + ?", 1)).Error
}

// GetUseByOrder fetches the percent coupon application for an order
func (r *GormDiscountCouponRepository) GetUseByOrder(orderID uint) (*models.DiscountCouponUse, error) {
	var use models.DiscountCouponUse
	if err := r.db.Where("order_id = ?", orderID).First(&use).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &use, nil
}

// CreateUse records a percent coupon application
func (r *GormDiscountCouponRepository) CreateUse(use *models.DiscountCouponUse) error {
	return r.db.Create(use).Error
}
