package repository

import (
	"errors"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"

	"gorm.io/gorm"
)

// CouponRepository value coupon data access interface
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	CodeExists(code string) (bool, error)
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	MarkUsed(id uint, orderID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// GormCouponRepository GORM implementation
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository creates the value coupon repository
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx binds a transaction
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByID fetches a coupon by id
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode fetches a coupon by code
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// CodeExists reports whether a code is already taken
func (r *GormCouponRepository) CodeExists(code string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Coupon{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns a filtered coupon page
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	query := r.db.Model(&models.Coupon{})

	if filter.BuyerID > 0 {
		query = query.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

// Create inserts a coupon
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// Update saves a coupon
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Save(coupon).Error
}

// MarkUsed flips an AVAILABLE coupon to USED in a single guarded update.
// Returns affected rows; 0 means the coupon was already consumed by a
// concurrent request.
func (r *GormCouponRepository) MarkUsed(id uint, orderID uint) (int64, error) {
	now := time.Now()
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND status = ?", id, constants.CouponStatusAvailable).
		Updates(map[string]interface{}{
			"status":           constants.CouponStatusUsed,
			"used_at":          now,
			"used_in_order_id": orderID,
		})
	return result.RowsAffected, result.Error
}
