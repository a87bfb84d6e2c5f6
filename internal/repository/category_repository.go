package repository

import (
	"errors"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository category data access interface
type CategoryRepository interface {
	GetByID(id uint) (*models.Category, error)
	List() ([]models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	Delete(id uint) error
	ListRestrictions(couponType string) ([]models.CategoryRestriction, error)
	UpsertRestriction(restriction *models.CategoryRestriction) error
	DeleteRestriction(categoryID uint, couponType string) error
}

// GormCategoryRepository GORM implementation
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates the category repository
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// GetByID fetches a category by id
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// List returns all categories ordered by sort weight
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("sort_order asc, id asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create inserts a category
func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// Update saves a category
func (r *GormCategoryRepository) Update(category *models.Category) error {
	return r.db.Save(category).Error
}

// Delete removes a category
func (r *GormCategoryRepository) Delete(id uint) error {
	return r.db.Delete(&models.Category{}, id).Error
}

// ListRestrictions returns the allow/forbid rules for a coupon type
func (r *GormCategoryRepository) ListRestrictions(couponType string) ([]models.CategoryRestriction, error) {
	var restrictions []models.CategoryRestriction
	if err := r.db.Where("coupon_type = ?", couponType).Find(&restrictions).Error; err != nil {
		return nil, err
	}
	return restrictions, nil
}

// UpsertRestriction creates or replaces a category restriction rule
func (r *GormCategoryRepository) UpsertRestriction(restriction *models.CategoryRestriction) error {
	var existing models.CategoryRestriction
	err := r.db.Where("category_id = ? AND coupon_type = ?", restriction.CategoryID, restriction.CouponType).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.Create(restriction).Error
		}
		return err
	}
	existing.Mode = restriction.Mode
	return r.db.Save(&existing).Error
}

// DeleteRestriction removes a category restriction rule
func (r *GormCategoryRepository) DeleteRestriction(categoryID uint, couponType string) error {
	return r.db.Where("category_id = ? AND coupon_type = ?", categoryID, couponType).
		Delete(&models.CategoryRestriction{}).Error
}
