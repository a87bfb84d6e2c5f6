package service

import (
	"strings"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"
)

// CategoryService category reads and restriction management.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryService creates the category service.
func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// List returns all categories ordered by sort order.
func (s *CategoryService) List() ([]models.Category, error) {
	return s.categoryRepo.List()
}

// Get returns one category.
func (s *CategoryService) Get(id uint) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Create inserts a category.
func (s *CategoryService) Create(category *models.Category) error {
	now := time.Now()
	category.CreatedAt = now
	return s.categoryRepo.Create(category)
}

// Update saves a category.
func (s *CategoryService) Update(category *models.Category) error {
	return s.categoryRepo.Update(category)
}

// Delete soft-deletes a category.
func (s *CategoryService) Delete(id uint) error {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return s.categoryRepo.Delete(id)
}

// SetRestriction records a per-category allow/forbid rule for a coupon type.
func (s *CategoryService) SetRestriction(categoryID uint, couponType, mode string) error {
	couponType = strings.ToLower(strings.TrimSpace(couponType))
	mode = strings.ToLower(strings.TrimSpace(mode))
	if couponType != constants.DiscountCouponTypeRegular && couponType != constants.DiscountCouponTypeAuction {
		return ErrDiscountCouponNotFound
	}
	if mode != constants.CategoryRestrictionAllow && mode != constants.CategoryRestrictionForbid {
		return ErrCategoryNotFound
	}
	category, err := s.categoryRepo.GetByID(categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return s.categoryRepo.UpsertRestriction(&models.CategoryRestriction{
		CategoryID: categoryID,
		CouponType: couponType,
		Mode:       mode,
	})
}

// ClearRestriction removes a restriction rule.
func (s *CategoryService) ClearRestriction(categoryID uint, couponType string) error {
	return s.categoryRepo.DeleteRestriction(categoryID, strings.ToLower(strings.TrimSpace(couponType)))
}
