package service

import (
	"strings"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"

	"github.com/shopspring/decimal"
)

// DiscountCouponService validates percent coupons against product sets and
// computes their discount amounts.
type DiscountCouponService struct {
	discountRepo repository.DiscountCouponRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewDiscountCouponService creates the percent coupon service.
func NewDiscountCouponService(discountRepo repository.DiscountCouponRepository, productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *DiscountCouponService {
	return &DiscountCouponService{
		discountRepo: discountRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// DiscountValidationResult validation outcome for one percent coupon.
type DiscountValidationResult struct {
	Code       string `json:"code"`
	Type       string `json:"type"`
	Percent    int    `json:"percent"`
	ProductIDs []uint `json:"product_ids,omitempty"`
}

// Validate checks a percent coupon against a set of candidate products.
// Every candidate must qualify; a single ineligible product fails the
// whole validation.
func (s *DiscountCouponService) Validate(code string, productIDs []uint) (*DiscountValidationResult, error) {
	coupon, err := s.resolveActive(code)
	if err != nil {
		return nil, err
	}

	if len(productIDs) == 0 {
		return nil, ErrNoEligibleItems
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return nil, err
	}
	if len(products) != len(dedupeIDs(productIDs)) {
		return nil, ErrProductNotFound
	}

	if err := s.checkProducts(coupon, products, time.Now()); err != nil {
		return nil, err
	}

	return &DiscountValidationResult{
		Code:       coupon.Code,
		Type:       coupon.Type,
		Percent:    coupon.Percent,
		ProductIDs: productIDs,
	}, nil
}

// ValidateForItems runs the same checks against order item snapshots during
// checkout and returns the coupon on success.
func (s *DiscountCouponService) ValidateForItems(code string, products []models.Product) (*models.DiscountCoupon, error) {
	coupon, err := s.resolveActive(code)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoEligibleItems
	}
	if err := s.checkProducts(coupon, products, time.Now()); err != nil {
		return nil, err
	}
	return coupon, nil
}

// ComputeDiscount applies the coupon percent over the eligible subtotal.
// The result is floored to the cent.
func (s *DiscountCouponService) ComputeDiscount(coupon *models.DiscountCoupon, subtotalCents int64) int64 {
	if coupon == nil || coupon.Percent <= 0 || subtotalCents <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotalCents).
		Mul(decimal.NewFromInt(int64(coupon.Percent))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

func (s *DiscountCouponService) resolveActive(code string) (*models.DiscountCoupon, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" || !IsValidCodeFormat(trimmed) {
		return nil, ErrDiscountCouponNotFound
	}
	coupon, err := s.discountRepo.GetByCode(trimmed)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrDiscountCouponNotFound
	}
	if !coupon.IsActive {
		return nil, ErrDiscountCouponInactive
	}
	if coupon.MaxUses != nil && coupon.CurrentUses >= *coupon.MaxUses {
		return nil, ErrDiscountCouponUsageLimit
	}

	now := time.Now()
	switch coupon.Type {
	case constants.DiscountCouponTypeRegular:
		// Regular coupons are valid whenever active; a window, when set,
		// still bounds them.
		if coupon.ValidFrom != nil && dayBefore(now, *coupon.ValidFrom) {
			return nil, ErrDiscountCouponNotStarted
		}
		if coupon.ValidUntil != nil && dayAfter(now, *coupon.ValidUntil) {
			return nil, ErrDiscountCouponExpired
		}
	case constants.DiscountCouponTypeAuction:
		// Auction coupons require a window; both boundary days count.
		if coupon.ValidFrom == nil || coupon.ValidUntil == nil {
			return nil, ErrAuctionWindowClosed
		}
		if dayBefore(now, *coupon.ValidFrom) {
			return nil, ErrDiscountCouponNotStarted
		}
		if dayAfter(now, *coupon.ValidUntil) {
			return nil, ErrDiscountCouponExpired
		}
	default:
		return nil, ErrDiscountCouponNotFound
	}
	return coupon, nil
}

func (s *DiscountCouponService) checkProducts(coupon *models.DiscountCoupon, products []models.Product, now time.Time) error {
	switch coupon.Type {
	case constants.DiscountCouponTypeAuction:
		for i := range products {
			if !products[i].IsAuction {
				return ErrAuctionProductRequired
			}
			if !products[i].AuctionWindowContains(now) {
				return ErrAuctionWindowClosed
			}
		}
		return nil
	case constants.DiscountCouponTypeRegular:
		return s.checkCategoryRules(coupon.Type, products)
	default:
		return ErrDiscountCouponNotFound
	}
}

// checkCategoryRules enforces per-category allow/forbid restrictions. When
// any ALLOW rule exists the allowed set is exclusive; FORBID rules exclude
// their categories outright.
func (s *DiscountCouponService) checkCategoryRules(couponType string, products []models.Product) error {
	restrictions, err := s.categoryRepo.ListRestrictions(couponType)
	if err != nil {
		return err
	}
	if len(restrictions) == 0 {
		return nil
	}

	allowed := make(map[uint]struct{})
	forbidden := make(map[uint]struct{})
	for _, rule := range restrictions {
		switch rule.Mode {
		case constants.CategoryRestrictionAllow:
			allowed[rule.CategoryID] = struct{}{}
		case constants.CategoryRestrictionForbid:
			forbidden[rule.CategoryID] = struct{}{}
		}
	}

	for i := range products {
		categoryID := uint(0)
		if products[i].CategoryID != nil {
			categoryID = *products[i].CategoryID
		}
		if _, bad := forbidden[categoryID]; bad {
			return ErrCategoryForbidden
		}
		if len(allowed) > 0 {
			if _, ok := allowed[categoryID]; !ok {
				return ErrCategoryForbidden
			}
		}
	}
	return nil
}

// dayBefore reports whether t falls on a day strictly before boundary.
func dayBefore(t, boundary time.Time) bool {
	return dateOnly(t).Before(dateOnly(boundary.In(t.Location())))
}

// dayAfter reports whether t falls on a day strictly after boundary.
func dayAfter(t, boundary time.Time) bool {
	return dateOnly(t).After(dateOnly(boundary.In(t.Location())))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
