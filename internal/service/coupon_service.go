package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/logger"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/payment/mercadopago"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CouponService manages purchasable value coupons and their lifecycle.
type CouponService struct {
	couponRepo repository.CouponRepository
	orderRepo  repository.OrderRepository
	registry   *CouponRegistry
	cfg        *config.Config
}

// NewCouponService creates the coupon service.
func NewCouponService(couponRepo repository.CouponRepository, orderRepo repository.OrderRepository, registry *CouponRegistry, cfg *config.Config) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		orderRepo:  orderRepo,
		registry:   registry,
		cfg:        cfg,
	}
}

// CouponValidationResult validation outcome for one value coupon.
type CouponValidationResult struct {
	Code           string     `json:"code"`
	FaceValueCents int64      `json:"face_value_cents"`
	Status         string     `json:"status"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// CouponPurchaseResult created checkout for one coupon tier.
type CouponPurchaseResult struct {
	TierSlug       string `json:"tier_slug"`
	FaceValueCents int64  `json:"face_value_cents"`
	SalePriceCents int64  `json:"sale_price_cents"`
	Reference      string `json:"reference"`
	PreferenceID   string `json:"preference_id"`
	CheckoutURL    string `json:"checkout_url"`
}

// Validate checks a coupon code for redeemability without consuming it.
func (s *CouponService) Validate(code string) (*CouponValidationResult, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" || !IsValidCodeFormat(trimmed) {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	result := &CouponValidationResult{
		Code:           coupon.Code,
		FaceValueCents: coupon.FaceValueCents,
		Status:         coupon.Status,
		ExpiresAt:      coupon.ExpiresAt,
	}
	if coupon.Status != constants.CouponStatusAvailable {
		if coupon.Status == constants.CouponStatusExpired {
			return result, ErrCouponExpired
		}
		return result, ErrCouponNotAvailable
	}
	if coupon.IsExpiredAt(time.Now()) {
		result.Status = constants.CouponStatusExpired
		return result, ErrCouponExpired
	}
	return result, nil
}

// Purchase creates a provider checkout for one coupon tier. The coupon row
// itself is only minted once the provider reports the payment approved.
func (s *CouponService) Purchase(ctx context.Context, userID uint, tierSlug string, payerEmail string) (*CouponPurchaseResult, error) {
	tier, err := s.registry.FindBySlug(tierSlug)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("%s%d-%s", constants.ReferencePrefixCouponPurchase, userID, uuid.NewString())
	created, err := mercadopago.CreatePreference(ctx, providerConfig(s.cfg.Payment), mercadopago.CreateInput{
		ExternalReference: reference,
		Currency:          constants.SiteCurrencyDefault,
		PayerEmail:        payerEmail,
		Items: []mercadopago.PreferenceItem{
			{
				Title:          fmt.Sprintf("Cupom %s", tier.Slug),
				Quantity:       1,
				UnitPriceCents: tier.SalePriceCents,
			},
		},
	})
	if err != nil {
		couponLogger("user_id", userID, "tier_slug", tier.Slug).Errorw("coupon_purchase_preference_failed", "error", err)
		return nil, ErrExternalProvider
	}

	couponLogger("user_id", userID, "tier_slug", tier.Slug, "reference", reference).
		Infow("coupon_purchase_preference_created", "preference_id", created.PreferenceID)

	return &CouponPurchaseResult{
		TierSlug:       tier.Slug,
		FaceValueCents: tier.FaceValueCents,
		SalePriceCents: tier.SalePriceCents,
		Reference:      reference,
		PreferenceID:   created.PreferenceID,
		CheckoutURL:    created.InitPoint,
	}, nil
}

// MintPurchased creates the coupon row for an approved coupon purchase.
// Runs inside the webhook transaction.
func (s *CouponService) MintPurchased(tx *gorm.DB, tier *config.CouponTier, buyerID *uint) (*models.Coupon, error) {
	code, err := s.registry.MintCode(0)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var expiresAt *time.Time
	if tier.ValidityDays > 0 {
		expiry := now.AddDate(0, 0, tier.ValidityDays)
		expiresAt = &expiry
	}
	coupon := &models.Coupon{
		Code:           code,
		FaceValueCents: tier.FaceValueCents,
		SalePriceCents: tier.SalePriceCents,
		Status:         constants.CouponStatusAvailable,
		BuyerID:        buyerID,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.couponRepo.WithTx(tx).Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// ApplyToOrder redeems a value coupon against a pending order. The whole
// application runs in one transaction: the coupon must be available and
// unexpired, and the order must not carry any discount yet.
func (s *CouponService) ApplyToOrder(userID uint, orderID uint, code string) (*models.Order, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" || !IsValidCodeFormat(trimmed) {
		return nil, ErrCouponNotFound
	}

	log := couponLogger("user_id", userID, "order_id", orderID, "code", trimmed)

	var applied *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		couponRepo := s.couponRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		coupon, err := couponRepo.GetByCode(trimmed)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponNotFound
		}
		if coupon.Status != constants.CouponStatusAvailable {
			if coupon.Status == constants.CouponStatusExpired {
				return ErrCouponExpired
			}
			return ErrCouponNotAvailable
		}
		if coupon.IsExpiredAt(time.Now()) {
			return ErrCouponExpired
		}

		order, err := orderRepo.GetByIDWithItems(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.UserID != userID {
			return ErrOrderAccessDenied
		}
		if order.Status != constants.OrderStatusPending {
			return ErrOrderNotPending
		}
		if order.DiscountCents != 0 {
			return ErrDiscountAlreadySet
		}

		affected, err := couponRepo.MarkUsed(coupon.ID, order.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCouponNotAvailable
		}

		order.CouponCode = coupon.Code
		order.DiscountCents = coupon.FaceValueCents
		order.FinalCents = finalCents(order.TotalCents, order.DiscountCents, order.ShippingCents)
		order.UpdatedAt = time.Now()
		// The write re-checks the guard: a concurrent application that read
		// discount_cents == 0 loses here, and its MarkUsed rolls back with
		// the transaction.
		updated, err := orderRepo.SetDiscountIfUnset(order.ID, order.CouponCode, order.DiscountCents, order.FinalCents)
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if updated == 0 {
			return ErrDiscountAlreadySet
		}
		applied = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infow("coupon_applied_to_order",
		"discount_cents", applied.DiscountCents,
		"final_cents", applied.FinalCents,
	)
	return applied, nil
}

// ListByBuyer returns the buyer's coupons, most recent first.
func (s *CouponService) ListByBuyer(userID uint, page, pageSize int) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(repository.CouponListFilter{
		BuyerID:  userID,
		Page:     page,
		PageSize: pageSize,
	})
}

// ExpireOverdue flips past-expiry AVAILABLE coupons to EXPIRED. Called by
// the periodic reconcile sweep.
func (s *CouponService) ExpireOverdue() (int64, error) {
	result := models.DB.Model(&models.Coupon{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", constants.CouponStatusAvailable, time.Now()).
		Update("status", constants.CouponStatusExpired)
	return result.RowsAffected, result.Error
}

// MintBatch mints a batch of coupons of one tier without a purchase,
// for offline distribution. Batch numbering shows up as a code suffix.
func (s *CouponService) MintBatch(tierSlug string, count, batch int) ([]models.Coupon, error) {
	if count <= 0 || count > 500 {
		return nil, fmt.Errorf("mint batch: count out of range: %d", count)
	}
	tier, err := s.registry.FindBySlug(tierSlug)
	if err != nil {
		return nil, err
	}

	coupons := make([]models.Coupon, 0, count)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < count; i++ {
			code, err := s.registry.MintCode(batch)
			if err != nil {
				return err
			}
			now := time.Now()
			var expiresAt *time.Time
			if tier.ValidityDays > 0 {
				expiry := now.AddDate(0, 0, tier.ValidityDays)
				expiresAt = &expiry
			}
			coupon := models.Coupon{
				Code:           code,
				FaceValueCents: tier.FaceValueCents,
				SalePriceCents: tier.SalePriceCents,
				Status:         constants.CouponStatusAvailable,
				ExpiresAt:      expiresAt,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.couponRepo.WithTx(tx).Create(&coupon); err != nil {
				return err
			}
			coupons = append(coupons, coupon)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	couponLogger("tier", tier.Slug, "count", len(coupons)).Infow("coupon_batch_minted")
	return coupons, nil
}

// finalCents computes the amount charged: the discount never drives the
// goods total below zero, and shipping is added afterwards.
func finalCents(totalCents, discountCents, shippingCents int64) int64 {
	goods := totalCents - discountCents
	if goods < 0 {
		goods = 0
	}
	return goods + shippingCents
}

func couponLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}
