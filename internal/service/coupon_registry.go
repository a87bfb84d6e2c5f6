package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"
)

const couponCodeLength = 10

var couponCodeAlphabet = []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")

// Codes are uppercase alphanumeric with an optional numeric batch suffix,
// e.g. SONHO50ABC or SONHO50ABC-003.
var couponCodePattern = regexp.MustCompile(`^[A-Z0-9]+(-[0-9]{1,4})?$`)

// CouponRegistry exposes the purchasable value coupon tiers and mints codes.
type CouponRegistry struct {
	tiers      []config.CouponTier
	couponRepo repository.CouponRepository
}

// NewCouponRegistry creates the registry from the configured tiers.
func NewCouponRegistry(tiers []config.CouponTier, couponRepo repository.CouponRepository) *CouponRegistry {
	return &CouponRegistry{tiers: tiers, couponRepo: couponRepo}
}

// Tiers returns all configured tiers.
func (r *CouponRegistry) Tiers() []config.CouponTier {
	return r.tiers
}

// FindBySlug looks up one tier by slug.
func (r *CouponRegistry) FindBySlug(slug string) (*config.CouponTier, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for i := range r.tiers {
		if r.tiers[i].Slug == slug {
			return &r.tiers[i], nil
		}
	}
	return nil, ErrCouponTierNotFound
}

// FindBySalePriceCents looks up one tier by its sale price. Used by the
// webhook fallback branch when a payment carries no recognizable reference.
func (r *CouponRegistry) FindBySalePriceCents(cents int64) *config.CouponTier {
	for i := range r.tiers {
		if r.tiers[i].SalePriceCents == cents {
			return &r.tiers[i]
		}
	}
	return nil
}

// IsValidCodeFormat reports whether a code matches the coupon code format.
func IsValidCodeFormat(code string) bool {
	return couponCodePattern.MatchString(strings.TrimSpace(code))
}

// MintCode generates an unused coupon code. The batch suffix is appended
// only when batch > 0.
func (r *CouponRegistry) MintCode(batch int) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := randomCode(couponCodeLength)
		if err != nil {
			return "", err
		}
		if batch > 0 {
			code = fmt.Sprintf("%s-%03d", code, batch)
		}
		exists, err := r.couponRepo.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("mint coupon code: exhausted attempts")
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(couponCodeAlphabet)))
	runes := make([]rune, length)
	for i := range runes {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		runes[i] = couponCodeAlphabet[n.Int64()]
	}
	return string(runes), nil
}
