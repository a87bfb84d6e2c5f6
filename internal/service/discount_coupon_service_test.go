package service

import (
	"testing"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"

	"gorm.io/gorm"
)

func newDiscountService(db *gorm.DB) *DiscountCouponService {
	return NewDiscountCouponService(
		repository.NewDiscountCouponRepository(db),
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
	)
}

func seedCatalogProduct(t *testing.T, db *gorm.DB, product *models.Product) *models.Product {
	t.Helper()
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return product
}

func TestDiscountCouponComputeDiscount(t *testing.T) {
	svc := newDiscountService(setupServiceDB(t))

	coupon := &models.DiscountCoupon{Percent: 25}
	if got := svc.ComputeDiscount(coupon, 10000); got != 2500 {
		t.Fatalf("expected 2500, got %d", got)
	}
	// Fractions floor to the cent.
	if got := svc.ComputeDiscount(&models.DiscountCoupon{Percent: 33}, 101); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
	if got := svc.ComputeDiscount(nil, 10000); got != 0 {
		t.Fatalf("expected 0 for nil coupon, got %d", got)
	}
	if got := svc.ComputeDiscount(coupon, 0); got != 0 {
		t.Fatalf("expected 0 for empty subtotal, got %d", got)
	}
}

func TestDiscountCouponValidateRegular(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDiscountService(db)

	product := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 10000, Stock: 5, IsActive: true,
	})
	coupon := &models.DiscountCoupon{Code: "SONHOS25", Type: constants.DiscountCouponTypeRegular, Percent: 25, IsActive: true}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	result, err := svc.Validate("sonhos25", []uint{product.ID})
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Percent != 25 || result.Type != constants.DiscountCouponTypeRegular {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := svc.Validate("SONHOS25", nil); err != ErrNoEligibleItems {
		t.Fatalf("expected ErrNoEligibleItems, got %v", err)
	}
	if _, err := svc.Validate("SONHOS25", []uint{product.ID, product.ID + 50}); err != ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.Validate("NAOEXISTE1", []uint{product.ID}); err != ErrDiscountCouponNotFound {
		t.Fatalf("expected ErrDiscountCouponNotFound, got %v", err)
	}
}

func TestDiscountCouponValidateStateGuards(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDiscountService(db)

	product := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 10000, Stock: 5, IsActive: true,
	})

	maxUses := 2
	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)
	seed := []models.DiscountCoupon{
		{Code: "INATIVO100", Type: constants.DiscountCouponTypeRegular, Percent: 10, IsActive: false},
		{Code: "ESGOTADO10", Type: constants.DiscountCouponTypeRegular, Percent: 10, IsActive: true, MaxUses: &maxUses, CurrentUses: 2},
		{Code: "FUTURO1000", Type: constants.DiscountCouponTypeRegular, Percent: 10, IsActive: true, ValidFrom: &tomorrow},
		{Code: "PASSADO100", Type: constants.DiscountCouponTypeRegular, Percent: 10, IsActive: true, ValidUntil: &yesterday},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed coupon failed: %v", err)
		}
	}

	cases := []struct {
		code string
		want error
	}{
		{"INATIVO100", ErrDiscountCouponInactive},
		{"ESGOTADO10", ErrDiscountCouponUsageLimit},
		{"FUTURO1000", ErrDiscountCouponNotStarted},
		{"PASSADO100", ErrDiscountCouponExpired},
	}
	for _, tc := range cases {
		if _, err := svc.Validate(tc.code, []uint{product.ID}); err != tc.want {
			t.Fatalf("code %s: expected %v, got %v", tc.code, tc.want, err)
		}
	}
}

func TestDiscountCouponValidateBoundaryDayInclusive(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDiscountService(db)

	product := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 10000, Stock: 5, IsActive: true,
	})

	// A window closing today still admits the coupon; day comparison is
	// inclusive on both ends.
	y, m, d := time.Now().Date()
	startOfToday := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	coupon := &models.DiscountCoupon{
		Code:       "HOJE100000",
		Type:       constants.DiscountCouponTypeRegular,
		Percent:    15,
		IsActive:   true,
		ValidFrom:  &startOfToday,
		ValidUntil: &startOfToday,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	if _, err := svc.Validate("HOJE100000", []uint{product.ID}); err != nil {
		t.Fatalf("expected boundary day to validate, got %v", err)
	}
}

func TestDiscountCouponCategoryRestrictions(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDiscountService(db)

	allowedCat := models.Category{Slug: "eletronicos", Name: "Eletrônicos"}
	forbiddenCat := models.Category{Slug: "leiloes", Name: "Leilões"}
	if err := db.Create(&allowedCat).Error; err != nil {
		t.Fatalf("seed category failed: %v", err)
	}
	if err := db.Create(&forbiddenCat).Error; err != nil {
		t.Fatalf("seed category failed: %v", err)
	}

	okProduct := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 10000, Stock: 5, IsActive: true, CategoryID: &allowedCat.ID,
	})
	badProduct := seedCatalogProduct(t, db, &models.Product{
		Slug: "lote", Title: "Lote", PriceCents: 50000, Stock: 1, IsActive: true, CategoryID: &forbiddenCat.ID,
	})

	coupon := &models.DiscountCoupon{Code: "REGRAS1000", Type: constants.DiscountCouponTypeRegular, Percent: 10, IsActive: true}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	rule := models.CategoryRestriction{
		CategoryID: forbiddenCat.ID,
		CouponType: constants.DiscountCouponTypeRegular,
		Mode:       constants.CategoryRestrictionForbid,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("seed restriction failed: %v", err)
	}

	if _, err := svc.Validate("REGRAS1000", []uint{okProduct.ID}); err != nil {
		t.Fatalf("expected allowed product to validate, got %v", err)
	}
	// One forbidden product fails the whole set.
	if _, err := svc.Validate("REGRAS1000", []uint{okProduct.ID, badProduct.ID}); err != ErrCategoryForbidden {
		t.Fatalf("expected ErrCategoryForbidden, got %v", err)
	}

	// An ALLOW rule makes the allowed set exclusive.
	allowRule := models.CategoryRestriction{
		CategoryID: allowedCat.ID,
		CouponType: constants.DiscountCouponTypeRegular,
		Mode:       constants.CategoryRestrictionAllow,
	}
	if err := db.Create(&allowRule).Error; err != nil {
		t.Fatalf("seed restriction failed: %v", err)
	}
	uncategorized := seedCatalogProduct(t, db, &models.Product{
		Slug: "avulso", Title: "Avulso", PriceCents: 2000, Stock: 9, IsActive: true,
	})
	if _, err := svc.Validate("REGRAS1000", []uint{uncategorized.ID}); err != ErrCategoryForbidden {
		t.Fatalf("expected ErrCategoryForbidden outside allow list, got %v", err)
	}
	if _, err := svc.Validate("REGRAS1000", []uint{okProduct.ID}); err != nil {
		t.Fatalf("expected allow-listed product to validate, got %v", err)
	}
}

func TestDiscountCouponValidateAuction(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDiscountService(db)

	now := time.Now()
	windowStart := now.AddDate(0, 0, -1)
	windowEnd := now.AddDate(0, 0, 1)
	closedEnd := now.AddDate(0, 0, -1)
	closedStart := now.AddDate(0, 0, -5)

	auctionLive := seedCatalogProduct(t, db, &models.Product{
		Slug: "lote-tv", Title: "Lote TV", PriceCents: 189900, Stock: 1, IsActive: true,
		IsAuction: true, AuctionStart: &windowStart, AuctionEnd: &windowEnd,
	})
	auctionBoundary := seedCatalogProduct(t, db, &models.Product{
		Slug: "lote-hoje", Title: "Lote Hoje", PriceCents: 99900, Stock: 1, IsActive: true,
		IsAuction: true, AuctionStart: &now, AuctionEnd: &now,
	})
	auctionClosed := seedCatalogProduct(t, db, &models.Product{
		Slug: "lote-fim", Title: "Lote Encerrado", PriceCents: 59900, Stock: 1, IsActive: true,
		IsAuction: true, AuctionStart: &closedStart, AuctionEnd: &closedEnd,
	})
	ordinary := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 10000, Stock: 5, IsActive: true,
	})

	coupon := &models.DiscountCoupon{
		Code: "LEILAO5000", Type: constants.DiscountCouponTypeAuction, Percent: 50, IsActive: true,
		ValidFrom: &windowStart, ValidUntil: &windowEnd,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}
	noWindow := &models.DiscountCoupon{
		Code: "SEMJANELA1", Type: constants.DiscountCouponTypeAuction, Percent: 50, IsActive: true,
	}
	if err := db.Create(noWindow).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	if _, err := svc.Validate("LEILAO5000", []uint{auctionLive.ID}); err != nil {
		t.Fatalf("expected live auction lot to validate, got %v", err)
	}
	// Product windows are day-inclusive on both ends.
	if _, err := svc.Validate("LEILAO5000", []uint{auctionBoundary.ID}); err != nil {
		t.Fatalf("expected boundary-day lot to validate, got %v", err)
	}
	if _, err := svc.Validate("LEILAO5000", []uint{auctionClosed.ID}); err != ErrAuctionWindowClosed {
		t.Fatalf("expected ErrAuctionWindowClosed, got %v", err)
	}
	if _, err := svc.Validate("LEILAO5000", []uint{ordinary.ID}); err != ErrAuctionProductRequired {
		t.Fatalf("expected ErrAuctionProductRequired, got %v", err)
	}
	if _, err := svc.Validate("LEILAO5000", []uint{auctionLive.ID, ordinary.ID}); err != ErrAuctionProductRequired {
		t.Fatalf("expected mixed set to fail, got %v", err)
	}
	if _, err := svc.Validate("SEMJANELA1", []uint{auctionLive.ID}); err != ErrAuctionWindowClosed {
		t.Fatalf("expected windowless auction coupon to fail, got %v", err)
	}
}
