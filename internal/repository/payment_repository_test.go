package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPaymentRepositoryTest(t *testing.T) (*GormPaymentRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Coupon{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewPaymentRepository(db), db
}

func TestPaymentRepositoryGetByExternalID(t *testing.T) {
	repo, db := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	payment := models.Payment{
		ExternalID:  "mp-1001",
		Provider:    constants.PaymentProviderMercadoPago,
		Kind:        constants.PaymentKindOrderPayment,
		Reference:   "PD-1-abc",
		AmountCents: 7000,
		Status:      constants.PaymentStatusApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	got, err := repo.GetByExternalID("mp-1001")
	if err != nil {
		t.Fatalf("get by external id failed: %v", err)
	}
	if got == nil || got.ID != payment.ID {
		t.Fatalf("unexpected payment: %+v", got)
	}

	missing, err := repo.GetByExternalID("mp-nope")
	if err != nil {
		t.Fatalf("get missing external id failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown external id, got %+v", missing)
	}
}

func TestPaymentRepositoryExternalIDUnique(t *testing.T) {
	repo, db := setupPaymentRepositoryTest(t)
	_ = repo
	now := time.Now().UTC().Truncate(time.Second)

	first := models.Payment{
		ExternalID:  "mp-dup",
		Provider:    constants.PaymentProviderMercadoPago,
		Kind:        constants.PaymentKindCouponPurchase,
		AmountCents: 1000,
		Status:      constants.PaymentStatusApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("create first payment failed: %v", err)
	}

	second := models.Payment{
		ExternalID:  "mp-dup",
		Provider:    constants.PaymentProviderMercadoPago,
		Kind:        constants.PaymentKindCouponPurchase,
		AmountCents: 1000,
		Status:      constants.PaymentStatusApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&second).Error; err == nil {
		t.Fatalf("expected unique constraint violation for duplicate external id")
	}
}

func TestCouponRepositoryMarkUsedOnlyOnce(t *testing.T) {
	_, db := setupPaymentRepositoryTest(t)
	repo := NewCouponRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	coupon := models.Coupon{
		Code:           "SONHO5000",
		FaceValueCents: 5000,
		SalePriceCents: 1000,
		Status:         constants.CouponStatusAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	affected, err := repo.MarkUsed(coupon.ID, 42)
	if err != nil {
		t.Fatalf("mark used failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first mark used affected want 1 got %d", affected)
	}

	affected, err = repo.MarkUsed(coupon.ID, 43)
	if err != nil {
		t.Fatalf("second mark used failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second mark used affected want 0 got %d", affected)
	}

	got, err := repo.GetByID(coupon.ID)
	if err != nil {
		t.Fatalf("get coupon failed: %v", err)
	}
	if got.Status != constants.CouponStatusUsed {
		t.Fatalf("status want used got %s", got.Status)
	}
	if got.UsedInOrderID == nil || *got.UsedInOrderID != 42 {
		t.Fatalf("used_in_order_id want 42 got %+v", got.UsedInOrderID)
	}
}
