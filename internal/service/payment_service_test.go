package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"

	"gorm.io/gorm"
)

type providerPaymentStub struct {
	Status            string
	ExternalReference string
	Amount            float64
}

// newWebhookStub serves the payment and merchant order lookup endpoints the
// reconciler fetches during webhook processing.
func newWebhookStub(t *testing.T, payments map[string]providerPaymentStub, merchantOrders map[string][]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/payments/search":
			reference := r.URL.Query().Get("external_reference")
			results := make([]map[string]interface{}, 0)
			for id, stub := range payments {
				if stub.ExternalReference == reference {
					results = append(results, map[string]interface{}{"id": id})
				}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
		case strings.HasPrefix(r.URL.Path, "/v1/payments/"):
			id := strings.TrimPrefix(r.URL.Path, "/v1/payments/")
			stub, ok := payments[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":                 id,
				"status":             stub.Status,
				"external_reference": stub.ExternalReference,
				"transaction_amount": stub.Amount,
				"payment_method_id":  "pix",
				"date_approved":      time.Now().Format(time.RFC3339),
			})
		case strings.HasPrefix(r.URL.Path, "/merchant_orders/"):
			id := strings.TrimPrefix(r.URL.Path, "/merchant_orders/")
			paymentIDs, ok := merchantOrders[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			refs := make([]map[string]interface{}, 0, len(paymentIDs))
			for _, paymentID := range paymentIDs {
				refs = append(refs, map[string]interface{}{"id": paymentID})
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":       id,
				"status":   "closed",
				"payments": refs,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newPaymentService(db *gorm.DB, cfg *config.Config) *PaymentService {
	couponRepo := repository.NewCouponRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	registry := NewCouponRegistry(cfg.CouponTiers, couponRepo)
	couponSvc := NewCouponService(couponRepo, orderRepo, registry, cfg)
	orderSvc := newOrderService(db, cfg)
	return NewPaymentService(
		repository.NewPaymentRepository(db),
		orderRepo,
		repository.NewUserRepository(db),
		orderSvc,
		couponSvc,
		registry,
		nil,
		cfg,
	)
}

func TestParseWebhookNotification(t *testing.T) {
	notification, err := ParseWebhookNotification([]byte(`{"type":"payment","data":{"id":"12345"}}`))
	if err != nil {
		t.Fatalf("parse payment notification error: %v", err)
	}
	if notification.Type != constants.WebhookTypePayment || notification.PaymentID != "12345" {
		t.Fatalf("unexpected notification: %+v", notification)
	}

	notification, err = ParseWebhookNotification([]byte(`{"topic":"merchant_order","resource":"https://api.test/merchant_orders/999"}`))
	if err != nil {
		t.Fatalf("parse merchant order notification error: %v", err)
	}
	if notification.Type != constants.WebhookTypeMerchantOrder || notification.MerchantOrderID != "999" {
		t.Fatalf("unexpected notification: %+v", notification)
	}

	// Numeric ids are normalized to strings.
	notification, err = ParseWebhookNotification([]byte(`{"type":"payment","data":{"id":777}}`))
	if err != nil {
		t.Fatalf("parse numeric id error: %v", err)
	}
	if notification.PaymentID != "777" {
		t.Fatalf("expected 777, got %s", notification.PaymentID)
	}

	// Unknown types decode fine and get ignored downstream.
	notification, err = ParseWebhookNotification([]byte(`{"type":"plan","data":{"id":"1"}}`))
	if err != nil {
		t.Fatalf("parse unknown type error: %v", err)
	}
	if notification.Type != "plan" {
		t.Fatalf("unexpected type: %s", notification.Type)
	}

	if _, err := ParseWebhookNotification([]byte(`not-json`)); err != ErrWebhookPayloadInvalid {
		t.Fatalf("expected ErrWebhookPayloadInvalid, got %v", err)
	}
	if _, err := ParseWebhookNotification(nil); err != ErrWebhookPayloadInvalid {
		t.Fatalf("expected ErrWebhookPayloadInvalid for empty body, got %v", err)
	}
	if _, err := ParseWebhookNotification([]byte(`{"type":"payment"}`)); err != ErrWebhookPayloadInvalid {
		t.Fatalf("expected ErrWebhookPayloadInvalid for missing id, got %v", err)
	}
}

func TestBuyerFromReference(t *testing.T) {
	if got := buyerFromReference("VC-42-abc-def"); got == nil || *got != 42 {
		t.Fatalf("expected buyer 42, got %v", got)
	}
	if got := buyerFromReference("VC-0-abc"); got != nil {
		t.Fatalf("expected nil for zero id, got %v", got)
	}
	if got := buyerFromReference("PD-42-abc"); got != nil {
		t.Fatalf("expected nil for order reference, got %v", got)
	}
	if got := buyerFromReference("garbage"); got != nil {
		t.Fatalf("expected nil for garbage, got %v", got)
	}
}

func TestWebhookOrderPaymentApproved(t *testing.T) {
	db := setupServiceDB(t)
	cfg := testConfig()

	order := seedPendingOrder(t, db, 7, 7000, 1500)
	reference := fmt.Sprintf("PD-%d-abc", order.ID)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("external_reference", reference).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}

	stub := newWebhookStub(t, map[string]providerPaymentStub{
		"501": {Status: "approved", ExternalReference: reference, Amount: 85.00},
	}, nil)
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newPaymentService(db, cfg)

	body := []byte(`{"type":"payment","data":{"id":"501"}}`)
	processed, err := svc.HandleNotification(context.Background(), body)
	if err != nil {
		t.Fatalf("HandleNotification error: %v", err)
	}
	if !processed {
		t.Fatalf("expected notification to be processed")
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", reloaded.Status)
	}
	if reloaded.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	var payment models.Payment
	if err := db.Where("external_id = ?", "501").First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Kind != constants.PaymentKindOrderPayment || payment.AmountCents != 8500 {
		t.Fatalf("unexpected payment row: %+v", payment)
	}

	// External-id uniqueness makes the second delivery a no-op.
	processed, err = svc.HandleNotification(context.Background(), body)
	if err != nil {
		t.Fatalf("second HandleNotification error: %v", err)
	}
	if processed {
		t.Fatalf("expected idempotent skip on redelivery")
	}
	var paymentCount int64
	if err := db.Model(&models.Payment{}).Count(&paymentCount).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if paymentCount != 1 {
		t.Fatalf("expected 1 payment row, got %d", paymentCount)
	}
}

func TestWebhookPendingStatusIgnored(t *testing.T) {
	db := setupServiceDB(t)
	cfg := testConfig()

	order := seedPendingOrder(t, db, 7, 7000, 1500)
	reference := fmt.Sprintf("PD-%d-abc", order.ID)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("external_reference", reference).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}

	stub := newWebhookStub(t, map[string]providerPaymentStub{
		"502": {Status: "pending", ExternalReference: reference, Amount: 85.00},
	}, nil)
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newPaymentService(db, cfg)

	processed, err := svc.HandleNotification(context.Background(), []byte(`{"type":"payment","data":{"id":"502"}}`))
	if err != nil {
		t.Fatalf("HandleNotification error: %v", err)
	}
	if processed {
		t.Fatalf("expected pending payment to be ignored")
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("expected order to stay pending, got %s", reloaded.Status)
	}
	var paymentCount int64
	if err := db.Model(&models.Payment{}).Count(&paymentCount).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if paymentCount != 0 {
		t.Fatalf("expected no payment rows, got %d", paymentCount)
	}
}

func TestWebhookCouponPurchaseMintsCoupon(t *testing.T) {
	db := setupServiceDB(t)
	cfg := testConfig()

	buyer := models.User{Email: "comprador@example.com", PasswordHash: "x", Role: constants.UserRoleUser, Status: constants.UserStatusActive}
	if err := db.Create(&buyer).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	reference := fmt.Sprintf("VC-%d-abc", buyer.ID)
	stub := newWebhookStub(t, map[string]providerPaymentStub{
		"601": {Status: "approved", ExternalReference: reference, Amount: 45.00},
	}, nil)
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newPaymentService(db, cfg)

	processed, err := svc.HandleNotification(context.Background(), []byte(`{"type":"payment","data":{"id":"601"}}`))
	if err != nil {
		t.Fatalf("HandleNotification error: %v", err)
	}
	if !processed {
		t.Fatalf("expected coupon purchase to be processed")
	}

	var coupon models.Coupon
	if err := db.First(&coupon).Error; err != nil {
		t.Fatalf("load coupon failed: %v", err)
	}
	if coupon.FaceValueCents != 5000 || coupon.SalePriceCents != 4500 {
		t.Fatalf("unexpected coupon amounts: %+v", coupon)
	}
	if coupon.Status != constants.CouponStatusAvailable {
		t.Fatalf("expected available coupon, got %s", coupon.Status)
	}
	if coupon.BuyerID == nil || *coupon.BuyerID != buyer.ID {
		t.Fatalf("expected buyer %d, got %v", buyer.ID, coupon.BuyerID)
	}
	if coupon.ExpiresAt == nil {
		t.Fatalf("expected expiry from tier validity days")
	}

	var payment models.Payment
	if err := db.Where("external_id = ?", "601").First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Kind != constants.PaymentKindCouponPurchase {
		t.Fatalf("unexpected payment kind: %s", payment.Kind)
	}
}

func TestWebhookFallbackToCouponPurchase(t *testing.T) {
	db := setupServiceDB(t)
	cfg := testConfig()

	// A reference carrying neither prefix settles as a coupon purchase when
	// the amount matches a tier's sale price.
	stub := newWebhookStub(t, map[string]providerPaymentStub{
		"602": {Status: "approved", ExternalReference: "mystery", Amount: 45.00},
		"603": {Status: "approved", ExternalReference: "mystery", Amount: 1.23},
		"604": {Status: "approved", ExternalReference: "PD-9999-zzz", Amount: 45.00},
	}, nil)
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newPaymentService(db, cfg)

	processed, err := svc.HandleNotification(context.Background(), []byte(`{"type":"payment","data":{"id":"602"}}`))
	if err != nil {
		t.Fatalf("HandleNotification error: %v", err)
	}
	if !processed {
		t.Fatalf("expected fallback coupon purchase to be processed")
	}
	var couponCount int64
	if err := db.Model(&models.Coupon{}).Count(&couponCount).Error; err != nil {
		t.Fatalf("count coupons failed: %v", err)
	}
	if couponCount != 1 {
		t.Fatalf("expected 1 minted coupon, got %d", couponCount)
	}

	// No tier matches the amount: logged and ignored.
	processed, err = svc.HandleNotification(context.Background(), []byte(`{"type":"payment","data":{"id":"603"}}`))
	if err != nil {
		t.Fatalf("HandleNotification error: %v", err)
	}
	if processed {
		t.Fatalf("expected unclassified payment to be ignored")
	}

	// An order-shaped reference with no matching order never mints a coupon,
	// even when the amount lines up with a tier.
	processed, err = svc.HandleNotification(context.Background(), []byte(`{"type":"payment","data":{"id":"604"}}`))
	if err != nil {
		t.Fatalf("HandleNotification error: %v", err)
	}
	if processed {
		t.Fatalf("expected unresolvable order reference to be ignored")
	}
	if err := db.Model(&models.Coupon{}).Count(&couponCount).Error; err != nil {
		t.Fatalf("count coupons failed: %v", err)
	}
	if couponCount != 1 {
		t.Fatalf("expected no extra coupon, got %d", couponCount)
	}
}

func TestWebhookMerchantOrderNotification(t *testing.T) {
	db := setupServiceDB(t)
	cfg := testConfig()

	order := seedPendingOrder(t, db, 7, 7000, 1500)
	reference := fmt.Sprintf("PD-%d-abc", order.ID)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("external_reference", reference).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}

	stub := newWebhookStub(t, map[string]providerPaymentStub{
		"701": {Status: "approved", ExternalReference: reference, Amount: 85.00},
	}, map[string][]string{
		"9001": {"701"},
	})
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newPaymentService(db, cfg)

	processed, err := svc.HandleNotification(context.Background(),
		[]byte(`{"topic":"merchant_order","resource":"`+stub.URL+`/merchant_orders/9001"}`))
	if err != nil {
		t.Fatalf("HandleNotification error: %v", err)
	}
	if !processed {
		t.Fatalf("expected merchant order notification to be processed")
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", reloaded.Status)
	}
}

func TestWebhookProviderFailureSwallowed(t *testing.T) {
	db := setupServiceDB(t)
	cfg := testConfig()

	// Missing payments and unknown types never bubble an error back to the
	// provider; it would retry forever otherwise.
	stub := newWebhookStub(t, nil, nil)
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newPaymentService(db, cfg)

	processed, err := svc.HandleNotification(context.Background(), []byte(`{"type":"payment","data":{"id":"404404"}}`))
	if err != nil {
		t.Fatalf("expected missing payment to be swallowed, got %v", err)
	}
	if processed {
		t.Fatalf("expected missing payment to count as ignored")
	}

	processed, err = svc.HandleNotification(context.Background(), []byte(`{"type":"plan","data":{"id":"1"}}`))
	if err != nil {
		t.Fatalf("expected unknown type to be swallowed, got %v", err)
	}
	if processed {
		t.Fatalf("expected unknown type to count as ignored")
	}
}

func TestReconcilePendingExpiresCoupons(t *testing.T) {
	db := setupServiceDB(t)
	cfg := testConfig()
	stub := newWebhookStub(t, nil, nil)
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newPaymentService(db, cfg)

	past := time.Now().Add(-time.Hour)
	coupon := models.Coupon{Code: "SWEEPCODE1", FaceValueCents: 5000, SalePriceCents: 4500, Status: constants.CouponStatusAvailable, ExpiresAt: &past}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	if err := svc.ReconcilePending(context.Background()); err != nil {
		t.Fatalf("ReconcilePending error: %v", err)
	}

	var reloaded models.Coupon
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.Status != constants.CouponStatusExpired {
		t.Fatalf("expected expired, got %s", reloaded.Status)
	}
}

func TestReconcilePendingRecoversMissedWebhook(t *testing.T) {
	db := setupServiceDB(t)
	cfg := testConfig()

	// The webhook for this payment never arrived; the sweep has to find the
	// approved payment through the provider's reference search.
	order := seedPendingOrder(t, db, 7, 7000, 1500)
	reference := fmt.Sprintf("PD-%d-abc", order.ID)
	staleCreatedAt := time.Now().Add(-2 * time.Hour)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{"external_reference": reference, "created_at": staleCreatedAt}).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}

	stub := newWebhookStub(t, map[string]providerPaymentStub{
		"801": {Status: "approved", ExternalReference: reference, Amount: 85.00},
	}, nil)
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newPaymentService(db, cfg)

	if err := svc.ReconcilePending(context.Background()); err != nil {
		t.Fatalf("ReconcilePending error: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPaid {
		t.Fatalf("expected recovered order to be paid, got %s", reloaded.Status)
	}
	var payment models.Payment
	if err := db.Where("external_id = ?", "801").First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Kind != constants.PaymentKindOrderPayment {
		t.Fatalf("unexpected payment kind: %s", payment.Kind)
	}

	// A second sweep finds the payment row and leaves everything untouched.
	if err := svc.ReconcilePending(context.Background()); err != nil {
		t.Fatalf("second ReconcilePending error: %v", err)
	}
	var paymentCount int64
	if err := db.Model(&models.Payment{}).Count(&paymentCount).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if paymentCount != 1 {
		t.Fatalf("expected 1 payment row, got %d", paymentCount)
	}
}
