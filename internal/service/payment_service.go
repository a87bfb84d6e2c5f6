package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/logger"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/payment/mercadopago"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/queue"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService reconciles provider notifications with local state.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	orderSvc    *OrderService
	couponSvc   *CouponService
	registry    *CouponRegistry
	queueClient *queue.Client
	cfg         *config.Config
}

// NewPaymentService creates the payment service.
func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository, userRepo repository.UserRepository, orderSvc *OrderService, couponSvc *CouponService, registry *CouponRegistry, queueClient *queue.Client, cfg *config.Config) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		orderSvc:    orderSvc,
		couponSvc:   couponSvc,
		registry:    registry,
		queueClient: queueClient,
		cfg:         cfg,
	}
}

// WebhookNotification one decoded provider notification. The provider sends
// two variants: a payment event carrying a payment id, and a merchant order
// event carrying a merchant order id.
type WebhookNotification struct {
	Type            string
	PaymentID       string
	MerchantOrderID string
}

// ParseWebhookNotification decodes the notification body once and
// normalizes both variants.
func ParseWebhookNotification(body []byte) (*WebhookNotification, error) {
	if len(body) == 0 {
		return nil, ErrWebhookPayloadInvalid
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, ErrWebhookPayloadInvalid
	}

	kind := strings.ToLower(strings.TrimSpace(stringField(raw, "type")))
	if kind == "" {
		kind = strings.ToLower(strings.TrimSpace(stringField(raw, "topic")))
	}

	notification := &WebhookNotification{Type: kind}
	switch kind {
	case constants.WebhookTypePayment:
		notification.PaymentID = extractResourceID(raw)
		if notification.PaymentID == "" {
			return nil, ErrWebhookPayloadInvalid
		}
	case constants.WebhookTypeMerchantOrder:
		notification.MerchantOrderID = extractResourceID(raw)
		if notification.MerchantOrderID == "" {
			return nil, ErrWebhookPayloadInvalid
		}
	}
	return notification, nil
}

// HandleNotification processes one provider notification. It returns true
// when at least one payment produced effects. Provider lookups that fail
// are logged and swallowed so the provider stops retrying.
func (s *PaymentService) HandleNotification(ctx context.Context, body []byte) (bool, error) {
	notification, err := ParseWebhookNotification(body)
	if err != nil {
		return false, err
	}

	log := paymentLogger("webhook_type", notification.Type)

	var paymentIDs []string
	switch notification.Type {
	case constants.WebhookTypePayment:
		paymentIDs = []string{notification.PaymentID}
	case constants.WebhookTypeMerchantOrder:
		merchantOrder, err := mercadopago.GetMerchantOrder(ctx, providerConfig(s.cfg.Payment), notification.MerchantOrderID)
		if err != nil {
			if errors.Is(err, mercadopago.ErrNotFound) {
				log.Debugw("payment_webhook_merchant_order_missing", "merchant_order_id", notification.MerchantOrderID)
				return false, nil
			}
			log.Warnw("payment_webhook_merchant_order_fetch_failed", "merchant_order_id", notification.MerchantOrderID, "error", err)
			return false, nil
		}
		paymentIDs = merchantOrder.PaymentIDs
	default:
		log.Debugw("payment_webhook_type_ignored")
		return false, nil
	}

	processed := false
	for _, paymentID := range paymentIDs {
		ok, err := s.processPayment(ctx, paymentID)
		if err != nil {
			log.Warnw("payment_webhook_process_failed", "provider_payment_id", paymentID, "error", err)
			continue
		}
		processed = processed || ok
	}
	return processed, nil
}

// processPayment fetches one provider payment and applies its effects
// exactly once. Only approved payments produce effects.
func (s *PaymentService) processPayment(ctx context.Context, paymentID string) (bool, error) {
	log := paymentLogger("provider_payment_id", paymentID)

	existing, err := s.paymentRepo.GetByExternalID(paymentID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		log.Infow("payment_webhook_idempotent_skip", "payment_id", existing.ID)
		return false, nil
	}

	providerPayment, err := mercadopago.GetPayment(ctx, providerConfig(s.cfg.Payment), paymentID)
	if err != nil {
		if errors.Is(err, mercadopago.ErrNotFound) {
			log.Debugw("payment_webhook_payment_missing")
			return false, nil
		}
		return false, err
	}
	if providerPayment.Status != constants.ProviderStatusApproved {
		log.Debugw("payment_webhook_status_ignored", "provider_status", providerPayment.Status)
		return false, nil
	}

	reference := strings.TrimSpace(providerPayment.ExternalReference)
	switch {
	case strings.HasPrefix(reference, constants.ReferencePrefixCouponPurchase):
		return s.settleCouponPurchase(providerPayment, buyerFromReference(reference), log)
	case strings.HasPrefix(reference, constants.ReferencePrefixOrderPayment):
		order, err := s.orderRepo.GetByExternalReference(reference)
		if err != nil {
			return false, err
		}
		if order == nil {
			// The reference names an order we do not have. Minting a coupon
			// for it would misclassify a real order payment, so it only gets
			// logged for the operator.
			log.Warnw("payment_webhook_unclassified",
				"reference", reference,
				"amount_cents", providerPayment.AmountCents,
			)
			return false, nil
		}
		return s.settleOrderPayment(providerPayment, order, log)
	default:
		// Fallback branch: an approved payment carrying neither prefix is
		// treated as a coupon purchase when its amount matches a tier.
		tier := s.registry.FindBySalePriceCents(providerPayment.AmountCents)
		if tier == nil {
			log.Warnw("payment_webhook_unclassified",
				"reference", reference,
				"amount_cents", providerPayment.AmountCents,
			)
			return false, nil
		}
		log.Infow("payment_webhook_fallback_coupon_purchase",
			"reference", reference,
			"amount_cents", providerPayment.AmountCents,
			"tier_slug", tier.Slug,
		)
		return s.settleCouponPurchase(providerPayment, buyerFromReference(reference), log)
	}
}

// settleCouponPurchase mints a coupon for an approved coupon purchase.
func (s *PaymentService) settleCouponPurchase(providerPayment *mercadopago.PaymentResult, buyerID *uint, log *zap.SugaredLogger) (bool, error) {
	tier := s.registry.FindBySalePriceCents(providerPayment.AmountCents)
	if tier == nil {
		log.Warnw("payment_webhook_no_tier_for_amount", "amount_cents", providerPayment.AmountCents)
		return false, nil
	}

	var coupon *models.Coupon
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		minted, err := s.couponSvc.MintPurchased(tx, tier, buyerID)
		if err != nil {
			return err
		}
		coupon = minted
		payment := &models.Payment{
			ExternalID:  providerPayment.ID,
			Provider:    constants.PaymentProviderMercadoPago,
			Kind:        constants.PaymentKindCouponPurchase,
			Reference:   providerPayment.ExternalReference,
			AmountCents: providerPayment.AmountCents,
			Status:      constants.PaymentStatusApproved,
			Method:      providerPayment.Method,
			CouponID:    &coupon.ID,
			RawPayload:  models.JSON(providerPayment.Raw),
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return ErrPaymentCreateFailed
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	log.Infow("payment_webhook_coupon_minted",
		"coupon_id", coupon.ID,
		"coupon_code", coupon.Code,
		"tier_slug", tier.Slug,
	)
	s.enqueueCouponDeliveryAsync(coupon, buyerID, log)
	return true, nil
}

// settleOrderPayment marks an order paid for an approved order payment.
func (s *PaymentService) settleOrderPayment(providerPayment *mercadopago.PaymentResult, order *models.Order, log *zap.SugaredLogger) (bool, error) {
	paidAt := time.Now()
	if providerPayment.PaidAt != nil {
		paidAt = *providerPayment.PaidAt
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderSvc.MarkPaid(tx, order, paidAt); err != nil {
			return err
		}
		payment := &models.Payment{
			ExternalID:  providerPayment.ID,
			Provider:    constants.PaymentProviderMercadoPago,
			Kind:        constants.PaymentKindOrderPayment,
			Reference:   providerPayment.ExternalReference,
			AmountCents: providerPayment.AmountCents,
			Status:      constants.PaymentStatusApproved,
			Method:      providerPayment.Method,
			OrderID:     &order.ID,
			RawPayload:  models.JSON(providerPayment.Raw),
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return ErrPaymentCreateFailed
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	log.Infow("payment_webhook_order_paid", "order_id", order.ID)
	s.enqueueOrderPaidAsync(order, log)
	return true, nil
}

// ReconcilePending runs the periodic sweep: overdue coupons are expired and
// stale pending orders are re-queried at the provider so a lost webhook
// cannot strand a paid order.
func (s *PaymentService) ReconcilePending(ctx context.Context) error {
	expired, err := s.couponSvc.ExpireOverdue()
	if err != nil {
		return err
	}
	if expired > 0 {
		paymentLogger().Infow("reconcile_coupons_expired", "count", expired)
	}

	cutoff := time.Now().Add(-time.Duration(s.cfg.Reconcile.PendingMaxAgeMin) * time.Minute)
	stale, err := s.orderRepo.ListPendingOlderThan(cutoff, s.cfg.Reconcile.BatchSize)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	log := paymentLogger("cutoff", cutoff)
	log.Warnw("reconcile_stale_pending_orders", "count", len(stale))
	recovered := 0
	for i := range stale {
		order := &stale[i]
		paymentIDs, err := mercadopago.SearchPaymentsByReference(ctx, providerConfig(s.cfg.Payment), order.ExternalReference)
		if err != nil {
			log.Warnw("reconcile_payment_search_failed", "order_id", order.ID, "error", err)
			continue
		}
		for _, paymentID := range paymentIDs {
			ok, err := s.processPayment(ctx, paymentID)
			if err != nil {
				log.Warnw("reconcile_process_failed", "order_id", order.ID, "provider_payment_id", paymentID, "error", err)
				continue
			}
			if ok {
				recovered++
			}
		}
	}
	if recovered > 0 {
		log.Infow("reconcile_payments_recovered", "count", recovered)
	}
	return nil
}

func (s *PaymentService) enqueueCouponDeliveryAsync(coupon *models.Coupon, buyerID *uint, log *zap.SugaredLogger) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	email := ""
	if buyerID != nil {
		user, err := s.userRepo.GetByID(*buyerID)
		if err == nil && user != nil {
			email = user.Email
		}
	}
	if err := s.queueClient.EnqueueCouponDeliveryEmail(queue.CouponDeliveryEmailPayload{
		CouponID: coupon.ID,
		Code:     coupon.Code,
		Email:    email,
	}); err != nil {
		log.Warnw("payment_enqueue_coupon_delivery_failed", "coupon_id", coupon.ID, "error", err)
	}
}

func (s *PaymentService) enqueueOrderPaidAsync(order *models.Order, log *zap.SugaredLogger) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueOrderPaidEmail(queue.OrderPaidEmailPayload{
		OrderID: order.ID,
	}); err != nil {
		log.Warnw("payment_enqueue_order_paid_failed", "order_id", order.ID, "error", err)
	}
}

// buyerFromReference extracts the buyer id embedded in a coupon purchase
// reference such as VC-42-<uuid>.
func buyerFromReference(reference string) *uint {
	trimmed := strings.TrimPrefix(strings.TrimSpace(reference), constants.ReferencePrefixCouponPurchase)
	if trimmed == reference {
		return nil
	}
	parts := strings.SplitN(trimmed, "-", 2)
	if len(parts) == 0 {
		return nil
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	buyerID := uint(id)
	return &buyerID
}

func providerConfig(cfg config.PaymentConfig) *mercadopago.Config {
	return &mercadopago.Config{
		AccessToken:     cfg.AccessToken,
		BaseURL:         cfg.BaseURL,
		NotificationURL: cfg.NotificationURL,
		SuccessURL:      cfg.SuccessURL,
		FailureURL:      cfg.FailureURL,
		TimeoutMS:       cfg.TimeoutMS,
	}
}

func stringField(raw map[string]interface{}, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	return ""
}

// extractResourceID pulls the resource id from either variant: data.id, a
// top-level id, or the tail of a resource URL.
func extractResourceID(raw map[string]interface{}) string {
	if data, ok := raw["data"].(map[string]interface{}); ok {
		if id := resourceIDValue(data["id"]); id != "" {
			return id
		}
	}
	if id := resourceIDValue(raw["id"]); id != "" {
		return id
	}
	if resource := strings.TrimSpace(stringField(raw, "resource")); resource != "" {
		trimmed := strings.TrimRight(resource, "/")
		if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
			return trimmed[idx+1:]
		}
		return trimmed
	}
	return ""
}

func resourceIDValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}
