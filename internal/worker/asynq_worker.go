package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/logger"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/provider"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/queue"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer async task consumer
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register binds the task handlers
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCouponDeliveryEmail, c.handleCouponDeliveryEmail)
	mux.HandleFunc(queue.TaskOrderPaidEmail, c.handleOrderPaidEmail)
	mux.HandleFunc(queue.TaskPaymentReconcile, c.handlePaymentReconcile)
}

func (c *Consumer) handlePaymentReconcile(ctx context.Context, _ *asynq.Task) error {
	if c == nil || c.PaymentService == nil {
		logger.Debugw("worker_reconcile_skip_nil", "consumer_nil", c == nil)
		return nil
	}
	return c.PaymentService.ReconcilePending(ctx)
}

func (c *Consumer) handleCouponDeliveryEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_coupon_delivery_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CouponDeliveryEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_coupon_delivery_unmarshal_failed", "error", err)
		return err
	}
	if payload.CouponID == 0 {
		logger.Debugw("worker_coupon_delivery_skip_invalid_payload", "coupon_id", payload.CouponID)
		return nil
	}

	coupon, err := c.CouponRepo.GetByID(payload.CouponID)
	if err != nil {
		logger.Warnw("worker_coupon_delivery_fetch_failed", "coupon_id", payload.CouponID, "error", err)
		return err
	}
	if coupon == nil {
		logger.Debugw("worker_coupon_delivery_skip_coupon_not_found", "coupon_id", payload.CouponID)
		return nil
	}

	receiverEmail := strings.TrimSpace(payload.Email)
	if receiverEmail == "" && coupon.BuyerID != nil {
		user, err := c.UserRepo.GetByID(*coupon.BuyerID)
		if err != nil {
			logger.Warnw("worker_coupon_delivery_fetch_buyer_failed", "coupon_id", coupon.ID, "error", err)
			return err
		}
		if user != nil {
			receiverEmail = strings.TrimSpace(user.Email)
		}
	}
	if receiverEmail == "" {
		logger.Debugw("worker_coupon_delivery_skip_empty_receiver", "coupon_id", coupon.ID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_coupon_delivery_skip_email_service_nil", "coupon_id", coupon.ID)
		return nil
	}

	if err := c.EmailService.SendCouponDeliveryEmail(receiverEmail, coupon.Code, coupon.FaceValueCents); err != nil {
		if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
			logger.Debugw("worker_coupon_delivery_skip_email_disabled", "coupon_id", coupon.ID)
			return nil
		}
		logger.Warnw("worker_coupon_delivery_send_failed",
			"coupon_id", coupon.ID,
			"receiver_email", receiverEmail,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleOrderPaidEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_paid_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPaidEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_paid_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_paid_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}

	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_paid_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_paid_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	user, err := c.UserRepo.GetByID(order.UserID)
	if err != nil {
		logger.Warnw("worker_order_paid_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		logger.Debugw("worker_order_paid_skip_empty_receiver", "order_id", order.ID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_paid_skip_email_service_nil", "order_id", order.ID)
		return nil
	}

	if err := c.EmailService.SendOrderPaidEmail(strings.TrimSpace(user.Email), order.ID, order.FinalCents); err != nil {
		if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
			logger.Debugw("worker_order_paid_skip_email_disabled", "order_id", order.ID)
			return nil
		}
		logger.Warnw("worker_order_paid_send_failed",
			"order_id", order.ID,
			"receiver_email", user.Email,
			"error", err,
		)
		return err
	}
	return nil
}
