package queue

import (
	"encoding/json"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCouponDeliveryEmail delivers a freshly minted coupon by email
	TaskCouponDeliveryEmail = constants.TaskCouponDeliveryEmail
	// TaskOrderPaidEmail confirms a paid order by email
	TaskOrderPaidEmail = constants.TaskOrderPaidEmail
	// TaskPaymentReconcile periodic reconciliation sweep
	TaskPaymentReconcile = constants.TaskPaymentReconcile
)

// CouponDeliveryEmailPayload coupon delivery task payload
type CouponDeliveryEmailPayload struct {
	CouponID uint   `json:"coupon_id"`
	Code     string `json:"code"`
	Email    string `json:"email"`
}

// OrderPaidEmailPayload order paid confirmation task payload
type OrderPaidEmailPayload struct {
	OrderID uint `json:"order_id"`
}

// NewCouponDeliveryEmailTask creates the coupon delivery task
func NewCouponDeliveryEmailTask(payload CouponDeliveryEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponDeliveryEmail, body), nil
}

// NewOrderPaidEmailTask creates the order paid confirmation task
func NewOrderPaidEmailTask(payload OrderPaidEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPaidEmail, body), nil
}

// NewPaymentReconcileTask creates the reconciliation sweep task
func NewPaymentReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskPaymentReconcile, nil)
}
