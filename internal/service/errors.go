package service

import "errors"

// Sentinel errors surfaced by the service layer. HTTP handlers map them to
// response codes in error_mapping.go.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("user is disabled")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidOrderItem    = errors.New("invalid order item")
	ErrCategoryNotFound    = errors.New("category not found")

	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartEmpty        = errors.New("cart is empty")

	ErrEmailServiceDisabled      = errors.New("email delivery disabled")
	ErrEmailServiceNotConfigured = errors.New("email delivery not configured")
	ErrInvalidEmail              = errors.New("invalid email address")

	ErrCouponTierNotFound = errors.New("coupon tier not found")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponNotAvailable = errors.New("coupon not available")
	ErrCouponExpired      = errors.New("coupon expired")

	ErrDiscountCouponNotFound   = errors.New("discount coupon not found")
	ErrDiscountCouponInactive   = errors.New("discount coupon inactive")
	ErrDiscountCouponNotStarted = errors.New("discount coupon not started")
	ErrDiscountCouponExpired    = errors.New("discount coupon expired")
	ErrDiscountCouponUsageLimit = errors.New("discount coupon usage limit reached")
	ErrCategoryForbidden        = errors.New("category not eligible for this coupon")
	ErrAuctionProductRequired   = errors.New("coupon only applies to auction products")
	ErrAuctionWindowClosed      = errors.New("auction coupon outside its validity window")
	ErrNoEligibleItems          = errors.New("no eligible items for this coupon")

	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNotPending       = errors.New("order is not pending")
	ErrDiscountAlreadySet    = errors.New("order already has a discount applied")
	ErrOrderAccessDenied     = errors.New("order belongs to another user")
	ErrOrderCreateFailed     = errors.New("order create failed")
	ErrOrderUpdateFailed     = errors.New("order update failed")
	ErrPaymentCreateFailed   = errors.New("payment create failed")
	ErrExternalProvider      = errors.New("payment provider request failed")
	ErrWebhookPayloadInvalid = errors.New("webhook payload invalid")
)
