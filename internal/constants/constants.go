package constants

// Order status constants
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Payment status constants
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// Payment kind constants
const (
	PaymentKindCouponPurchase = "coupon_purchase"
	PaymentKindOrderPayment   = "order_payment"
)

// Payment provider constants
const (
	PaymentProviderMercadoPago = "mercadopago"
)

// External reference prefixes carried through the payment provider.
// VC references embed the buyer id (VC-<userID>-<uuid>); PD references
// embed the order id (PD-<orderID>-<uuid>).
const (
	ReferencePrefixCouponPurchase = "VC-"
	ReferencePrefixOrderPayment   = "PD-"
)

// Provider webhook notification types
const (
	WebhookTypePayment       = "payment"
	WebhookTypeMerchantOrder = "merchant_order"
)

// Provider-side payment status considered settled
const (
	ProviderStatusApproved = "approved"
)

// Value coupon status constants
const (
	CouponStatusAvailable = "available"
	CouponStatusUsed      = "used"
	CouponStatusExpired   = "expired"
)

// Discount coupon type constants
const (
	DiscountCouponTypeRegular = "regular"
	DiscountCouponTypeAuction = "auction"
)

// Category restriction mode constants
const (
	CategoryRestrictionAllow  = "allow"
	CategoryRestrictionForbid = "forbid"
)

// User role constants
const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Queue constants
const (
	QueueDefault            = "default"
	TaskCouponDeliveryEmail = "coupon:delivery_email"
	TaskOrderPaidEmail      = "order:paid_email"
	TaskPaymentReconcile    = "payment:reconcile_sweep"
)

// Cache constants
const (
	RedisPrefixDefault        = "ets"
	CacheKeyProductCatalog    = "catalog:products"
	CacheKeyCouponTierList    = "coupon:tiers"
	CacheTTLCatalogSeconds    = 60
	CacheTTLCouponTierSeconds = 300
)

// Currency constants
const (
	SiteCurrencyDefault = "BRL"
)
