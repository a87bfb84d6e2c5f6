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

// OrderService assembles orders, reserves stock and creates the provider
// checkout preference.
type OrderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	cartRepo     repository.CartRepository
	couponRepo   repository.CouponRepository
	discountRepo repository.DiscountCouponRepository
	discountSvc  *DiscountCouponService
	cfg          *config.Config
}

// NewOrderService creates the order service.
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, couponRepo repository.CouponRepository, discountRepo repository.DiscountCouponRepository, discountSvc *DiscountCouponService, cfg *config.Config) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		cartRepo:     cartRepo,
		couponRepo:   couponRepo,
		discountRepo: discountRepo,
		discountSvc:  discountSvc,
		cfg:          cfg,
	}
}

// OrderItemInput one requested order line.
type OrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateOrderInput checkout request. Items may be omitted to buy the
// current cart. One value coupon and one percent coupon may be combined;
// their discounts add.
type CreateOrderInput struct {
	UserID             uint
	Items              []OrderItemInput
	CouponCode         string
	DiscountCouponCode string
	PayerEmail         string
	Context            context.Context
}

// Create assembles an order in one transaction, then creates the provider
// checkout preference. Stock is reserved all-or-nothing; any shortage rolls
// the whole order back.
func (s *OrderService) Create(input CreateOrderInput) (*models.Order, error) {
	couponCode := strings.ToUpper(strings.TrimSpace(input.CouponCode))
	discountCode := strings.ToUpper(strings.TrimSpace(input.DiscountCouponCode))

	fromCart := len(input.Items) == 0
	items := input.Items
	if fromCart {
		cartItems, err := s.cartRepo.ListByUser(input.UserID)
		if err != nil {
			return nil, err
		}
		for _, ci := range cartItems {
			items = append(items, OrderItemInput{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}
		if len(items) == 0 {
			return nil, ErrCartEmpty
		}
	}

	log := orderLogger("user_id", input.UserID, "item_count", len(items))

	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		created, err := s.assemble(tx, input.UserID, items, couponCode, discountCode)
		if err != nil {
			return err
		}
		if fromCart {
			if err := s.cartRepo.WithTx(tx).ClearByUser(input.UserID); err != nil {
				return err
			}
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.createPreference(input.Context, order, input.PayerEmail); err != nil {
		log.Errorw("order_preference_failed", "order_id", order.ID, "error", err)
		return nil, ErrExternalProvider
	}

	log.Infow("order_created",
		"order_id", order.ID,
		"total_cents", order.TotalCents,
		"discount_cents", order.DiscountCents,
		"shipping_cents", order.ShippingCents,
		"final_cents", order.FinalCents,
	)
	return order, nil
}

func (s *OrderService) assemble(tx *gorm.DB, userID uint, items []OrderItemInput, couponCode, discountCode string) (*models.Order, error) {
	productRepo := s.productRepo.WithTx(tx)
	orderRepo := s.orderRepo.WithTx(tx)

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		ids = append(ids, item.ProductID)
	}
	products, err := productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	now := time.Now()
	var totalCents int64
	orderItems := make([]models.OrderItem, 0, len(items))
	snapshot := make([]models.Product, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		affected, err := productRepo.DecrementStock(product.ID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrInsufficientStock
		}
		lineTotal := product.PriceCents * int64(item.Quantity)
		totalCents += lineTotal
		orderItems = append(orderItems, models.OrderItem{
			ProductID:      product.ID,
			Title:          product.Title,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
			TotalCents:     lineTotal,
			CreatedAt:      now,
		})
		snapshot = append(snapshot, *product)
	}

	order := &models.Order{
		UserID:            userID,
		Status:            constants.OrderStatusPending,
		TotalCents:        totalCents,
		ShippingCents:     s.shippingCents(totalCents),
		ExternalReference: "",
		Items:             orderItems,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// The two coupon kinds combine additively. Each validates on its own;
	// the percent always computes over the undiscounted subtotal.
	if couponCode != "" {
		couponRepo := s.couponRepo.WithTx(tx)
		coupon, err := couponRepo.GetByCode(couponCode)
		if err != nil {
			return nil, err
		}
		if coupon == nil {
			return nil, ErrCouponNotFound
		}
		if coupon.Status != constants.CouponStatusAvailable {
			if coupon.Status == constants.CouponStatusExpired {
				return nil, ErrCouponExpired
			}
			return nil, ErrCouponNotAvailable
		}
		if coupon.IsExpiredAt(now) {
			return nil, ErrCouponExpired
		}
		order.CouponCode = coupon.Code
		order.DiscountCents += coupon.FaceValueCents
	}
	if discountCode != "" {
		coupon, err := s.discountSvc.ValidateForItems(discountCode, snapshot)
		if err != nil {
			return nil, err
		}
		order.DiscountCouponCode = coupon.Code
		order.DiscountCents += s.discountSvc.ComputeDiscount(coupon, totalCents)
	}

	order.FinalCents = finalCents(order.TotalCents, order.DiscountCents, order.ShippingCents)
	allocateItemDiscounts(order.Items, order.DiscountCents, order.TotalCents)
	order.ExternalReference = fmt.Sprintf("%s0-%s", constants.ReferencePrefixOrderPayment, uuid.NewString())

	if err := orderRepo.Create(order); err != nil {
		return nil, ErrOrderCreateFailed
	}

	// Rewrite the reference now that the order id exists.
	order.ExternalReference = fmt.Sprintf("%s%d-%s", constants.ReferencePrefixOrderPayment, order.ID, uuid.NewString())
	if err := orderRepo.Update(order); err != nil {
		return nil, ErrOrderUpdateFailed
	}

	// The value coupon is consumed in the same transaction as the order.
	if order.CouponCode != "" {
		couponRepo := s.couponRepo.WithTx(tx)
		coupon, err := couponRepo.GetByCode(order.CouponCode)
		if err != nil {
			return nil, err
		}
		affected, err := couponRepo.MarkUsed(coupon.ID, order.ID)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrCouponNotAvailable
		}
	}
	if order.DiscountCouponCode != "" {
		discountRepo := s.discountRepo.WithTx(tx)
		coupon, err := discountRepo.GetByCode(order.DiscountCouponCode)
		if err != nil {
			return nil, err
		}
		if err := discountRepo.CreateUse(&models.DiscountCouponUse{
			DiscountCouponID: coupon.ID,
			OrderID:          order.ID,
			UserID:           userID,
			DiscountCents:    order.DiscountCents,
			CreatedAt:        now,
		}); err != nil {
			return nil, err
		}
		if err := discountRepo.IncrementUses(coupon.ID); err != nil {
			return nil, err
		}
	}

	return order, nil
}

func (s *OrderService) shippingCents(totalCents int64) int64 {
	shipping := s.cfg.Shipping.FlatRateCents
	if s.cfg.Shipping.FreeOverCents > 0 && totalCents >= s.cfg.Shipping.FreeOverCents {
		return 0
	}
	return shipping
}

// createPreference sends the order to the provider and stores the checkout
// redirect on the order.
func (s *OrderService) createPreference(ctx context.Context, order *models.Order, payerEmail string) error {
	if order.FinalCents == 0 {
		// Fully covered by discount with free shipping; nothing to charge.
		now := time.Now()
		order.Status = constants.OrderStatusPaid
		order.PaidAt = &now
		order.UpdatedAt = now
		return s.orderRepo.Update(order)
	}

	items, shippingCents := buildProviderItems(order)
	created, err := mercadopago.CreatePreference(ctx, providerConfig(s.cfg.Payment), mercadopago.CreateInput{
		ExternalReference: order.ExternalReference,
		Currency:          constants.SiteCurrencyDefault,
		PayerEmail:        payerEmail,
		Items:             items,
		ShippingCents:     shippingCents,
	})
	if err != nil {
		return err
	}
	order.PreferenceID = created.PreferenceID
	order.CheckoutURL = created.InitPoint
	order.UpdatedAt = time.Now()
	return s.orderRepo.Update(order)
}

// RefreshPreference recreates the provider preference after the order
// amounts changed. Failures are reported to the caller but leave the order
// untouched otherwise.
func (s *OrderService) RefreshPreference(ctx context.Context, orderID uint, payerEmail string) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDWithItems(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return order, nil
	}
	if err := s.createPreference(ctx, order, payerEmail); err != nil {
		orderLogger("order_id", order.ID).Warnw("order_preference_refresh_failed", "error", err)
		return order, ErrExternalProvider
	}
	return order, nil
}

// Get returns one order with items, scoped to its owner.
func (s *OrderService) Get(userID uint, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDWithItems(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if userID != 0 && order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// ListByUser returns the user's orders, most recent first.
func (s *OrderService) ListByUser(userID uint, page, pageSize int) ([]models.Order, int64, error) {
	return s.orderRepo.List(repository.OrderListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
}

// MarkPaid flips a pending order to paid inside the webhook transaction.
func (s *OrderService) MarkPaid(tx *gorm.DB, order *models.Order, paidAt time.Time) error {
	if order.Status == constants.OrderStatusPaid {
		return nil
	}
	if order.Status != constants.OrderStatusPending {
		return ErrOrderNotPending
	}
	order.Status = constants.OrderStatusPaid
	order.PaidAt = &paidAt
	order.UpdatedAt = time.Now()
	if err := s.orderRepo.WithTx(tx).Update(order); err != nil {
		return ErrOrderUpdateFailed
	}
	return nil
}

// allocateItemDiscounts distributes the order discount across item
// snapshots proportionally to their totals. The last line absorbs the
// rounding remainder; no line ever carries more discount than its total.
func allocateItemDiscounts(items []models.OrderItem, discountCents, totalCents int64) {
	if discountCents <= 0 || totalCents <= 0 || len(items) == 0 {
		return
	}
	if discountCents > totalCents {
		discountCents = totalCents
	}
	var allocated int64
	for i := range items {
		if i == len(items)-1 {
			items[i].DiscountCents = discountCents - allocated
			break
		}
		share := discountCents * items[i].TotalCents / totalCents
		items[i].DiscountCents = share
		allocated += share
	}
	// The remainder may overflow the last line's total; spill backwards.
	for i := len(items) - 1; i > 0; i-- {
		if items[i].DiscountCents <= items[i].TotalCents {
			break
		}
		excess := items[i].DiscountCents - items[i].TotalCents
		items[i].DiscountCents = items[i].TotalCents
		items[i-1].DiscountCents += excess
	}
}

// buildProviderItems renders order lines for the provider with the discount
// already folded in. Each line is at least one cent, and the line totals
// plus shipping always sum to the order's final amount.
func buildProviderItems(order *models.Order) ([]mercadopago.PreferenceItem, int64) {
	goodsTarget := order.FinalCents - order.ShippingCents
	if goodsTarget <= 0 {
		// Discount swallowed the goods entirely; collapse to one line so
		// the provider still gets a positive amount.
		return []mercadopago.PreferenceItem{
			{
				Title:          fmt.Sprintf("Pedido #%d", order.ID),
				Quantity:       1,
				UnitPriceCents: order.FinalCents,
			},
		}, 0
	}
	if goodsTarget < int64(len(order.Items)) {
		// Too little left to give every line its one-cent floor.
		return []mercadopago.PreferenceItem{
			{
				Title:          fmt.Sprintf("Pedido #%d", order.ID),
				Quantity:       1,
				UnitPriceCents: goodsTarget,
			},
		}, order.ShippingCents
	}

	units := make([]int64, len(order.Items))
	var sum int64
	for i := range order.Items {
		units[i] = order.Items[i].TotalCents - order.Items[i].DiscountCents
		sum += units[i]
	}
	// Fix any drift against the target on the last line, then lift
	// zero-cent lines at the expense of the largest ones.
	units[len(units)-1] += goodsTarget - sum
	for i := range units {
		for units[i] < 1 {
			j := maxUnitIndex(units)
			if j == i || units[j] <= 1 {
				break
			}
			units[j]--
			units[i]++
		}
	}

	items := make([]mercadopago.PreferenceItem, 0, len(order.Items))
	for i := range order.Items {
		title := order.Items[i].Title
		if order.Items[i].Quantity > 1 {
			title = fmt.Sprintf("%s x%d", title, order.Items[i].Quantity)
		}
		items = append(items, mercadopago.PreferenceItem{
			Title:          title,
			Quantity:       1,
			UnitPriceCents: units[i],
		})
	}
	return items, order.ShippingCents
}

func maxUnitIndex(units []int64) int {
	max := 0
	for i := range units {
		if units[i] > units[max] {
			max = i
		}
	}
	return max
}

func orderLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}
