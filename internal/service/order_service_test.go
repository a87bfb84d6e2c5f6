package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"

	"gorm.io/gorm"
)

func newOrderService(db *gorm.DB, cfg *config.Config) *OrderService {
	discountSvc := newDiscountService(db)
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewCartRepository(db),
		repository.NewCouponRepository(db),
		repository.NewDiscountCouponRepository(db),
		discountSvc,
		cfg,
	)
}

// newProviderStub serves a minimal checkout preference endpoint.
func newProviderStub(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":         "pref-test-1",
			"init_point": "https://pay.test/checkout/pref-test-1",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOrderCreate(t *testing.T) {
	db := setupServiceDB(t)
	stub := newProviderStub(t)
	cfg := testConfig()
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newOrderService(db, cfg)

	fone := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 2000, Stock: 5, IsActive: true,
	})
	panela := seedCatalogProduct(t, db, &models.Product{
		Slug: "panela", Title: "Panela", PriceCents: 3000, Stock: 1, IsActive: true,
	})

	order, err := svc.Create(CreateOrderInput{
		UserID: 7,
		Items: []OrderItemInput{
			{ProductID: fone.ID, Quantity: 2},
			{ProductID: panela.ID, Quantity: 1},
		},
		Context: context.Background(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if order.TotalCents != 7000 {
		t.Fatalf("expected total 7000, got %d", order.TotalCents)
	}
	if order.ShippingCents != 1500 {
		t.Fatalf("expected shipping 1500, got %d", order.ShippingCents)
	}
	if order.FinalCents != 8500 {
		t.Fatalf("expected final 8500, got %d", order.FinalCents)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.CheckoutURL != "https://pay.test/checkout/pref-test-1" {
		t.Fatalf("unexpected checkout url: %s", order.CheckoutURL)
	}
	if order.ExternalReference == "" {
		t.Fatalf("expected external reference to be set")
	}

	var reloaded models.Product
	if err := db.First(&reloaded, fone.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", reloaded.Stock)
	}
}

func TestOrderCreateInsufficientStockRollsBack(t *testing.T) {
	db := setupServiceDB(t)
	svc := newOrderService(db, testConfig())

	fone := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 2000, Stock: 5, IsActive: true,
	})
	panela := seedCatalogProduct(t, db, &models.Product{
		Slug: "panela", Title: "Panela", PriceCents: 3000, Stock: 1, IsActive: true,
	})

	_, err := svc.Create(CreateOrderInput{
		UserID: 7,
		Items: []OrderItemInput{
			{ProductID: fone.ID, Quantity: 2},
			{ProductID: panela.ID, Quantity: 3},
		},
		Context: context.Background(),
	})
	if err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The shortage on the second line must roll back the first decrement.
	var reloaded models.Product
	if err := db.First(&reloaded, fone.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 5 {
		t.Fatalf("expected stock 5 after rollback, got %d", reloaded.Stock)
	}
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders, got %d", orderCount)
	}
}

func TestOrderCreateGuards(t *testing.T) {
	db := setupServiceDB(t)
	svc := newOrderService(db, testConfig())

	inactive := seedCatalogProduct(t, db, &models.Product{
		Slug: "inativo", Title: "Inativo", PriceCents: 2000, Stock: 5, IsActive: false,
	})

	if _, err := svc.Create(CreateOrderInput{
		UserID:  7,
		Items:   []OrderItemInput{{ProductID: inactive.ID, Quantity: 1}},
		Context: context.Background(),
	}); err != ErrProductNotAvailable {
		t.Fatalf("expected ErrProductNotAvailable, got %v", err)
	}
	if _, err := svc.Create(CreateOrderInput{
		UserID:  7,
		Items:   []OrderItemInput{{ProductID: 0, Quantity: 1}},
		Context: context.Background(),
	}); err != ErrInvalidOrderItem {
		t.Fatalf("expected ErrInvalidOrderItem, got %v", err)
	}
	if _, err := svc.Create(CreateOrderInput{
		UserID:  7,
		Context: context.Background(),
	}); err != ErrCartEmpty {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
}

func TestOrderCreateCombinesBothCouponKinds(t *testing.T) {
	db := setupServiceDB(t)
	stub := newProviderStub(t)
	cfg := testConfig()
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newOrderService(db, cfg)

	fone := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 10000, Stock: 5, IsActive: true,
	})
	valueCoupon := &models.Coupon{Code: "VALE2000AB", FaceValueCents: 2000, SalePriceCents: 1800, Status: constants.CouponStatusAvailable}
	if err := db.Create(valueCoupon).Error; err != nil {
		t.Fatalf("seed value coupon failed: %v", err)
	}
	percentCoupon := &models.DiscountCoupon{Code: "SONHOS25", Type: constants.DiscountCouponTypeRegular, Percent: 25, IsActive: true}
	if err := db.Create(percentCoupon).Error; err != nil {
		t.Fatalf("seed percent coupon failed: %v", err)
	}

	// One coupon of each kind combines additively: 2000 face value plus 25%
	// of the undiscounted 10000 subtotal.
	order, err := svc.Create(CreateOrderInput{
		UserID:             7,
		Items:              []OrderItemInput{{ProductID: fone.ID, Quantity: 1}},
		CouponCode:         "vale2000ab",
		DiscountCouponCode: "SONHOS25",
		Context:            context.Background(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if order.DiscountCents != 4500 {
		t.Fatalf("expected combined discount 4500, got %d", order.DiscountCents)
	}
	if order.FinalCents != 10000-4500+1500 {
		t.Fatalf("unexpected final: %d", order.FinalCents)
	}
	if order.CouponCode != "VALE2000AB" || order.DiscountCouponCode != "SONHOS25" {
		t.Fatalf("unexpected coupon codes: %q / %q", order.CouponCode, order.DiscountCouponCode)
	}

	var reloadedValue models.Coupon
	if err := db.First(&reloadedValue, valueCoupon.ID).Error; err != nil {
		t.Fatalf("reload value coupon failed: %v", err)
	}
	if reloadedValue.Status != constants.CouponStatusUsed {
		t.Fatalf("expected value coupon used, got %s", reloadedValue.Status)
	}
	if reloadedValue.UsedInOrderID == nil || *reloadedValue.UsedInOrderID != order.ID {
		t.Fatalf("expected used_in_order_id %d, got %v", order.ID, reloadedValue.UsedInOrderID)
	}

	var reloadedPercent models.DiscountCoupon
	if err := db.First(&reloadedPercent, percentCoupon.ID).Error; err != nil {
		t.Fatalf("reload percent coupon failed: %v", err)
	}
	if reloadedPercent.CurrentUses != 1 {
		t.Fatalf("expected current_uses 1, got %d", reloadedPercent.CurrentUses)
	}
	var useCount int64
	if err := db.Model(&models.DiscountCouponUse{}).Where("order_id = ?", order.ID).Count(&useCount).Error; err != nil {
		t.Fatalf("count uses failed: %v", err)
	}
	if useCount != 1 {
		t.Fatalf("expected 1 use row, got %d", useCount)
	}
}

func TestOrderCreateWithDiscountCoupon(t *testing.T) {
	db := setupServiceDB(t)
	stub := newProviderStub(t)
	cfg := testConfig()
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	svc := newOrderService(db, cfg)

	fone := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 10000, Stock: 5, IsActive: true,
	})
	coupon := &models.DiscountCoupon{Code: "SONHOS25", Type: constants.DiscountCouponTypeRegular, Percent: 25, IsActive: true}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	order, err := svc.Create(CreateOrderInput{
		UserID:             7,
		Items:              []OrderItemInput{{ProductID: fone.ID, Quantity: 1}},
		DiscountCouponCode: "sonhos25",
		Context:            context.Background(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if order.DiscountCents != 2500 {
		t.Fatalf("expected discount 2500, got %d", order.DiscountCents)
	}
	if order.FinalCents != 10000-2500+1500 {
		t.Fatalf("unexpected final: %d", order.FinalCents)
	}
	if order.DiscountCouponCode != "SONHOS25" {
		t.Fatalf("unexpected discount coupon code: %s", order.DiscountCouponCode)
	}

	var reloadedCoupon models.DiscountCoupon
	if err := db.First(&reloadedCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloadedCoupon.CurrentUses != 1 {
		t.Fatalf("expected current_uses 1, got %d", reloadedCoupon.CurrentUses)
	}
	var useCount int64
	if err := db.Model(&models.DiscountCouponUse{}).Where("order_id = ?", order.ID).Count(&useCount).Error; err != nil {
		t.Fatalf("count uses failed: %v", err)
	}
	if useCount != 1 {
		t.Fatalf("expected 1 use row, got %d", useCount)
	}
}

func TestFinalCents(t *testing.T) {
	if got := finalCents(12000, 5000, 1500); got != 8500 {
		t.Fatalf("expected 8500, got %d", got)
	}
	// Discount above the goods total clamps to zero before shipping.
	if got := finalCents(3000, 5000, 1500); got != 1500 {
		t.Fatalf("expected 1500, got %d", got)
	}
	if got := finalCents(3000, 5000, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestAllocateItemDiscounts(t *testing.T) {
	items := []models.OrderItem{
		{TotalCents: 500},
		{TotalCents: 300},
		{TotalCents: 200},
	}
	allocateItemDiscounts(items, 99, 1000)
	if items[0].DiscountCents != 49 || items[1].DiscountCents != 29 || items[2].DiscountCents != 21 {
		t.Fatalf("unexpected allocation: %d/%d/%d", items[0].DiscountCents, items[1].DiscountCents, items[2].DiscountCents)
	}
	var sum int64
	for i := range items {
		sum += items[i].DiscountCents
		if items[i].DiscountCents > items[i].TotalCents {
			t.Fatalf("line %d discount exceeds total", i)
		}
	}
	if sum != 99 {
		t.Fatalf("expected allocation sum 99, got %d", sum)
	}
}

func TestAllocateItemDiscountsSpillsExcess(t *testing.T) {
	items := []models.OrderItem{
		{TotalCents: 500},
		{TotalCents: 200},
		{TotalCents: 300},
	}
	// The remainder lands on the last line and may overflow it; the
	// overflow has to spill backwards.
	allocateItemDiscounts(items, 999, 1000)
	var sum int64
	for i := range items {
		if items[i].DiscountCents > items[i].TotalCents {
			t.Fatalf("line %d discount %d exceeds total %d", i, items[i].DiscountCents, items[i].TotalCents)
		}
		sum += items[i].DiscountCents
	}
	if sum != 999 {
		t.Fatalf("expected allocation sum 999, got %d", sum)
	}

	// Discounts above the order total clamp to the total.
	clamped := []models.OrderItem{{TotalCents: 400}, {TotalCents: 600}}
	allocateItemDiscounts(clamped, 5000, 1000)
	if clamped[0].DiscountCents+clamped[1].DiscountCents != 1000 {
		t.Fatalf("expected clamp to 1000, got %d", clamped[0].DiscountCents+clamped[1].DiscountCents)
	}
}

func TestBuildProviderItemsSumsToFinal(t *testing.T) {
	order := &models.Order{
		ID:            42,
		TotalCents:    10000,
		DiscountCents: 9950,
		ShippingCents: 1500,
		FinalCents:    1550,
		Items: []models.OrderItem{
			{Title: "Fone", Quantity: 1, TotalCents: 9900, DiscountCents: 9850},
			{Title: "Capa", Quantity: 1, TotalCents: 100, DiscountCents: 100},
		},
	}

	items, shipping := buildProviderItems(order)
	if shipping != 1500 {
		t.Fatalf("expected shipping 1500, got %d", shipping)
	}
	var sum int64
	for _, item := range items {
		if item.UnitPriceCents < 1 {
			t.Fatalf("line %q below one cent: %d", item.Title, item.UnitPriceCents)
		}
		sum += item.UnitPriceCents
	}
	if sum+shipping != order.FinalCents {
		t.Fatalf("expected lines+shipping == final, got %d+%d != %d", sum, shipping, order.FinalCents)
	}
}

func TestBuildProviderItemsCollapsesTinyRemainder(t *testing.T) {
	order := &models.Order{
		ID:            43,
		TotalCents:    10000,
		DiscountCents: 9999,
		ShippingCents: 1500,
		FinalCents:    1501,
		Items: []models.OrderItem{
			{Title: "Fone", Quantity: 1, TotalCents: 5000, DiscountCents: 5000},
			{Title: "Capa", Quantity: 1, TotalCents: 5000, DiscountCents: 4999},
		},
	}

	// One cent of goods cannot cover two one-cent lines; the order
	// collapses to a single provider line.
	items, shipping := buildProviderItems(order)
	if len(items) != 1 {
		t.Fatalf("expected single collapsed line, got %d", len(items))
	}
	if items[0].UnitPriceCents+shipping != order.FinalCents {
		t.Fatalf("expected collapsed line+shipping == final, got %d+%d", items[0].UnitPriceCents, shipping)
	}
}

func TestBuildProviderItemsZeroGoods(t *testing.T) {
	order := &models.Order{
		ID:            44,
		TotalCents:    5000,
		DiscountCents: 5000,
		ShippingCents: 1500,
		FinalCents:    1500,
		Items: []models.OrderItem{
			{Title: "Fone", Quantity: 1, TotalCents: 5000, DiscountCents: 5000},
		},
	}

	items, shipping := buildProviderItems(order)
	if len(items) != 1 || shipping != 0 {
		t.Fatalf("expected one line and no separate shipping, got %d lines shipping %d", len(items), shipping)
	}
	if items[0].UnitPriceCents != order.FinalCents {
		t.Fatalf("expected line to carry the full final amount, got %d", items[0].UnitPriceCents)
	}
}

func TestOrderCreateFreeShippingThreshold(t *testing.T) {
	db := setupServiceDB(t)
	stub := newProviderStub(t)
	cfg := testConfig()
	cfg.Payment = config.PaymentConfig{AccessToken: "test-token", BaseURL: stub.URL}
	cfg.Shipping.FreeOverCents = 5000
	svc := newOrderService(db, cfg)

	fone := seedCatalogProduct(t, db, &models.Product{
		Slug: "fone", Title: "Fone", PriceCents: 6000, Stock: 5, IsActive: true,
	})

	order, err := svc.Create(CreateOrderInput{
		UserID:  7,
		Items:   []OrderItemInput{{ProductID: fone.ID, Quantity: 1}},
		Context: context.Background(),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if order.ShippingCents != 0 {
		t.Fatalf("expected free shipping, got %d", order.ShippingCents)
	}
	if order.FinalCents != 6000 {
		t.Fatalf("expected final 6000, got %d", order.FinalCents)
	}
}
