package public

import (
	"errors"
	"strconv"

	handlershared "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/handlers/shared"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderCreateRequest checkout request. Items may be omitted to buy the
// current cart contents.
type OrderCreateRequest struct {
	Items              []service.OrderItemInput `json:"items"`
	CouponCode         string                   `json:"coupon_code"`
	DiscountCouponCode string                   `json:"discount_coupon_code"`
	PayerEmail         string                   `json:"payer_email"`
}

// CreateOrder assembles an order and returns the provider checkout URL.
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.OrderService.Create(service.CreateOrderInput{
		UserID:             userID,
		Items:              req.Items,
		CouponCode:         req.CouponCode,
		DiscountCouponCode: req.DiscountCouponCode,
		PayerEmail:         req.PayerEmail,
		Context:            c.Request.Context(),
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	response.Success(c, gin.H{
		"order_id":     order.ID,
		"status":       order.Status,
		"final_cents":  order.FinalCents,
		"checkout_url": order.CheckoutURL,
	})
}

// ListOrders lists the authenticated user's orders.
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, pageSize := handlershared.NormalizePagination(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)

	orders, total, err := h.OrderService.ListByUser(userID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetOrder returns one of the user's orders with its items.
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.Get(userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderAccessDenied):
			respondError(c, response.CodeForbidden, "order belongs to another user", nil)
		default:
			respondError(c, response.CodeInternal, "order fetch failed", err)
		}
		return
	}

	response.Success(c, order)
}

// OrderApplyDiscountRequest value coupon application request
type OrderApplyDiscountRequest struct {
	CouponCode string `json:"coupon_code" binding:"required"`
	PayerEmail string `json:"payer_email"`
}

// ApplyDiscount redeems a value coupon against a pending order. The provider
// preference refresh afterwards is best effort; the discount itself already
// committed.
func (h *Handler) ApplyDiscount(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req OrderApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.CouponService.ApplyToOrder(userID, orderID, req.CouponCode)
	if err != nil {
		respondApplyDiscountError(c, err)
		return
	}

	if refreshed, err := h.OrderService.RefreshPreference(c.Request.Context(), order.ID, req.PayerEmail); err != nil {
		requestLog(c).Warnw("order_preference_refresh_failed",
			"order_id", order.ID,
			"error", err,
		)
	} else if refreshed != nil {
		order = refreshed
	}

	response.Success(c, gin.H{
		"order_id":       order.ID,
		"coupon_code":    order.CouponCode,
		"discount_cents": order.DiscountCents,
		"final_cents":    order.FinalCents,
		"checkout_url":   order.CheckoutURL,
	})
}

func parseOrderID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return 0, false
	}
	return uint(id), true
}
