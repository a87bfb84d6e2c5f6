package public

import (
	"errors"

	handlershared "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/handlers/shared"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponValidateRequest value coupon validation request
type CouponValidateRequest struct {
	Code string `json:"code" binding:"required"`
}

// ValidateCoupon checks a value coupon without consuming it. Validation
// failures still answer 200, carrying valid:false and the reason.
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var req CouponValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.CouponService.Validate(req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			response.Success(c, gin.H{"valid": false, "error": "coupon not found"})
		case errors.Is(err, service.ErrCouponNotAvailable):
			response.Success(c, gin.H{"valid": false, "error": "coupon not available"})
		case errors.Is(err, service.ErrCouponExpired):
			response.Success(c, gin.H{"valid": false, "error": "coupon expired"})
		default:
			respondError(c, response.CodeInternal, "coupon validation failed", err)
		}
		return
	}

	response.Success(c, gin.H{"valid": true, "coupon": result})
}

// CouponPurchaseRequest coupon tier purchase request
type CouponPurchaseRequest struct {
	TierSlug   string `json:"tier_slug" binding:"required"`
	PayerEmail string `json:"payer_email"`
}

// PurchaseCoupon creates a provider checkout for one coupon tier. The coupon
// itself is only minted when the payment webhook confirms approval.
func (h *Handler) PurchaseCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CouponPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.CouponService.Purchase(c.Request.Context(), userID, req.TierSlug, req.PayerEmail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponTierNotFound):
			respondError(c, response.CodeNotFound, "coupon tier not found", nil)
		case errors.Is(err, service.ErrExternalProvider):
			respondError(c, response.CodeInternal, "payment provider request failed", err)
		default:
			respondError(c, response.CodeInternal, "coupon purchase failed", err)
		}
		return
	}

	response.Success(c, result)
}

// MyCoupons lists the authenticated user's coupons.
func (h *Handler) MyCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, pageSize := handlershared.NormalizePagination(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)

	coupons, total, err := h.CouponService.ListByBuyer(userID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "coupon list failed", err)
		return
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, coupons, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}
