package admin

import (
	"strings"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	handlershared "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/handlers/shared"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListDiscountCoupons lists percent coupons.
func (h *Handler) ListDiscountCoupons(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)

	filter := repository.DiscountCouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Type:     strings.ToLower(strings.TrimSpace(c.Query("type"))),
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	coupons, total, err := h.DiscountCouponRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "discount coupon list failed", err)
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

// DiscountCouponRequest percent coupon create/update payload
type DiscountCouponRequest struct {
	Code       string `json:"code" binding:"required"`
	Type       string `json:"type" binding:"required"`
	Percent    int    `json:"percent" binding:"required"`
	IsActive   *bool  `json:"is_active"`
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
	MaxUses    *int   `json:"max_uses"`
}

func (r *DiscountCouponRequest) apply(coupon *models.DiscountCoupon) (string, bool) {
	couponType := strings.ToLower(strings.TrimSpace(r.Type))
	if couponType != constants.DiscountCouponTypeRegular && couponType != constants.DiscountCouponTypeAuction {
		return "invalid coupon type", false
	}
	if r.Percent <= 0 || r.Percent > 100 {
		return "percent out of range", false
	}
	validFrom, err := parseTimeNullable(r.ValidFrom)
	if err != nil {
		return "invalid valid_from", false
	}
	validUntil, err := parseTimeNullable(r.ValidUntil)
	if err != nil {
		return "invalid valid_until", false
	}
	if couponType == constants.DiscountCouponTypeAuction && (validFrom == nil || validUntil == nil) {
		return "auction coupons require a date window", false
	}

	coupon.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	coupon.Type = couponType
	coupon.Percent = r.Percent
	coupon.ValidFrom = validFrom
	coupon.ValidUntil = validUntil
	coupon.MaxUses = r.MaxUses
	if r.IsActive != nil {
		coupon.IsActive = *r.IsActive
	}
	return "", true
}

// CreateDiscountCoupon inserts a percent coupon.
func (h *Handler) CreateDiscountCoupon(c *gin.Context) {
	var req DiscountCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	coupon := &models.DiscountCoupon{IsActive: true}
	if msg, ok := req.apply(coupon); !ok {
		respondError(c, response.CodeBadRequest, msg, nil)
		return
	}

	if err := h.DiscountCouponRepo.Create(coupon); err != nil {
		respondError(c, response.CodeInternal, "discount coupon create failed", err)
		return
	}
	response.Success(c, coupon)
}

// UpdateDiscountCoupon saves a percent coupon.
func (h *Handler) UpdateDiscountCoupon(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req DiscountCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	coupon, err := h.DiscountCouponRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "discount coupon fetch failed", err)
		return
	}
	if coupon == nil {
		respondError(c, response.CodeNotFound, "discount coupon not found", nil)
		return
	}

	if msg, ok := req.apply(coupon); !ok {
		respondError(c, response.CodeBadRequest, msg, nil)
		return
	}

	if err := h.DiscountCouponRepo.Update(coupon); err != nil {
		respondError(c, response.CodeInternal, "discount coupon update failed", err)
		return
	}
	response.Success(c, coupon)
}

// DeleteDiscountCoupon soft-deletes a percent coupon.
func (h *Handler) DeleteDiscountCoupon(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	coupon, err := h.DiscountCouponRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "discount coupon fetch failed", err)
		return
	}
	if coupon == nil {
		respondError(c, response.CodeNotFound, "discount coupon not found", nil)
		return
	}

	if err := h.DiscountCouponRepo.Delete(id); err != nil {
		respondError(c, response.CodeInternal, "discount coupon delete failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
