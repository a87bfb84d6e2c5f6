package admin

import (
	"errors"
	"strings"

	handlershared "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/handlers/shared"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCoupons lists value coupons.
func (h *Handler) ListCoupons(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)

	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}
	if raw := queryInt(c, "buyer_id", 0); raw > 0 {
		filter.BuyerID = uint(raw)
	}

	coupons, total, err := h.CouponRepo.List(filter)
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

// CouponMintBatchRequest batch mint payload
type CouponMintBatchRequest struct {
	TierSlug string `json:"tier_slug" binding:"required"`
	Count    int    `json:"count" binding:"required"`
	Batch    int    `json:"batch"`
}

// MintCouponBatch mints unsold coupons of one tier for offline distribution.
func (h *Handler) MintCouponBatch(c *gin.Context) {
	var req CouponMintBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	coupons, err := h.CouponService.MintBatch(req.TierSlug, req.Count, req.Batch)
	if err != nil {
		if errors.Is(err, service.ErrCouponTierNotFound) {
			respondError(c, response.CodeNotFound, "coupon tier not found", nil)
			return
		}
		respondError(c, response.CodeBadRequest, "coupon mint failed", err)
		return
	}

	response.Success(c, gin.H{
		"minted":  len(coupons),
		"coupons": coupons,
	})
}
