package public

import (
	"errors"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"

	"github.com/gin-gonic/gin"
)

// DiscountCouponValidateRequest percent coupon validation request
type DiscountCouponValidateRequest struct {
	Code       string `json:"code" binding:"required"`
	ProductIDs []uint `json:"product_ids" binding:"required"`
}

// ValidateDiscountCoupon checks a percent coupon against candidate products.
// Every product must qualify; failures answer 200 with valid:false.
func (h *Handler) ValidateDiscountCoupon(c *gin.Context) {
	var req DiscountCouponValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.DiscountCouponService.Validate(req.Code, req.ProductIDs)
	if err != nil {
		if msg, known := discountValidationMessage(err); known {
			response.Success(c, gin.H{"valid": false, "error": msg})
			return
		}
		respondError(c, response.CodeInternal, "discount coupon validation failed", err)
		return
	}

	response.Success(c, gin.H{"valid": true, "coupon": result})
}

func discountValidationMessage(err error) (string, bool) {
	for _, rule := range discountCouponErrorRules {
		if errors.Is(err, rule.target) {
			return rule.msg, true
		}
	}
	return "", false
}
