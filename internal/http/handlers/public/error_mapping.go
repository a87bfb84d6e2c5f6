package public

import (
	"errors"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError maps one service error to its response code and message.
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var couponRedeemErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponNotAvailable, code: response.CodeBadRequest, msg: "coupon not available"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "coupon expired"},
}

var discountCouponErrorRules = []mappedHandlerError{
	{target: service.ErrDiscountCouponNotFound, code: response.CodeBadRequest, msg: "discount coupon not found"},
	{target: service.ErrDiscountCouponInactive, code: response.CodeBadRequest, msg: "discount coupon inactive"},
	{target: service.ErrDiscountCouponNotStarted, code: response.CodeBadRequest, msg: "discount coupon not started"},
	{target: service.ErrDiscountCouponExpired, code: response.CodeBadRequest, msg: "discount coupon expired"},
	{target: service.ErrDiscountCouponUsageLimit, code: response.CodeBadRequest, msg: "discount coupon usage limit reached"},
	{target: service.ErrCategoryForbidden, code: response.CodeBadRequest, msg: "coupon not allowed for product category"},
	{target: service.ErrAuctionProductRequired, code: response.CodeBadRequest, msg: "coupon only valid for auction products"},
	{target: service.ErrAuctionWindowClosed, code: response.CodeBadRequest, msg: "auction coupon outside its validity window"},
	{target: service.ErrNoEligibleItems, code: response.CodeBadRequest, msg: "no eligible items for coupon"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "product not found"},
}

var orderCreateErrorRules = concatMappedHandlerErrors(
	[]mappedHandlerError{
		{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "invalid order item"},
		{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
		{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
		{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock"},
		{target: service.ErrDiscountAlreadySet, code: response.CodeBadRequest, msg: "order already has a discount"},
		{target: service.ErrExternalProvider, code: response.CodeInternal, msg: "payment provider request failed"},
	},
	couponRedeemErrorRules,
	discountCouponErrorRules,
)

var applyDiscountErrorRules = concatMappedHandlerErrors(
	[]mappedHandlerError{
		{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
		{target: service.ErrOrderAccessDenied, code: response.CodeForbidden, msg: "order belongs to another user"},
		{target: service.ErrOrderNotPending, code: response.CodeBadRequest, msg: "order is not pending"},
		{target: service.ErrDiscountAlreadySet, code: response.CodeBadRequest, msg: "order already has a discount"},
	},
	couponRedeemErrorRules,
)

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "order create failed")
}

func respondApplyDiscountError(c *gin.Context, err error) {
	respondWithMappedError(c, err, applyDiscountErrorRules, response.CodeInternal, "apply discount failed")
}
