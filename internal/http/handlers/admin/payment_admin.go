package admin

import (
	"strings"

	handlershared "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/handlers/shared"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListPayments lists reconciled provider payments.
func (h *Handler) ListPayments(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)

	filter := repository.PaymentListFilter{
		Page:     page,
		PageSize: pageSize,
		Kind:     strings.ToLower(strings.TrimSpace(c.Query("kind"))),
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}
	if raw := queryInt(c, "order_id", 0); raw > 0 {
		filter.OrderID = uint(raw)
	}

	payments, total, err := h.PaymentRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "payment list failed", err)
		return
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, payments, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}
