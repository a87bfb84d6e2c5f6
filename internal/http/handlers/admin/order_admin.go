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

// ListOrders lists orders across all users.
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}
	if raw := queryInt(c, "user_id", 0); raw > 0 {
		filter.UserID = uint(raw)
	}

	orders, total, err := h.OrderRepo.List(filter)
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

// GetOrder returns any order with its items.
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	order, err := h.OrderService.Get(0, id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, order)
}
