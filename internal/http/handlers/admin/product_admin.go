package admin

import (
	"errors"
	"strings"

	handlershared "github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/handlers/shared"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts lists products including inactive ones.
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
	)

	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		Search:       strings.TrimSpace(c.Query("search")),
		WithCategory: true,
	}
	if raw := queryInt(c, "category_id", 0); raw > 0 {
		filter.CategoryID = uint(raw)
	}
	if c.Query("only_active") == "true" {
		filter.OnlyActive = true
	}
	if c.Query("only_auction") == "true" {
		filter.OnlyAuction = true
	}

	products, total, err := h.ProductRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, products, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetProduct returns one product regardless of active state.
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := h.ProductService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.Success(c, product)
}

// ProductRequest product create/update payload
type ProductRequest struct {
	CategoryID   *uint  `json:"category_id"`
	Slug         string `json:"slug" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	PriceCents   int64  `json:"price_cents" binding:"required"`
	Stock        int    `json:"stock"`
	IsActive     *bool  `json:"is_active"`
	IsAuction    bool   `json:"is_auction"`
	AuctionStart string `json:"auction_start"`
	AuctionEnd   string `json:"auction_end"`
	SortOrder    int    `json:"sort_order"`
}

func (r *ProductRequest) apply(product *models.Product) error {
	start, err := parseTimeNullable(r.AuctionStart)
	if err != nil {
		return err
	}
	end, err := parseTimeNullable(r.AuctionEnd)
	if err != nil {
		return err
	}

	product.CategoryID = r.CategoryID
	product.Slug = strings.TrimSpace(r.Slug)
	product.Title = strings.TrimSpace(r.Title)
	product.Description = r.Description
	product.PriceCents = r.PriceCents
	product.Stock = r.Stock
	product.IsAuction = r.IsAuction
	product.AuctionStart = start
	product.AuctionEnd = end
	product.SortOrder = r.SortOrder
	if r.IsActive != nil {
		product.IsActive = *r.IsActive
	}
	return nil
}

// CreateProduct inserts a product.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if req.PriceCents <= 0 {
		respondError(c, response.CodeBadRequest, "price must be positive", nil)
		return
	}

	product := &models.Product{IsActive: true}
	if err := req.apply(product); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.ProductService.Create(c.Request.Context(), product); err != nil {
		respondError(c, response.CodeInternal, "product create failed", err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct saves a product.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	if err := req.apply(product); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.ProductService.Update(c.Request.Context(), product); err != nil {
		respondError(c, response.CodeInternal, "product update failed", err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct soft-deletes a product.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.ProductService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product delete failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
