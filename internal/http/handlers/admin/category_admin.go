package admin

import (
	"errors"
	"strings"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoryRequest category create/update payload
type CategoryRequest struct {
	Slug      string `json:"slug" binding:"required"`
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// CreateCategory inserts a category.
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	category := &models.Category{
		Slug:      strings.TrimSpace(req.Slug),
		Name:      strings.TrimSpace(req.Name),
		SortOrder: req.SortOrder,
	}
	if err := h.CategoryService.Create(category); err != nil {
		respondError(c, response.CodeInternal, "category create failed", err)
		return
	}
	response.Success(c, category)
}

// UpdateCategory saves a category.
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	category, err := h.CategoryService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, response.CodeNotFound, "category not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "category fetch failed", err)
		return
	}

	category.Slug = strings.TrimSpace(req.Slug)
	category.Name = strings.TrimSpace(req.Name)
	category.SortOrder = req.SortOrder
	if err := h.CategoryService.Update(category); err != nil {
		respondError(c, response.CodeInternal, "category update failed", err)
		return
	}
	response.Success(c, category)
}

// DeleteCategory soft-deletes a category.
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.CategoryService.Delete(id); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, response.CodeNotFound, "category not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "category delete failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ListCategoryRestrictions lists allow/forbid rules for one coupon type.
func (h *Handler) ListCategoryRestrictions(c *gin.Context) {
	couponType := strings.ToLower(strings.TrimSpace(c.Query("coupon_type")))
	restrictions, err := h.CategoryRepo.ListRestrictions(couponType)
	if err != nil {
		respondError(c, response.CodeInternal, "restriction list failed", err)
		return
	}
	response.Success(c, restrictions)
}

// CategoryRestrictionRequest allow/forbid rule payload
type CategoryRestrictionRequest struct {
	CouponType string `json:"coupon_type" binding:"required"`
	Mode       string `json:"mode" binding:"required"`
}

// SetCategoryRestriction records an allow/forbid rule for a category.
func (h *Handler) SetCategoryRestriction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req CategoryRestrictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.CategoryService.SetRestriction(id, req.CouponType, req.Mode); err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			respondError(c, response.CodeBadRequest, "invalid category or mode", nil)
		case errors.Is(err, service.ErrDiscountCouponNotFound):
			respondError(c, response.CodeBadRequest, "invalid coupon type", nil)
		default:
			respondError(c, response.CodeInternal, "restriction update failed", err)
		}
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// ClearCategoryRestriction removes an allow/forbid rule.
func (h *Handler) ClearCategoryRestriction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	couponType := strings.TrimSpace(c.Query("coupon_type"))
	if couponType == "" {
		respondError(c, response.CodeBadRequest, "coupon_type is required", nil)
		return
	}

	if err := h.CategoryService.ClearRestriction(id, couponType); err != nil {
		respondError(c, response.CodeInternal, "restriction delete failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
