package service

import (
	"context"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/cache"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/logger"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"
)

// ProductService catalog reads and admin writes.
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates the product service.
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CatalogPage one cached catalog page.
type CatalogPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// ListCatalog returns active products. The unfiltered first page is served
// from cache when available.
func (s *ProductService) ListCatalog(ctx context.Context, filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = true
	filter.WithCategory = true

	cacheable := filter.Page <= 1 && filter.CategoryID == 0 && filter.Search == "" && !filter.OnlyAuction
	if cacheable {
		var page CatalogPage
		hit, err := cache.GetJSON(ctx, constants.CacheKeyProductCatalog, &page)
		if err != nil {
			logger.Warnw("catalog_cache_read_failed", "error", err)
		}
		if hit {
			return page.Products, page.Total, nil
		}
	}

	products, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if err := cache.SetJSON(ctx, constants.CacheKeyProductCatalog, CatalogPage{Products: products, Total: total}, constants.CacheTTLCatalogSeconds*time.Second); err != nil {
			logger.Warnw("catalog_cache_write_failed", "error", err)
		}
	}
	return products, total, nil
}

// GetBySlug returns one active product.
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Get returns one product by id regardless of visibility. Admin use.
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create inserts a product and drops the catalog cache.
func (s *ProductService) Create(ctx context.Context, product *models.Product) error {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	if err := s.productRepo.Create(product); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// Update saves a product and drops the catalog cache.
func (s *ProductService) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	if err := s.productRepo.Update(product); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// Delete soft-deletes a product and drops the catalog cache.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.productRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *ProductService) invalidateCatalog(ctx context.Context) {
	if err := cache.Del(ctx, constants.CacheKeyProductCatalog); err != nil {
		logger.Warnw("catalog_cache_invalidate_failed", "error", err)
	}
}
