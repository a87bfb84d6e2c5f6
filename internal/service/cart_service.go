package service

import (
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/repository"
)

// CartService per-user shopping cart.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates the cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// CartView cart items with their running total.
type CartView struct {
	Items      []models.CartItem `json:"items"`
	TotalCents int64             `json:"total_cents"`
}

// List returns the user's cart with a computed total.
func (s *CartService) List(userID uint) (*CartView, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: items}
	for i := range items {
		if items[i].Product != nil {
			view.TotalCents += items[i].Product.PriceCents * int64(items[i].Quantity)
		}
	}
	return view, nil
}

// SetItem sets the quantity for one product; zero removes the line.
func (s *CartService) SetItem(userID, productID uint, quantity int) error {
	if quantity < 0 {
		return ErrInvalidOrderItem
	}
	if quantity == 0 {
		return s.cartRepo.DeleteItem(userID, productID)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}
	if product.Stock < quantity {
		return ErrInsufficientStock
	}

	now := time.Now()
	return s.cartRepo.Upsert(&models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Clear removes every line in the user's cart.
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.ClearByUser(userID)
}
