package repository

import (
	"errors"
	"time"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/constants"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"

	"gorm.io/gorm"
)

// OrderRepository order data access interface
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetByIDWithItems(id uint) (*models.Order, error)
	GetByExternalReference(reference string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListPendingOlderThan(cutoff time.Time, limit int) ([]models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	SetDiscountIfUnset(orderID uint, couponCode string, discountCents, finalCents int64) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM implementation
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates the order repository
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds a transaction
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// GetByID fetches an order by id
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDWithItems fetches an order with its item snapshots
func (r *GormOrderRepository) GetByIDWithItems(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByExternalReference fetches an order by provider reference
func (r *GormOrderRepository) GetByExternalReference(reference string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("external_reference = ?", reference).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List returns a filtered order page
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListPendingOlderThan returns pending orders created before the cutoff,
// used by the reconciliation sweep.
func (r *GormOrderRepository) ListPendingOlderThan(cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var orders []models.Order
	err := r.db.Where("status = ? AND created_at < ?", constants.OrderStatusPending, cutoff).
		Order("id asc").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Create inserts an order with its items
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update saves an order
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// SetDiscountIfUnset records a coupon discount on an order only when the
// order carries none yet. The predicate keeps concurrent applications to
// one winner; the loser sees zero rows affected.
func (r *GormOrderRepository) SetDiscountIfUnset(orderID uint, couponCode string, discountCents, finalCents int64) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND discount_cents = 0", orderID).
		Updates(map[string]interface{}{
			"coupon_code":    couponCode,
			"discount_cents": discountCents,
			"final_cents":    finalCents,
			"updated_at":     time.Now(),
		})
	return result.RowsAffected, result.Error
}
