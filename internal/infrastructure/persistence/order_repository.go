package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/persistence/models"
)

// terminalStatuses is the set sampled (rather than fully re-checked) by
// incremental syncs
var terminalStatuses = []reconciliation.Status{
	reconciliation.StatusDelivered,
	reconciliation.StatusCancelled,
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its canonical ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*reconciliation.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconciliation.ErrOrderMissing
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Insert writes a newly observed order
func (r *GormOrderRepository) Insert(ctx context.Context, order *reconciliation.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).Create(model).Error
}

// UpdateStatus moves an existing order to a new canonical status. Only the
// status and its timestamps are touched; everything else keeps the value
// from first observation.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status reconciliation.Status) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":             status,
			"last_status_update": now,
			"updated_at":         now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reconciliation.ErrOrderMissing
	}
	return nil
}

// FindActive returns all orders not yet in a terminal status for a provider
func (r *GormOrderRepository) FindActive(ctx context.Context, provider reconciliation.ProviderCode) ([]reconciliation.Order, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND status NOT IN ?", provider, terminalStatuses).
		Order("updated_at DESC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindTerminalSample returns a bounded sample of terminal-status orders for
// a provider, most recently updated first. Incremental syncs use it to catch
// rare post-terminal corrections.
func (r *GormOrderRepository) FindTerminalSample(ctx context.Context, provider reconciliation.ProviderCode, limit int) ([]reconciliation.Order, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND status IN ?", provider, terminalStatuses).
		Order("updated_at DESC").
		Limit(limit).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// CountByProvider returns how many orders the ledger holds for a provider
func (r *GormOrderRepository) CountByProvider(ctx context.Context, provider reconciliation.ProviderCode) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("provider = ?", provider).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func toDomainOrders(orderModels []models.OrderModel) []reconciliation.Order {
	orders := make([]reconciliation.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders
}

// Ensure GormOrderRepository implements the OrderRepository port
var _ reconciliation.OrderRepository = (*GormOrderRepository)(nil)
