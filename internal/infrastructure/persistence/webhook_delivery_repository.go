package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/persistence/models"
)

// GormWebhookDeliveryRepository implements WebhookDeliveryRepository using GORM.
// The table is append-only: delivery rows are never updated or deleted.
type GormWebhookDeliveryRepository struct {
	db *gorm.DB
}

// NewGormWebhookDeliveryRepository creates a new GormWebhookDeliveryRepository
func NewGormWebhookDeliveryRepository(db *gorm.DB) *GormWebhookDeliveryRepository {
	return &GormWebhookDeliveryRepository{db: db}
}

// Create appends one delivery audit row
func (r *GormWebhookDeliveryRepository) Create(ctx context.Context, delivery *reconciliation.WebhookDelivery) error {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = time.Now()
	}
	model := &models.WebhookDeliveryModel{}
	model.FromDomain(delivery)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListRecent returns the most recent delivery rows, newest first
func (r *GormWebhookDeliveryRepository) ListRecent(ctx context.Context, limit int) ([]reconciliation.WebhookDelivery, error) {
	var deliveryModels []models.WebhookDeliveryModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&deliveryModels).Error; err != nil {
		return nil, err
	}

	deliveries := make([]reconciliation.WebhookDelivery, len(deliveryModels))
	for i := range deliveryModels {
		deliveries[i] = *deliveryModels[i].ToDomain()
	}
	return deliveries, nil
}

// Ensure GormWebhookDeliveryRepository implements the port
var _ reconciliation.WebhookDeliveryRepository = (*GormWebhookDeliveryRepository)(nil)
