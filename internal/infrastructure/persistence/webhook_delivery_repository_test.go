package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// newMockWebhookDeliveryRepository creates a repository with a mocked SQL connection
func newMockWebhookDeliveryRepository(t *testing.T) (*GormWebhookDeliveryRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormWebhookDeliveryRepository(gormDB), mock, mockDB
}

func TestGormWebhookDeliveryRepository_Create(t *testing.T) {
	t.Run("assigns id and timestamp when unset", func(t *testing.T) {
		repo, mock, mockDB := newMockWebhookDeliveryRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "webhook_deliveries"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		delivery := &reconciliation.WebhookDelivery{
			SubscriberConfigID: uuid.New(),
			OrderID:            "elogy-EL-1001",
			Payload:            `{"event":"order.created"}`,
			ResponseStatus:     200,
		}

		err := repo.Create(context.Background(), delivery)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, delivery.ID)
		assert.False(t, delivery.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps caller-supplied id", func(t *testing.T) {
		repo, mock, mockDB := newMockWebhookDeliveryRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "webhook_deliveries"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		id := uuid.New()
		createdAt := time.Now().Add(-time.Minute)
		delivery := &reconciliation.WebhookDelivery{
			ID:                 id,
			SubscriberConfigID: uuid.New(),
			OrderID:            "fhb-9001",
			Payload:            `{"event":"order.status_changed"}`,
			ErrorMessage:       "delivery failed after 3 attempts",
			CreatedAt:          createdAt,
		}

		err := repo.Create(context.Background(), delivery)
		require.NoError(t, err)
		assert.Equal(t, id, delivery.ID)
		assert.Equal(t, createdAt, delivery.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormWebhookDeliveryRepository_ListRecent(t *testing.T) {
	repo, mock, mockDB := newMockWebhookDeliveryRepository(t)
	defer mockDB.Close()

	newer := uuid.New()
	older := uuid.New()
	subscriber := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "subscriber_config_id", "order_id", "payload",
		"response_status", "response_body", "error_message", "created_at",
	}).
		AddRow(newer, subscriber, "elogy-EL-7", `{"event":"order.created"}`, 200, "ok", "", now).
		AddRow(older, subscriber, "elogy-EL-6", `{"event":"order.created"}`, 503, "busy", "delivery failed after 3 attempts", now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT \* FROM "webhook_deliveries" ORDER BY created_at DESC LIMIT .*`).
		WillReturnRows(rows)

	deliveries, err := repo.ListRecent(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	assert.Equal(t, newer, deliveries[0].ID)
	assert.Equal(t, 200, deliveries[0].ResponseStatus)
	assert.Equal(t, "delivery failed after 3 attempts", deliveries[1].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
