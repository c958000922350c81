package reconciliation

import (
	"context"
	"errors"
)

var (
	// ErrOrderMissing indicates the canonical ID is not in the local ledger
	ErrOrderMissing = errors.New("reconciliation: order not in ledger")
)

// OrderRepository is the persistence port for the canonical order ledger.
// The ledger is append/update only; the engine never deletes orders.
type OrderRepository interface {
	// FindByID returns the order with the canonical ID, or ErrOrderMissing
	FindByID(ctx context.Context, id string) (*Order, error)

	// Insert writes a newly observed order
	Insert(ctx context.Context, order *Order) error

	// UpdateStatus moves an existing order to a new canonical status,
	// touching LastStatusUpdate and UpdatedAt. It is the only mutation the
	// engine performs on existing orders.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// FindActive returns all orders not yet in a terminal status for a provider
	FindActive(ctx context.Context, provider ProviderCode) ([]Order, error)

	// FindTerminalSample returns a bounded sample of terminal-status orders
	// for a provider, most recently updated first
	FindTerminalSample(ctx context.Context, provider ProviderCode, limit int) ([]Order, error)

	// CountByProvider returns how many orders the ledger holds for a provider
	CountByProvider(ctx context.Context, provider ProviderCode) (int64, error)
}

// WebhookDeliveryRepository is the persistence port for the delivery audit log.
type WebhookDeliveryRepository interface {
	// Create appends one delivery audit row
	Create(ctx context.Context, delivery *WebhookDelivery) error

	// ListRecent returns the most recent delivery rows, newest first
	ListRecent(ctx context.Context, limit int) ([]WebhookDelivery, error)
}
