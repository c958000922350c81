package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Webhook Errors
// ---------------------------------------------------------------------------

var (
	// ErrSubscriberNotConfigured indicates no active subscriber endpoint
	ErrSubscriberNotConfigured = errors.New("reconciliation: webhook subscriber not configured")
	// ErrDeliveryRejected indicates the subscriber answered 4xx. Permanent;
	// the attempt sequence stops immediately.
	ErrDeliveryRejected = errors.New("reconciliation: webhook delivery rejected by subscriber")
	// ErrDeliveryExhausted indicates all delivery attempts failed
	ErrDeliveryExhausted = errors.New("reconciliation: webhook delivery attempts exhausted")
)

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// EventType names a ledger mutation a subscriber can be told about.
type EventType string

const (
	// EventOrderCreated fires when an order is first written to the ledger
	EventOrderCreated EventType = "order.created"
	// EventOrderStatusChanged fires when an existing order's status moves
	EventOrderStatusChanged EventType = "order.status_changed"
)

// OrderEvent is the wire payload posted to a subscriber endpoint.
type OrderEvent struct {
	Event EventType       `json:"event"`
	Order OrderEventEntry `json:"order"`
}

// OrderEventEntry is the order projection carried in an OrderEvent.
type OrderEventEntry struct {
	ID            string `json:"id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	Phone         string `json:"phone"`
}

// NewOrderEvent builds the event payload for an order.
func NewOrderEvent(eventType EventType, order *Order) OrderEvent {
	return OrderEvent{
		Event: eventType,
		Order: OrderEventEntry{
			ID:            order.ID,
			CustomerEmail: order.Customer.Email,
			CustomerName:  order.Customer.Name,
			Phone:         order.Customer.Phone,
		},
	}
}

// Notifier tells the configured subscriber about ledger mutations. Delivery
// is best-effort: callers log failures and move on, a dead subscriber never
// blocks reconciliation.
type Notifier interface {
	NotifyOrderEvent(ctx context.Context, eventType EventType, order *Order) error
}

// ---------------------------------------------------------------------------
// Subscriber
// ---------------------------------------------------------------------------

// SubscriberConfig is one externally configured webhook receiver.
type SubscriberConfig struct {
	// ID identifies the subscriber configuration
	ID uuid.UUID
	// Endpoint is the HTTPS URL events are posted to
	Endpoint string
	// Secret is the shared HMAC key for payload signing
	Secret string
	// Active gates dispatch; inactive subscribers receive nothing
	Active bool
}

// ---------------------------------------------------------------------------
// WebhookDelivery
// ---------------------------------------------------------------------------

// WebhookDelivery is the append-only audit record of one delivery attempt
// series. Exactly one row is written per triggering event; individual retry
// attempts are observable only in logs.
type WebhookDelivery struct {
	ID                 uuid.UUID
	SubscriberConfigID uuid.UUID
	OrderID            string
	Payload            string
	ResponseStatus     int
	ResponseBody       string
	ErrorMessage       string
	CreatedAt          time.Time
}
