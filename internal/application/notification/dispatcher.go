package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/config"
)

const (
	// signatureHeader carries the hex HMAC-SHA256 of the request body
	signatureHeader = "X-Webhook-Signature"
	// eventHeader names the event type so receivers can route without
	// parsing the body
	eventHeader = "X-Webhook-Event"
	// maxStoredResponseBody bounds what the audit row keeps of the
	// subscriber's response
	maxStoredResponseBody = 2048
)

// Dispatcher posts signed order events to the configured subscriber with
// bounded retries. One audit row is written per attempt series regardless of
// how many attempts it took; individual attempts are observable in logs.
type Dispatcher struct {
	subscriber  reconciliation.SubscriberConfig
	signer      *Signer
	client      *http.Client
	deliveries  reconciliation.WebhookDeliveryRepository
	logger      *zap.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// NewDispatcher creates a dispatcher from the webhook configuration. An
// empty endpoint leaves the subscriber inactive; every dispatch then fails
// fast with ErrSubscriberNotConfigured.
func NewDispatcher(cfg config.WebhookConfig, deliveries reconciliation.WebhookDeliveryRepository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		subscriber: reconciliation.SubscriberConfig{
			// Stable across restarts so audit rows stay correlated.
			ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(cfg.Endpoint)),
			Endpoint: cfg.Endpoint,
			Secret:   cfg.Secret,
			Active:   cfg.Endpoint != "",
		},
		signer:      NewSigner(cfg.Secret),
		client:      &http.Client{Timeout: cfg.AttemptTimeout},
		deliveries:  deliveries,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
	}
}

// NotifyOrderEvent builds, signs and delivers one order event
func (d *Dispatcher) NotifyOrderEvent(ctx context.Context, eventType reconciliation.EventType, order *reconciliation.Order) error {
	if !d.subscriber.Active {
		return reconciliation.ErrSubscriberNotConfigured
	}

	event := reconciliation.NewOrderEvent(eventType, order)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize order event: %w", err)
	}

	return d.deliver(ctx, order.ID, payload, string(eventType), d.maxAttempts)
}

// DispatchTest sends a synthetic event in a single attempt so operators can
// verify endpoint reachability and signature handling. No retries.
func (d *Dispatcher) DispatchTest(ctx context.Context) error {
	if !d.subscriber.Active {
		return reconciliation.ErrSubscriberNotConfigured
	}

	probe := reconciliation.Order{
		ID: "test-0",
		Customer: reconciliation.Customer{
			Name:  "Webhook Probe",
			Email: "webhook-test@example.invalid",
		},
	}
	event := reconciliation.NewOrderEvent(reconciliation.EventOrderCreated, &probe)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize test event: %w", err)
	}

	return d.deliver(ctx, probe.ID, payload, string(reconciliation.EventOrderCreated), 1)
}

// deliver runs one attempt series over the exact payload bytes and writes
// the single audit row when the series ends.
func (d *Dispatcher) deliver(ctx context.Context, orderID string, payload []byte, eventType string, maxAttempts int) error {
	signature := d.signer.Sign(payload)

	var lastStatus int
	var lastBody string
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, body, err := d.post(ctx, payload, signature, eventType)
		lastStatus, lastBody, lastErr = status, body, err

		switch {
		case err == nil && status >= 200 && status < 300:
			d.logger.Info("webhook delivered",
				zap.String("order_id", orderID),
				zap.String("event", eventType),
				zap.Int("attempt", attempt),
				zap.Int("status", status))
			d.audit(ctx, orderID, payload, status, body, "")
			return nil

		case err == nil && status >= 400 && status < 500:
			// Subscriber actively rejected the payload; retrying the
			// same bytes cannot succeed.
			d.logger.Warn("webhook rejected by subscriber",
				zap.String("order_id", orderID),
				zap.String("event", eventType),
				zap.Int("attempt", attempt),
				zap.Int("status", status))
			failure := fmt.Sprintf("subscriber rejected delivery with status %d", status)
			d.audit(ctx, orderID, payload, status, body, failure)
			return fmt.Errorf("%w: status %d", reconciliation.ErrDeliveryRejected, status)

		default:
			d.logger.Warn("webhook attempt failed",
				zap.String("order_id", orderID),
				zap.String("event", eventType),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Int("status", status),
				zap.Error(err))
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(d.retryDelay):
			case <-ctx.Done():
				// The caller is gone but the series still gets its audit
				// row; the canceled ctx would fail the insert.
				d.audit(context.WithoutCancel(ctx), orderID, payload, lastStatus, lastBody, ctx.Err().Error())
				return ctx.Err()
			}
		}
	}

	failure := fmt.Sprintf("delivery failed after %d attempts", maxAttempts)
	if lastErr != nil {
		failure = fmt.Sprintf("%s: %v", failure, lastErr)
	}
	d.audit(ctx, orderID, payload, lastStatus, lastBody, failure)
	return fmt.Errorf("%w: %d attempts", reconciliation.ErrDeliveryExhausted, maxAttempts)
}

// post performs one HTTP attempt. A non-nil error means the attempt never
// produced a response (network failure, timeout).
func (d *Dispatcher) post(ctx context.Context, payload []byte, signature, eventType string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.subscriber.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, signature)
	req.Header.Set(eventHeader, eventType)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxStoredResponseBody))
	return resp.StatusCode, string(body), nil
}

// audit appends the one delivery row for a finished attempt series. Audit
// write failures are logged, never propagated: losing an audit row must not
// turn a delivered webhook into a sync error.
func (d *Dispatcher) audit(ctx context.Context, orderID string, payload []byte, status int, body, errMsg string) {
	delivery := &reconciliation.WebhookDelivery{
		SubscriberConfigID: d.subscriber.ID,
		OrderID:            orderID,
		Payload:            string(payload),
		ResponseStatus:     status,
		ResponseBody:       body,
		ErrorMessage:       errMsg,
	}
	if err := d.deliveries.Create(ctx, delivery); err != nil {
		d.logger.Error("failed to record webhook delivery",
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

// Ensure Dispatcher implements the Notifier port
var _ reconciliation.Notifier = (*Dispatcher)(nil)

// NopNotifier discards all events. Simulated providers and test wiring use
// it so no webhooks leave the process.
type NopNotifier struct{}

// NotifyOrderEvent implements Notifier
func (NopNotifier) NotifyOrderEvent(context.Context, reconciliation.EventType, *reconciliation.Order) error {
	return nil
}

// Ensure NopNotifier implements the Notifier port
var _ reconciliation.Notifier = (*NopNotifier)(nil)
