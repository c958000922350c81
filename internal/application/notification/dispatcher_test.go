package notification

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/config"
)

// recordingDeliveryRepo captures audit rows in memory
type recordingDeliveryRepo struct {
	mu         sync.Mutex
	deliveries []reconciliation.WebhookDelivery
}

func (r *recordingDeliveryRepo) Create(_ context.Context, d *reconciliation.WebhookDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, *d)
	return nil
}

func (r *recordingDeliveryRepo) ListRecent(_ context.Context, limit int) ([]reconciliation.WebhookDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.deliveries) {
		limit = len(r.deliveries)
	}
	return append([]reconciliation.WebhookDelivery(nil), r.deliveries[:limit]...), nil
}

func (r *recordingDeliveryRepo) rows() []reconciliation.WebhookDelivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reconciliation.WebhookDelivery(nil), r.deliveries...)
}

func newTestDispatcher(endpoint, secret string, repo *recordingDeliveryRepo) *Dispatcher {
	return NewDispatcher(config.WebhookConfig{
		Endpoint:       endpoint,
		Secret:         secret,
		MaxAttempts:    3,
		RetryDelay:     5 * time.Millisecond,
		AttemptTimeout: time.Second,
	}, repo, zap.NewNop())
}

func testEventOrder() *reconciliation.Order {
	return &reconciliation.Order{
		ID: "elogy-EL-1001",
		Customer: reconciliation.Customer{
			Name:  "Jana Horakova",
			Email: "jana@example.com",
			Phone: "+420601234567",
		},
	}
}

func TestDispatcher_DeliversSignedPayload(t *testing.T) {
	var gotBody []byte
	var gotSignature, gotEvent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotEvent = r.Header.Get("X-Webhook-Event")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &recordingDeliveryRepo{}
	d := newTestDispatcher(srv.URL, "topsecret", repo)

	err := d.NotifyOrderEvent(context.Background(), reconciliation.EventOrderCreated, testEventOrder())
	require.NoError(t, err)

	assert.Equal(t, "order.created", gotEvent)
	assert.JSONEq(t, `{
		"event": "order.created",
		"order": {
			"id": "elogy-EL-1001",
			"customer_email": "jana@example.com",
			"customer_name": "Jana Horakova",
			"phone": "+420601234567"
		}
	}`, string(gotBody))
	// Signature covers the exact bytes on the wire.
	assert.True(t, NewSigner("topsecret").Verify(gotBody, gotSignature))

	rows := repo.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, http.StatusOK, rows[0].ResponseStatus)
	assert.Equal(t, "elogy-EL-1001", rows[0].OrderID)
	assert.Empty(t, rows[0].ErrorMessage)
	assert.Equal(t, string(gotBody), rows[0].Payload)
}

func TestDispatcher_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &recordingDeliveryRepo{}
	d := newTestDispatcher(srv.URL, "s", repo)

	err := d.NotifyOrderEvent(context.Background(), reconciliation.EventOrderStatusChanged, testEventOrder())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	// One audit row for the whole series, recording the final outcome.
	rows := repo.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, http.StatusOK, rows[0].ResponseStatus)
	assert.Empty(t, rows[0].ErrorMessage)
}

func TestDispatcher_ClientErrorIsPermanent(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	repo := &recordingDeliveryRepo{}
	d := newTestDispatcher(srv.URL, "s", repo)

	err := d.NotifyOrderEvent(context.Background(), reconciliation.EventOrderCreated, testEventOrder())
	assert.ErrorIs(t, err, reconciliation.ErrDeliveryRejected)
	assert.Equal(t, 1, attempts, "4xx must not be retried")

	rows := repo.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, http.StatusBadRequest, rows[0].ResponseStatus)
	assert.Contains(t, rows[0].ErrorMessage, "rejected")
}

func TestDispatcher_ExhaustsRetries(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	repo := &recordingDeliveryRepo{}
	d := newTestDispatcher(srv.URL, "s", repo)

	err := d.NotifyOrderEvent(context.Background(), reconciliation.EventOrderCreated, testEventOrder())
	assert.ErrorIs(t, err, reconciliation.ErrDeliveryExhausted)
	assert.Equal(t, 3, attempts)

	rows := repo.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, http.StatusServiceUnavailable, rows[0].ResponseStatus)
	assert.Contains(t, rows[0].ErrorMessage, "3 attempts")
}

func TestDispatcher_NetworkFailureRecordedInAudit(t *testing.T) {
	// A server that is immediately closed yields connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	repo := &recordingDeliveryRepo{}
	d := newTestDispatcher(endpoint, "s", repo)

	err := d.NotifyOrderEvent(context.Background(), reconciliation.EventOrderCreated, testEventOrder())
	assert.ErrorIs(t, err, reconciliation.ErrDeliveryExhausted)

	rows := repo.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].ResponseStatus)
	assert.NotEmpty(t, rows[0].ErrorMessage)
}

// ctxAwareDeliveryRepo additionally remembers whether the ctx handed to
// Create was already done
type ctxAwareDeliveryRepo struct {
	recordingDeliveryRepo
	createCtxErr error
}

func (r *ctxAwareDeliveryRepo) Create(ctx context.Context, d *reconciliation.WebhookDelivery) error {
	r.mu.Lock()
	r.createCtxErr = ctx.Err()
	r.mu.Unlock()
	return r.recordingDeliveryRepo.Create(ctx, d)
}

func TestDispatcher_CancellationDuringRetryStillAudited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	repo := &ctxAwareDeliveryRepo{}
	d := NewDispatcher(config.WebhookConfig{
		Endpoint:       srv.URL,
		Secret:         "s",
		MaxAttempts:    3,
		RetryDelay:     time.Minute, // the cancel must win the retry wait
		AttemptTimeout: time.Second,
	}, repo, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(50*time.Millisecond, cancel)
	defer timer.Stop()

	err := d.NotifyOrderEvent(ctx, reconciliation.EventOrderCreated, testEventOrder())
	assert.ErrorIs(t, err, context.Canceled)

	// The series still gets its audit row, written outside the canceled ctx.
	rows := repo.rows()
	require.Len(t, rows, 1)
	assert.Equal(t, http.StatusBadGateway, rows[0].ResponseStatus)
	assert.Contains(t, rows[0].ErrorMessage, "context canceled")
	assert.NoError(t, repo.createCtxErr, "audit write must not inherit the cancellation")
}

func TestDispatcher_UnconfiguredSubscriber(t *testing.T) {
	repo := &recordingDeliveryRepo{}
	d := newTestDispatcher("", "s", repo)

	err := d.NotifyOrderEvent(context.Background(), reconciliation.EventOrderCreated, testEventOrder())
	assert.ErrorIs(t, err, reconciliation.ErrSubscriberNotConfigured)
	assert.Empty(t, repo.rows(), "no audit row without an attempt")
}

func TestDispatcher_DispatchTestSingleAttempt(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := &recordingDeliveryRepo{}
	d := newTestDispatcher(srv.URL, "s", repo)

	err := d.DispatchTest(context.Background())
	assert.ErrorIs(t, err, reconciliation.ErrDeliveryExhausted)
	assert.Equal(t, 1, attempts, "test dispatch never retries")
	assert.Len(t, repo.rows(), 1)
}
