package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/application/notification"
	"github.com/commerceops/backend/internal/application/reconcile"
	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/cache"
	"github.com/commerceops/backend/internal/infrastructure/config"
	"github.com/commerceops/backend/internal/infrastructure/provider"
	"github.com/commerceops/backend/internal/interfaces/http/router"
)

type emptyRegistry struct{}

func (emptyRegistry) ClientsFor(operationID string) ([]reconciliation.ProviderClient, error) {
	if operationID != provider.DefaultOperationID {
		return nil, reconciliation.ErrOperationUnknown
	}
	return nil, nil
}

type stubDeliveryRepo struct {
	rows    []reconciliation.WebhookDelivery
	lastErr error
	limit   int
}

func (r *stubDeliveryRepo) Create(ctx context.Context, delivery *reconciliation.WebhookDelivery) error {
	r.rows = append(r.rows, *delivery)
	return nil
}

func (r *stubDeliveryRepo) ListRecent(ctx context.Context, limit int) ([]reconciliation.WebhookDelivery, error) {
	r.limit = limit
	return r.rows, r.lastErr
}

func newTestEngine(t *testing.T) *reconcile.Engine {
	t.Helper()
	return reconcile.NewEngine(
		emptyRegistry{},
		nil,
		cache.NewInMemorySyncHistory(),
		cache.NewInMemoryRunLock(),
		notification.NopNotifier{},
		config.SyncConfig{TerminalSampleSize: 10, IncrementalFreshPages: 2, ProgressiveMaxRetries: 3},
		zap.NewNop(),
	)
}

func setupRouter(t *testing.T, registrars ...router.RouteRegistrar) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	r := router.New(engine)
	r.Register(registrars...)
	r.Setup()
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestSyncIntelligentDefaultsOperation(t *testing.T) {
	engine := setupRouter(t, NewSyncHandler(newTestEngine(t)))

	rec, body := doJSON(t, engine, http.MethodPost, "/api/v1/sync/intelligent", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "no providers configured", data["message"])
}

func TestSyncUnknownOperationAnswers200WithFailure(t *testing.T) {
	engine := setupRouter(t, NewSyncHandler(newTestEngine(t)))

	rec, body := doJSON(t, engine, http.MethodPost, "/api/v1/sync/full", `{"operation_id":"ghost"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["success"])
	assert.Contains(t, data["message"], "ghost")
}

func TestSyncRejectsMalformedBody(t *testing.T) {
	engine := setupRouter(t, NewSyncHandler(newTestEngine(t)))

	rec, body := doJSON(t, engine, http.MethodPost, "/api/v1/sync/incremental", `{"max_pages":"three"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestSyncState(t *testing.T) {
	engine := setupRouter(t, NewSyncHandler(newTestEngine(t)))

	rec, body := doJSON(t, engine, http.MethodGet, "/api/v1/sync/state", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, string(reconciliation.SyncPhaseIdle), data["phase"])
}

func TestListDeliveries(t *testing.T) {
	repo := &stubDeliveryRepo{rows: []reconciliation.WebhookDelivery{
		{OrderID: "fhb-100", ResponseStatus: http.StatusOK},
	}}
	dispatcher := notification.NewDispatcher(config.WebhookConfig{}, repo, zap.NewNop())
	engine := setupRouter(t, NewWebhookHandler(dispatcher, repo))

	rec, body := doJSON(t, engine, http.MethodGet, "/api/v1/webhooks/deliveries", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultDeliveryListLimit, repo.limit)
	rows := body["data"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "fhb-100", row["order_id"])
	assert.Equal(t, float64(http.StatusOK), row["response_status"])
}

func TestListDeliveriesRejectsBadLimit(t *testing.T) {
	repo := &stubDeliveryRepo{}
	dispatcher := notification.NewDispatcher(config.WebhookConfig{}, repo, zap.NewNop())
	engine := setupRouter(t, NewWebhookHandler(dispatcher, repo))

	rec, _ := doJSON(t, engine, http.MethodGet, "/api/v1/webhooks/deliveries?limit=zero", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDeliveriesRepositoryFailure(t *testing.T) {
	repo := &stubDeliveryRepo{lastErr: errors.New("boom")}
	dispatcher := notification.NewDispatcher(config.WebhookConfig{}, repo, zap.NewNop())
	engine := setupRouter(t, NewWebhookHandler(dispatcher, repo))

	rec, _ := doJSON(t, engine, http.MethodGet, "/api/v1/webhooks/deliveries", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookTestWithoutSubscriber(t *testing.T) {
	repo := &stubDeliveryRepo{}
	dispatcher := notification.NewDispatcher(config.WebhookConfig{}, repo, zap.NewNop())
	engine := setupRouter(t, NewWebhookHandler(dispatcher, repo))

	rec, body := doJSON(t, engine, http.MethodPost, "/api/v1/webhooks/test", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "WEBHOOK_NOT_CONFIGURED", body["error"].(map[string]interface{})["code"])
}

func TestHealthzWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/healthz", NewHealthHandler(nil).Healthz)

	rec, body := doJSON(t, engine, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}
