package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestEuropeanFulfillmentConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		config        *EuropeanFulfillmentConfig
		missingFields []string
	}{
		{
			name:   "valid config",
			config: &EuropeanFulfillmentConfig{Email: "ops@example.com", Password: "secret"},
		},
		{
			name:          "missing password",
			config:        &EuropeanFulfillmentConfig{Email: "ops@example.com"},
			missingFields: []string{"password"},
		},
		{
			name:          "missing everything",
			config:        &EuropeanFulfillmentConfig{},
			missingFields: []string{"email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if len(tt.missingFields) == 0 {
				require.NoError(t, err)
				assert.Equal(t, EuropeanFulfillmentAPIURL, tt.config.APIBaseURL)
				assert.Positive(t, tt.config.TimeoutSeconds)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, reconciliation.ErrProviderNotConfigured)

			var missing *reconciliation.MissingFieldsError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.missingFields, missing.Fields)
			assert.Equal(t, reconciliation.ProviderEuropeanFulfillment, missing.Provider)
		})
	}
}

func TestNewEuropeanFulfillmentClient_FailsFastOnMissingCredentials(t *testing.T) {
	_, err := NewEuropeanFulfillmentClient(&EuropeanFulfillmentConfig{})
	assert.ErrorIs(t, err, reconciliation.ErrProviderNotConfigured)
}

// ---------------------------------------------------------------------------
// Authentication Tests
// ---------------------------------------------------------------------------

func newEufulfilTestServer(t *testing.T, loginCalls *int64, orders []eufulfilOrder) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(loginCalls, 1)
		var req eufulfilLoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(eufulfilLoginResponse{Token: "tok-1", ExpiresIn: 3600})
	})
	mux.HandleFunc("/api/v2/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(eufulfilOrderListResponse{Orders: orders})
	})
	return httptest.NewServer(mux)
}

func TestEuropeanFulfillmentClient_AuthenticateCachesToken(t *testing.T) {
	var loginCalls int64
	server := newEufulfilTestServer(t, &loginCalls, nil)
	defer server.Close()

	client, err := NewEuropeanFulfillmentClient(&EuropeanFulfillmentConfig{
		Email: "ops@example.com", Password: "secret", APIBaseURL: server.URL,
	})
	require.NoError(t, err)

	// Concurrent callers must share a single refresh
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			credential, err := client.Authenticate(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-1", credential.AccessToken)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&loginCalls))

	// Page fetches reuse the cached token instead of logging in again
	_, err = client.ListOrders(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&loginCalls))
}

func TestEuropeanFulfillmentClient_AuthenticateRejectedCredentials(t *testing.T) {
	var loginCalls int64
	server := newEufulfilTestServer(t, &loginCalls, nil)
	defer server.Close()

	client, err := NewEuropeanFulfillmentClient(&EuropeanFulfillmentConfig{
		Email: "ops@example.com", Password: "wrong", APIBaseURL: server.URL,
	})
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background())
	assert.ErrorIs(t, err, reconciliation.ErrAuthenticationFailed)
}

func TestEuropeanFulfillmentClient_AuthenticateServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewEuropeanFulfillmentClient(&EuropeanFulfillmentConfig{
		Email: "ops@example.com", Password: "secret", APIBaseURL: server.URL,
	})
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background())
	assert.ErrorIs(t, err, reconciliation.ErrProviderUnavailable)
}

// ---------------------------------------------------------------------------
// Order Listing Tests
// ---------------------------------------------------------------------------

func TestEuropeanFulfillmentClient_ListOrders(t *testing.T) {
	var loginCalls int64
	server := newEufulfilTestServer(t, &loginCalls, []eufulfilOrder{
		{
			OrderNumber:   "EF-1001",
			Status:        "sent",
			TotalPrice:    "129.90",
			Currency:      "EUR",
			PaymentMethod: "card",
			CreatedAt:     "2026-01-15T10:30:00Z",
			Recipient: &struct {
				Name    string `json:"name"`
				Email   string `json:"email"`
				Phone   string `json:"phone"`
				City    string `json:"city"`
				Country string `json:"country"`
			}{Name: "Jana Novak", Email: "jana@example.com", Phone: "+421901234567", City: "Kosice", Country: "SK"},
		},
		{OrderNumber: "EF-1002", Status: "some_future_status", TotalPrice: "bogus"},
	})
	defer server.Close()

	client, err := NewEuropeanFulfillmentClient(&EuropeanFulfillmentConfig{
		Email: "ops@example.com", Password: "secret", APIBaseURL: server.URL,
	})
	require.NoError(t, err)

	orders, err := client.ListOrders(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "EF-1001", first.ExternalID)
	assert.Equal(t, reconciliation.StatusShipped, first.Status)
	assert.Equal(t, "sent", first.RawStatus)
	assert.True(t, decimal.RequireFromString("129.90").Equal(first.Total))
	assert.Equal(t, "Jana Novak", first.Customer.Name)
	assert.Equal(t, "jana@example.com", first.Customer.Email)
	assert.Equal(t, reconciliation.ProviderEuropeanFulfillment, first.Provider)
	assert.NotEmpty(t, first.RawPayload)

	// Unknown carrier statuses default to pending and the order survives
	second := orders[1]
	assert.Equal(t, reconciliation.StatusPending, second.Status)
	assert.True(t, second.Total.IsZero())
}

func TestMapEufulfilStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want reconciliation.Status
	}{
		{"new", reconciliation.StatusPending},
		{"confirmed", reconciliation.StatusConfirmed},
		{"packed", reconciliation.StatusConfirmed},
		{"sent", reconciliation.StatusShipped},
		{"delivered", reconciliation.StatusDelivered},
		{"returned", reconciliation.StatusCancelled},
		{"cancelled", reconciliation.StatusCancelled},
		{"never_heard_of_it", reconciliation.StatusPending},
		{"", reconciliation.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, mapEufulfilStatus(tt.raw))
		})
	}
}

func TestEuropeanFulfillmentClient_GetOrderStatusNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(eufulfilLoginResponse{Token: "tok-1", ExpiresIn: 3600})
	})
	mux.HandleFunc("/api/v2/orders/GONE/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewEuropeanFulfillmentClient(&EuropeanFulfillmentConfig{
		Email: "ops@example.com", Password: "secret", APIBaseURL: server.URL,
	})
	require.NoError(t, err)

	status, err := client.GetOrderStatus(context.Background(), "GONE")
	require.NoError(t, err)
	assert.Nil(t, status)
}
