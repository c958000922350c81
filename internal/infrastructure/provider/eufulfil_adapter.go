package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// EuropeanFulfillmentClient implements the ProviderClient port for the
// European Fulfillment carrier.
type EuropeanFulfillmentClient struct {
	config     *EuropeanFulfillmentConfig
	httpClient *http.Client

	// mu guards credential so only one refresh happens under concurrent calls
	mu         sync.Mutex
	credential reconciliation.Credential
}

// NewEuropeanFulfillmentClient creates a client from a validated configuration
func NewEuropeanFulfillmentClient(config *EuropeanFulfillmentConfig) (*EuropeanFulfillmentClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EuropeanFulfillmentClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Provider returns the carrier this client talks to
func (c *EuropeanFulfillmentClient) Provider() reconciliation.ProviderCode {
	return reconciliation.ProviderEuropeanFulfillment
}

// PageSize returns the carrier-defined orders page size
func (c *EuropeanFulfillmentClient) PageSize() int {
	return eufulfilPageSize
}

// Simulated returns false; this client talks to the real carrier
func (c *EuropeanFulfillmentClient) Simulated() bool {
	return false
}

// Authenticate returns the cached bearer credential, logging in again only
// once it has expired. Concurrent callers share a single refresh.
func (c *EuropeanFulfillmentClient) Authenticate(ctx context.Context) (reconciliation.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.credential.AccessToken != "" && !c.credential.Expired() {
		return c.credential, nil
	}

	body, err := json.Marshal(eufulfilLoginRequest{
		Email:    c.config.Email,
		Password: c.config.Password,
	})
	if err != nil {
		return reconciliation.Credential{}, fmt.Errorf("eufulfil: failed to marshal login request: %w", err)
	}

	url := c.config.APIBaseURL + "/api/v2/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return reconciliation.Credential{}, fmt.Errorf("eufulfil: failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reconciliation.Credential{}, fmt.Errorf("%w: %v", reconciliation.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return reconciliation.Credential{}, fmt.Errorf("%w: login HTTP %d", reconciliation.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		// Rejected credentials are permanent; the caller must not retry.
		return reconciliation.Credential{}, fmt.Errorf("%w: login HTTP %d", reconciliation.ErrAuthenticationFailed, resp.StatusCode)
	}

	respBody, err := readBody(resp)
	if err != nil {
		return reconciliation.Credential{}, err
	}

	var login eufulfilLoginResponse
	if err := json.Unmarshal(respBody, &login); err != nil {
		return reconciliation.Credential{}, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}
	if login.Token == "" {
		return reconciliation.Credential{}, fmt.Errorf("%w: login response missing token", reconciliation.ErrProviderInvalidResponse)
	}

	ttl := login.ExpiresIn
	if ttl <= 0 {
		ttl = eufulfilDefaultTokenTTL
	}
	c.credential = reconciliation.Credential{
		AccessToken: login.Token,
		ExpiresAt:   time.Now().Add(time.Duration(ttl) * time.Second),
	}
	return c.credential, nil
}

// ListOrders returns one page of orders, 1-indexed. An empty or short page
// signals end of data.
func (c *EuropeanFulfillmentClient) ListOrders(ctx context.Context, page int) ([]reconciliation.RemoteOrder, error) {
	credential, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v2/orders?page=%d&per_page=%d", c.config.APIBaseURL, page, eufulfilPageSize)
	respBody, err := c.doGet(ctx, url, credential)
	if err != nil {
		return nil, err
	}

	var list eufulfilOrderListResponse
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}

	orders := make([]reconciliation.RemoteOrder, 0, len(list.Orders))
	for i := range list.Orders {
		orders = append(orders, c.convertOrder(&list.Orders[i]))
	}
	return orders, nil
}

// GetOrderStatus returns the current canonical status of one order, or nil
// when the carrier no longer knows the external ID.
func (c *EuropeanFulfillmentClient) GetOrderStatus(ctx context.Context, externalID string) (*reconciliation.Status, error) {
	credential, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v2/orders/%s/status", c.config.APIBaseURL, externalID)
	respBody, err := c.doGet(ctx, url, credential)
	if err != nil {
		if errors.Is(err, reconciliation.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var statusResp eufulfilOrderStatusResponse
	if err := json.Unmarshal(respBody, &statusResp); err != nil {
		return nil, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}

	status := mapEufulfilStatus(statusResp.Status)
	return &status, nil
}

// doGet performs an authenticated GET against the carrier API
func (c *EuropeanFulfillmentClient) doGet(ctx context.Context, url string, credential reconciliation.Credential) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("eufulfil: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reconciliation.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, reconciliation.ErrOrderNotFound
	}
	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	return readBody(resp)
}

// convertOrder maps a carrier order into the canonical RemoteOrder shape
func (c *EuropeanFulfillmentClient) convertOrder(order *eufulfilOrder) reconciliation.RemoteOrder {
	total, err := decimal.NewFromString(order.TotalPrice)
	if err != nil {
		total = decimal.Zero
	}

	remote := reconciliation.RemoteOrder{
		ExternalID:    order.OrderNumber,
		Total:         total,
		Currency:      order.Currency,
		RawStatus:     order.Status,
		Status:        mapEufulfilStatus(order.Status),
		PaymentMethod: order.PaymentMethod,
		Provider:      reconciliation.ProviderEuropeanFulfillment,
	}
	if remote.Currency == "" {
		remote.Currency = "EUR"
	}

	if t, err := time.Parse(time.RFC3339, order.CreatedAt); err == nil {
		remote.OrderDate = t
	}

	if order.Recipient != nil {
		remote.Customer = reconciliation.Customer{
			Name:    order.Recipient.Name,
			Email:   order.Recipient.Email,
			Phone:   order.Recipient.Phone,
			City:    order.Recipient.City,
			Country: order.Recipient.Country,
		}
	}

	if rawBytes, err := json.Marshal(order); err == nil {
		remote.RawPayload = string(rawBytes)
	}

	return remote
}

// Ensure EuropeanFulfillmentClient implements the ProviderClient port
var _ reconciliation.ProviderClient = (*EuropeanFulfillmentClient)(nil)
