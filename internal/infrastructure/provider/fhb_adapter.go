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

// FHBClient implements the ProviderClient port for the FHB Group carrier.
type FHBClient struct {
	config     *FHBConfig
	httpClient *http.Client

	mu         sync.Mutex
	credential reconciliation.Credential
}

// NewFHBClient creates a client from a validated configuration
func NewFHBClient(config *FHBConfig) (*FHBClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FHBClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Provider returns the carrier this client talks to
func (c *FHBClient) Provider() reconciliation.ProviderCode {
	return reconciliation.ProviderFHB
}

// PageSize returns the carrier-defined orders page size
func (c *FHBClient) PageSize() int {
	return fhbPageSize
}

// Simulated returns false; this client talks to the real carrier
func (c *FHBClient) Simulated() bool {
	return false
}

// Authenticate returns the cached bearer credential, logging in again only
// once it has expired. FHB tokens live for a documented fixed period.
func (c *FHBClient) Authenticate(ctx context.Context) (reconciliation.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.credential.AccessToken != "" && !c.credential.Expired() {
		return c.credential, nil
	}

	body, err := json.Marshal(fhbLoginRequest{
		Email:     c.config.Email,
		Password:  c.config.Password,
		APISecret: c.config.APISecret,
	})
	if err != nil {
		return reconciliation.Credential{}, fmt.Errorf("fhb: failed to marshal login request: %w", err)
	}

	url := c.config.APIBaseURL + "/api/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return reconciliation.Credential{}, fmt.Errorf("fhb: failed to create login request: %w", err)
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
		return reconciliation.Credential{}, fmt.Errorf("%w: login HTTP %d", reconciliation.ErrAuthenticationFailed, resp.StatusCode)
	}

	respBody, err := readBody(resp)
	if err != nil {
		return reconciliation.Credential{}, err
	}

	var login fhbLoginResponse
	if err := json.Unmarshal(respBody, &login); err != nil {
		return reconciliation.Credential{}, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}
	if login.Token == "" {
		return reconciliation.Credential{}, fmt.Errorf("%w: login response missing token", reconciliation.ErrProviderInvalidResponse)
	}

	c.credential = reconciliation.Credential{
		AccessToken: login.Token,
		ExpiresAt:   time.Now().Add(fhbTokenTTL * time.Second),
	}
	return c.credential, nil
}

// ListOrders returns one page of orders, 1-indexed.
func (c *FHBClient) ListOrders(ctx context.Context, page int) ([]reconciliation.RemoteOrder, error) {
	credential, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/orders?page=%d&limit=%d", c.config.APIBaseURL, page, fhbPageSize)
	respBody, err := c.doGet(ctx, url, credential)
	if err != nil {
		return nil, err
	}

	var list fhbOrderListResponse
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}

	orders := make([]reconciliation.RemoteOrder, 0, len(list.Items))
	for i := range list.Items {
		orders = append(orders, c.convertOrder(&list.Items[i]))
	}
	return orders, nil
}

// GetOrderStatus returns the current canonical status of one order, or nil
// when the carrier no longer knows the ID.
func (c *FHBClient) GetOrderStatus(ctx context.Context, externalID string) (*reconciliation.Status, error) {
	credential, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/orders/%s/state", c.config.APIBaseURL, externalID)
	respBody, err := c.doGet(ctx, url, credential)
	if err != nil {
		if errors.Is(err, reconciliation.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var state fhbOrderStateResponse
	if err := json.Unmarshal(respBody, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}

	status := mapFHBStatus(state.OrderState)
	return &status, nil
}

// doGet performs an authenticated GET against the carrier API
func (c *FHBClient) doGet(ctx context.Context, url string, credential reconciliation.Credential) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fhb: failed to create request: %w", err)
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
func (c *FHBClient) convertOrder(order *fhbOrder) reconciliation.RemoteOrder {
	total, err := decimal.NewFromString(order.PriceTotal)
	if err != nil {
		total = decimal.Zero
	}

	remote := reconciliation.RemoteOrder{
		ExternalID: order.ID,
		Customer: reconciliation.Customer{
			Name:    order.CustomerName,
			Email:   order.CustomerEmail,
			Phone:   order.CustomerPhone,
			City:    order.City,
			Country: order.CountryCode,
		},
		Total:         total,
		Currency:      order.Currency,
		RawStatus:     order.OrderState,
		Status:        mapFHBStatus(order.OrderState),
		PaymentMethod: order.PaymentType,
		Provider:      reconciliation.ProviderFHB,
	}
	if remote.Currency == "" {
		remote.Currency = "EUR"
	}

	if t, err := time.Parse(time.RFC3339, order.OrderedAt); err == nil {
		remote.OrderDate = t
	}

	if rawBytes, err := json.Marshal(order); err == nil {
		remote.RawPayload = string(rawBytes)
	}

	return remote
}

// Ensure FHBClient implements the ProviderClient port
var _ reconciliation.ProviderClient = (*FHBClient)(nil)
