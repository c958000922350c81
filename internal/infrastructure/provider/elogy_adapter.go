package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// centsPerUnit converts Elogy minor-unit amounts to major units
const centsPerUnit = 100

// ElogyClient implements the ProviderClient port for the Elogy carrier.
type ElogyClient struct {
	config     *ElogyConfig
	httpClient *http.Client

	mu         sync.Mutex
	credential reconciliation.Credential
}

// NewElogyClient creates a client from a validated configuration
func NewElogyClient(config *ElogyConfig) (*ElogyClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ElogyClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Provider returns the carrier this client talks to
func (c *ElogyClient) Provider() reconciliation.ProviderCode {
	return reconciliation.ProviderElogy
}

// PageSize returns the carrier-defined orders page size
func (c *ElogyClient) PageSize() int {
	return elogyPageSize
}

// Simulated returns false; this client talks to the real carrier
func (c *ElogyClient) Simulated() bool {
	return false
}

// Authenticate exchanges the API key for a JWT access token and caches it
// until the token's exp claim. Concurrent callers share a single refresh.
func (c *ElogyClient) Authenticate(ctx context.Context) (reconciliation.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.credential.AccessToken != "" && !c.credential.Expired() {
		return c.credential, nil
	}

	url := c.config.APIBaseURL + "/v1/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return reconciliation.Credential{}, fmt.Errorf("elogy: failed to create token request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.config.APIKey)
	req.Header.Set("X-Warehouse-Id", c.config.WarehouseID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reconciliation.Credential{}, fmt.Errorf("%w: %v", reconciliation.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return reconciliation.Credential{}, fmt.Errorf("%w: token HTTP %d", reconciliation.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return reconciliation.Credential{}, fmt.Errorf("%w: token HTTP %d", reconciliation.ErrAuthenticationFailed, resp.StatusCode)
	}

	respBody, err := readBody(resp)
	if err != nil {
		return reconciliation.Credential{}, err
	}

	var token elogyTokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return reconciliation.Credential{}, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}
	if token.AccessToken == "" {
		return reconciliation.Credential{}, fmt.Errorf("%w: token response missing access_token", reconciliation.ErrProviderInvalidResponse)
	}

	c.credential = reconciliation.Credential{
		AccessToken: token.AccessToken,
		ExpiresAt:   tokenExpiry(token.AccessToken),
	}
	return c.credential, nil
}

// tokenExpiry derives the cache deadline from the JWT exp claim. The token
// is not verified here; the carrier is the issuer and the claim is only
// used to schedule the next refresh. Tokens without a usable claim fall
// back to a fixed TTL.
func tokenExpiry(accessToken string) time.Time {
	fallback := time.Now().Add(elogyFallbackTokenTTL * time.Second)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || !exp.After(time.Now()) {
		return fallback
	}
	return exp.Time
}

// ListOrders returns one page of orders, 1-indexed.
func (c *ElogyClient) ListOrders(ctx context.Context, page int) ([]reconciliation.RemoteOrder, error) {
	credential, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/orders?page=%d&per_page=%d", c.config.APIBaseURL, page, elogyPageSize)
	respBody, err := c.doGet(ctx, url, credential)
	if err != nil {
		return nil, err
	}

	var list elogyOrderListResponse
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}

	orders := make([]reconciliation.RemoteOrder, 0, len(list.Data))
	for i := range list.Data {
		orders = append(orders, c.convertOrder(&list.Data[i]))
	}
	return orders, nil
}

// GetOrderStatus returns the current canonical status of one order, or nil
// when the carrier no longer knows the reference.
func (c *ElogyClient) GetOrderStatus(ctx context.Context, externalID string) (*reconciliation.Status, error) {
	credential, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/orders/%s", c.config.APIBaseURL, externalID)
	respBody, err := c.doGet(ctx, url, credential)
	if err != nil {
		if errors.Is(err, reconciliation.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var detail elogyOrderDetailResponse
	if err := json.Unmarshal(respBody, &detail); err != nil {
		return nil, fmt.Errorf("%w: %v", reconciliation.ErrProviderInvalidResponse, err)
	}
	if detail.Data == nil {
		return nil, nil
	}

	status := mapElogyStatus(detail.Data.State)
	return &status, nil
}

// doGet performs an authenticated GET against the carrier API
func (c *ElogyClient) doGet(ctx context.Context, url string, credential reconciliation.Credential) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("elogy: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential.AccessToken)
	req.Header.Set("X-Warehouse-Id", c.config.WarehouseID)
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
func (c *ElogyClient) convertOrder(order *elogyOrder) reconciliation.RemoteOrder {
	remote := reconciliation.RemoteOrder{
		ExternalID:    order.Reference,
		Total:         decimal.NewFromInt(order.AmountCents).Div(decimal.NewFromInt(centsPerUnit)),
		Currency:      order.Currency,
		RawStatus:     order.State,
		Status:        mapElogyStatus(order.State),
		PaymentMethod: order.Payment,
		Provider:      reconciliation.ProviderElogy,
	}
	if remote.Currency == "" {
		remote.Currency = "EUR"
	}

	if t, err := time.Parse(time.RFC3339, order.PlacedAt); err == nil {
		remote.OrderDate = t
	}

	if order.Shipping != nil {
		remote.Customer = reconciliation.Customer{
			Name:    order.Shipping.FullName,
			Email:   order.Shipping.Email,
			Phone:   order.Shipping.Phone,
			City:    order.Shipping.City,
			Country: order.Shipping.Country,
		}
	}

	if rawBytes, err := json.Marshal(order); err == nil {
		remote.RawPayload = string(rawBytes)
	}

	return remote
}

// Ensure ElogyClient implements the ProviderClient port
var _ reconciliation.ProviderClient = (*ElogyClient)(nil)
