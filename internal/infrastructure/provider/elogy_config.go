package provider

import (
	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// ElogyConfig holds credentials for the Elogy warehouse API.
type ElogyConfig struct {
	// APIKey is the per-account API key sent as a request header
	APIKey string
	// WarehouseID scopes all calls to one Elogy warehouse
	WarehouseID string
	// APIBaseURL is the base URL for the carrier API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// ElogyAPIURL is the production API endpoint
	ElogyAPIURL = "https://api.elogy.app"
	// elogyPageSize is the carrier-defined orders page size
	elogyPageSize = 15
	// elogyFallbackTokenTTL applies when the issued JWT carries no exp claim
	elogyFallbackTokenTTL = 4 * 60 * 60 // seconds
)

// Provider returns the provider code this configuration belongs to
func (c *ElogyConfig) Provider() reconciliation.ProviderCode {
	return reconciliation.ProviderElogy
}

// Validate checks that all required credential fields are present.
func (c *ElogyConfig) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.WarehouseID == "" {
		missing = append(missing, "warehouse_id")
	}
	if len(missing) > 0 {
		return &reconciliation.MissingFieldsError{
			Provider: reconciliation.ProviderElogy,
			Fields:   missing,
		}
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = ElogyAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
