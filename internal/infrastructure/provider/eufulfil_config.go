package provider

import (
	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// EuropeanFulfillmentConfig holds credentials for the European Fulfillment API.
type EuropeanFulfillmentConfig struct {
	// Email is the account email used for login
	Email string
	// Password is the account password used for login
	Password string
	// APIBaseURL is the base URL for the carrier API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// EuropeanFulfillmentAPIURL is the production API endpoint
	EuropeanFulfillmentAPIURL = "https://api.europeanfulfillment.eu"
	// eufulfilPageSize is the carrier-defined orders page size
	eufulfilPageSize = 15
	// eufulfilDefaultTokenTTL applies when the login response omits expires_in
	eufulfilDefaultTokenTTL = 6 * 60 * 60 // seconds
)

// Provider returns the provider code this configuration belongs to
func (c *EuropeanFulfillmentConfig) Provider() reconciliation.ProviderCode {
	return reconciliation.ProviderEuropeanFulfillment
}

// Validate checks that all required credential fields are present. Missing
// fields are reported together so an operator sees the complete list.
func (c *EuropeanFulfillmentConfig) Validate() error {
	var missing []string
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &reconciliation.MissingFieldsError{
			Provider: reconciliation.ProviderEuropeanFulfillment,
			Fields:   missing,
		}
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = EuropeanFulfillmentAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
