package provider

import (
	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// FHBConfig holds credentials for the FHB Group fulfillment API.
type FHBConfig struct {
	// Email is the account email used for login
	Email string
	// Password is the account password used for login
	Password string
	// APISecret is the additional shared secret FHB requires on login
	APISecret string
	// APIBaseURL is the base URL for the carrier API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// FHBAPIURL is the production API endpoint
	FHBAPIURL = "https://api.fhb.sk"
	// fhbPageSize is the carrier-defined orders page size
	fhbPageSize = 15
	// fhbTokenTTL is FHB's documented token lifetime
	fhbTokenTTL = 8 * 60 * 60 // seconds
)

// Provider returns the provider code this configuration belongs to
func (c *FHBConfig) Provider() reconciliation.ProviderCode {
	return reconciliation.ProviderFHB
}

// Validate checks that all required credential fields are present.
func (c *FHBConfig) Validate() error {
	var missing []string
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.APISecret == "" {
		missing = append(missing, "api_secret")
	}
	if len(missing) > 0 {
		return &reconciliation.MissingFieldsError{
			Provider: reconciliation.ProviderFHB,
			Fields:   missing,
		}
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = FHBAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
