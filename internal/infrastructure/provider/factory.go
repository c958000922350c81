package provider

import (
	"fmt"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// ProviderConfig is the tagged union of per-carrier credential structs.
// Each concrete config declares its own required-field list through Validate.
type ProviderConfig interface {
	// Provider returns the carrier this configuration belongs to
	Provider() reconciliation.ProviderCode
	// Validate fails with a MissingFieldsError naming every absent field
	Validate() error
}

// BuildFailure reports one provider that could not be constructed during a
// batch build.
type BuildFailure struct {
	Provider reconciliation.ProviderCode
	Err      error
}

// NewProviderClient constructs the matching carrier client for a validated
// configuration. Unknown provider types and incomplete credentials fail with
// a descriptive configuration error before any network call.
func NewProviderClient(cfg ProviderConfig) (reconciliation.ProviderClient, error) {
	switch c := cfg.(type) {
	case *EuropeanFulfillmentConfig:
		return NewEuropeanFulfillmentClient(c)
	case *ElogyConfig:
		return NewElogyClient(c)
	case *FHBConfig:
		return NewFHBClient(c)
	default:
		return nil, fmt.Errorf("%w: %T", reconciliation.ErrProviderUnknown, cfg)
	}
}

// BuildClients constructs clients for many providers at once, continuing
// past individual failures. Callers get every client that could be built
// plus a failure entry for every one that could not.
func BuildClients(configs []ProviderConfig) ([]reconciliation.ProviderClient, []BuildFailure) {
	clients := make([]reconciliation.ProviderClient, 0, len(configs))
	var failures []BuildFailure

	for _, cfg := range configs {
		client, err := NewProviderClient(cfg)
		if err != nil {
			failures = append(failures, BuildFailure{Provider: cfg.Provider(), Err: err})
			continue
		}
		clients = append(clients, client)
	}
	return clients, failures
}
