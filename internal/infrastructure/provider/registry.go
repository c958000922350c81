package provider

import (
	"sync"

	"go.uber.org/zap"

	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/config"
)

// DefaultOperationID names the single operation a file-configured deployment
// serves. Multi-operation deployments register more.
const DefaultOperationID = "default"

// StaticClientRegistry maps operation IDs to their constructed provider
// clients. Registration happens at startup; lookups are concurrent.
type StaticClientRegistry struct {
	mu      sync.RWMutex
	clients map[string][]reconciliation.ProviderClient
}

// NewStaticClientRegistry creates an empty registry
func NewStaticClientRegistry() *StaticClientRegistry {
	return &StaticClientRegistry{
		clients: make(map[string][]reconciliation.ProviderClient),
	}
}

// Register binds clients to an operation ID, replacing any previous binding
func (r *StaticClientRegistry) Register(operationID string, clients []reconciliation.ProviderClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[operationID] = clients
}

// ClientsFor implements the ClientRegistry port
func (r *StaticClientRegistry) ClientsFor(operationID string) ([]reconciliation.ProviderClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients, ok := r.clients[operationID]
	if !ok {
		return nil, reconciliation.ErrOperationUnknown
	}
	return clients, nil
}

// Ensure StaticClientRegistry implements the port
var _ reconciliation.ClientRegistry = (*StaticClientRegistry)(nil)

// BuildFromCredentials turns the file-configured credential sets into provider
// clients. Carriers with no credentials at all are skipped in production and
// simulated elsewhere; carriers with partial credentials surface as build
// failures so the operator sees exactly which fields are missing.
func BuildFromCredentials(creds config.ProviderCredentials, production bool, logger *zap.Logger) []reconciliation.ProviderClient {
	var configs []ProviderConfig
	var simulated []reconciliation.ProviderCode

	if creds.EuropeanFulfillment == (config.EuropeanFulfillmentCredentials{}) {
		simulated = append(simulated, reconciliation.ProviderEuropeanFulfillment)
	} else {
		configs = append(configs, &EuropeanFulfillmentConfig{
			Email:      creds.EuropeanFulfillment.Email,
			Password:   creds.EuropeanFulfillment.Password,
			APIBaseURL: creds.EuropeanFulfillment.BaseURL,
		})
	}

	if creds.Elogy == (config.ElogyCredentials{}) {
		simulated = append(simulated, reconciliation.ProviderElogy)
	} else {
		configs = append(configs, &ElogyConfig{
			APIKey:      creds.Elogy.APIKey,
			WarehouseID: creds.Elogy.WarehouseID,
			APIBaseURL:  creds.Elogy.BaseURL,
		})
	}

	if creds.FHB == (config.FHBCredentials{}) {
		simulated = append(simulated, reconciliation.ProviderFHB)
	} else {
		configs = append(configs, &FHBConfig{
			Email:      creds.FHB.Email,
			Password:   creds.FHB.Password,
			APISecret:  creds.FHB.APISecret,
			APIBaseURL: creds.FHB.BaseURL,
		})
	}

	clients, failures := BuildClients(configs)
	for _, f := range failures {
		logger.Warn("provider client not built",
			zap.String("provider", f.Provider.String()),
			zap.Error(f.Err))
	}

	if !production {
		for _, code := range simulated {
			logger.Info("provider has no credentials, running simulated",
				zap.String("provider", code.String()))
			clients = append(clients, NewSimulationClient(code))
		}
	} else if len(simulated) > 0 {
		for _, code := range simulated {
			logger.Warn("provider has no credentials and is skipped in production",
				zap.String("provider", code.String()))
		}
	}

	return clients
}
