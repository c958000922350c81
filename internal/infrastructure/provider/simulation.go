package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// simulationPageSize matches the real carriers' page size so pagination
// behaves identically
const simulationPageSize = 15

// simulationTotalOrders bounds the synthetic data set
const simulationTotalOrders = 40

// SimulationClient is a deterministic ProviderClient used when a carrier's
// credentials are absent outside production. It returns synthetic data
// shaped like real responses. Simulated output is synced into the ledger
// for demo purposes, but the engine never dispatches webhooks for it.
type SimulationClient struct {
	provider reconciliation.ProviderCode
}

// NewSimulationClient creates a simulated client for the given carrier
func NewSimulationClient(provider reconciliation.ProviderCode) *SimulationClient {
	return &SimulationClient{provider: provider}
}

// Provider returns the carrier this client stands in for
func (c *SimulationClient) Provider() reconciliation.ProviderCode {
	return c.provider
}

// PageSize returns the simulated page size
func (c *SimulationClient) PageSize() int {
	return simulationPageSize
}

// Simulated returns true
func (c *SimulationClient) Simulated() bool {
	return true
}

// Authenticate returns a synthetic credential without any network call
func (c *SimulationClient) Authenticate(_ context.Context) (reconciliation.Credential, error) {
	return reconciliation.Credential{
		AccessToken: fmt.Sprintf("sim-token-%s", c.provider),
		ExpiresAt:   time.Now().Add(6 * time.Hour),
	}, nil
}

// ListOrders returns a deterministic page of synthetic orders. The data set
// is fixed-size, so the final page is short and terminates pagination the
// same way a real carrier does.
func (c *SimulationClient) ListOrders(_ context.Context, page int) ([]reconciliation.RemoteOrder, error) {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * simulationPageSize
	if start >= simulationTotalOrders {
		return []reconciliation.RemoteOrder{}, nil
	}
	end := start + simulationPageSize
	if end > simulationTotalOrders {
		end = simulationTotalOrders
	}

	orders := make([]reconciliation.RemoteOrder, 0, end-start)
	for i := start; i < end; i++ {
		orders = append(orders, c.syntheticOrder(i))
	}
	return orders, nil
}

// GetOrderStatus returns the synthetic status for an ID generated by this
// client, or nil for anything else.
func (c *SimulationClient) GetOrderStatus(_ context.Context, externalID string) (*reconciliation.Status, error) {
	var seq int
	if _, err := fmt.Sscanf(externalID, "SIM-%d", &seq); err != nil || seq < 0 || seq >= simulationTotalOrders {
		return nil, nil
	}
	status := simulationStatus(seq)
	return &status, nil
}

// syntheticOrder builds the order with sequence number i. Fields depend only
// on i, so repeated fetches return identical data.
func (c *SimulationClient) syntheticOrder(i int) reconciliation.RemoteOrder {
	status := simulationStatus(i)
	return reconciliation.RemoteOrder{
		ExternalID: fmt.Sprintf("SIM-%d", i),
		Customer: reconciliation.Customer{
			Name:    fmt.Sprintf("Sample Customer %d", i),
			Email:   fmt.Sprintf("customer%d@example.com", i),
			Phone:   fmt.Sprintf("+421900%06d", i),
			City:    "Bratislava",
			Country: "SK",
		},
		Total:         decimal.NewFromInt(int64(20 + i*17%400)),
		Currency:      "EUR",
		RawStatus:     string(status),
		Status:        status,
		PaymentMethod: "cod",
		OrderDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		Provider:      c.provider,
		RawPayload:    fmt.Sprintf(`{"simulated":true,"seq":%d}`, i),
	}
}

// simulationStatus cycles the canonical statuses deterministically
func simulationStatus(i int) reconciliation.Status {
	statuses := []reconciliation.Status{
		reconciliation.StatusPending,
		reconciliation.StatusConfirmed,
		reconciliation.StatusShipped,
		reconciliation.StatusDelivered,
		reconciliation.StatusCancelled,
	}
	return statuses[i%len(statuses)]
}

// Ensure SimulationClient implements the ProviderClient port
var _ reconciliation.ProviderClient = (*SimulationClient)(nil)
