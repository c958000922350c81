package provider

import (
	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// ---------------------------------------------------------------------------
// Elogy Wire Types
// ---------------------------------------------------------------------------

// elogyTokenResponse is the response of POST /v1/token. The access token is
// a JWT whose exp claim bounds the cache TTL.
type elogyTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// elogyOrderListResponse is the response of GET /v1/orders
type elogyOrderListResponse struct {
	Data []elogyOrder `json:"data"`
	Meta struct {
		Page    int   `json:"page"`
		PerPage int   `json:"per_page"`
		Total   int64 `json:"total"`
	} `json:"meta"`
}

// elogyOrder is one order entry in the carrier's vocabulary
type elogyOrder struct {
	Reference string `json:"reference"`
	State     string `json:"state"`
	// AmountCents is the order total in minor units
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Payment     string `json:"payment"`
	PlacedAt    string `json:"placed_at"`
	Shipping    *struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		City     string `json:"city"`
		Country  string `json:"country"`
	} `json:"shipping"`
}

// elogyOrderDetailResponse is the response of GET /v1/orders/{reference}
type elogyOrderDetailResponse struct {
	Data *elogyOrder `json:"data"`
}

// ---------------------------------------------------------------------------
// Status Mapping
// ---------------------------------------------------------------------------

// elogyStatusTable maps Elogy's state vocabulary to canonical statuses.
// Unmapped states default to pending rather than dropping the order.
var elogyStatusTable = map[string]reconciliation.Status{
	"created":    reconciliation.StatusPending,
	"on_hold":    reconciliation.StatusPending,
	"validated":  reconciliation.StatusConfirmed,
	"picking":    reconciliation.StatusConfirmed,
	"dispatched": reconciliation.StatusShipped,
	"transit":    reconciliation.StatusShipped,
	"completed":  reconciliation.StatusDelivered,
	"refused":    reconciliation.StatusCancelled,
	"aborted":    reconciliation.StatusCancelled,
}

// mapElogyStatus translates a raw carrier state, defaulting to pending.
func mapElogyStatus(raw string) reconciliation.Status {
	if status, ok := elogyStatusTable[raw]; ok {
		return status
	}
	return reconciliation.StatusPending
}
