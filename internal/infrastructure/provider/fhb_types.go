package provider

import (
	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// ---------------------------------------------------------------------------
// FHB Wire Types
// ---------------------------------------------------------------------------

// fhbLoginRequest is the body of POST /api/login
type fhbLoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	APISecret string `json:"api_secret"`
}

// fhbLoginResponse is the response of POST /api/login
type fhbLoginResponse struct {
	Token string `json:"token"`
}

// fhbOrderListResponse is the response of GET /api/orders
type fhbOrderListResponse struct {
	Items []fhbOrder `json:"items"`
	Page  int        `json:"page"`
	Count int64      `json:"count"`
}

// fhbOrder is one order entry in the carrier's vocabulary
type fhbOrder struct {
	ID            string `json:"id"`
	OrderState    string `json:"order_state"`
	PriceTotal    string `json:"price_total"`
	Currency      string `json:"currency"`
	PaymentType   string `json:"payment_type"`
	OrderedAt     string `json:"ordered_at"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	City          string `json:"city"`
	CountryCode   string `json:"country_code"`
}

// fhbOrderStateResponse is the response of GET /api/orders/{id}/state
type fhbOrderStateResponse struct {
	ID         string `json:"id"`
	OrderState string `json:"order_state"`
}

// ---------------------------------------------------------------------------
// Status Mapping
// ---------------------------------------------------------------------------

// fhbStatusTable maps FHB's order_state vocabulary to canonical statuses.
// Unmapped states default to pending rather than dropping the order.
var fhbStatusTable = map[string]reconciliation.Status{
	"received":   reconciliation.StatusPending,
	"waiting":    reconciliation.StatusPending,
	"approved":   reconciliation.StatusConfirmed,
	"expedition": reconciliation.StatusConfirmed,
	"shipped":    reconciliation.StatusShipped,
	"delivery":   reconciliation.StatusShipped,
	"delivered":  reconciliation.StatusDelivered,
	"storno":     reconciliation.StatusCancelled,
	"returned":   reconciliation.StatusCancelled,
}

// mapFHBStatus translates a raw carrier state, defaulting to pending.
func mapFHBStatus(raw string) reconciliation.Status {
	if status, ok := fhbStatusTable[raw]; ok {
		return status
	}
	return reconciliation.StatusPending
}
