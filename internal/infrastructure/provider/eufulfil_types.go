package provider

import (
	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// ---------------------------------------------------------------------------
// European Fulfillment Wire Types
// ---------------------------------------------------------------------------

// eufulfilLoginRequest is the body of POST /api/v2/auth/login
type eufulfilLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// eufulfilLoginResponse is the response of POST /api/v2/auth/login
type eufulfilLoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// eufulfilOrderListResponse is the response of GET /api/v2/orders
type eufulfilOrderListResponse struct {
	Orders  []eufulfilOrder `json:"orders"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Total   int64           `json:"total"`
}

// eufulfilOrder is one order entry in the carrier's vocabulary
type eufulfilOrder struct {
	OrderNumber   string  `json:"order_number"`
	Status        string  `json:"status"`
	TotalPrice    string  `json:"total_price"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
	CreatedAt     string  `json:"created_at"`
	Recipient     *struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"recipient"`
}

// eufulfilOrderStatusResponse is the response of GET /api/v2/orders/{id}/status
type eufulfilOrderStatusResponse struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// ---------------------------------------------------------------------------
// Status Mapping
// ---------------------------------------------------------------------------

// eufulfilStatusTable maps the carrier's status vocabulary to canonical
// statuses. Unmapped statuses default to pending: availability is preferred
// over fidelity, so an unknown vocabulary word never drops an order.
var eufulfilStatusTable = map[string]reconciliation.Status{
	"new":        reconciliation.StatusPending,
	"accepted":   reconciliation.StatusPending,
	"confirmed":  reconciliation.StatusConfirmed,
	"packed":     reconciliation.StatusConfirmed,
	"sent":       reconciliation.StatusShipped,
	"in_transit": reconciliation.StatusShipped,
	"delivered":  reconciliation.StatusDelivered,
	"returned":   reconciliation.StatusCancelled,
	"cancelled":  reconciliation.StatusCancelled,
}

// mapEufulfilStatus translates a raw carrier status, defaulting to pending.
func mapEufulfilStatus(raw string) reconciliation.Status {
	if status, ok := eufulfilStatusTable[raw]; ok {
		return status
	}
	return reconciliation.StatusPending
}
