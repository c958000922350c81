package dto

import (
	"time"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// WebhookDeliveryResponse is a delivery audit row as returned by the API.
type WebhookDeliveryResponse struct {
	ID             string    `json:"id"`
	SubscriberID   string    `json:"subscriber_id"`
	OrderID        string    `json:"order_id"`
	ResponseStatus int       `json:"response_status"`
	ResponseBody   string    `json:"response_body,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewWebhookDeliveryResponse(d *reconciliation.WebhookDelivery) WebhookDeliveryResponse {
	return WebhookDeliveryResponse{
		ID:             d.ID.String(),
		SubscriberID:   d.SubscriberConfigID.String(),
		OrderID:        d.OrderID,
		ResponseStatus: d.ResponseStatus,
		ResponseBody:   d.ResponseBody,
		ErrorMessage:   d.ErrorMessage,
		CreatedAt:      d.CreatedAt,
	}
}

func NewWebhookDeliveryListResponse(rows []reconciliation.WebhookDelivery) []WebhookDeliveryResponse {
	out := make([]WebhookDeliveryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, NewWebhookDeliveryResponse(&rows[i]))
	}
	return out
}
