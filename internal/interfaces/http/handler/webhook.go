package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/commerceops/backend/internal/application/notification"
	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/interfaces/http/dto"
)

const defaultDeliveryListLimit = 50

// WebhookHandler serves the delivery audit trail and the test-fire endpoint.
type WebhookHandler struct {
	BaseHandler
	dispatcher *notification.Dispatcher
	deliveries reconciliation.WebhookDeliveryRepository
}

func NewWebhookHandler(dispatcher *notification.Dispatcher, deliveries reconciliation.WebhookDeliveryRepository) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, deliveries: deliveries}
}

func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.GET("/deliveries", h.ListDeliveries)
		webhooks.POST("/test", h.Test)
	}
}

func (h *WebhookHandler) ListDeliveries(c *gin.Context) {
	limit := defaultDeliveryListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	rows, err := h.deliveries.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Internal(c, "failed to list webhook deliveries")
		return
	}
	h.Success(c, dto.NewWebhookDeliveryListResponse(rows))
}

func (h *WebhookHandler) Test(c *gin.Context) {
	err := h.dispatcher.DispatchTest(c.Request.Context())
	switch {
	case err == nil:
		h.Success(c, gin.H{"delivered": true})
	case errors.Is(err, reconciliation.ErrSubscriberNotConfigured):
		h.Error(c, http.StatusConflict, "WEBHOOK_NOT_CONFIGURED", "no webhook endpoint configured")
	default:
		h.Error(c, http.StatusBadGateway, "WEBHOOK_DELIVERY_FAILED", err.Error())
	}
}
