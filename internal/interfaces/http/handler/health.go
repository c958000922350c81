package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger is the slice of the database the health endpoint needs.
type Pinger interface {
	Ping() error
}

type HealthHandler struct {
	BaseHandler
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
