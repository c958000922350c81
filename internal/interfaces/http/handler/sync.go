package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/commerceops/backend/internal/application/reconcile"
	"github.com/commerceops/backend/internal/infrastructure/provider"
)

// SyncHandler exposes the reconciliation engine over HTTP. A sync run that
// completes with failures still answers 200: the summary's success flag and
// message carry the outcome, HTTP status is reserved for transport problems.
type SyncHandler struct {
	BaseHandler
	engine *reconcile.Engine
}

func NewSyncHandler(engine *reconcile.Engine) *SyncHandler {
	return &SyncHandler{engine: engine}
}

func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/intelligent", h.Intelligent)
		sync.POST("/full", h.Full)
		sync.POST("/incremental", h.Incremental)
		sync.POST("/progressive", h.Progressive)
		sync.GET("/state", h.State)
	}
}

type syncRequest struct {
	OperationID string `json:"operation_id"`
	MaxPages    int    `json:"max_pages"`
	MaxRetries  int    `json:"max_retries"`
}

// bind tolerates an empty body so that a bare POST runs the default operation.
func (h *SyncHandler) bind(c *gin.Context) (syncRequest, bool) {
	var req syncRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "invalid request body: "+err.Error())
			return req, false
		}
	}
	if req.OperationID == "" {
		req.OperationID = provider.DefaultOperationID
	}
	return req, true
}

func (h *SyncHandler) Intelligent(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	h.Success(c, h.engine.IntelligentSync(c.Request.Context(), req.OperationID))
}

func (h *SyncHandler) Full(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	h.Success(c, h.engine.FullSync(c.Request.Context(), req.OperationID))
}

func (h *SyncHandler) Incremental(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	h.Success(c, h.engine.IncrementalSync(c.Request.Context(), req.OperationID, req.MaxPages))
}

func (h *SyncHandler) Progressive(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	h.Success(c, h.engine.ProgressiveSync(c.Request.Context(), req.OperationID, req.MaxRetries))
}

func (h *SyncHandler) State(c *gin.Context) {
	h.Success(c, h.engine.RunState())
}
