package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/infrastructure/persistence"
	"github.com/bazargo/backend/internal/interfaces/http/dto"
)

// SystemHandler serves liveness and readiness probes
type SystemHandler struct {
	BaseHandler
	db      *persistence.Database
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: NewBaseHandler(logger),
		db:          db,
		started:     time.Now(),
	}
}

// Health reports process liveness
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready reports whether the service can take traffic
// GET /ready
func (h *SystemHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		h.logger.Error("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse(dto.ErrCodeInternal, "database unreachable"))
		return
	}
	h.Success(c, gin.H{"status": "ready"})
}
