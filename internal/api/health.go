package api

import (
	"context"
	"net/http"
	"time"

	"communities/messages/pkg/health"
	"communities/messages/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HealthHandler probes the message store on every request
type HealthHandler struct {
	prober  health.Prober
	timeout time.Duration
	now     func() time.Time
}

func NewHealthHandler(prober health.Prober, timeout time.Duration) *HealthHandler {
	return &HealthHandler{prober: prober, timeout: timeout, now: time.Now}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)
}

// Health answers 200 with a healthy report or 503 with an unhealthy one
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := health.Probe(ctx, h.prober, h.now())
	if err != nil {
		logger.FromContext(c).Warn("Health check failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}

	c.JSON(http.StatusOK, report)
}
