package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/interviewscribe/component"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     component.HealthStatus `json:"status"`
	Service    string                 `json:"service"`
	Timestamp  string                 `json:"timestamp"`
	Components []component.Health     `json:"components,omitempty"`
}

// Health aggregates component health. Any unhealthy component makes the
// service unhealthy and the response 503; a degraded one degrades it.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := HealthResponse{
			Service:   serviceName,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if checker != nil {
			resp.Components = checker(c.Request.Context())
		}
		resp.Status = component.Overall(resp.Components)

		status := http.StatusOK
		if resp.Status != component.StatusHealthy && resp.Status != component.StatusDegraded {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}
