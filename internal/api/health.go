package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
//
//   - /healthz: always 200 while the process is up.
//   - /readyz: 200 when every check passes, 503 otherwise.
type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewHealthHandler builds a handler running checks (e.g. "store", "postgres")
// on each readiness probe.
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Register mounts /healthz and /readyz on r.
func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for n := range h.checks {
			names = append(names, n)
		}
		sort.Strings(names)

		status, code := "ready", http.StatusOK
		results := make(map[string]string, len(names))
		for _, n := range names {
			if err := h.checks[n](ctx); err != nil {
				results[n] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[n] = "ok"
		}
		c.JSON(code, gin.H{"status": status, "checks": results})
	})
}
