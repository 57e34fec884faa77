package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guttosm/brokerflow/internal/middleware"
)

// NewRouter creates the ops API engine.
//
// Routes:
//   - GET  /metrics                         Prometheus scrape endpoint
//   - POST /api/v1/pipelines/:name/runs     start a background run (rate limited)
//   - GET  /api/v1/jobs/:id                 last reported progress
//
// Health probes are mounted by app.InitializeApp through HealthHandler.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
	)

	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/pipelines/:name/runs", middleware.RateLimiter(10, time.Minute), handler.StartRun)
		v1.GET("/jobs/:id", handler.GetJob)
	}

	return router
}
