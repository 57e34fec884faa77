package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/brokerflow/config"
	"github.com/guttosm/brokerflow/internal/api"
	"github.com/guttosm/brokerflow/internal/service"
)

// InitializeApp wires the ops API and returns the router, a cleanup function
// for graceful shutdown, and any initialization error.
//
// Responsibilities:
//   - Opens the object store (MinIO or local directory).
//   - Opens the job progress store (Postgres when enabled, memory otherwise).
//   - Builds the pipeline runner and the job service.
//   - Registers API routes plus /healthz and /readyz probes.
//
// Runs started through the API use ctx as their parent; cancelling it stops
// them after the current batch. cleanup waits for running jobs, then closes
// the database.
func InitializeApp(ctx context.Context) (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	store, err := storeOpener(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	progressStore, db, err := OpenProgress(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	svc := service.NewJobService(ctx, NewRunner(store, cfg), progressStore)
	router := api.NewRouter(api.NewHandler(svc))

	checks := map[string]api.Check{"store": store.Ping}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	api.NewHealthHandler(checks).Register(router)

	cleanup := func() {
		svc.Wait()
		if db != nil {
			_ = db.Close()
		}
	}

	return router, cleanup, nil
}
