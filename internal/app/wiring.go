package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guttosm/brokerflow/config"
	"github.com/guttosm/brokerflow/internal/logger"
	"github.com/guttosm/brokerflow/internal/pipeline"
	"github.com/guttosm/brokerflow/internal/progress"
	"github.com/guttosm/brokerflow/internal/service"
	"github.com/guttosm/brokerflow/internal/storage"
)

// storeOpener is an indirection for unit testing; defaults to NewObjectStore.
var storeOpener = NewObjectStore

// NewObjectStore builds the configured backend: "minio" for an S3
// compatible bucket, "fs" for a local directory.
func NewObjectStore(cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Backend {
	case "minio":
		s, err := storage.NewMinioStore(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "fs":
		s, err := storage.NewDirStore(cfg.Root)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// PipelineConfigs maps the shared settings onto per-pipeline scheduler
// configs; only the batch size differs.
func PipelineConfigs(cfg config.PipelineConfig) (topBroker, segment pipeline.Config) {
	base := pipeline.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		ChunkSize:      cfg.ChunkSize,
		BatchPause:     cfg.BatchPause,
	}
	topBroker, segment = base, base
	topBroker.BatchSize = cfg.TopBrokerBatchSize
	segment.BatchSize = cfg.SegmentBatchSize
	return topBroker, segment
}

// NewRunner wires both pipelines over store using cfg.
func NewRunner(store storage.ObjectStore, cfg config.Config) *pipeline.Runner {
	top, seg := PipelineConfigs(cfg.Pipeline)
	return pipeline.NewRunner(store, cfg.Storage.InputPrefix, top, seg)
}

// OpenProgress returns where job progress goes. With PROGRESS_ENABLED it is
// the Postgres job_progress table (schema created on demand) and the returned
// *sql.DB must be closed by the caller; otherwise progress is kept in memory.
func OpenProgress(ctx context.Context, cfg config.Config) (service.ProgressStore, *sql.DB, error) {
	if !cfg.Postgres.ProgressEnabled {
		return progress.NewMemory(), nil, nil
	}

	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	repo := storage.NewProgressRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create job_progress table: %w", err)
	}
	logger.L().Info().Msg("job progress persisted to postgres")
	return repo, db, nil
}
