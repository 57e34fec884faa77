// Package service holds the business logic behind the ops API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/guttosm/brokerflow/internal/domain/models"
	"github.com/guttosm/brokerflow/internal/logger"
	"github.com/guttosm/brokerflow/internal/pipeline"
	"github.com/guttosm/brokerflow/internal/progress"
)

// ErrUnknownPipeline is returned by Start for an unregistered pipeline name.
var ErrUnknownPipeline = pipeline.ErrUnknownPipeline

// PipelineRunner executes pipelines by name.
type PipelineRunner interface {
	Has(name string) bool
	Run(ctx context.Context, name, jobID string, limit int, rep progress.Reporter) ([]pipeline.RunResult, error)
}

// ProgressStore records and serves job progress.
type ProgressStore interface {
	progress.Reporter
	GetProgress(ctx context.Context, jobID string) (*models.Progress, error)
}

// JobService starts pipeline runs in the background and reports on them.
type JobService interface {
	// Start launches name and returns the new job id immediately.
	Start(ctx context.Context, name string, limit int) (string, error)
	// Get returns the last progress of jobID, or nil when unknown.
	Get(ctx context.Context, jobID string) (*models.Progress, error)
	// Wait blocks until every started job has returned.
	Wait()
}

type jobService struct {
	base   context.Context
	runner PipelineRunner
	store  ProgressStore
	newID  func() string
	wg     sync.WaitGroup
}

// NewJobService returns a JobService whose runs live as long as base.
func NewJobService(base context.Context, runner PipelineRunner, store ProgressStore) JobService {
	return &jobService{base: base, runner: runner, store: store, newID: uuid.NewString}
}

func (s *jobService) Start(ctx context.Context, name string, limit int) (string, error) {
	if !s.runner.Has(name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
	}
	if limit < 0 {
		return "", errors.New("limit must not be negative")
	}

	id := s.newID()
	if err := s.store.UpdateProgress(ctx, id, models.Progress{Pipeline: name, CurrentItem: "queued"}); err != nil {
		return "", fmt.Errorf("record job %s: %w", id, err)
	}

	log := logger.With("jobs").With().Str("job_id", id).Str("pipeline", name).Logger()
	rep := progress.Multi(s.store, progress.LogReporter{Log: log})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		results, err := s.runner.Run(s.base, name, id, limit, rep)
		if err != nil {
			log.Error().Err(err).Msg("job failed")
			_ = s.store.UpdateProgress(context.WithoutCancel(s.base), id, models.Progress{
				Pipeline: name, CurrentItem: err.Error(), Done: true,
			})
			return
		}
		for _, r := range results {
			log.Info().Str("run", r.Pipeline).Bool("success", r.Success).Msg(r.Message)
		}
	}()
	return id, nil
}

func (s *jobService) Get(ctx context.Context, jobID string) (*models.Progress, error) {
	return s.store.GetProgress(ctx, jobID)
}

func (s *jobService) Wait() {
	s.wg.Wait()
}
