// Package progress externalises how far a pipeline run has got.
package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

// Reporter receives progress updates at batch boundaries. Implementations
// must be safe for concurrent use.
type Reporter interface {
	UpdateProgress(ctx context.Context, jobID string, p models.Progress) error
}

// Noop discards every update.
type Noop struct{}

func (Noop) UpdateProgress(context.Context, string, models.Progress) error { return nil }

// LogReporter writes each update as a structured log line.
type LogReporter struct {
	Log zerolog.Logger
}

func (r LogReporter) UpdateProgress(_ context.Context, jobID string, p models.Progress) error {
	r.Log.Info().
		Str("job_id", jobID).
		Str("pipeline", p.Pipeline).
		Float64("percent", p.Percent).
		Str("current", p.CurrentItem).
		Bool("done", p.Done).
		Msg("progress")
	return nil
}

// Memory keeps the latest update per job in process. It backs the job
// endpoint when no database is configured.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]models.Progress
	now  func() time.Time
}

// NewMemory returns an empty in-process progress store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]models.Progress), now: time.Now}
}

func (m *Memory) UpdateProgress(_ context.Context, jobID string, p models.Progress) error {
	p.JobID = jobID
	p.UpdatedAt = m.now().UTC()
	m.mu.Lock()
	m.jobs[jobID] = p
	m.mu.Unlock()
	return nil
}

// GetProgress returns the last update for jobID, or nil when unknown.
func (m *Memory) GetProgress(_ context.Context, jobID string) (*models.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Multi fans an update out to every reporter and joins their errors.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

type multi []Reporter

func (m multi) UpdateProgress(ctx context.Context, jobID string, p models.Progress) error {
	var errs []error
	for _, r := range m {
		if err := r.UpdateProgress(ctx, jobID, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
