package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

// ProgressRepository persists the last reported progress of each job.
type ProgressRepository interface {
	EnsureSchema(ctx context.Context) error
	UpdateProgress(ctx context.Context, jobID string, p models.Progress) error
	GetProgress(ctx context.Context, jobID string) (*models.Progress, error)
}

type progressRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewProgressRepository returns a Postgres backed ProgressRepository.
func NewProgressRepository(db *sql.DB) ProgressRepository {
	return &progressRepository{db: db, now: time.Now}
}

const createProgressTable = `
CREATE TABLE IF NOT EXISTS job_progress (
	job_id       TEXT PRIMARY KEY,
	pipeline     TEXT NOT NULL,
	percent      DOUBLE PRECISION NOT NULL DEFAULT 0,
	current_item TEXT NOT NULL DEFAULT '',
	done         BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the job_progress table when missing.
func (r *progressRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createProgressTable)
	return err
}

// UpdateProgress records (or updates) the progress row for jobID.
func (r *progressRepository) UpdateProgress(ctx context.Context, jobID string, p models.Progress) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO job_progress (job_id, pipeline, percent, current_item, done, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id)
		DO UPDATE SET pipeline = EXCLUDED.pipeline,
					  percent = EXCLUDED.percent,
					  current_item = EXCLUDED.current_item,
					  done = EXCLUDED.done,
					  updated_at = EXCLUDED.updated_at
	`, jobID, p.Pipeline, p.Percent, p.CurrentItem, p.Done, r.now().UTC())
	return err
}

// GetProgress returns the stored progress for jobID, or nil when unknown.
func (r *progressRepository) GetProgress(ctx context.Context, jobID string) (*models.Progress, error) {
	var p models.Progress
	err := r.db.QueryRowContext(ctx, `
		SELECT job_id, pipeline, percent, current_item, done, updated_at
		FROM job_progress
		WHERE job_id = $1
	`, jobID).Scan(&p.JobID, &p.Pipeline, &p.Percent, &p.CurrentItem, &p.Done, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
