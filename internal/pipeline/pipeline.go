// Package pipeline drives the daily aggregation jobs: it discovers input
// dumps, runs them in bounded batches and reports what happened to each file.
package pipeline

import (
	"context"
	"time"

	"github.com/guttosm/brokerflow/internal/domain/models"
	"github.com/guttosm/brokerflow/internal/ingestion"
)

// Status is the outcome of one file task.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped" // key artifact already present
	StatusNoData  Status = "no_data" // unparseable header or no issuer rows
	StatusFailed  Status = "failed"
)

// Chunks streams a file's records to yield in bounded chunks. The slice given
// to yield is only valid for the duration of the call.
type Chunks func(yield func([]models.TransactionRecord) error) error

// Processor is one pipeline family (top broker, segment split).
type Processor interface {
	Name() string
	Schema() ingestion.Schema
	// KeyArtifact is the path whose presence marks date as done.
	KeyArtifact(date string) string
	// Process aggregates the records of one date and writes its artifacts,
	// returning how many were uploaded.
	Process(ctx context.Context, date string, chunks Chunks) (int, error)
}

// Config tunes a scheduler run.
type Config struct {
	BatchSize      int
	MaxConcurrency int
	ChunkSize      int
	BatchPause     time.Duration
	// Limit caps how many discovered files (newest first) are processed;
	// zero means all of them.
	Limit int
}

func (c Config) normalized() Config {
	if c.BatchSize < 1 {
		c.BatchSize = 1
	}
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = 1
	}
	if c.ChunkSize < 1 {
		c.ChunkSize = ingestion.DefaultChunkSize
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	return c
}

// FileResult is the settled outcome of one input file.
type FileResult struct {
	Key       string        `json:"key"`
	Date      string        `json:"date"`
	Status    Status        `json:"status"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
	Records   int           `json:"records"`
	Artifacts int           `json:"artifacts"`
	Duration  time.Duration `json:"duration"`
}

// RunResult summarises a whole run. Processed always equals
// Succeeded+Failed; skipped and no-data files count as successes.
type RunResult struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Pipeline  string        `json:"pipeline"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	NoData    int           `json:"no_data"`
	Batches   int           `json:"batches"`
	Duration  time.Duration `json:"duration"`
	Files     []FileResult  `json:"files"`
}

func (r *RunResult) add(f FileResult) {
	r.Processed++
	switch f.Status {
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Succeeded++
		r.Skipped++
	case StatusNoData:
		r.Succeeded++
		r.NoData++
	default:
		r.Succeeded++
	}
	r.Files = append(r.Files, f)
}
