package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/brokerflow/internal/domain/models"
	"github.com/guttosm/brokerflow/internal/ingestion"
	"github.com/guttosm/brokerflow/internal/logger"
	"github.com/guttosm/brokerflow/internal/metrics"
	"github.com/guttosm/brokerflow/internal/progress"
	"github.com/guttosm/brokerflow/internal/storage"
	"github.com/guttosm/brokerflow/internal/telemetry"
)

// Scheduler runs a Processor over every discovered input file.
//
// States: Discovering -> {Dispatching -> Awaiting -> Reclaiming}* -> Done.
// Batches run one after another; files inside a batch run concurrently up to
// MaxConcurrency. A file task never aborts its siblings.
type Scheduler struct {
	store    storage.ObjectStore
	prefix   string
	cfg      Config
	reporter progress.Reporter

	// pause is swapped in tests.
	pause func(ctx context.Context, d time.Duration) error
}

// NewScheduler builds a scheduler reading input under prefix. A nil reporter
// discards progress.
func NewScheduler(store storage.ObjectStore, prefix string, cfg Config, reporter progress.Reporter) *Scheduler {
	if reporter == nil {
		reporter = progress.Noop{}
	}
	return &Scheduler{
		store:    store,
		prefix:   prefix,
		cfg:      cfg.normalized(),
		reporter: reporter,
		pause:    sleepCtx,
	}
}

// Run processes all pending files for p. It never returns an error: failures
// are reported per file, and only a crash while discovering yields
// Success=false. Cancelling ctx stops new batches from starting.
func (s *Scheduler) Run(ctx context.Context, p Processor, jobID string) (res RunResult) {
	start := time.Now()
	res.Pipeline = p.Name()
	log := logger.With("scheduler").With().Str("pipeline", p.Name()).Str("job_id", jobID).Logger()

	ctx, span := telemetry.StartSpan(ctx, "pipeline.run")
	span.SetAttributes(attribute.String("pipeline", p.Name()), attribute.String("job_id", jobID))
	defer func() {
		res.Duration = time.Since(start)
		span.SetAttributes(
			attribute.Int("processed", res.Processed),
			attribute.Int("failed", res.Failed),
		)
		telemetry.End(span, nil)
	}()

	// Discovering
	files, err := s.discover(ctx)
	if err != nil {
		log.Error().Err(err).Msg("discovery crashed")
		res.Message = err.Error()
		return res
	}
	if s.cfg.Limit > 0 && len(files) > s.cfg.Limit {
		files = files[:s.cfg.Limit]
	}
	total := len(files)
	if total == 0 {
		res.Success = true
		res.Message = "no input files found"
		s.report(ctx, jobID, models.Progress{Pipeline: p.Name(), Percent: 100, CurrentItem: res.Message, Done: true})
		log.Info().Msg(res.Message)
		return res
	}

	batches := split(files, s.cfg.BatchSize)
	log.Info().
		Int("files", total).
		Int("batches", len(batches)).
		Int("batch_size", s.cfg.BatchSize).
		Int("max_concurrency", s.cfg.MaxConcurrency).
		Msg("run start")

	canceled := false
	for i, batch := range batches {
		// Dispatching
		if ctx.Err() != nil {
			canceled = true
			break
		}

		// Awaiting
		for _, fr := range s.runBatch(ctx, p, i, batch, total) {
			res.add(fr)
		}
		res.Batches++
		metrics.BatchDone(p.Name())

		s.report(ctx, jobID, models.Progress{
			Pipeline:    p.Name(),
			Percent:     percent(res.Processed, total),
			CurrentItem: fmt.Sprintf("batch %d/%d: %s", i+1, len(batches), batch[len(batch)-1].Key),
		})

		// Reclaiming
		if i < len(batches)-1 {
			s.reclaim(ctx, i+1, len(batches))
		}
	}

	// Done
	// also catches a cancel during the last batch
	canceled = canceled || ctx.Err() != nil
	res.Success = !canceled
	res.Message = summary(res, total, canceled)
	s.report(context.WithoutCancel(ctx), jobID, models.Progress{
		Pipeline:    p.Name(),
		Percent:     percent(res.Processed, total),
		CurrentItem: res.Message,
		Done:        true,
	})
	log.Info().
		Int("processed", res.Processed).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Int("no_data", res.NoData).
		Dur("elapsed", time.Since(start)).
		Msg("run done")
	return res
}

func (s *Scheduler) discover(ctx context.Context) (files []ingestion.InputFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("discovery panic: %v", r)
		}
	}()
	return ingestion.Discover(ctx, s.store, s.prefix), nil
}

// runBatch settles every file in batch. Each task returns nil so one failure
// never cancels its siblings.
func (s *Scheduler) runBatch(ctx context.Context, p Processor, idx int, batch []ingestion.InputFile, total int) []FileResult {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.batch")
	span.SetAttributes(attribute.Int("batch", idx+1), attribute.Int("files", len(batch)))
	defer span.End()

	results := make([]FileResult, len(batch))
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)
	for i, f := range batch {
		g.Go(func() error {
			results[i] = s.processFile(ctx, p, f)
			logFile(p.Name(), idx*s.cfg.BatchSize+i+1, total, results[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// processFile runs guard -> download -> parse -> aggregate -> write for one
// file. Panics are recovered into a failed result.
func (s *Scheduler) processFile(ctx context.Context, p Processor, f ingestion.InputFile) (fr FileResult) {
	start := time.Now()
	date := f.DateString()
	fr = FileResult{Key: f.Key, Date: date}

	ctx, span := telemetry.StartSpan(ctx, "pipeline.file")
	span.SetAttributes(attribute.String("file", f.Key), attribute.String("date", date))

	defer func() {
		if r := recover(); r != nil {
			fr.Status = StatusFailed
			fr.Err = fmt.Errorf("panic: %v", r)
		}
		if fr.Err != nil {
			fr.Error = fr.Err.Error()
		}
		fr.Duration = time.Since(start)
		span.SetAttributes(attribute.String("status", string(fr.Status)))
		telemetry.End(span, fr.Err)
		metrics.ObserveFile(p.Name(), string(fr.Status), fr.Duration)
	}()

	guard := ingestion.Guard{Store: s.store, KeyArtifact: p.KeyArtifact}
	if guard.ShouldSkip(ctx, date) {
		fr.Status = StatusSkipped
		return fr
	}

	rc, err := s.store.Download(ctx, f.Key)
	if err != nil {
		fr.Status, fr.Err = StatusFailed, err
		return fr
	}
	defer rc.Close()

	var stats ingestion.ParseStats
	chunks := func(yield func([]models.TransactionRecord) error) error {
		var err error
		stats, err = ingestion.ParseStream(ctx, rc, p.Schema(), s.cfg.ChunkSize, yield)
		return err
	}

	n, err := p.Process(ctx, date, chunks)
	fr.Records, fr.Artifacts = stats.Kept, n
	metrics.AddRecords(p.Name(), stats.Kept)
	metrics.AddArtifacts(p.Name(), n)

	logger.L().Debug().
		Str("pipeline", p.Name()).
		Str("file", f.Key).
		Int("rows", stats.Rows).
		Int("kept", stats.Kept).
		Int("dropped", stats.Dropped).
		Msg("parse stats")

	switch {
	case errors.Is(err, ingestion.ErrMissingColumns):
		fr.Status, fr.Err = StatusNoData, err
	case err != nil:
		fr.Status, fr.Err = StatusFailed, err
	case stats.Kept == 0:
		fr.Status = StatusNoData
	default:
		fr.Status = StatusSuccess
	}
	return fr
}

// reclaim is the inter-batch pause. Memory stays bounded by the number of
// concurrently resident files, so this only logs the heap and waits.
func (s *Scheduler) reclaim(ctx context.Context, done, batches int) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	logger.L().Debug().
		Int("batch", done).
		Int("batches", batches).
		Uint64("heap_inuse_bytes", ms.HeapInuse).
		Dur("pause", s.cfg.BatchPause).
		Msg("between batches")

	if s.cfg.BatchPause > 0 {
		_ = s.pause(ctx, s.cfg.BatchPause)
	}
}

func (s *Scheduler) report(ctx context.Context, jobID string, p models.Progress) {
	p.JobID = jobID
	if err := s.reporter.UpdateProgress(ctx, jobID, p); err != nil {
		logger.L().Warn().Err(err).Str("job_id", jobID).Msg("progress update failed")
	}
}

func logFile(pipeline string, idx, total int, fr FileResult) {
	ev := logger.L().Info()
	if fr.Status == StatusFailed {
		ev = logger.L().Error().Err(fr.Err)
	}
	ev.Str("pipeline", pipeline).
		Int("idx", idx).
		Int("total", total).
		Str("file", fr.Key).
		Str("date", fr.Date).
		Str("status", string(fr.Status)).
		Int("artifacts", fr.Artifacts).
		Dur("elapsed", fr.Duration).
		Msg("file done")
}

func split(files []ingestion.InputFile, size int) [][]ingestion.InputFile {
	var out [][]ingestion.InputFile
	for len(files) > 0 {
		n := min(size, len(files))
		out = append(out, files[:n])
		files = files[n:]
	}
	return out
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) * 100 / float64(total)
}

func summary(r RunResult, total int, canceled bool) string {
	msg := fmt.Sprintf("processed %d/%d files: %d succeeded (%d skipped, %d no data), %d failed",
		r.Processed, total, r.Succeeded, r.Skipped, r.NoData, r.Failed)
	if canceled {
		msg = "canceled: " + msg
	}
	return msg
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
