package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/brokerflow/internal/aggregate"
	"github.com/guttosm/brokerflow/internal/domain/models"
	"github.com/guttosm/brokerflow/internal/ingestion"
	"github.com/guttosm/brokerflow/internal/output"
)

// SegmentName identifies the segment-split pipeline.
const SegmentName = "segment"

const uploadConcurrency = 8

// Segment produces per-stock broker summaries and per-broker transaction
// files for every market segment of a date.
type Segment struct {
	w *output.Writer
}

func NewSegment(w *output.Writer) *Segment {
	return &Segment{w: w}
}

func (*Segment) Name() string { return SegmentName }

func (*Segment) Schema() ingestion.Schema { return ingestion.SegmentSchema }

func (*Segment) KeyArtifact(date string) string { return output.SegmentManifestPath(date) }

// Process uploads every summary and transaction file, then the manifest. A
// date whose uploads did not all succeed has no manifest and is redone on the
// next run, whatever segments it traded in.
func (s *Segment) Process(ctx context.Context, date string, chunks Chunks) (int, error) {
	acc := aggregate.NewSegmentAccumulator()
	if err := chunks(func(recs []models.TransactionRecord) error {
		acc.Add(recs)
		return nil
	}); err != nil {
		return 0, err
	}

	results := acc.Results()
	counts := make(map[models.Segment]models.SegmentManifestRow, len(results))

	var uploads []func(context.Context) error
	for _, res := range results {
		for _, bt := range res.Transactions {
			key := output.BrokerTransactionPath(res.Segment, date, bt.Broker)
			uploads = append(uploads, uploadRows(s.w, key, bt.Rows))
		}
		for _, ss := range res.Summaries {
			key := output.BrokerSummaryPath(res.Segment, date, ss.Stock)
			uploads = append(uploads, uploadRows(s.w, key, ss.Rows))
		}
		counts[res.Segment] = models.SegmentManifestRow{
			Summaries:    len(res.Summaries),
			Transactions: len(res.Transactions),
		}
	}

	if err := runUploads(ctx, uploads); err != nil {
		return 0, err
	}

	manifest := make([]models.SegmentManifestRow, 0, len(models.Segments))
	for _, seg := range models.Segments {
		row := counts[seg]
		row.Segment = string(seg)
		manifest = append(manifest, row)
	}
	if _, err := output.Write(ctx, s.w, output.SegmentManifestPath(date), manifest); err != nil {
		return len(uploads), err
	}
	return len(uploads) + 1, nil
}

func uploadRows[T any](w *output.Writer, key string, rows []T) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := output.Write(ctx, w, key, rows)
		return err
	}
}

// runUploads runs fns with bounded concurrency; the first error cancels the
// rest.
func runUploads(ctx context.Context, fns []func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}
