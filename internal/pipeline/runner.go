package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/guttosm/brokerflow/internal/domain/models"
	"github.com/guttosm/brokerflow/internal/output"
	"github.com/guttosm/brokerflow/internal/progress"
	"github.com/guttosm/brokerflow/internal/storage"
)

// All selects every registered pipeline, run one after another.
const All = "all"

// ErrUnknownPipeline is returned for a name no pipeline is registered under.
var ErrUnknownPipeline = errors.New("unknown pipeline")

type registered struct {
	proc Processor
	cfg  Config
}

// Runner owns the pipelines of one object store and their tuning.
type Runner struct {
	store     storage.ObjectStore
	prefix    string
	pipelines map[string]registered
}

// NewRunner registers the top-broker and segment pipelines over store.
func NewRunner(store storage.ObjectStore, prefix string, topBroker, segment Config) *Runner {
	w := output.NewWriter(store)
	r := &Runner{store: store, prefix: prefix, pipelines: map[string]registered{}}
	r.Register(NewTopBroker(w), topBroker)
	r.Register(NewSegment(w), segment)
	return r
}

// Register adds or replaces a pipeline.
func (r *Runner) Register(p Processor, cfg Config) {
	r.pipelines[p.Name()] = registered{proc: p, cfg: cfg}
}

// Names lists registered pipelines in a stable order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.pipelines))
	for n := range r.pipelines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is runnable (including All).
func (r *Runner) Has(name string) bool {
	if name == All {
		return true
	}
	_, ok := r.pipelines[name]
	return ok
}

// Run executes the named pipeline, or every pipeline for All. limit caps
// the number of input files per pipeline when positive. The job is reported
// done once, after its last pipeline.
func (r *Runner) Run(ctx context.Context, name, jobID string, limit int, rep progress.Reporter) ([]RunResult, error) {
	names := []string{name}
	if name == All {
		names = r.Names()
	}
	for _, n := range names {
		if _, ok := r.pipelines[n]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, n)
		}
	}
	if rep == nil {
		rep = progress.Noop{}
	}

	results := make([]RunResult, 0, len(names))
	for i, n := range names {
		if ctx.Err() != nil {
			_ = rep.UpdateProgress(context.WithoutCancel(ctx), jobID, models.Progress{
				Pipeline: n, CurrentItem: "canceled before start", Done: true,
			})
			break
		}
		reg := r.pipelines[n]
		cfg := reg.cfg
		if limit > 0 {
			cfg.Limit = limit
		}
		stepRep := rep
		if i < len(names)-1 {
			stepRep = holdDone{rep}
		}
		results = append(results, NewScheduler(r.store, r.prefix, cfg, stepRep).Run(ctx, reg.proc, jobID))
	}
	return results, nil
}

// holdDone forwards updates with Done cleared.
type holdDone struct {
	progress.Reporter
}

func (h holdDone) UpdateProgress(ctx context.Context, jobID string, p models.Progress) error {
	p.Done = false
	return h.Reporter.UpdateProgress(ctx, jobID, p)
}
