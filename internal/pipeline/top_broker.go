package pipeline

import (
	"context"

	"github.com/guttosm/brokerflow/internal/aggregate"
	"github.com/guttosm/brokerflow/internal/domain/models"
	"github.com/guttosm/brokerflow/internal/ingestion"
	"github.com/guttosm/brokerflow/internal/output"
)

// TopBrokerName identifies the top-broker pipeline.
const TopBrokerName = "top_broker"

// TopBroker produces top_broker_by_stock.csv and top_broker.csv per date.
type TopBroker struct {
	w *output.Writer
}

func NewTopBroker(w *output.Writer) *TopBroker {
	return &TopBroker{w: w}
}

func (*TopBroker) Name() string { return TopBrokerName }

func (*TopBroker) Schema() ingestion.Schema { return ingestion.TopBrokerSchema }

func (*TopBroker) KeyArtifact(date string) string { return output.TopBrokerByStockPath(date) }

// Process feeds both engines from the same stream. The key artifact is
// uploaded last so a failed date is retried on the next run.
func (t *TopBroker) Process(ctx context.Context, date string, chunks Chunks) (int, error) {
	byStock := aggregate.NewTopBrokerAccumulator()
	brokers := aggregate.NewComprehensiveAccumulator()

	if err := chunks(func(recs []models.TransactionRecord) error {
		byStock.Add(recs)
		brokers.Add(recs)
		return nil
	}); err != nil {
		return 0, err
	}

	written := 0
	comp := brokers.Rows()
	if _, err := output.Write(ctx, t.w, output.TopBrokerPath(date), comp); err != nil {
		return written, err
	}
	if len(comp) > 0 {
		written++
	}

	rows := byStock.Rows()
	if _, err := output.Write(ctx, t.w, output.TopBrokerByStockPath(date), rows); err != nil {
		return written, err
	}
	if len(rows) > 0 {
		written++
	}
	return written, nil
}
