package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

type topKey struct {
	broker string
	stock  string
}

type topGroup struct {
	key   topKey
	vol   int64
	value decimal.Decimal
	count int64
}

// TopBrokerAccumulator groups records by (buyer broker, stock).
type TopBrokerAccumulator struct {
	index  map[topKey]int
	groups []topGroup // first-seen order
}

// NewTopBrokerAccumulator returns an empty accumulator.
func NewTopBrokerAccumulator() *TopBrokerAccumulator {
	return &TopBrokerAccumulator{index: make(map[topKey]int)}
}

// Add folds a chunk of records into the groups.
func (a *TopBrokerAccumulator) Add(recs []models.TransactionRecord) {
	for _, r := range recs {
		if r.BuyerCode == "" {
			continue
		}
		k := topKey{broker: r.BuyerCode, stock: r.StockCode}
		i, ok := a.index[k]
		if !ok {
			i = len(a.groups)
			a.index[k] = i
			a.groups = append(a.groups, topGroup{key: k})
		}
		g := &a.groups[i]
		g.vol += r.Volume
		g.value = g.value.Add(r.Value())
		g.count++
	}
}

// Rows returns one row per group sorted by broker ascending, then volume
// descending; equal volumes keep first-seen order.
func (a *TopBrokerAccumulator) Rows() []models.TopBrokerRow {
	rows := make([]models.TopBrokerRow, 0, len(a.groups))
	for _, g := range a.groups {
		rows = append(rows, models.TopBrokerRow{
			Broker:   g.key.broker,
			Stock:    g.key.stock,
			Volume:   g.vol,
			Value:    models.NewMoney(g.value),
			AvgPrice: models.NewMoney(models.AvgPrice(g.value, g.vol)),
			Count:    g.count,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Broker != rows[j].Broker {
			return rows[i].Broker < rows[j].Broker
		}
		return rows[i].Volume > rows[j].Volume
	})
	return rows
}

// TopBrokerByStock aggregates recs in one pass.
func TopBrokerByStock(recs []models.TransactionRecord) []models.TopBrokerRow {
	a := NewTopBrokerAccumulator()
	a.Add(recs)
	return a.Rows()
}
