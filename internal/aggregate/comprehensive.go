package aggregate

import (
	"sort"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

// ComprehensiveAccumulator tracks every broker's buy and sell totals.
type ComprehensiveAccumulator struct {
	index   map[string]int
	brokers []string
	ledgers []ledger
}

// NewComprehensiveAccumulator returns an empty accumulator.
func NewComprehensiveAccumulator() *ComprehensiveAccumulator {
	return &ComprehensiveAccumulator{index: make(map[string]int)}
}

func (a *ComprehensiveAccumulator) ledger(broker string) *ledger {
	i, ok := a.index[broker]
	if !ok {
		i = len(a.ledgers)
		a.index[broker] = i
		a.brokers = append(a.brokers, broker)
		a.ledgers = append(a.ledgers, ledger{})
	}
	return &a.ledgers[i]
}

// Add folds a chunk of records into the per-broker ledgers.
func (a *ComprehensiveAccumulator) Add(recs []models.TransactionRecord) {
	for _, r := range recs {
		if r.BuyerCode != "" {
			a.ledger(r.BuyerCode).buy.add(r)
		}
		if r.SellerCode != "" {
			a.ledger(r.SellerCode).sell.add(r)
		}
	}
}

// Rows emits one row per broker, sorted by total value descending.
//
// The Seller* columns receive the buy side and the Buyer* columns the sell
// side. Downstream consumers depend on this layout.
func (a *ComprehensiveAccumulator) Rows() []models.ComprehensiveBrokerRow {
	rows := make([]models.ComprehensiveBrokerRow, 0, len(a.ledgers))
	for i, l := range a.ledgers {
		rows = append(rows, models.ComprehensiveBrokerRow{
			Broker:      a.brokers[i],
			TotalVol:    l.totalVol(),
			TotalValue:  models.NewMoney(l.totalValue()),
			TotalFreq:   l.totalFreq(),
			NetVol:      l.netVol(),
			NetValue:    models.NewMoney(l.netValue()),
			NetFreq:     l.netFreq(),
			SellerVol:   l.buy.vol,
			SellerValue: models.NewMoney(l.buy.value),
			SellerFreq:  l.buy.freq,
			BuyerVol:    l.sell.vol,
			BuyerValue:  models.NewMoney(l.sell.value),
			BuyerFreq:   l.sell.freq,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].TotalValue.Cmp(rows[j].TotalValue.Decimal); c != 0 {
			return c > 0
		}
		return rows[i].Broker < rows[j].Broker
	})
	return rows
}

// ComprehensiveBrokers aggregates recs in one pass.
func ComprehensiveBrokers(recs []models.TransactionRecord) []models.ComprehensiveBrokerRow {
	a := NewComprehensiveAccumulator()
	a.Add(recs)
	return a.Rows()
}
