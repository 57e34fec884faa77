package aggregate

import (
	"sort"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

// StockSummary is the content of one broker summary file.
type StockSummary struct {
	Stock string
	Rows  []models.BrokerSummaryRow
}

// BrokerTransactions is the content of one broker transaction file.
type BrokerTransactions struct {
	Broker string
	Rows   []models.BrokerTransactionRow
}

// SegmentResult holds both aggregate shapes for one segment. Only stocks and
// brokers with activity in the segment appear.
type SegmentResult struct {
	Segment      models.Segment
	Summaries    []StockSummary       // sorted by stock code
	Transactions []BrokerTransactions // sorted by broker code
}

type cellKey struct {
	stock  string
	broker string
}

type segmentPart struct {
	cells map[cellKey]*ledger
}

// SegmentAccumulator partitions records by segment and keeps a buy/sell
// ledger per (stock, broker) cell within each partition.
type SegmentAccumulator struct {
	parts map[models.Segment]*segmentPart
}

// NewSegmentAccumulator returns an empty accumulator.
func NewSegmentAccumulator() *SegmentAccumulator {
	return &SegmentAccumulator{parts: make(map[models.Segment]*segmentPart)}
}

func (a *SegmentAccumulator) cell(seg models.Segment, k cellKey) *ledger {
	p, ok := a.parts[seg]
	if !ok {
		p = &segmentPart{cells: make(map[cellKey]*ledger)}
		a.parts[seg] = p
	}
	l, ok := p.cells[k]
	if !ok {
		l = &ledger{}
		p.cells[k] = l
	}
	return l
}

// Add folds a chunk of records. Records with an unknown segment are ignored.
func (a *SegmentAccumulator) Add(recs []models.TransactionRecord) {
	for _, r := range recs {
		if r.Segment == models.SegmentUnknown {
			continue
		}
		if r.BuyerCode != "" {
			a.cell(r.Segment, cellKey{stock: r.StockCode, broker: r.BuyerCode}).buy.add(r)
		}
		if r.SellerCode != "" {
			a.cell(r.Segment, cellKey{stock: r.StockCode, broker: r.SellerCode}).sell.add(r)
		}
	}
}

// Results returns one SegmentResult per segment that saw activity, in
// models.Segments order.
func (a *SegmentAccumulator) Results() []SegmentResult {
	var out []SegmentResult
	for _, seg := range models.Segments {
		p, ok := a.parts[seg]
		if !ok || len(p.cells) == 0 {
			continue
		}
		out = append(out, p.result(seg))
	}
	return out
}

func (p *segmentPart) result(seg models.Segment) SegmentResult {
	byStock := make(map[string][]models.BrokerSummaryRow)
	byBroker := make(map[string][]models.BrokerTransactionRow)

	for k, l := range p.cells {
		byStock[k.stock] = append(byStock[k.stock], models.BrokerSummaryRow{
			Broker:    k.broker,
			BuyVol:    l.buy.vol,
			BuyValue:  models.NewMoney(l.buy.value),
			BuyAvg:    l.buy.avg(),
			BuyFreq:   l.buy.freq,
			SellVol:   l.sell.vol,
			SellValue: models.NewMoney(l.sell.value),
			SellAvg:   l.sell.avg(),
			SellFreq:  l.sell.freq,
			NetVol:    l.netVol(),
			NetValue:  models.NewMoney(l.netValue()),
		})
		byBroker[k.broker] = append(byBroker[k.broker], models.BrokerTransactionRow{
			Stock:      k.stock,
			BuyVol:     l.buy.vol,
			BuyValue:   models.NewMoney(l.buy.value),
			BuyAvg:     l.buy.avg(),
			BuyFreq:    l.buy.freq,
			SellVol:    l.sell.vol,
			SellValue:  models.NewMoney(l.sell.value),
			SellAvg:    l.sell.avg(),
			SellFreq:   l.sell.freq,
			NetVol:     l.netVol(),
			NetValue:   models.NewMoney(l.netValue()),
			TotalVol:   l.totalVol(),
			TotalValue: models.NewMoney(l.totalValue()),
			TotalFreq:  l.totalFreq(),
		})
	}

	res := SegmentResult{Segment: seg}
	for _, stock := range sortedKeys(byStock) {
		rows := byStock[stock]
		sort.Slice(rows, func(i, j int) bool {
			if c := rows[i].NetValue.Cmp(rows[j].NetValue.Decimal); c != 0 {
				return c > 0
			}
			return rows[i].Broker < rows[j].Broker
		})
		res.Summaries = append(res.Summaries, StockSummary{Stock: stock, Rows: rows})
	}
	for _, broker := range sortedKeys(byBroker) {
		rows := byBroker[broker]
		sort.Slice(rows, func(i, j int) bool {
			if c := rows[i].NetValue.Cmp(rows[j].NetValue.Decimal); c != 0 {
				return c > 0
			}
			return rows[i].Stock < rows[j].Stock
		})
		res.Transactions = append(res.Transactions, BrokerTransactions{Broker: broker, Rows: rows})
	}
	return res
}

// SegmentSplit aggregates recs in one pass.
func SegmentSplit(recs []models.TransactionRecord) []SegmentResult {
	a := NewSegmentAccumulator()
	a.Add(recs)
	return a.Results()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
