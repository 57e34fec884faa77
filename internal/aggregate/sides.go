// Package aggregate holds the aggregation engines fed by a day's transaction
// records. Each engine is an accumulator (Add chunks, then Rows) with a pure
// whole-slice wrapper. Engines never modify the records they are given.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

// side accumulates one direction (buy or sell) of a broker's trading.
type side struct {
	vol   int64
	value decimal.Decimal
	freq  int64
}

func (s *side) add(r models.TransactionRecord) {
	s.vol += r.Volume
	s.value = s.value.Add(r.Value())
	s.freq++
}

func (s side) avg() models.Money {
	return models.NewMoney(models.AvgPrice(s.value, s.vol))
}

// ledger is a buy side and a sell side kept independently; a broker can be
// on both sides of the same day.
type ledger struct {
	buy  side
	sell side
}

func (l ledger) netVol() int64               { return l.buy.vol - l.sell.vol }
func (l ledger) netValue() decimal.Decimal   { return l.buy.value.Sub(l.sell.value) }
func (l ledger) netFreq() int64              { return l.buy.freq - l.sell.freq }
func (l ledger) totalVol() int64             { return l.buy.vol + l.sell.vol }
func (l ledger) totalValue() decimal.Decimal { return l.buy.value.Add(l.sell.value) }
func (l ledger) totalFreq() int64            { return l.buy.freq + l.sell.freq }
