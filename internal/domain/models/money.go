package models

import "github.com/shopspring/decimal"

// Money is a decimal amount that renders itself as a CSV cell.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (m Money) MarshalCSV() (string, error) {
	return m.Decimal.String(), nil
}

// AvgPrice returns value/volume, or zero when volume is not positive.
func AvgPrice(value decimal.Decimal, volume int64) decimal.Decimal {
	if volume <= 0 {
		return decimal.Zero
	}
	return value.Div(decimal.NewFromInt(volume))
}
