package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// StockCodeLength is the length of an issuer (equity) code in characters.
// Rows with any other stock code length are not equities and never reach the
// aggregators.
const StockCodeLength = 4

// Segment is the trading-board classification of a transaction.
type Segment string

const (
	SegmentRegular    Segment = "RK"
	SegmentCash       Segment = "TN"
	SegmentNegotiated Segment = "NG"
	SegmentUnknown    Segment = ""
)

// Segments lists the known segments in output order.
var Segments = []Segment{SegmentRegular, SegmentCash, SegmentNegotiated}

// ParseSegment maps a raw TRX_TYPE value onto a Segment. Unrecognised values
// return SegmentUnknown.
func ParseSegment(s string) Segment {
	switch Segment(strings.ToUpper(strings.TrimSpace(s))) {
	case SegmentRegular:
		return SegmentRegular
	case SegmentCash:
		return SegmentCash
	case SegmentNegotiated:
		return SegmentNegotiated
	default:
		return SegmentUnknown
	}
}

// Slug is the lower-case form used in output paths (e.g. "rk").
func (s Segment) Slug() string {
	return strings.ToLower(string(s))
}

// TransactionRecord is one row of a daily trade dump.
//
// Column mapping:
//
//	STK_CODE → StockCode
//	BRK_COD1 → SellerCode
//	BRK_COD2 → BuyerCode
//	STK_VOLM → Volume
//	STK_PRIC → Price
//	TRX_CODE → TrxCode
//	TRX_TYPE → Segment (segment-split files only)
type TransactionRecord struct {
	StockCode  string
	SellerCode string
	BuyerCode  string
	Volume     int64
	Price      decimal.Decimal
	TrxCode    string
	Segment    Segment
}

// Value returns volume × price. It is always derived, never read from input.
func (r TransactionRecord) Value() decimal.Decimal {
	return r.Price.Mul(decimal.NewFromInt(r.Volume))
}
