package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSegment(t *testing.T) {
	cases := map[string]Segment{
		"RK":  SegmentRegular,
		" tn": SegmentCash,
		"ng ": SegmentNegotiated,
		"XX":  SegmentUnknown,
		"":    SegmentUnknown,
	}
	for in, want := range cases {
		if got := ParseSegment(in); got != want {
			t.Fatalf("ParseSegment(%q)=%q, want %q", in, got, want)
		}
	}
	if SegmentRegular.Slug() != "rk" {
		t.Fatalf("unexpected slug %q", SegmentRegular.Slug())
	}
}

func TestTransactionRecord_Value(t *testing.T) {
	r := TransactionRecord{Volume: 150, Price: decimal.RequireFromString("10.5")}
	if !r.Value().Equal(decimal.RequireFromString("1575")) {
		t.Fatalf("unexpected value %s", r.Value())
	}
}

func TestAvgPrice(t *testing.T) {
	if !AvgPrice(decimal.NewFromInt(2000), 0).IsZero() {
		t.Fatalf("zero volume must give zero avg")
	}
	got := AvgPrice(decimal.NewFromInt(2000), 150)
	want := decimal.NewFromInt(2000).Div(decimal.NewFromInt(150))
	if !got.Equal(want) {
		t.Fatalf("avg %s, want %s", got, want)
	}
}

func TestMoney_MarshalCSV(t *testing.T) {
	s, err := NewMoney(decimal.RequireFromString("12.50")).MarshalCSV()
	if err != nil || s != "12.5" {
		t.Fatalf("MarshalCSV=%q err=%v", s, err)
	}
}
