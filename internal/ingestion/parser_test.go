package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

const header = "STK_CODE;BRK_COD1;BRK_COD2;STK_VOLM;STK_PRIC;TRX_CODE\n"

func TestResolveSchema(t *testing.T) {
	cases := []struct {
		name    string
		header  []string
		schema  Schema
		missing []string
	}{
		{name: "exact order", header: []string{"STK_CODE", "BRK_COD1", "BRK_COD2", "STK_VOLM", "STK_PRIC", "TRX_CODE"}, schema: TopBrokerSchema},
		{name: "shuffled and padded", header: []string{" trx_code", "STK_PRIC ", "X", "\ufeffSTK_CODE", "BRK_COD2", "BRK_COD1", "STK_VOLM"}, schema: TopBrokerSchema},
		{name: "missing volume", header: []string{"STK_CODE", "BRK_COD1", "BRK_COD2", "STK_PRIC", "TRX_CODE"}, schema: TopBrokerSchema, missing: []string{"STK_VOLM"}},
		{name: "segment needs type", header: []string{"STK_CODE", "BRK_COD1", "BRK_COD2", "STK_VOLM", "STK_PRIC", "TRX_CODE"}, schema: SegmentSchema, missing: []string{"TRX_TYPE"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cols, err := ResolveSchema(tc.header, tc.schema)
			if tc.missing == nil {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				for _, c := range tc.schema.Required {
					if !cols.Has(c) {
						t.Fatalf("column %s not resolved", c)
					}
				}
				return
			}
			var mce *MissingColumnsError
			if !errors.As(err, &mce) || !errors.Is(err, ErrMissingColumns) {
				t.Fatalf("expected MissingColumnsError, got %v", err)
			}
			if strings.Join(mce.Missing, ",") != strings.Join(tc.missing, ",") {
				t.Fatalf("missing=%v want %v", mce.Missing, tc.missing)
			}
		})
	}
}

func TestParse_TableDriven(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		schema   Schema
		wantErr  error
		wantRecs int
	}{
		{name: "ok single row", content: header + "ABCD;BRK1;BRK2;100;10;RG\n", schema: TopBrokerSchema, wantRecs: 1},
		{name: "non-equity dropped", content: header + "ABCD-W;BRK1;BRK2;100;10;RG\nABC;BRK1;BRK2;1;1;RG\nABCD;B;S;1;1;RG\n", schema: TopBrokerSchema, wantRecs: 1},
		{name: "multi-byte issuer kept", content: header + "ÁGUA;BRK1;BRK2;100;10;RG\nÁGUAS;BRK1;BRK2;1;1;RG\n", schema: TopBrokerSchema, wantRecs: 1},
		{name: "garbled numerics kept as zero", content: header + "ABCD;BRK1;BRK2;abc;;RG\n", schema: TopBrokerSchema, wantRecs: 1},
		{name: "short row kept", content: header + "ABCD;BRK1\n", schema: TopBrokerSchema, wantRecs: 1},
		{name: "blank lines ignored", content: header + "\n;;;;;\nABCD;B;S;1;1;RG\n", schema: TopBrokerSchema, wantRecs: 1},
		{name: "header omits STK_VOLM", content: "STK_CODE;BRK_COD1;BRK_COD2;STK_PRIC;TRX_CODE\nABCD;B;S;1;RG\n", schema: TopBrokerSchema, wantErr: ErrMissingColumns},
		{name: "empty file", content: "", schema: TopBrokerSchema, wantErr: ErrMissingColumns},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := Parse(tc.content, tc.schema)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if len(recs) != 0 {
					t.Fatalf("expected no records, got %d", len(recs))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if len(recs) != tc.wantRecs {
				t.Fatalf("records: want %d got %d", tc.wantRecs, len(recs))
			}
			for _, r := range recs {
				if utf8.RuneCountInString(r.StockCode) != models.StockCodeLength {
					t.Fatalf("non-issuer code leaked: %q", r.StockCode)
				}
			}
		})
	}
}

func TestParse_FieldMappingByName(t *testing.T) {
	content := "TRX_TYPE;STK_PRIC;STK_VOLM;BRK_COD2;BRK_COD1;STK_CODE;TRX_CODE\n" +
		"NG;1250,5;300;YP;CC;BBCA;X1\n"

	recs, err := Parse(content, SegmentSchema)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.StockCode != "BBCA" || r.SellerCode != "CC" || r.BuyerCode != "YP" || r.TrxCode != "X1" {
		t.Fatalf("unexpected codes: %+v", r)
	}
	if r.Volume != 300 || !r.Price.Equal(decimal.RequireFromString("1250.5")) || r.Segment != models.SegmentNegotiated {
		t.Fatalf("unexpected values: %+v", r)
	}
	if !r.Value().Equal(decimal.RequireFromString("375150")) {
		t.Fatalf("value=%s", r.Value())
	}
}

func TestCoercion(t *testing.T) {
	ints := map[string]int64{"": 0, "12": 12, "-5": 0, "x": 0, "12.9": 12, "1e3": 1000}
	for in, want := range ints {
		if got := coerceInt(in); got != want {
			t.Fatalf("coerceInt(%q)=%d want %d", in, got, want)
		}
	}
	decs := map[string]string{"": "0", "10,50": "10.5", "10.25": "10.25", "-1": "0", "n/a": "0"}
	for in, want := range decs {
		if got := coerceDecimal(in); !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("coerceDecimal(%q)=%s want %s", in, got, want)
		}
	}
}

func TestParseStream_Chunks(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < 25; i++ {
		b.WriteString("ABCD;S;B;1;1;RG\n")
	}
	b.WriteString("TOOLONG;S;B;1;1;RG\n")

	var sizes []int
	stats, err := ParseStream(context.Background(), strings.NewReader(b.String()), TopBrokerSchema, 10, func(c []models.TransactionRecord) error {
		sizes = append(sizes, len(c))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(sizes) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Fatalf("unexpected chunk sizes %v", sizes)
	}
	if stats.Rows != 26 || stats.Kept != 25 || stats.Dropped != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestParseStream_CallbackError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ParseStream(context.Background(), strings.NewReader(header+"ABCD;S;B;1;1;RG\n"), TopBrokerSchema, 1, func([]models.TransactionRecord) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestParseStream_ContextCanceled(t *testing.T) {
	rows := strings.Repeat("ABCD;S;B;1;1;RG\n", 1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParseStream(ctx, strings.NewReader(header+rows), TopBrokerSchema, 100, func([]models.TransactionRecord) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}
