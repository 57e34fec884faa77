package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

// DefaultChunkSize is used when a non-positive chunk size is requested.
const DefaultChunkSize = 10000

// ParseStats counts what happened to the data lines of one file.
type ParseStats struct {
	Rows    int // data lines read
	Kept    int // records emitted
	Dropped int // lines excluded by the issuer-code filter
}

// ParseStream reads a ';'-delimited dump from r and hands records to fn in
// chunks of at most chunkSize. The slice passed to fn is reused after fn
// returns; callers must not retain it.
//
// It fails on:
//   - unreadable header (I/O)
//   - header lacking a required column (*MissingColumnsError)
//   - context cancellation, or an error returned by fn
//
// It tolerates:
//   - stock codes that are not 4 characters (row dropped)
//   - short rows, empty or garbled numeric cells (coerced to zero)
func ParseStream(ctx context.Context, r io.Reader, s Schema, chunkSize int, fn func([]models.TransactionRecord) error) (ParseStats, error) {
	var stats ParseStats
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stats, &MissingColumnsError{Missing: s.Required}
		}
		return stats, fmt.Errorf("read header: %w", err)
	}
	cols, err := ResolveSchema(header, s)
	if err != nil {
		return stats, err
	}
	rp := newRowParser(cols)

	buf := make([]models.TransactionRecord, 0, chunkSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := fn(buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	line := 1 // header already read
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				// malformed quoting on a single line; count it and move on
				line++
				stats.Rows++
				stats.Dropped++
				continue
			}
			return stats, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++
		if isBlank(row) {
			continue
		}
		stats.Rows++

		rec, ok := rp.parse(row)
		if !ok {
			stats.Dropped++
			continue
		}
		buf = append(buf, rec)
		stats.Kept++
		if len(buf) >= chunkSize {
			if err := flush(); err != nil {
				return stats, fmt.Errorf("flush chunk ending line %d: %w", line, err)
			}
		}
	}

	if err := flush(); err != nil {
		return stats, fmt.Errorf("final flush: %w", err)
	}
	return stats, nil
}

// Parse converts a whole dump held in memory into records. It performs no I/O.
// A header lacking required columns yields no records and a *MissingColumnsError.
func Parse(text string, s Schema) ([]models.TransactionRecord, error) {
	var out []models.TransactionRecord
	_, err := ParseStream(context.Background(), strings.NewReader(text), s, DefaultChunkSize, func(chunk []models.TransactionRecord) error {
		out = append(out, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type rowParser struct {
	stock, seller, buyer, volume, price, trxCode int
	trxType                                      int // -1 when the file has no TRX_TYPE column
}

func newRowParser(cols ColumnMap) rowParser {
	rp := rowParser{
		stock:   cols[ColStockCode],
		seller:  cols[ColSellerCode],
		buyer:   cols[ColBuyerCode],
		volume:  cols[ColVolume],
		price:   cols[ColPrice],
		trxCode: cols[ColTrxCode],
		trxType: -1,
	}
	if i, ok := cols[ColTrxType]; ok {
		rp.trxType = i
	}
	return rp
}

func (p rowParser) parse(row []string) (models.TransactionRecord, bool) {
	stock := field(row, p.stock)
	if utf8.RuneCountInString(stock) != models.StockCodeLength {
		return models.TransactionRecord{}, false
	}
	rec := models.TransactionRecord{
		StockCode:  stock,
		SellerCode: field(row, p.seller),
		BuyerCode:  field(row, p.buyer),
		Volume:     coerceInt(field(row, p.volume)),
		Price:      coerceDecimal(field(row, p.price)),
		TrxCode:    field(row, p.trxCode),
	}
	if p.trxType >= 0 {
		rec.Segment = models.ParseSegment(field(row, p.trxType))
	}
	return rec, true
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// coerceInt parses a volume. Garbage and negatives become 0; fractional
// values are truncated.
func coerceInt(s string) int64 {
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0
		}
		return v
	}
	d := coerceDecimal(s)
	return d.IntPart()
}

// coerceDecimal parses a price, accepting ',' as the decimal separator.
// Garbage and negatives become 0.
func coerceDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
