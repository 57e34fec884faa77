package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

// Column names of the daily trade dumps.
const (
	ColStockCode  = "STK_CODE"
	ColSellerCode = "BRK_COD1"
	ColBuyerCode  = "BRK_COD2"
	ColVolume     = "STK_VOLM"
	ColPrice      = "STK_PRIC"
	ColTrxCode    = "TRX_CODE"
	ColTrxType    = "TRX_TYPE"
)

// Schema is the set of columns a pipeline needs from a dump.
type Schema struct {
	Required []string
}

var (
	// TopBrokerSchema covers the top-broker pipeline.
	TopBrokerSchema = Schema{Required: []string{ColStockCode, ColSellerCode, ColBuyerCode, ColVolume, ColPrice, ColTrxCode}}

	// SegmentSchema adds the market segment tag.
	SegmentSchema = Schema{Required: []string{ColStockCode, ColSellerCode, ColBuyerCode, ColVolume, ColPrice, ColTrxCode, ColTrxType}}
)

// ErrMissingColumns is matched by errors.Is on a *MissingColumnsError.
var ErrMissingColumns = errors.New("missing required columns")

// MissingColumnsError lists the required columns absent from a header.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// ColumnMap maps a column name to its index in the file.
type ColumnMap map[string]int

// Has reports whether the column was present in the header.
func (m ColumnMap) Has(col string) bool {
	_, ok := m[col]
	return ok
}

// ResolveSchema maps the required columns onto header positions. Column order
// varies between days, so lookups are by name (trimmed, case-insensitive, BOM
// stripped). Optional columns present in the header are mapped too.
func ResolveSchema(header []string, s Schema) (ColumnMap, error) {
	cols := make(ColumnMap, len(header))
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name == "" {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, req := range s.Required {
		if !cols.Has(req) {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return cols, nil
}
