// Package output serialises aggregate rows to CSV and persists them under
// deterministic keys in the object store.
package output

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gocarina/gocsv"

	"github.com/guttosm/brokerflow/internal/storage"
)

// Writer uploads CSV artifacts to an ObjectStore.
type Writer struct {
	store storage.ObjectStore
}

// NewWriter returns a Writer backed by store.
func NewWriter(store storage.ObjectStore) *Writer {
	return &Writer{store: store}
}

// Write marshals rows with a header taken from T's csv tags and uploads them
// as one blob at key. Empty rows are a no-op: nothing is uploaded and key is
// returned unchanged, so callers must not assume the artifact exists.
func Write[T any](ctx context.Context, w *Writer, key string, rows []T) (string, error) {
	if len(rows) == 0 {
		return key, nil
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return key, fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := w.store.Upload(ctx, key, buf.Bytes(), storage.ContentTypeCSV); err != nil {
		return key, fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}
