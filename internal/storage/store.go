package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned (wrapped) when an object does not exist.
var ErrNotFound = errors.New("object not found")

// ContentTypeCSV is the content type used for every output artifact.
const ContentTypeCSV = "text/csv"

// ObjectStore is the backing store for input dumps and output artifacts.
//
// Keys are slash-separated. A key ending in "/" passed to Exists asks whether
// any object lives under that prefix.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	Ping(ctx context.Context) error
}

func isPrefixKey(key string) bool {
	return strings.HasSuffix(key, "/")
}
