package ingestion

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/guttosm/brokerflow/internal/logger"
	"github.com/guttosm/brokerflow/internal/storage"
)

// DateLayout is the 8-digit date embedded in input paths and used in output paths.
const DateLayout = "20060102"

var eightDigits = regexp.MustCompile(`(?:^|[^0-9])([0-9]{8})(?:[^0-9]|$)`)

// InputFile is one discovered daily dump.
type InputFile struct {
	Key  string
	Date time.Time
}

// DateString returns the YYYYMMDD form of the file's trading date.
func (f InputFile) DateString() string {
	return f.Date.Format(DateLayout)
}

// Discover lists prefix and returns the daily dumps newest first.
//
// A key qualifies when its base name starts with "DT", ends in ".csv" and
// either its parent folder or its base name carries a valid YYYYMMDD date;
// the folder wins when both do. A listing error is logged and yields no work.
func Discover(ctx context.Context, store storage.ObjectStore, prefix string) []InputFile {
	log := logger.With("discovery")

	keys, err := store.List(ctx, prefix)
	if err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("listing failed, nothing to process")
		return nil
	}

	files := make([]InputFile, 0, len(keys))
	for _, k := range keys {
		f, ok := MatchInputKey(k)
		if !ok {
			continue
		}
		files = append(files, f)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].Date.Equal(files[j].Date) {
			return files[i].Date.After(files[j].Date)
		}
		return files[i].Key < files[j].Key
	})

	log.Info().Str("prefix", prefix).Int("listed", len(keys)).Int("matched", len(files)).Msg("discovery done")
	return files
}

// MatchInputKey applies the DT*.csv naming convention to a key.
func MatchInputKey(key string) (InputFile, bool) {
	base := path.Base(key)
	if !strings.HasPrefix(base, "DT") || !strings.EqualFold(path.Ext(base), ".csv") {
		return InputFile{}, false
	}

	if d, ok := embeddedDate(path.Base(path.Dir(key))); ok {
		return InputFile{Key: key, Date: d}, true
	}
	if d, ok := embeddedDate(strings.TrimSuffix(base, path.Ext(base))); ok {
		return InputFile{Key: key, Date: d}, true
	}
	return InputFile{}, false
}

func embeddedDate(s string) (time.Time, bool) {
	m := eightDigits.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
