package ingestion

import (
	"context"

	"github.com/guttosm/brokerflow/internal/logger"
	"github.com/guttosm/brokerflow/internal/storage"
)

// Guard skips dates whose key output artifact is already in the store.
//
// All artifacts of a date are produced together, so one representative path
// stands for the whole set.
type Guard struct {
	Store       storage.ObjectStore
	KeyArtifact func(date string) string
}

// ShouldSkip reports whether date is already done. A failing existence check
// never skips: the date is processed instead.
func (g Guard) ShouldSkip(ctx context.Context, date string) bool {
	key := g.KeyArtifact(date)
	ok, err := g.Store.Exists(ctx, key)
	if err != nil {
		l := logger.With("guard")
		l.Warn().Err(err).Str("date", date).Str("artifact", key).Msg("existence check failed, processing anyway")
		return false
	}
	return ok
}
