package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/brokerflow/internal/domain/models"
)

func TestLogReporter_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	r := LogReporter{Log: zerolog.New(&buf)}

	err := r.UpdateProgress(context.Background(), "job-1", models.Progress{
		Pipeline: "segment", Percent: 50, CurrentItem: "batch 1/2",
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "job-1", line["job_id"])
	assert.Equal(t, "segment", line["pipeline"])
	assert.Equal(t, 50.0, line["percent"])
	assert.Equal(t, "batch 1/2", line["current"])
}

func TestMemory_StoresLatest(t *testing.T) {
	m := NewMemory()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	ctx := context.Background()

	got, err := m.GetProgress(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.UpdateProgress(ctx, "j", models.Progress{Percent: 10}))
	require.NoError(t, m.UpdateProgress(ctx, "j", models.Progress{Percent: 100, Done: true}))

	got, err = m.GetProgress(ctx, "j")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "j", got.JobID)
	assert.Equal(t, 100.0, got.Percent)
	assert.True(t, got.Done)
	assert.Equal(t, fixed, got.UpdatedAt)
}

type failing struct{}

func (failing) UpdateProgress(context.Context, string, models.Progress) error {
	return errors.New("db down")
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	m := NewMemory()
	r := Multi(Noop{}, failing{}, m)

	err := r.UpdateProgress(context.Background(), "j", models.Progress{Percent: 25})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	got, _ := m.GetProgress(context.Background(), "j")
	require.NotNil(t, got, "later reporters still receive the update")
	assert.Equal(t, 25.0, got.Percent)
}
