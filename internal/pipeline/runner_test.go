package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/brokerflow/internal/output"
)

func TestRunner_All(t *testing.T) {
	store := newStore(t, map[string]string{
		inputKey("20240102"): dump(segmentHeader, "ABCD;S1;B1;10;1;T;NG"),
	})
	r := NewRunner(store, "raw/", Config{}, Config{})

	assert.Equal(t, []string{SegmentName, TopBrokerName}, r.Names())
	assert.True(t, r.Has(All))
	assert.False(t, r.Has("nope"))

	results, err := r.Run(context.Background(), All, "job", 0, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, SegmentName, results[0].Pipeline)
	assert.Equal(t, TopBrokerName, results[1].Pipeline)
	for _, res := range results {
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.Succeeded)
	}

	ok, err := store.Exists(context.Background(), output.TopBrokerByStockPath("20240102"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunner_UnknownPipeline(t *testing.T) {
	r := NewRunner(newStore(t, nil), "raw/", Config{}, Config{})
	_, err := r.Run(context.Background(), "daily_volume", "job", 0, nil)
	assert.ErrorIs(t, err, ErrUnknownPipeline)
}

func TestRunner_LimitOverridesConfig(t *testing.T) {
	store := newStore(t, map[string]string{
		inputKey("20240102"): dump(topHeader, "ABCD;S;B;1;1;X"),
		inputKey("20240103"): dump(topHeader, "ABCD;S;B;1;1;X"),
	})
	r := NewRunner(store, "raw/", Config{}, Config{})

	results, err := r.Run(context.Background(), TopBrokerName, "job", 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Processed)
}

func TestRunner_AllReportsDoneOnce(t *testing.T) {
	store := newStore(t, map[string]string{
		inputKey("20240102"): dump(segmentHeader, "ABCD;S1;B1;10;1;T;RK"),
		inputKey("20240103"): dump(segmentHeader, "ABCD;S1;B1;10;1;T;TN"),
	})
	rep := &recordingReporter{}
	r := NewRunner(store, "raw/", Config{BatchSize: 1, MaxConcurrency: 1}, Config{BatchSize: 1, MaxConcurrency: 1})

	_, err := r.Run(context.Background(), All, "job", 0, rep)
	require.NoError(t, err)

	require.NotEmpty(t, rep.updates)
	last := rep.updates[len(rep.updates)-1]
	assert.True(t, last.Done)
	assert.Equal(t, TopBrokerName, last.Pipeline)
	for _, u := range rep.updates[:len(rep.updates)-1] {
		assert.False(t, u.Done, "%s: %s", u.Pipeline, u.CurrentItem)
	}
}

func TestRunner_CanceledBeforeStartStillFinishesJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep := &recordingReporter{}
	r := NewRunner(newStore(t, nil), "raw/", Config{}, Config{})

	results, err := r.Run(ctx, All, "job", 0, rep)
	require.NoError(t, err)
	assert.Empty(t, results)
	require.Len(t, rep.updates, 1)
	assert.True(t, rep.updates[0].Done)
}
