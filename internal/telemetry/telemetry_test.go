package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptloom/tagindex/internal/logging"
	"github.com/promptloom/tagindex/internal/store"
)

func newRecorder(t *testing.T) (*Recorder, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "Tags.db"), store.DefaultOptions(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Initialize(context.Background()))

	r := NewRecorder(st.DB(), logging.Discard())
	r.clock = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return r, st
}

func TestRecorder_AggregatesPerDayAndOperation(t *testing.T) {
	r, st := newRecorder(t)
	ctx := context.Background()

	r.Record(ctx, OpSearch, 3, 12*time.Millisecond)
	r.Record(ctx, OpSearch, 0, 40*time.Millisecond)
	r.Record(ctx, OpSuggest, 5, 2*time.Millisecond)

	summaries, err := Summary(ctx, st.DB())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	search := summaries[0]
	assert.Equal(t, OpSearch, search.Operation)
	assert.Equal(t, 2, search.Count)
	assert.InDelta(t, 26.0, search.AvgMillis, 0.01)
	assert.Equal(t, int64(40), search.MaxMillis)
	assert.Equal(t, 1, search.ZeroResults)

	assert.Equal(t, OpSuggest, summaries[1].Operation)
}

func TestRecorder_FailureIsSwallowed(t *testing.T) {
	r, st := newRecorder(t)
	require.NoError(t, st.Close())

	// Recording against a closed store must not panic or propagate.
	r.Record(context.Background(), OpSearch, 1, time.Millisecond)
}

func TestSummary_EmptyTable(t *testing.T) {
	_, st := newRecorder(t)

	summaries, err := Summary(context.Background(), st.DB())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
