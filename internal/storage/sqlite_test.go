package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-insights/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "insights.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func storedResult(generatedAt time.Time) *types.AnalysisResult {
	result := types.NewAnalysisResult()
	result.GeneratedAt = generatedAt
	result.EventCount = 12
	result.Confidence = 0.65
	result.Trends = []types.Trend{
		{DataType: types.DataTypeHealth, Direction: types.TrendIncreasing, Strength: 2.1, Confidence: 0.88},
	}
	return result
}

func TestSQLiteResultRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	generatedAt := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveResult(ctx, "alice", storedResult(generatedAt)))

	loaded, err := store.LatestResult(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, 12, loaded.EventCount)
	assert.InDelta(t, 0.65, loaded.Confidence, 1e-9)
	require.Len(t, loaded.Trends, 1)
	assert.Equal(t, types.DataTypeHealth, loaded.Trends[0].DataType)
	assert.True(t, loaded.GeneratedAt.Equal(generatedAt))
}

func TestSQLiteLatestResultPicksNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := storedResult(time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC))
	newer := storedResult(time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC))
	newer.EventCount = 99

	require.NoError(t, store.SaveResult(ctx, "alice", newer))
	require.NoError(t, store.SaveResult(ctx, "alice", older))

	loaded, err := store.LatestResult(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 99, loaded.EventCount)
}

func TestSQLiteNoResultForUnknownUser(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LatestResult(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestSQLiteResultsAreIsolatedByUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, "alice", storedResult(time.Now().UTC())))

	_, err := store.LatestResult(ctx, "bob")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestSQLiteFeedbackRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)
	entries := []types.Feedback{
		{InsightID: "trend-health", Rating: 0.9, Action: "accepted", Timestamp: ts},
		{InsightID: "anomaly-3", Rating: 0.2, Action: "dismissed", Timestamp: ts.Add(time.Minute)},
	}
	require.NoError(t, store.AppendFeedback(ctx, "alice", entries))

	log, err := store.FeedbackLog(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, log, 2)

	assert.Equal(t, "trend-health", log[0].InsightID)
	assert.InDelta(t, 0.9, log[0].Rating, 1e-9)
	assert.Equal(t, "accepted", log[0].Action)
	assert.True(t, log[0].Timestamp.Equal(ts))
	assert.Equal(t, "anomaly-3", log[1].InsightID)
}

func TestSQLiteFeedbackEmptyBatchIsNoop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendFeedback(ctx, "alice", nil))

	log, err := store.FeedbackLog(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestSQLiteFeedbackFillsMissingTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendFeedback(ctx, "alice", []types.Feedback{
		{InsightID: "trend-health", Rating: 0.5, Action: "viewed"},
	}))

	log, err := store.FeedbackLog(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.False(t, log[0].Timestamp.IsZero())
}
