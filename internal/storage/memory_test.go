package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-insights/pkg/types"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.LatestResult(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoResult)

	result := storedResult(time.Now().UTC())
	require.NoError(t, store.SaveResult(ctx, "alice", result))

	loaded, err := store.LatestResult(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, result, loaded)
}

func TestMemoryEventSourceWindow(t *testing.T) {
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	events := []*types.Event{
		{ID: "before", DataType: types.DataTypeHealth, Timestamp: base.AddDate(0, 0, -1).UnixMilli()},
		{ID: "inside", DataType: types.DataTypeHealth, Timestamp: base.AddDate(0, 0, 1).UnixMilli()},
		{ID: "edge", DataType: types.DataTypeHealth, Timestamp: base.AddDate(0, 0, 7).UnixMilli()},
	}
	source := NewMemoryEventSource(events)

	// The window is inclusive of since and exclusive of until
	fetched, err := source.FetchEvents(context.Background(), "alice", base, base.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, "inside", fetched[0].ID)
}
