package storage

import (
	"context"
	"sync"
	"time"

	"personal-insights/pkg/types"
)

// MemoryStore is an in-memory AnalysisStore used by the CLI and tests
type MemoryStore struct {
	mu       sync.RWMutex
	results  map[string][]*types.AnalysisResult
	feedback map[string][]types.Feedback
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results:  make(map[string][]*types.AnalysisResult),
		feedback: make(map[string][]types.Feedback),
	}
}

// SaveResult appends the result to the user's history
func (m *MemoryStore) SaveResult(_ context.Context, userID string, result *types.AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[userID] = append(m.results[userID], result)
	return nil
}

// LatestResult returns the most recently saved result
func (m *MemoryStore) LatestResult(_ context.Context, userID string) (*types.AnalysisResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.results[userID]
	if len(history) == 0 {
		return nil, ErrNoResult
	}
	return history[len(history)-1], nil
}

// AppendFeedback appends feedback entries to the user's log
func (m *MemoryStore) AppendFeedback(_ context.Context, userID string, entries []types.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback[userID] = append(m.feedback[userID], entries...)
	return nil
}

// FeedbackLog returns a copy of the user's feedback log
func (m *MemoryStore) FeedbackLog(_ context.Context, userID string) ([]types.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Feedback, len(m.feedback[userID]))
	copy(out, m.feedback[userID])
	return out, nil
}

// Close is a no-op for the in-memory store
func (m *MemoryStore) Close() error { return nil }

// MemoryEventSource serves a fixed batch of events; used by the CLI
// when analyzing a local file and by tests.
type MemoryEventSource struct {
	events []*types.Event
}

// NewMemoryEventSource wraps a fixed event batch
func NewMemoryEventSource(events []*types.Event) *MemoryEventSource {
	return &MemoryEventSource{events: events}
}

// FetchEvents returns the events falling inside the window
func (m *MemoryEventSource) FetchEvents(_ context.Context, _ string, since, until time.Time) ([]*types.Event, error) {
	out := []*types.Event{}
	for _, event := range m.events {
		if event.Timestamp >= since.UnixMilli() && event.Timestamp < until.UnixMilli() {
			out = append(out, event)
		}
	}
	return out, nil
}
