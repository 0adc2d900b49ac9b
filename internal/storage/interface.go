// Package storage implements the engine's two external data contracts:
// fetching a user's events from a source and persisting analysis
// results and feedback.
package storage

import (
	"context"
	"time"

	"personal-insights/pkg/types"
)

// EventSource supplies one user's events for an analysis window. The
// source is expected to return deduplicated, type-validated events;
// ordering is handled by the engine.
type EventSource interface {
	FetchEvents(ctx context.Context, userID string, since, until time.Time) ([]*types.Event, error)
}

// AnalysisStore persists analysis results and the feedback log
type AnalysisStore interface {
	SaveResult(ctx context.Context, userID string, result *types.AnalysisResult) error
	LatestResult(ctx context.Context, userID string) (*types.AnalysisResult, error)
	AppendFeedback(ctx context.Context, userID string, entries []types.Feedback) error
	FeedbackLog(ctx context.Context, userID string) ([]types.Feedback, error)
	Close() error
}
