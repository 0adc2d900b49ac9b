package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"personal-insights/pkg/types"
)

// CachedStore decorates an AnalysisStore with a Redis read-through
// cache for the latest result per user. Dashboards poll the latest
// result far more often than new analyses are produced.
type CachedStore struct {
	inner  AnalysisStore
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps the inner store with a Redis cache
func NewCachedStore(inner AnalysisStore, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl}
}

func resultKey(userID string) string {
	return "insights:latest:" + userID
}

// SaveResult writes through to the inner store and refreshes the cache
func (c *CachedStore) SaveResult(ctx context.Context, userID string, result *types.AnalysisResult) error {
	if err := c.inner.SaveResult(ctx, userID, result); err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result for cache: %w", err)
	}
	// Cache failures must not fail the write; the store is the source
	// of truth
	_ = c.client.Set(ctx, resultKey(userID), payload, c.ttl).Err()
	return nil
}

// LatestResult serves from cache when possible, falling back to the
// inner store and repopulating on a miss.
func (c *CachedStore) LatestResult(ctx context.Context, userID string) (*types.AnalysisResult, error) {
	payload, err := c.client.Get(ctx, resultKey(userID)).Bytes()
	if err == nil {
		var result types.AnalysisResult
		if err := json.Unmarshal(payload, &result); err == nil {
			return &result, nil
		}
		// Corrupt cache entry; fall through to the store
		_ = c.client.Del(ctx, resultKey(userID)).Err()
	} else if !errors.Is(err, redis.Nil) {
		// Redis unavailable; degrade to the inner store
		return c.inner.LatestResult(ctx, userID)
	}

	result, err := c.inner.LatestResult(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		_ = c.client.Set(ctx, resultKey(userID), data, c.ttl).Err()
	}
	return result, nil
}

// AppendFeedback passes through to the inner store
func (c *CachedStore) AppendFeedback(ctx context.Context, userID string, entries []types.Feedback) error {
	return c.inner.AppendFeedback(ctx, userID, entries)
}

// FeedbackLog passes through to the inner store
func (c *CachedStore) FeedbackLog(ctx context.Context, userID string) ([]types.Feedback, error) {
	return c.inner.FeedbackLog(ctx, userID)
}

// Close closes the inner store and the Redis client
func (c *CachedStore) Close() error {
	redisErr := c.client.Close()
	innerErr := c.inner.Close()
	if innerErr != nil {
		return innerErr
	}
	return redisErr
}
