// Package learning maintains per-user feedback profiles that bias how
// callers weight future analysis results.
package learning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"personal-insights/pkg/types"
)

// progressSaturation is the feedback count at which learning progress
// reaches 1.
const progressSaturation = 100

// Profile is one user's append-only feedback history. The log only
// grows; pruning is the caller's retention decision.
type Profile struct {
	mu       sync.Mutex
	userID   string
	log      []types.Feedback
	ratings  float64
	createdA time.Time
}

// Store holds per-user profiles. Appends for the same user are
// serialized by the profile's own lock so the feedback count stays
// monotonic under concurrent submissions.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	now      func() time.Time
}

// NewStore creates an empty profile store
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]*Profile),
		now:      time.Now,
	}
}

// profile returns the user's profile, creating it on first feedback
func (s *Store) profile(userID string) *Profile {
	s.mu.RLock()
	p, ok := s.profiles[userID]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.profiles[userID]; ok {
		return p
	}
	p = &Profile{userID: userID, createdA: s.now().UTC()}
	s.profiles[userID] = p
	return p
}

// AddFeedback appends the feedback entries to the user's log and
// returns the updated summary. Ratings outside [0,1] are rejected
// before anything is appended, so a bad batch never partially applies.
func (s *Store) AddFeedback(_ context.Context, userID string, entries []types.Feedback) (types.ProfileSummary, error) {
	for _, fb := range entries {
		if fb.InsightID == "" {
			return types.ProfileSummary{}, fmt.Errorf("feedback entry missing insight id")
		}
		if fb.Rating < 0 || fb.Rating > 1 {
			return types.ProfileSummary{}, fmt.Errorf("feedback rating %.2f for insight %q outside [0,1]", fb.Rating, fb.InsightID)
		}
	}

	p := s.profile(userID)
	p.mu.Lock()
	defer p.mu.Unlock()

	now := s.now().UTC()
	for _, fb := range entries {
		if fb.Timestamp.IsZero() {
			fb.Timestamp = now
		}
		p.log = append(p.log, fb)
		p.ratings += fb.Rating
	}

	return p.summaryLocked(), nil
}

// Summary returns the user's current profile summary. Users with no
// feedback yet get a zero summary, not an error.
func (s *Store) Summary(_ context.Context, userID string) types.ProfileSummary {
	s.mu.RLock()
	p, ok := s.profiles[userID]
	s.mu.RUnlock()
	if !ok {
		return types.ProfileSummary{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summaryLocked()
}

// Log returns a copy of the user's feedback log in append order
func (s *Store) Log(_ context.Context, userID string) []types.Feedback {
	s.mu.RLock()
	p, ok := s.profiles[userID]
	s.mu.RUnlock()
	if !ok {
		return []types.Feedback{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Feedback, len(p.log))
	copy(out, p.log)
	return out
}

func (p *Profile) summaryLocked() types.ProfileSummary {
	count := len(p.log)
	summary := types.ProfileSummary{TotalFeedback: count}
	if count > 0 {
		summary.AverageRating = p.ratings / float64(count)
	}
	progress := float64(count) / progressSaturation
	if progress > 1 {
		progress = 1
	}
	summary.LearningProgress = progress
	return summary
}
