package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-insights/pkg/types"
)

// extractAll is a test helper pairing events with their feature vectors
func extractAll(t *testing.T, events []*types.Event) []*types.FeatureVector {
	t.Helper()
	fe := NewFeatureExtractor()
	vectors := make([]*types.FeatureVector, len(events))
	for i, event := range events {
		vec, err := fe.Extract(event)
		require.NoError(t, err)
		vectors[i] = vec
	}
	return vectors
}

func TestCycleDetectsStrongDailyPattern(t *testing.T) {
	cd := NewCycleDetector()

	// Low values every morning at 06:00, high values every evening at
	// 18:00, across several days
	events := []*types.Event{}
	base := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 4; day++ {
		morning := base.AddDate(0, 0, day).Add(6 * time.Hour)
		evening := base.AddDate(0, 0, day).Add(18 * time.Hour)
		events = append(events,
			healthEvent(fmt.Sprintf("m%d", day), morning, 0),
			healthEvent(fmt.Sprintf("e%d", day), evening, 10),
		)
	}

	cycles := cd.Detect(types.DataTypeHealth, events, extractAll(t, events))

	var daily *types.Cycle
	for i := range cycles {
		if cycles[i].PeriodType == types.PeriodDaily {
			daily = &cycles[i]
		}
	}
	require.NotNil(t, daily, "expected a daily cycle")

	assert.Greater(t, daily.Strength, cycleMinStrength)
	assert.LessOrEqual(t, daily.Strength, 1.0)
	assert.Equal(t, 18, daily.PeakBucket)
	assert.Equal(t, 6, daily.TroughBucket)
	assert.Len(t, daily.Profile, 24)
	assert.InDelta(t, 10.0, daily.Profile[18], 1e-9)
	assert.InDelta(t, 0.0, daily.Profile[6], 1e-9)
}

func TestCycleFlatSeriesHasNoCycle(t *testing.T) {
	cd := NewCycleDetector()

	events := []*types.Event{}
	base := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		events = append(events, healthEvent(fmt.Sprintf("e%d", i), base.Add(time.Duration(i)*7*time.Hour), 5))
	}

	cycles := cd.Detect(types.DataTypeHealth, events, extractAll(t, events))
	assert.Empty(t, cycles)
}

func TestCycleRequiresTwoOccupiedBuckets(t *testing.T) {
	cd := NewCycleDetector()

	// Every event in the same hour slot: daily periodicity is undefined
	events := []*types.Event{}
	ts := time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		events = append(events, healthEvent(fmt.Sprintf("e%d", i), ts, float64(i*100)))
	}

	cycles := cd.Detect(types.DataTypeHealth, events, extractAll(t, events))
	for _, c := range cycles {
		assert.NotEqual(t, types.PeriodDaily, c.PeriodType)
	}
}

func TestCycleStrengthAlwaysClamped(t *testing.T) {
	cd := NewCycleDetector()

	events := []*types.Event{}
	base := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		// Wild swings to push raw variance far above the clamp
		v := float64((i % 2) * 100000)
		events = append(events, healthEvent(fmt.Sprintf("e%d", i), base.Add(time.Duration(i)*13*time.Hour), v))
	}

	for _, c := range cd.Detect(types.DataTypeHealth, events, extractAll(t, events)) {
		assert.GreaterOrEqual(t, c.Strength, 0.0)
		assert.LessOrEqual(t, c.Strength, 1.0)
	}
}
