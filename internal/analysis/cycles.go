package analysis

import (
	"gonum.org/v1/gonum/stat"

	"personal-insights/pkg/types"
)

// cycleMinStrength is the emission threshold for a periodicity score
const cycleMinStrength = 0.6

// periodSpec maps a period type to its bucket layout and bucket function
type periodSpec struct {
	periodType types.PeriodType
	buckets    int
	bucketOf   func(t types.TemporalFeatures) int
}

var periodSpecs = []periodSpec{
	{types.PeriodDaily, 24, func(t types.TemporalFeatures) int { return t.HourOfDay }},
	{types.PeriodWeekly, 7, func(t types.TemporalFeatures) int { return t.DayOfWeek }},
	{types.PeriodMonthly, 31, func(t types.TemporalFeatures) int { return t.DayOfMonth - 1 }},
}

// CycleDetector finds recurring daily, weekly, and monthly patterns by
// bucketing event values over calendar periods and scoring how much the
// bucket averages spread relative to their mean.
type CycleDetector struct{}

// NewCycleDetector creates a cycle detector
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{}
}

// Detect returns between zero and three cycles for the category, one
// per period type whose strength clears the threshold.
func (cd *CycleDetector) Detect(dataType types.DataType, events []*types.Event, vectors []*types.FeatureVector) []types.Cycle {
	cycles := []types.Cycle{}

	for _, spec := range periodSpecs {
		if cycle := cd.detectPeriod(dataType, events, vectors, spec); cycle != nil {
			cycles = append(cycles, *cycle)
		}
	}

	return cycles
}

func (cd *CycleDetector) detectPeriod(dataType types.DataType, events []*types.Event, vectors []*types.FeatureVector, spec periodSpec) *types.Cycle {
	sums := make([]float64, spec.buckets)
	counts := make([]int, spec.buckets)

	for i, event := range events {
		v, ok := eventValue(event)
		if !ok {
			continue
		}
		bucket := spec.bucketOf(vectors[i].Temporal)
		if bucket < 0 || bucket >= spec.buckets {
			continue
		}
		sums[bucket] += v
		counts[bucket]++
	}

	profile := make([]float64, spec.buckets)
	filled := make([]float64, 0, spec.buckets)
	peak, trough := -1, -1
	for b := 0; b < spec.buckets; b++ {
		if counts[b] == 0 {
			continue
		}
		avg := sums[b] / float64(counts[b])
		profile[b] = avg
		filled = append(filled, avg)
		if peak == -1 || avg > profile[peak] {
			peak = b
		}
		if trough == -1 || avg < profile[trough] {
			trough = b
		}
	}

	// A period needs variation across at least two occupied buckets
	if len(filled) < 2 {
		return nil
	}

	mean := stat.Mean(filled, nil)
	variance := stat.Variance(filled, nil)
	// The +1 keeps near-zero means from blowing up the score
	strength := clamp01(variance / (mean*mean + 1))

	if strength <= cycleMinStrength {
		return nil
	}

	return &types.Cycle{
		DataType:     dataType,
		PeriodType:   spec.periodType,
		Strength:     strength,
		Profile:      profile,
		PeakBucket:   peak,
		TroughBucket: trough,
	}
}
