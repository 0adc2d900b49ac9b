package analysis

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"personal-insights/pkg/types"
)

const (
	// correlationMinPairs is the minimum aligned sample count
	correlationMinPairs = 3
	// correlationMinCoefficient is the emission threshold for |r|
	correlationMinCoefficient = 0.5
	// correlationSaturation is the pair count at which confidence hits 1
	correlationSaturation = 10
	// alignmentTolerance is the timestamp window for pairing events
	alignmentTolerance = time.Hour
)

// CorrelationDetector discovers cross-domain relationships by aligning
// two categories' events on timestamp proximity and computing the
// Pearson coefficient over the aligned values.
type CorrelationDetector struct{}

// NewCorrelationDetector creates a correlation detector
func NewCorrelationDetector() *CorrelationDetector {
	return &CorrelationDetector{}
}

// sample is one event reduced to its timestamp and scalar value
type sample struct {
	ts    int64
	value float64
}

// Detect computes correlations over every unordered pair of categories
// present in the grouped batch. Categories are visited in sorted order
// so output ordering is deterministic.
func (cd *CorrelationDetector) Detect(grouped map[types.DataType][]*types.Event) []types.Correlation {
	categories := make([]types.DataType, 0, len(grouped))
	for dt := range grouped {
		categories = append(categories, dt)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	correlations := []types.Correlation{}
	for i := 0; i < len(categories); i++ {
		for j := i + 1; j < len(categories); j++ {
			a, b := categories[i], categories[j]
			if c := cd.correlate(a, b, grouped[a], grouped[b]); c != nil {
				correlations = append(correlations, *c)
			}
		}
	}
	return correlations
}

func (cd *CorrelationDetector) correlate(dtA, dtB types.DataType, eventsA, eventsB []*types.Event) *types.Correlation {
	xs, ys := alignSeries(toSamples(eventsA), toSamples(eventsB))
	if len(xs) < correlationMinPairs {
		return nil
	}

	coefficient := stat.Correlation(xs, ys, nil)
	if math.IsNaN(coefficient) {
		// Zero variance on either side; no linear relationship to report
		return nil
	}
	coefficient = math.Max(-1, math.Min(1, coefficient))

	if math.Abs(coefficient) <= correlationMinCoefficient {
		return nil
	}

	direction := types.CorrelationPositive
	if coefficient < 0 {
		direction = types.CorrelationNegative
	}

	return &types.Correlation{
		DataTypeA:   dtA,
		DataTypeB:   dtB,
		Coefficient: coefficient,
		Confidence:  clamp01(float64(len(xs)) / correlationSaturation),
		Direction:   direction,
	}
}

func toSamples(events []*types.Event) []sample {
	samples := make([]sample, 0, len(events))
	for _, event := range events {
		if v, ok := eventValue(event); ok {
			samples = append(samples, sample{ts: event.Timestamp, value: v})
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].ts < samples[j].ts })
	return samples
}

// alignSeries pairs each sample of the first series with its nearest
// unmatched counterpart in the second, keeping only pairs inside the
// tolerance window. Unmatched samples on either side are discarded.
func alignSeries(a, b []sample) (xs, ys []float64) {
	tolerance := alignmentTolerance.Milliseconds()
	used := make([]bool, len(b))

	for _, sa := range a {
		best := -1
		var bestDist int64
		for k, sb := range b {
			if used[k] {
				continue
			}
			dist := sa.ts - sb.ts
			if dist < 0 {
				dist = -dist
			}
			if dist > tolerance {
				continue
			}
			if best == -1 || dist < bestDist {
				best = k
				bestDist = dist
			}
		}
		if best >= 0 {
			used[best] = true
			xs = append(xs, sa.value)
			ys = append(ys, b[best].value)
		}
	}
	return xs, ys
}
