package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"personal-insights/pkg/types"
)

// trendMinPoints is the minimum sample count for a trend fit
const trendMinPoints = 3

// TrendDetector fits a linear trend per data category using ordinary
// least squares over the category's time-ordered values.
type TrendDetector struct{}

// NewTrendDetector creates a trend detector
func NewTrendDetector() *TrendDetector {
	return &TrendDetector{}
}

// Detect fits value-vs-index OLS over the category's events, which must
// be time-ordered. Index regression keeps the fit insensitive to the
// wall-clock spacing of samples. Returns nil when fewer than three
// points carry numeric values or when the fitted slope is exactly zero.
func (td *TrendDetector) Detect(dataType types.DataType, events []*types.Event) *types.Trend {
	xs := make([]float64, 0, len(events))
	ys := make([]float64, 0, len(events))
	var firstTs, lastTs int64

	for _, event := range events {
		v, ok := eventValue(event)
		if !ok {
			continue
		}
		if len(xs) == 0 {
			firstTs = event.Timestamp
		}
		lastTs = event.Timestamp
		xs = append(xs, float64(len(xs)))
		ys = append(ys, v)
	}

	if len(xs) < trendMinPoints {
		return nil
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if beta == 0 || math.IsNaN(beta) {
		return nil
	}

	confidence := clamp01(stat.RSquared(xs, ys, nil, alpha, beta))

	direction := types.TrendIncreasing
	if beta < 0 {
		direction = types.TrendDecreasing
	}

	return &types.Trend{
		DataType:   dataType,
		Direction:  direction,
		Strength:   math.Abs(beta),
		Confidence: confidence,
		DurationMs: lastTs - firstTs,
		Description: fmt.Sprintf("%s values are %s by %.2f per entry over %d entries",
			dataType, direction, math.Abs(beta), len(xs)),
	}
}
