package analysis

import (
	"time"

	"personal-insights/pkg/types"
)

const (
	// predictionMinConfidence gates which trends are extrapolated
	predictionMinConfidence = 0.5
	// defaultHorizon is the number of one-day steps to project
	defaultHorizon = 7
	// confidenceDecay is the total confidence loss across the horizon
	confidenceDecay = 0.3
)

// PredictionEngine extrapolates fitted trends forward over a short
// horizon, decaying confidence with distance.
type PredictionEngine struct {
	horizon int
}

// NewPredictionEngine creates a prediction engine. A horizon below 1
// falls back to the default of 7 days.
func NewPredictionEngine(horizon int) *PredictionEngine {
	if horizon < 1 {
		horizon = defaultHorizon
	}
	return &PredictionEngine{horizon: horizon}
}

// Predict projects the trend's line forward from the category's last
// observed value, one step per day. Returns nil for absent or weak
// trends. Predicted values are clamped to zero from below since the
// tracked quantities are non-negative.
func (pe *PredictionEngine) Predict(trend *types.Trend, lastValue float64, lastTimestamp int64) *types.Prediction {
	if trend == nil || trend.Confidence <= predictionMinConfidence {
		return nil
	}

	slope := trend.Strength
	if trend.Direction == types.TrendDecreasing {
		slope = -slope
	}

	step := (24 * time.Hour).Milliseconds()
	series := make([]types.PredictionPoint, 0, pe.horizon)
	for i := 1; i <= pe.horizon; i++ {
		value := lastValue + slope*float64(i)
		if value < 0 {
			value = 0
		}
		decayed := trend.Confidence * (1 - (float64(i)/float64(pe.horizon))*confidenceDecay)
		series = append(series, types.PredictionPoint{
			Timestamp:  lastTimestamp + int64(i)*step,
			Value:      value,
			Confidence: clamp01(decayed),
		})
	}

	return &types.Prediction{
		DataType:   trend.DataType,
		Direction:  trend.Direction,
		Confidence: trend.Confidence,
		Series:     series,
	}
}
