package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"personal-insights/pkg/types"
)

const (
	// anomalyMinPoints is the minimum category size for Z-score detection
	anomalyMinPoints = 5
	// zScoreMedium flags a moderate statistical outlier
	zScoreMedium = 2.5
	// zScoreHigh flags an extreme statistical outlier
	zScoreHigh = 3.0
	// contextMinPeers is the minimum number of same-slot peers required
	contextMinPeers = 3
	// contextDeviationMedium is the fractional deviation from the peer
	// mean that flags a contextual anomaly
	contextDeviationMedium = 0.5
	// contextDeviationHigh upgrades the contextual severity
	contextDeviationHigh = 1.0
)

// AnomalyDetector flags statistical outliers (Z-score against the
// category distribution) and contextual outliers (deviation from the
// same hour-of-day / day-of-week baseline). The two passes run
// independently and their findings are concatenated.
type AnomalyDetector struct{}

// NewAnomalyDetector creates an anomaly detector
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{}
}

// Detect runs both passes over one category's events
func (ad *AnomalyDetector) Detect(dataType types.DataType, events []*types.Event, vectors []*types.FeatureVector) []types.Anomaly {
	anomalies := ad.detectStatistical(dataType, events)
	anomalies = append(anomalies, ad.detectContextual(dataType, events, vectors)...)
	return anomalies
}

func (ad *AnomalyDetector) detectStatistical(dataType types.DataType, events []*types.Event) []types.Anomaly {
	values := make([]float64, 0, len(events))
	kept := make([]*types.Event, 0, len(events))
	for _, event := range events {
		if v, ok := eventValue(event); ok {
			values = append(values, v)
			kept = append(kept, event)
		}
	}

	anomalies := []types.Anomaly{}
	if len(values) < anomalyMinPoints {
		return anomalies
	}

	mean, stdDev := stat.MeanStdDev(values, nil)
	if stdDev == 0 || math.IsNaN(stdDev) {
		// Identical values: every Z-score is 0, nothing to flag
		return anomalies
	}

	for i, v := range values {
		z := (v - mean) / stdDev
		severity, flagged := zSeverity(z)
		if !flagged {
			continue
		}
		anomalies = append(anomalies, types.Anomaly{
			EventID:  kept[i].ID,
			DataType: dataType,
			Kind:     types.AnomalyStatistical,
			Severity: severity,
			ZScore:   z,
			Description: fmt.Sprintf("%s value %.2f sits %.1f standard deviations from the category mean %.2f",
				dataType, v, math.Abs(z), mean),
		})
	}
	return anomalies
}

func zSeverity(z float64) (types.AnomalySeverity, bool) {
	abs := math.Abs(z)
	switch {
	case abs > zScoreHigh:
		return types.SeverityHigh, true
	case abs > zScoreMedium:
		return types.SeverityMedium, true
	default:
		return "", false
	}
}

// detectContextual compares each event against peers that share its
// hour-of-day and day-of-week slot.
func (ad *AnomalyDetector) detectContextual(dataType types.DataType, events []*types.Event, vectors []*types.FeatureVector) []types.Anomaly {
	type slot struct{ hour, dow int }

	values := make([]float64, len(events))
	present := make([]bool, len(events))
	bySlot := make(map[slot][]int)
	for i, event := range events {
		v, ok := eventValue(event)
		if !ok {
			continue
		}
		values[i] = v
		present[i] = true
		s := slot{vectors[i].Temporal.HourOfDay, vectors[i].Temporal.DayOfWeek}
		bySlot[s] = append(bySlot[s], i)
	}

	anomalies := []types.Anomaly{}
	for i := range events {
		if !present[i] {
			continue
		}
		s := slot{vectors[i].Temporal.HourOfDay, vectors[i].Temporal.DayOfWeek}
		peers := bySlot[s]

		sum := 0.0
		count := 0
		for _, j := range peers {
			if j == i {
				continue
			}
			sum += values[j]
			count++
		}
		if count < contextMinPeers {
			continue
		}

		peerMean := sum / float64(count)
		if peerMean == 0 {
			continue
		}
		deviation := math.Abs(values[i]-peerMean) / math.Abs(peerMean)
		if deviation <= contextDeviationMedium {
			continue
		}

		severity := types.SeverityMedium
		if deviation > contextDeviationHigh {
			severity = types.SeverityHigh
		}
		anomalies = append(anomalies, types.Anomaly{
			EventID:  events[i].ID,
			DataType: dataType,
			Kind:     types.AnomalyContextual,
			Severity: severity,
			Description: fmt.Sprintf("%s value %.2f deviates %.0f%% from its usual level %.2f at this time of week",
				dataType, values[i], deviation*100, peerMean),
		})
	}
	return anomalies
}
