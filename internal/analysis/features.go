// Package analysis implements the statistical pattern-analysis engine:
// feature extraction, trend/cycle/correlation/anomaly/cluster detection,
// and short-horizon prediction over batches of personal-data events.
package analysis

import (
	"math"
	"sort"
	"time"

	"personal-insights/pkg/types"
)

// fieldRange is the expected raw span of a known numeric field, used to
// normalize values into [0,1].
type fieldRange struct {
	min float64
	max float64
}

// knownFieldRanges covers the common fields of each data category.
// Unknown fields fall back to defaultFieldRange.
var knownFieldRanges = map[string]fieldRange{
	"steps":          {0, 20000},
	"heart_rate":     {40, 120},
	"sleep_hours":    {0, 12},
	"weight":         {30, 200},
	"calories":       {0, 5000},
	"amount":         {0, 10000},
	"balance":        {0, 100000},
	"tasks_done":     {0, 50},
	"focus_minutes":  {0, 600},
	"interactions":   {0, 100},
	"study_minutes":  {0, 480},
	"pages_read":     {0, 200},
	"mood":           {0, 10},
	"energy":         {0, 10},
	"duration_mins":  {0, 1440},
	"screen_minutes": {0, 1440},
}

var defaultFieldRange = fieldRange{0, 100}

// FeatureExtractor converts raw events into feature vectors. It is
// stateless and deterministic.
type FeatureExtractor struct{}

// NewFeatureExtractor creates a feature extractor
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// Extract derives the numeric, categorical, and temporal features of a
// single event. The only failure mode is a malformed timestamp.
func (fe *FeatureExtractor) Extract(event *types.Event) (*types.FeatureVector, error) {
	if event.Timestamp < 0 {
		return nil, &types.FeatureExtractionError{EventID: event.ID, Reason: "negative timestamp"}
	}

	vector := &types.FeatureVector{
		EventID:     event.ID,
		Timestamp:   event.Timestamp,
		DataType:    event.DataType,
		Numerical:   []types.NumericFeature{},
		Categorical: []types.CategoricalFeature{},
		Temporal:    temporalFeatures(event.Time()),
	}

	// Field order must be stable so downstream vectors are deterministic
	names := make([]string, 0, len(event.Value))
	for name := range event.Value {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := event.Value[name]
		if !field.IsNumeric() {
			vector.Categorical = append(vector.Categorical, types.CategoricalFeature{
				Name:  name,
				Value: field.Text(),
			})
			continue
		}
		v := field.Float()
		vector.Numerical = append(vector.Numerical,
			types.NumericFeature{Name: name, Raw: v, Normalized: normalize(name, v)},
			types.NumericFeature{Name: name + "_abs", Raw: math.Abs(v), Normalized: normalize(name, math.Abs(v))},
			types.NumericFeature{Name: name + "_log", Raw: logOrZero(v), Normalized: clamp01(logOrZero(v) / 10)},
			types.NumericFeature{Name: name + "_sqrt", Raw: math.Sqrt(math.Abs(v)), Normalized: clamp01(math.Sqrt(math.Abs(v)) / 100)},
		)
	}

	return vector, nil
}

func logOrZero(v float64) float64 {
	if v > 0 {
		return math.Log(v)
	}
	return 0
}

// normalize maps a raw field value into [0,1] using the range table
func normalize(name string, v float64) float64 {
	r, ok := knownFieldRanges[name]
	if !ok {
		r = defaultFieldRange
	}
	if r.max <= r.min {
		return 0
	}
	return clamp01((v - r.min) / (r.max - r.min))
}

// temporalFeatures derives calendar attributes in UTC. Timezone
// interpretation is a deliberate single point of change; callers that
// want per-user local time shift timestamps before ingestion.
func temporalFeatures(t time.Time) types.TemporalFeatures {
	hour := t.Hour()
	weekday := int(t.Weekday())
	month := int(t.Month()) - 1

	return types.TemporalFeatures{
		HourOfDay:  hour,
		DayOfWeek:  weekday,
		DayOfMonth: t.Day(),
		Month:      month,
		Season:     month / 3,
		IsWeekend:  weekday == 0 || weekday == 6,
		TimeOfDay:  timeOfDay(hour),
	}
}

func timeOfDay(hour int) types.TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return types.TimeOfDayMorning
	case hour >= 12 && hour < 17:
		return types.TimeOfDayAfternoon
	case hour >= 17 && hour < 21:
		return types.TimeOfDayEvening
	default:
		return types.TimeOfDayNight
	}
}

// eventValue reduces an event to a single numeric observation: the mean
// of its numeric fields. The second return is false when the event has
// no numeric fields at all.
func eventValue(event *types.Event) (float64, bool) {
	sum := 0.0
	count := 0
	for _, field := range event.Value {
		if field.IsNumeric() {
			sum += field.Float()
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
