package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-insights/pkg/types"
)

func healthEvent(id string, ts time.Time, steps float64) *types.Event {
	return &types.Event{
		ID:       id,
		DataType: types.DataTypeHealth,
		Source:   "fitness-tracker",
		Value: map[string]types.FieldValue{
			"steps": types.Num(steps),
		},
		Timestamp: ts.UnixMilli(),
	}
}

func TestExtractTemporalFeatures(t *testing.T) {
	fe := NewFeatureExtractor()

	// Friday 2024-03-15 14:30 UTC
	ts := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	vec, err := fe.Extract(healthEvent("e1", ts, 8000))
	require.NoError(t, err)

	assert.Equal(t, 14, vec.Temporal.HourOfDay)
	assert.Equal(t, 5, vec.Temporal.DayOfWeek)
	assert.Equal(t, 15, vec.Temporal.DayOfMonth)
	assert.Equal(t, 2, vec.Temporal.Month)
	assert.Equal(t, 0, vec.Temporal.Season)
	assert.False(t, vec.Temporal.IsWeekend)
	assert.Equal(t, types.TimeOfDayAfternoon, vec.Temporal.TimeOfDay)
}

func TestExtractWeekendAndNight(t *testing.T) {
	fe := NewFeatureExtractor()

	// Sunday 2024-03-17 02:00 UTC
	ts := time.Date(2024, 3, 17, 2, 0, 0, 0, time.UTC)
	vec, err := fe.Extract(healthEvent("e1", ts, 100))
	require.NoError(t, err)

	assert.Equal(t, 0, vec.Temporal.DayOfWeek)
	assert.True(t, vec.Temporal.IsWeekend)
	assert.Equal(t, types.TimeOfDayNight, vec.Temporal.TimeOfDay)
}

func TestExtractDerivedNumericFeatures(t *testing.T) {
	fe := NewFeatureExtractor()

	event := healthEvent("e1", time.Now(), 100)
	vec, err := fe.Extract(event)
	require.NoError(t, err)

	byName := map[string]types.NumericFeature{}
	for _, nf := range vec.Numerical {
		byName[nf.Name] = nf
	}

	require.Contains(t, byName, "steps")
	require.Contains(t, byName, "steps_abs")
	require.Contains(t, byName, "steps_log")
	require.Contains(t, byName, "steps_sqrt")

	assert.InDelta(t, 100.0, byName["steps"].Raw, 1e-9)
	assert.InDelta(t, 0.005, byName["steps"].Normalized, 1e-9) // 100 / 20000
	assert.InDelta(t, 4.60517, byName["steps_log"].Raw, 1e-4)
	assert.InDelta(t, 10.0, byName["steps_sqrt"].Raw, 1e-9)
}

func TestExtractLogOfNonPositiveIsZero(t *testing.T) {
	fe := NewFeatureExtractor()

	event := &types.Event{
		ID:       "e1",
		DataType: types.DataTypeFinance,
		Value:    map[string]types.FieldValue{"amount": types.Num(-50)},
	}
	vec, err := fe.Extract(event)
	require.NoError(t, err)

	for _, nf := range vec.Numerical {
		if nf.Name == "amount_log" {
			assert.Zero(t, nf.Raw)
			return
		}
	}
	t.Fatal("amount_log feature missing")
}

func TestExtractCategoricalFields(t *testing.T) {
	fe := NewFeatureExtractor()

	event := &types.Event{
		ID:       "e1",
		DataType: types.DataTypeProductivity,
		Value: map[string]types.FieldValue{
			"tasks_done": types.Num(4),
			"project":    types.Str("insights"),
		},
		Timestamp: time.Now().UnixMilli(),
	}
	vec, err := fe.Extract(event)
	require.NoError(t, err)

	require.Len(t, vec.Categorical, 1)
	assert.Equal(t, "project", vec.Categorical[0].Name)
	assert.Equal(t, "insights", vec.Categorical[0].Value)
}

func TestExtractRejectsMalformedTimestamp(t *testing.T) {
	fe := NewFeatureExtractor()

	event := healthEvent("bad", time.Now(), 100)
	event.Timestamp = -1

	_, err := fe.Extract(event)
	require.Error(t, err)

	var extractionErr *types.FeatureExtractionError
	assert.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "bad", extractionErr.EventID)
}

func TestEventValueIsMeanOfNumericFields(t *testing.T) {
	event := &types.Event{
		ID:       "e1",
		DataType: types.DataTypeHealth,
		Value: map[string]types.FieldValue{
			"steps":      types.Num(10),
			"heart_rate": types.Num(20),
			"note":       types.Str("after run"),
		},
	}

	v, ok := eventValue(event)
	require.True(t, ok)
	assert.InDelta(t, 15.0, v, 1e-9)
}

func TestEventValueWithoutNumericFields(t *testing.T) {
	event := &types.Event{
		ID:       "e1",
		DataType: types.DataTypeRelationships,
		Value:    map[string]types.FieldValue{"person": types.Str("alex")},
	}

	_, ok := eventValue(event)
	assert.False(t, ok)
}
