package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeValid(t *testing.T) {
	for _, dt := range AllDataTypes {
		assert.True(t, dt.Valid(), "expected %q to be valid", dt)
	}
	assert.False(t, DataType("astrology").Valid())
	assert.False(t, DataType("").Valid())
	assert.False(t, DataType("Health").Valid(), "matching is case-sensitive")
}

func TestFieldValueConstructors(t *testing.T) {
	n := Num(42.5)
	assert.True(t, n.IsNumeric())
	assert.Equal(t, 42.5, n.Float())
	assert.Empty(t, n.Text())

	s := Str("running")
	assert.False(t, s.IsNumeric())
	assert.Equal(t, "running", s.Text())
	assert.Zero(t, s.Float())
}

func TestFieldValueJSONRoundTrip(t *testing.T) {
	in := map[string]FieldValue{
		"steps":    Num(8500),
		"activity": Str("running"),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out map[string]FieldValue
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestFieldValueUnmarshalForms(t *testing.T) {
	var fields map[string]FieldValue
	payload := `{"steps": 8500, "mood": "tired", "fasted": true}`
	require.NoError(t, json.Unmarshal([]byte(payload), &fields))

	assert.True(t, fields["steps"].IsNumeric())
	assert.Equal(t, 8500.0, fields["steps"].Float())

	assert.False(t, fields["mood"].IsNumeric())
	assert.Equal(t, "tired", fields["mood"].Text())

	// Booleans are kept as categorical text
	assert.False(t, fields["fasted"].IsNumeric())
	assert.Equal(t, "true", fields["fasted"].Text())
}

func TestFieldValueUnmarshalRejectsStructured(t *testing.T) {
	var f FieldValue
	assert.Error(t, json.Unmarshal([]byte(`{"nested": 1}`), &f))
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &f))
}

func TestEventTimeIsUTC(t *testing.T) {
	e := &Event{Timestamp: time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC).UnixMilli()}

	ts := e.Time()
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 9, ts.Hour())
	assert.Equal(t, 30, ts.Minute())
}

func TestNewAnalysisResultSerializesEmptyArrays(t *testing.T) {
	data, err := json.Marshal(NewAnalysisResult())
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"trends":[]`)
	assert.Contains(t, s, `"anomalies":[]`)
	assert.Contains(t, s, `"predictions":[]`)
	assert.NotContains(t, s, "null")
}

func TestAnalysisResultProfileOmittedWhenNil(t *testing.T) {
	data, err := json.Marshal(NewAnalysisResult())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"profile"`)
}
