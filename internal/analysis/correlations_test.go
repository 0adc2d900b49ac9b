package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-insights/pkg/types"
)

func financeEvent(id string, ts time.Time, amount float64) *types.Event {
	return &types.Event{
		ID:       id,
		DataType: types.DataTypeFinance,
		Source:   "bank",
		Value: map[string]types.FieldValue{
			"amount": types.Num(amount),
		},
		Timestamp: ts.UnixMilli(),
	}
}

func TestCorrelationPerfectlyAntiCorrelated(t *testing.T) {
	cd := NewCorrelationDetector()

	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	grouped := map[types.DataType][]*types.Event{}
	for i := 0; i < 6; i++ {
		ts := base.AddDate(0, 0, i)
		x := float64(i + 1)
		grouped[types.DataTypeHealth] = append(grouped[types.DataTypeHealth], healthEvent(fmt.Sprintf("h%d", i), ts, x))
		grouped[types.DataTypeFinance] = append(grouped[types.DataTypeFinance], financeEvent(fmt.Sprintf("f%d", i), ts.Add(10*time.Minute), -x))
	}

	correlations := cd.Detect(grouped)
	require.Len(t, correlations, 1)

	c := correlations[0]
	assert.Equal(t, types.DataTypeFinance, c.DataTypeA) // sorted pair order
	assert.Equal(t, types.DataTypeHealth, c.DataTypeB)
	assert.InDelta(t, -1.0, c.Coefficient, 1e-9)
	assert.Equal(t, types.CorrelationNegative, c.Direction)
	assert.InDelta(t, 0.6, c.Confidence, 1e-9) // 6 pairs / 10
}

func TestCorrelationRequiresThreeAlignedPairs(t *testing.T) {
	cd := NewCorrelationDetector()

	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	grouped := map[types.DataType][]*types.Event{
		types.DataTypeHealth: {
			healthEvent("h0", base, 1),
			healthEvent("h1", base.AddDate(0, 0, 1), 2),
		},
		types.DataTypeFinance: {
			financeEvent("f0", base, 10),
			financeEvent("f1", base.AddDate(0, 0, 1), 20),
		},
	}

	assert.Empty(t, cd.Detect(grouped))
}

func TestCorrelationDiscardsEventsOutsideTolerance(t *testing.T) {
	cd := NewCorrelationDetector()

	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	grouped := map[types.DataType][]*types.Event{}
	for i := 0; i < 4; i++ {
		ts := base.AddDate(0, 0, i)
		grouped[types.DataTypeHealth] = append(grouped[types.DataTypeHealth], healthEvent(fmt.Sprintf("h%d", i), ts, float64(i)))
		// Finance events land 3 hours away, outside the window
		grouped[types.DataTypeFinance] = append(grouped[types.DataTypeFinance], financeEvent(fmt.Sprintf("f%d", i), ts.Add(3*time.Hour), float64(i)))
	}

	assert.Empty(t, cd.Detect(grouped))
}

func TestCorrelationWeakRelationshipSuppressed(t *testing.T) {
	cd := NewCorrelationDetector()

	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	xs := []float64{1, 9, 2, 8, 3, 9, 1, 7}
	ys := []float64{5, 4, 6, 5, 4, 6, 5, 5}
	grouped := map[types.DataType][]*types.Event{}
	for i := range xs {
		ts := base.AddDate(0, 0, i)
		grouped[types.DataTypeHealth] = append(grouped[types.DataTypeHealth], healthEvent(fmt.Sprintf("h%d", i), ts, xs[i]))
		grouped[types.DataTypeFinance] = append(grouped[types.DataTypeFinance], financeEvent(fmt.Sprintf("f%d", i), ts, ys[i]))
	}

	for _, c := range cd.Detect(grouped) {
		assert.Greater(t, absFloat(c.Coefficient), correlationMinCoefficient)
	}
}

func TestCorrelationZeroVarianceSkipped(t *testing.T) {
	cd := NewCorrelationDetector()

	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	grouped := map[types.DataType][]*types.Event{}
	for i := 0; i < 5; i++ {
		ts := base.AddDate(0, 0, i)
		grouped[types.DataTypeHealth] = append(grouped[types.DataTypeHealth], healthEvent(fmt.Sprintf("h%d", i), ts, 7))
		grouped[types.DataTypeFinance] = append(grouped[types.DataTypeFinance], financeEvent(fmt.Sprintf("f%d", i), ts, float64(i)))
	}

	// A constant series has no defined correlation; it must be skipped,
	// not emitted as NaN
	assert.Empty(t, cd.Detect(grouped))
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
