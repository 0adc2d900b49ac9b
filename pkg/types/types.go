// Package types provides core data structures and type definitions
// for the personal insights engine, including events, feature vectors,
// and the analysis result aggregate.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// DataType represents the life domain an event belongs to
type DataType string

const (
	// DataTypeHealth covers fitness, sleep, and vitals readings
	DataTypeHealth DataType = "health"
	// DataTypeFinance covers spending and income entries
	DataTypeFinance DataType = "finance"
	// DataTypeProductivity covers task and focus-time logs
	DataTypeProductivity DataType = "productivity"
	// DataTypeRelationships covers social interaction logs
	DataTypeRelationships DataType = "relationships"
	// DataTypeLearning covers study and reading sessions
	DataTypeLearning DataType = "learning"
)

// AllDataTypes is the closed set of categories every detector consumes.
// Keep this in sync with the constants above; detectors fail hard on
// anything outside this set.
var AllDataTypes = []DataType{
	DataTypeHealth,
	DataTypeFinance,
	DataTypeProductivity,
	DataTypeRelationships,
	DataTypeLearning,
}

// Valid returns true if the data type is part of the closed set
func (dt DataType) Valid() bool {
	switch dt {
	case DataTypeHealth, DataTypeFinance, DataTypeProductivity, DataTypeRelationships, DataTypeLearning:
		return true
	}
	return false
}

// FieldValue is a single named field of an event's value record. A field
// is either numeric or categorical; callers check IsNumeric before
// reading Float.
type FieldValue struct {
	num       float64
	text      string
	isNumeric bool
}

// Num creates a numeric field value
func Num(v float64) FieldValue {
	return FieldValue{num: v, isNumeric: true}
}

// Str creates a categorical field value
func Str(s string) FieldValue {
	return FieldValue{text: s}
}

// IsNumeric reports whether the field holds a number
func (f FieldValue) IsNumeric() bool { return f.isNumeric }

// Float returns the numeric value, or 0 for categorical fields
func (f FieldValue) Float() float64 { return f.num }

// Text returns the categorical value, or "" for numeric fields
func (f FieldValue) Text() string { return f.text }

// MarshalJSON encodes the field as a bare number or string
func (f FieldValue) MarshalJSON() ([]byte, error) {
	if f.isNumeric {
		return json.Marshal(f.num)
	}
	return json.Marshal(f.text)
}

// UnmarshalJSON decodes numbers as numeric fields; everything else is
// kept as its string form and treated as categorical.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = Num(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Str(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Str(fmt.Sprintf("%t", b))
		return nil
	}
	return fmt.Errorf("field value must be a number, string, or bool: %s", string(data))
}

// Event is a single raw personal-data reading supplied by the caller.
// Events are immutable once ingested; the engine never mutates them.
type Event struct {
	ID        string                `json:"id"`
	DataType  DataType              `json:"data_type"`
	Source    string                `json:"source"`
	Value     map[string]FieldValue `json:"value"`
	Timestamp int64                 `json:"timestamp"` // epoch millis, UTC
}

// Time returns the event timestamp as a UTC time
func (e *Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// TrendDirection indicates whether a fitted trend rises or falls
type TrendDirection string

const (
	// TrendIncreasing indicates a positive fitted slope
	TrendIncreasing TrendDirection = "increasing"
	// TrendDecreasing indicates a negative fitted slope
	TrendDecreasing TrendDirection = "decreasing"
)

// Trend is a fitted linear trend for one data category
type Trend struct {
	DataType    DataType       `json:"data_type"`
	Direction   TrendDirection `json:"direction"`
	Strength    float64        `json:"strength"`   // |slope|
	Confidence  float64        `json:"confidence"` // R², clamped to [0,1]
	DurationMs  int64          `json:"duration_ms"`
	Description string         `json:"description"`
}

// PeriodType identifies the calendar period a cycle repeats over
type PeriodType string

const (
	// PeriodDaily buckets by hour of day (24 buckets)
	PeriodDaily PeriodType = "daily"
	// PeriodWeekly buckets by day of week (7 buckets)
	PeriodWeekly PeriodType = "weekly"
	// PeriodMonthly buckets by day of month (31 buckets)
	PeriodMonthly PeriodType = "monthly"
)

// Cycle is a recurring calendar pattern for one data category
type Cycle struct {
	DataType     DataType   `json:"data_type"`
	PeriodType   PeriodType `json:"period_type"`
	Strength     float64    `json:"strength"` // [0,1]
	Profile      []float64  `json:"profile"`  // ordered bucket averages
	PeakBucket   int        `json:"peak_bucket"`
	TroughBucket int        `json:"trough_bucket"`
}

// CorrelationDirection is the sign of a cross-domain correlation
type CorrelationDirection string

const (
	// CorrelationPositive means the series move together
	CorrelationPositive CorrelationDirection = "positive"
	// CorrelationNegative means the series move inversely
	CorrelationNegative CorrelationDirection = "negative"
)

// Correlation links two data categories through a Pearson coefficient
type Correlation struct {
	DataTypeA   DataType             `json:"data_type_a"`
	DataTypeB   DataType             `json:"data_type_b"`
	Coefficient float64              `json:"coefficient"` // [-1,1]
	Confidence  float64              `json:"confidence"`  // [0,1]
	Direction   CorrelationDirection `json:"direction"`
}

// AnomalyKind distinguishes the two anomaly detectors
type AnomalyKind string

const (
	// AnomalyStatistical flags Z-score outliers within a category
	AnomalyStatistical AnomalyKind = "statistical"
	// AnomalyContextual flags deviation from same-time-of-week baselines
	AnomalyContextual AnomalyKind = "contextual"
)

// AnomalySeverity grades how far outside the norm an event falls
type AnomalySeverity string

const (
	// SeverityMedium flags moderate deviation
	SeverityMedium AnomalySeverity = "medium"
	// SeverityHigh flags extreme deviation
	SeverityHigh AnomalySeverity = "high"
)

// Anomaly marks a single event as an outlier
type Anomaly struct {
	EventID     string          `json:"event_id"`
	DataType    DataType        `json:"data_type"`
	Kind        AnomalyKind     `json:"kind"`
	Severity    AnomalySeverity `json:"severity"`
	ZScore      float64         `json:"z_score,omitempty"` // statistical only
	Description string          `json:"description"`
}

// ClusterCenter summarizes the numeric values of a cluster's members
type ClusterCenter struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// ClusterCharacteristics names the dominant temporal and source traits
// of a cluster's members
type ClusterCharacteristics struct {
	DominantHourOfDay int    `json:"dominant_hour_of_day"`
	DominantDayOfWeek int    `json:"dominant_day_of_week"`
	DominantTimeOfDay string `json:"dominant_time_of_day"`
	DominantSource    string `json:"dominant_source"`
}

// Cluster is one K-means group of behaviorally similar events
type Cluster struct {
	ID              int                    `json:"id"`
	Size            int                    `json:"size"`
	MemberIDs       []string               `json:"member_ids"`
	Center          ClusterCenter          `json:"center"`
	Characteristics ClusterCharacteristics `json:"characteristics"`
}

// ClusterSet bundles one category's clustering run with its quality score
type ClusterSet struct {
	DataType   DataType  `json:"data_type"`
	Clusters   []Cluster `json:"clusters"`
	Silhouette float64   `json:"silhouette"` // [-1,1]
}

// PredictionPoint is a single extrapolated future value
type PredictionPoint struct {
	Timestamp  int64   `json:"timestamp"`
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Prediction extrapolates a category's trend over a short horizon
type Prediction struct {
	DataType   DataType          `json:"data_type"`
	Direction  TrendDirection    `json:"direction"`
	Confidence float64           `json:"confidence"`
	Series     []PredictionPoint `json:"series"`
}

// Feedback is one user reaction to a surfaced insight
type Feedback struct {
	InsightID string    `json:"insight_id"`
	Rating    float64   `json:"rating"` // [0,1]
	Action    string    `json:"action"` // e.g. "accepted", "dismissed"
	Timestamp time.Time `json:"timestamp"`
}

// ProfileSummary is the derived view of a user's feedback history
type ProfileSummary struct {
	TotalFeedback    int     `json:"total_feedback"`
	AverageRating    float64 `json:"average_rating"`
	LearningProgress float64 `json:"learning_progress"` // min(1, count/100)
}

// AnalysisResult is the full output of one batch analysis call
type AnalysisResult struct {
	Trends       []Trend         `json:"trends"`
	Cycles       []Cycle         `json:"cycles"`
	Correlations []Correlation   `json:"correlations"`
	Anomalies    []Anomaly       `json:"anomalies"`
	Clusters     []ClusterSet    `json:"clusters"`
	Predictions  []Prediction    `json:"predictions"`
	Confidence   float64         `json:"confidence"` // [0,1]
	EventCount   int             `json:"event_count"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Profile      *ProfileSummary `json:"profile,omitempty"`
}

// NewAnalysisResult returns a result with all lists allocated so an
// empty batch serializes as empty arrays, not nulls.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Trends:       []Trend{},
		Cycles:       []Cycle{},
		Correlations: []Correlation{},
		Anomalies:    []Anomaly{},
		Clusters:     []ClusterSet{},
		Predictions:  []Prediction{},
	}
}
