package types

// TimeOfDay is a coarse daypart label derived from the hour
type TimeOfDay string

const (
	// TimeOfDayMorning covers 05:00-11:59
	TimeOfDayMorning TimeOfDay = "morning"
	// TimeOfDayAfternoon covers 12:00-16:59
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	// TimeOfDayEvening covers 17:00-20:59
	TimeOfDayEvening TimeOfDay = "evening"
	// TimeOfDayNight covers 21:00-04:59
	TimeOfDayNight TimeOfDay = "night"
)

// NumericFeature is one named numeric measurement of an event
type NumericFeature struct {
	Name       string  `json:"name"`
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"` // [0,1] per the field's range table entry
}

// CategoricalFeature is one named non-numeric attribute of an event
type CategoricalFeature struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TemporalFeatures are the calendar attributes of an event timestamp,
// derived in UTC.
type TemporalFeatures struct {
	HourOfDay  int       `json:"hour_of_day"`  // 0-23
	DayOfWeek  int       `json:"day_of_week"`  // 0-6, 0=Sunday
	DayOfMonth int       `json:"day_of_month"` // 1-31
	Month      int       `json:"month"`        // 0-11
	Season     int       `json:"season"`       // 0-3
	IsWeekend  bool      `json:"is_weekend"`
	TimeOfDay  TimeOfDay `json:"time_of_day"`
}

// FeatureVector is the derived representation of a single event. It is
// created per event and discarded after the analysis pass.
type FeatureVector struct {
	EventID     string               `json:"event_id"`
	Timestamp   int64                `json:"timestamp"`
	DataType    DataType             `json:"data_type"`
	Numerical   []NumericFeature     `json:"numerical"`
	Categorical []CategoricalFeature `json:"categorical"`
	Temporal    TemporalFeatures     `json:"temporal"`
}
