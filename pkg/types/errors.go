package types

import "fmt"

// FeatureExtractionError indicates a structurally invalid event, such
// as a malformed timestamp. It aborts the whole analysis call.
type FeatureExtractionError struct {
	EventID string
	Reason  string
}

func (e *FeatureExtractionError) Error() string {
	return fmt.Sprintf("feature extraction failed for event %q: %s", e.EventID, e.Reason)
}

// InvalidBatchError indicates the event batch itself is unusable
// (nil collection, duplicate IDs supplied by a broken caller, ...).
type InvalidBatchError struct {
	Reason string
}

func (e *InvalidBatchError) Error() string {
	return fmt.Sprintf("invalid event batch: %s", e.Reason)
}

// UnknownDataTypeError indicates an event carried a category outside
// the closed DataType set.
type UnknownDataTypeError struct {
	DataType DataType
}

func (e *UnknownDataTypeError) Error() string {
	return fmt.Sprintf("unknown data type %q", string(e.DataType))
}
