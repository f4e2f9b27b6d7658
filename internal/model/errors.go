package model

import (
	"errors"
	"fmt"
)

// ErrTooFewHoldings marks a period with fewer than the required number of
// unique security holdings. The period is skipped, not failed.
var ErrTooFewHoldings = errors.New("too few qualifying holdings")

// RowParseError reports a single input row that could not be parsed.
type RowParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: field %s=%q: %v", e.Line, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("line %d: field %s is missing", e.Line, e.Field)
}

func (e *RowParseError) Unwrap() error { return e.Err }

// DataQualityError reports a period whose values cannot produce a result,
// e.g. a non-positive price or a zero-total weight vector.
type DataQualityError struct {
	Period Period
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality: period %s: %s", e.Period, e.Reason)
}

// InsufficientDataError reports a structural shortage of data: no qualifying
// period at all, or an under-determined / rank-deficient regression.
type InsufficientDataError struct {
	Scope  string // "panel" or a factor name
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s", e.Scope, e.Reason)
}

// EncodingOrSchemaError reports that no attempted encoding or layout yielded
// a readable table. It is fatal for the fund and distinct from an empty table.
type EncodingOrSchemaError struct {
	Path      string
	Attempted []string
	Err       error
}

func (e *EncodingOrSchemaError) Error() string {
	return fmt.Sprintf("no usable table in %s (tried %v): %v", e.Path, e.Attempted, e.Err)
}

func (e *EncodingOrSchemaError) Unwrap() error { return e.Err }
