package models

import (
	"errors"
	"fmt"
)

// ValidationError reports rejected input with enough detail to fix it.
// Validation failures are never retried automatically.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateCoordinates checks that lat and lng are within WGS 84 bounds and
// returns a ValidationError naming the offending field otherwise.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return NewValidationError("lat", lat, "must be within [-90, 90]")
	}
	if lng < -180 || lng > 180 {
		return NewValidationError("lng", lng, "must be within [-180, 180]")
	}
	return nil
}
