// ABOUTME: Validation error type shared by model conversions and tool argument checks
// ABOUTME: Every ValidationError matches ErrValidation under errors.Is

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is the sentinel matched by every validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a rejected value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func invalidEnum[T ~string](field string, value string, allowed []T) error {
	names := make([]string, len(allowed))
	for i, v := range allowed {
		names[i] = string(v)
	}
	return Invalid(field, value, "must be one of "+strings.Join(names, ", "))
}

func parseEnum[T ~string](field, value string, allowed []T) (T, error) {
	for _, v := range allowed {
		if string(v) == value {
			return v, nil
		}
	}
	return "", invalidEnum(field, value, allowed)
}
