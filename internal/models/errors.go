package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a condition references a field with no registered mapping.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnsupportedPattern is returned for a pattern type that has no rendering rule.
	ErrUnsupportedPattern = errors.New("unsupported pattern type")

	// ErrUnsupportedOperator is returned for a comparison operator outside the supported set.
	ErrUnsupportedOperator = errors.New("unsupported comparison operator")
)

// UnknownFieldError names the field that could not be resolved.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("no mapping registered for field %q", e.Field)
}

func (e *UnknownFieldError) Unwrap() error {
	return ErrUnknownField
}

// UnsupportedPatternError names the pattern type that could not be rendered.
type UnsupportedPatternError struct {
	Type string
}

func (e *UnsupportedPatternError) Error() string {
	return fmt.Sprintf("unsupported pattern type %q", e.Type)
}

func (e *UnsupportedPatternError) Unwrap() error {
	return ErrUnsupportedPattern
}

// UnsupportedOperatorError names the comparison operator that could not be rendered.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported comparison operator %q", e.Operator)
}

func (e *UnsupportedOperatorError) Unwrap() error {
	return ErrUnsupportedOperator
}
