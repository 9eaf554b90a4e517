package models

import (
	"fmt"
	"strings"
)

// ValueKind identifies one of the value variants a field can hold
type ValueKind int

const (
	KindSimple ValueKind = iota
	KindExcludedSimple
	KindRange
	KindExcludedRange
	KindCompare
	KindPatternMatch
)

// String returns the kind name as used in condition files
func (k ValueKind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindExcludedSimple:
		return "excluded"
	case KindRange:
		return "ranges"
	case KindExcludedRange:
		return "excluded_ranges"
	case KindCompare:
		return "compares"
	case KindPatternMatch:
		return "matches"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a single criterion stored in a ValuesBag.
// The set of implementations is closed: only the types in this package satisfy it.
type Value interface {
	Kind() ValueKind
	value()
}

// SimpleValue matches a single exact value
type SimpleValue struct {
	Value any
}

// ExcludedSimpleValue rejects a single exact value
type ExcludedSimpleValue struct {
	Value any
}

// Range matches values between Lower and Upper
type Range struct {
	Lower          any
	Upper          any
	LowerInclusive bool
	UpperInclusive bool
}

// ExcludedRange rejects values between Lower and Upper
type ExcludedRange struct {
	Lower          any
	Upper          any
	LowerInclusive bool
	UpperInclusive bool
}

// NewRange returns a range with both bounds inclusive
func NewRange(lower, upper any) Range {
	return Range{Lower: lower, Upper: upper, LowerInclusive: true, UpperInclusive: true}
}

// NewExcludedRange returns an excluded range with both bounds inclusive
func NewExcludedRange(lower, upper any) ExcludedRange {
	return ExcludedRange{Lower: lower, Upper: upper, LowerInclusive: true, UpperInclusive: true}
}

func (SimpleValue) Kind() ValueKind         { return KindSimple }
func (ExcludedSimpleValue) Kind() ValueKind { return KindExcludedSimple }
func (Range) Kind() ValueKind               { return KindRange }
func (ExcludedRange) Kind() ValueKind       { return KindExcludedRange }
func (Compare) Kind() ValueKind             { return KindCompare }
func (PatternMatch) Kind() ValueKind        { return KindPatternMatch }

func (SimpleValue) value()         {}
func (ExcludedSimpleValue) value() {}
func (Range) value()               {}
func (ExcludedRange) value()       {}
func (Compare) value()             {}
func (PatternMatch) value()        {}

// CompareOperator is a comparison operator
type CompareOperator string

const (
	OpLess           CompareOperator = "<"
	OpLessOrEqual    CompareOperator = "<="
	OpGreater        CompareOperator = ">"
	OpGreaterOrEqual CompareOperator = ">="
	OpNotEqual       CompareOperator = "<>"
)

// Valid reports whether op is one of the supported operators
func (op CompareOperator) Valid() bool {
	switch op {
	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual, OpNotEqual:
		return true
	}
	return false
}

// Compare matches values against a single operator
type Compare struct {
	Value    any
	Operator CompareOperator
}

// IsExclusive reports whether the comparison rejects rather than narrows
func (c Compare) IsExclusive() bool {
	return c.Operator == OpNotEqual
}

// PatternType is the kind of textual pattern a PatternMatch applies
type PatternType int

const (
	PatternContains PatternType = iota + 1
	PatternStartsWith
	PatternEndsWith
	PatternEquals
	PatternNotContains
	PatternNotStartsWith
	PatternNotEndsWith
	PatternNotEquals
)

var patternNames = map[PatternType]string{
	PatternContains:      "CONTAINS",
	PatternStartsWith:    "STARTS_WITH",
	PatternEndsWith:      "ENDS_WITH",
	PatternEquals:        "EQUALS",
	PatternNotContains:   "NOT_CONTAINS",
	PatternNotStartsWith: "NOT_STARTS_WITH",
	PatternNotEndsWith:   "NOT_ENDS_WITH",
	PatternNotEquals:     "NOT_EQUALS",
}

func (t PatternType) String() string {
	if name, ok := patternNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PatternType(%d)", int(t))
}

// ParsePatternType resolves a pattern type from its name, case-insensitively
func ParsePatternType(name string) (PatternType, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for t, n := range patternNames {
		if n == upper {
			return t, nil
		}
	}
	return 0, &UnsupportedPatternError{Type: name}
}

// IsExclusive reports whether the type is one of the NOT variants
func (t PatternType) IsExclusive() bool {
	return t >= PatternNotContains && t <= PatternNotEquals
}

// Base returns the positive form of a NOT variant, or t itself
func (t PatternType) Base() PatternType {
	if t.IsExclusive() {
		return t - (PatternNotContains - PatternContains)
	}
	return t
}

// PatternMatch matches text against a pattern
type PatternMatch struct {
	Value           string
	Type            PatternType
	CaseInsensitive bool
}

// NewPatternMatch returns a case-sensitive pattern match
func NewPatternMatch(value string, patternType PatternType) PatternMatch {
	return PatternMatch{Value: value, Type: patternType}
}

// IsExclusive reports whether the match rejects instead of selects
func (p PatternMatch) IsExclusive() bool {
	return p.Type.IsExclusive()
}
