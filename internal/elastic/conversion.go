package elastic

import (
	"fmt"
	"strings"
	"time"
)

// QueryContext tells a conversion which kind of value it receives
type QueryContext int

const (
	ContextSimpleValues QueryContext = iota + 1
	ContextExcludedSimpleValues
	ContextRange
	ContextExcludedRange
	ContextComparison
	ContextPatternMatch
)

// QueryHints describes the context a conversion is invoked in
type QueryHints struct {
	Field      *FieldMapping
	Context    QueryContext
	Identifier bool
}

// ValueConversion converts a single value before it is put in a query
type ValueConversion interface {
	ConvertValue(value any, hints QueryHints) (any, error)
}

// QueryConversion builds the query for a field. Returning a nil map falls back
// to the default query. The value is []any for simple values, models.Range,
// models.ExcludedRange, models.Compare or models.PatternMatch otherwise.
type QueryConversion interface {
	ConvertQuery(property string, value any, hints QueryHints) (map[string]any, error)
}

// TimeConversion formats time.Time values with Layout. Other values pass through.
type TimeConversion struct {
	Layout string
}

func (c TimeConversion) ConvertValue(value any, _ QueryHints) (any, error) {
	if t, ok := value.(time.Time); ok {
		return t.Format(c.Layout), nil
	}
	return value, nil
}

// LowercaseConversion lower-cases string values
type LowercaseConversion struct{}

func (LowercaseConversion) ConvertValue(value any, _ QueryHints) (any, error) {
	if s, ok := value.(string); ok {
		return strings.ToLower(s), nil
	}
	return value, nil
}

// LookupValueConversion resolves a value conversion by name, as written in
// mapping files: "date", "datetime" or "lowercase"
func LookupValueConversion(name string) (ValueConversion, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "date":
		return TimeConversion{Layout: "2006-01-02"}, nil
	case "datetime":
		return TimeConversion{Layout: time.RFC3339}, nil
	case "lowercase", "lower":
		return LowercaseConversion{}, nil
	default:
		return nil, fmt.Errorf("unknown value conversion: %s", name)
	}
}
