package filter

import (
	"fmt"
	"strings"
	"time"
)

// ConversionHints describes the context a conversion is invoked in
type ConversionHints struct {
	Field *FieldMapping

	// Column is the alias-qualified column before any column conversion.
	Column string

	// Strategy is the value returned by ConversionStrategy, or 0.
	Strategy int

	Dialect Dialect

	literal func(any) (string, error)
}

// Literal renders v the way the compiler renders plain values:
// quoted inline or as a bind placeholder.
func (h ConversionHints) Literal(v any) (string, error) {
	if h.literal != nil {
		return h.literal(v)
	}
	d := h.Dialect
	if d == nil {
		d = Standard
	}
	return d.QuoteLiteral(v)
}

// ColumnConversion rewrites the column expression of a field
type ColumnConversion interface {
	ConvertColumn(column string, hints ConversionHints) (string, error)
}

// ValueConversion renders a value as a SQL expression. The result is used verbatim.
type ValueConversion interface {
	ConvertValue(value any, hints ConversionHints) (string, error)
}

// ConversionStrategy picks a strategy per value, passed on to the other conversions
type ConversionStrategy interface {
	ConversionStrategy(value any, hints ConversionHints) (int, error)
}

// CastConversion casts the column to a type
type CastConversion struct {
	Type string
}

func (c CastConversion) ConvertColumn(column string, _ ConversionHints) (string, error) {
	return fmt.Sprintf("CAST(%s AS %s)", column, c.Type), nil
}

// LowerConversion folds the column to lower case
type LowerConversion struct{}

func (LowerConversion) ConvertColumn(column string, hints ConversionHints) (string, error) {
	if hints.Dialect == nil {
		return Standard.CaseFold(column), nil
	}
	return hints.Dialect.CaseFold(column), nil
}

// FunctionConversion wraps every value in a SQL function call
type FunctionConversion struct {
	Function string
}

func (c FunctionConversion) ConvertValue(value any, hints ConversionHints) (string, error) {
	lit, err := hints.Literal(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", c.Function, lit), nil
}

const (
	BirthdayAge  = 1
	BirthdayDate = 2
)

// BirthdayConversion searches a date-of-birth column either by age in years
// (integer values) or by date (time.Time values)
type BirthdayConversion struct{}

func (BirthdayConversion) ConversionStrategy(value any, _ ConversionHints) (int, error) {
	switch value.(type) {
	case time.Time:
		return BirthdayDate, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return BirthdayAge, nil
	default:
		return 0, fmt.Errorf("birthday: cannot search by %T", value)
	}
}

func (BirthdayConversion) ConvertColumn(column string, hints ConversionHints) (string, error) {
	if hints.Strategy != BirthdayAge {
		return column, nil
	}
	if isSQLite(hints.Dialect) {
		return fmt.Sprintf("CAST((julianday('now') - julianday(%s)) / 365.25 AS INTEGER)", column), nil
	}
	return fmt.Sprintf("CAST(EXTRACT(YEAR FROM AGE(%s)) AS INTEGER)", column), nil
}

func (BirthdayConversion) ConvertValue(value any, hints ConversionHints) (string, error) {
	if hints.Strategy != BirthdayDate {
		return hints.Literal(value)
	}
	t, ok := value.(time.Time)
	if !ok {
		return "", fmt.Errorf("birthday: cannot search by date with %T", value)
	}
	lit, err := hints.Literal(t.Format("2006-01-02"))
	if err != nil {
		return "", err
	}
	if isSQLite(hints.Dialect) {
		return fmt.Sprintf("DATE(%s)", lit), nil
	}
	return fmt.Sprintf("CAST(%s AS DATE)", lit), nil
}

func isSQLite(d Dialect) bool {
	return d != nil && d.Name() == SQLite.Name()
}

// LookupConversion resolves a conversion by name, as written in mapping files:
// "lower", "birthday", "cast:<type>" or "func:<name>".
func LookupConversion(name string) (any, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(name), ":")
	switch strings.ToLower(kind) {
	case "lower":
		return LowerConversion{}, nil
	case "birthday":
		return BirthdayConversion{}, nil
	case "cast":
		if arg == "" {
			return nil, fmt.Errorf("conversion %q: missing type", name)
		}
		return CastConversion{Type: arg}, nil
	case "func":
		if arg == "" {
			return nil, fmt.Errorf("conversion %q: missing function name", name)
		}
		return FunctionConversion{Function: arg}, nil
	default:
		return nil, fmt.Errorf("unknown conversion: %s", name)
	}
}
