package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// ErrUnsupportedLiteral is returned for values that have no SQL literal form
var ErrUnsupportedLiteral = errors.New("unsupported literal type")

// Dialect controls how literals, placeholders and case folding are written
type Dialect interface {
	Name() string
	QuoteLiteral(v any) (string, error)
	// Placeholders rewrites the "?" markers of a bound statement.
	Placeholders() sq.PlaceholderFormat
	CaseFold(expr string) string
}

var (
	// Standard quotes strings by doubling single quotes and binds with "?".
	Standard Dialect = standardDialect{name: "standard"}
	SQLite   Dialect = standardDialect{name: "sqlite"}
	// Postgres quotes through lib/pq and binds with "$n".
	Postgres Dialect = postgresDialect{}
)

// LookupDialect returns a dialect by name. Empty means Standard.
func LookupDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "standard":
		return Standard, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgsql":
		return Postgres, nil
	default:
		return nil, fmt.Errorf("unknown dialect: %s", name)
	}
}

type standardDialect struct {
	name string
}

func (d standardDialect) Name() string { return d.name }

func (d standardDialect) QuoteLiteral(v any) (string, error) {
	return formatLiteral(v, func(s string) string {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	})
}

func (standardDialect) Placeholders() sq.PlaceholderFormat { return sq.Question }

func (standardDialect) CaseFold(expr string) string { return "LOWER(" + expr + ")" }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) QuoteLiteral(v any) (string, error) {
	return formatLiteral(v, func(s string) string {
		return strings.TrimSpace(pq.QuoteLiteral(s))
	})
}

func (postgresDialect) Placeholders() sq.PlaceholderFormat { return sq.Dollar }

func (postgresDialect) CaseFold(expr string) string { return "LOWER(" + expr + ")" }

func formatLiteral(v any, quote func(string) string) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case string:
		return quote(v), nil
	case []byte:
		return quote(string(v)), nil
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return quote(v.Format("2006-01-02")), nil
		}
		return quote(v.UTC().Format("2006-01-02 15:04:05.999999999")), nil
	case fmt.Stringer:
		return quote(v.String()), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedLiteral, v)
	}
}
