package filter

import (
	"fmt"
	"log/slog"

	"github.com/rebeliceyang/lazysearch/internal/logging"
	"github.com/rebeliceyang/lazysearch/internal/models"
)

// Generator compiles a SearchCondition into a SQL boolean expression
type Generator struct {
	condition  *models.SearchCondition
	fields     map[string][]*FieldMapping
	fieldOrder []string
	dialect    Dialect
	bindVars   bool
	logger     *slog.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithDialect selects the SQL dialect. The default is Standard.
func WithDialect(d Dialect) Option {
	return func(g *Generator) { g.dialect = d }
}

// WithBindVars emits placeholders instead of inline literals; the values are
// returned in Clause.Args
func WithBindVars() Option {
	return func(g *Generator) { g.bindVars = true }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// Clause is a compiled WHERE expression
type Clause struct {
	SQL  string
	Args []any
}

// NewGenerator creates a generator for a condition
func NewGenerator(condition *models.SearchCondition, opts ...Option) *Generator {
	g := &Generator{
		condition: condition,
		fields:    make(map[string][]*FieldMapping),
		dialect:   Standard,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.Default(g.logger).With("component", "sql-generator")
	return g
}

// SearchCondition returns the condition the generator compiles
func (g *Generator) SearchCondition() *models.SearchCondition {
	return g.condition
}

// Dialect returns the dialect in use
func (g *Generator) Dialect() Dialect {
	return g.dialect
}

// WhereClause returns the compiled expression preceded by prefix, or "" when
// the condition holds no values. Inline literals only; see Build for binding.
func (g *Generator) WhereClause(prefix string) (string, error) {
	clause, err := g.Build(prefix)
	if err != nil {
		return "", err
	}
	return clause.SQL, nil
}

// Build compiles the condition. With a primary condition the result is
// prefix + primary + " AND " + root.
func (g *Generator) Build(prefix string) (Clause, error) {
	c := &compiler{gen: g}

	var primary string
	if p := g.condition.PrimaryCondition(); p != nil {
		var err error
		if primary, err = c.group(p); err != nil {
			return Clause{}, err
		}
	}

	root, err := c.group(g.condition.Root())
	if err != nil {
		return Clause{}, err
	}

	var sql string
	switch {
	case primary == "" && root == "":
		return Clause{}, nil
	case primary == "":
		sql = prefix + root
	case root == "":
		sql = prefix + primary
	default:
		sql = prefix + primary + " AND " + root
	}

	if len(c.args) > 0 {
		if sql, err = g.dialect.Placeholders().ReplacePlaceholders(sql); err != nil {
			return Clause{}, fmt.Errorf("placeholders: %w", err)
		}
	}

	g.logger.Debug("compiled where clause",
		"dialect", g.dialect.Name(),
		"length", len(sql),
		"args", len(c.args))

	return Clause{SQL: sql, Args: c.args}, nil
}
