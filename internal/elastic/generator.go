package elastic

import (
	"errors"
	"log/slog"

	"github.com/rebeliceyang/lazysearch/internal/logging"
	"github.com/rebeliceyang/lazysearch/internal/models"
)

const (
	boolMust    = "must"
	boolShould  = "should"
	boolMustNot = "must_not"

	propertyID = "_id"
)

// Generator compiles a SearchCondition into an Elasticsearch query
type Generator struct {
	condition  *models.SearchCondition
	params     ParameterBag
	mappings   map[string][]*FieldMapping
	fieldOrder []string
	logger     *slog.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithParameters sets the values injected into mapping paths and contextual conditions
func WithParameters(params ParameterBag) Option {
	return func(g *Generator) { g.params = params }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a generator for a condition
func NewGenerator(condition *models.SearchCondition, opts ...Option) *Generator {
	g := &Generator{
		condition: condition,
		params:    ParameterBag{},
		mappings:  make(map[string][]*FieldMapping),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.Default(g.logger).With("component", "elastic-generator")
	return g
}

// RegisterField maps a logical field to a property path
func (g *Generator) RegisterField(name, path string, opts ...FieldOption) error {
	return g.RegisterMultiField(name, []string{path}, opts...)
}

// RegisterMultiField maps a logical field to several property paths. The queries
// of the paths are combined with bool should.
func (g *Generator) RegisterMultiField(name string, paths []string, opts ...FieldOption) error {
	if name == "" {
		return errors.New("field name is required")
	}
	if len(paths) == 0 {
		return errors.New("at least one property path is required for field " + name)
	}

	var o fieldOptions
	for _, opt := range opts {
		opt(&o)
	}

	mappings := make([]*FieldMapping, 0, len(paths))
	for _, path := range paths {
		m, err := g.newMapping(name, path, o)
		if err != nil {
			return err
		}
		mappings = append(mappings, m)
	}

	if _, ok := g.mappings[name]; !ok {
		g.fieldOrder = append(g.fieldOrder, name)
	}
	g.mappings[name] = mappings
	return nil
}

// SearchCondition returns the condition the generator compiles
func (g *Generator) SearchCondition() *models.SearchCondition {
	return g.condition
}

// Query returns the compiled query, or nil when the condition holds no values
func (g *Generator) Query() (map[string]any, error) {
	var primary map[string]any
	if p := g.condition.PrimaryCondition(); p != nil {
		var err error
		if primary, err = g.processGroup(p); err != nil {
			return nil, err
		}
	}

	root, err := g.processGroup(g.condition.Root())
	if err != nil {
		return nil, err
	}

	var query map[string]any
	switch {
	case primary == nil && root == nil:
		return nil, nil
	case primary == nil:
		query = root
	case root == nil:
		query = primary
	default:
		query = map[string]any{"bool": map[string]any{boolMust: []any{primary, root}}}
	}

	g.logger.Debug("compiled query", "fields", len(g.fieldOrder), "primary", primary != nil)
	return map[string]any{"query": query}, nil
}

// Mappings returns the mappings of every field holding values, primary condition
// first, in order of first use
func (g *Generator) Mappings() ([]*FieldMapping, error) {
	seen := make(map[string]bool)
	var out []*FieldMapping

	var walk func(group *models.ValuesGroup) error
	walk = func(group *models.ValuesGroup) error {
		for _, name := range group.FieldNames() {
			bag, _ := group.Field(name)
			if bag.IsEmpty() || seen[name] {
				continue
			}
			mappings, ok := g.mappings[name]
			if !ok {
				return &models.UnknownFieldError{Field: name}
			}
			seen[name] = true
			out = append(out, mappings...)
		}
		for _, sub := range group.Groups() {
			if err := walk(sub); err != nil {
				return err
			}
		}
		return nil
	}

	if p := g.condition.PrimaryCondition(); p != nil {
		if err := walk(p); err != nil {
			return nil, err
		}
	}
	if err := walk(g.condition.Root()); err != nil {
		return nil, err
	}
	return out, nil
}
