package filter

import (
	"errors"
	"sync"
)

// FieldMapping binds a logical field name to a column.
// A field registered more than once is a combined field: its fragments are OR-ed.
type FieldMapping struct {
	FieldName string
	Column    string
	Alias     string
	Type      string
	Options   map[string]any

	conversion any
	factory    func() (any, error)
	once       sync.Once
	err        error
}

// FieldOption configures a FieldMapping at registration
type FieldOption func(*FieldMapping)

// WithAlias qualifies the column with a table alias
func WithAlias(alias string) FieldOption {
	return func(m *FieldMapping) { m.Alias = alias }
}

// WithType records the column type for conversions that need it
func WithType(typ string) FieldOption {
	return func(m *FieldMapping) { m.Type = typ }
}

// WithOptions attaches free-form options passed to conversions through the hints
func WithOptions(options map[string]any) FieldOption {
	return func(m *FieldMapping) { m.Options = options }
}

// WithConversion sets a conversion implementing any of ColumnConversion,
// ValueConversion or ConversionStrategy
func WithConversion(conversion any) FieldOption {
	return func(m *FieldMapping) {
		m.conversion = conversion
		m.factory = nil
	}
}

// WithLazyConversion defers creating the conversion until the field is first compiled
func WithLazyConversion(factory func() (any, error)) FieldOption {
	return func(m *FieldMapping) {
		m.conversion = nil
		m.factory = factory
	}
}

// ColumnRef returns the alias-qualified column
func (m *FieldMapping) ColumnRef() string {
	if m.Alias == "" {
		return m.Column
	}
	return m.Alias + "." + m.Column
}

// Conversion returns the conversion of the mapping, running a lazy factory once
func (m *FieldMapping) Conversion() (any, error) {
	m.once.Do(func() {
		if m.factory != nil {
			m.conversion, m.err = m.factory()
		}
	})
	return m.conversion, m.err
}

// RegisterField maps a logical field to a column. Registering the same name
// again adds another column to the field.
func (g *Generator) RegisterField(name, column string, opts ...FieldOption) error {
	if name == "" {
		return errors.New("field name is required")
	}
	if column == "" {
		return errors.New("column is required for field " + name)
	}

	m := &FieldMapping{FieldName: name, Column: column}
	for _, opt := range opts {
		opt(m)
	}

	if _, ok := g.fields[name]; !ok {
		g.fieldOrder = append(g.fieldOrder, name)
	}
	g.fields[name] = append(g.fields[name], m)
	return nil
}

// Fields returns the mappings registered for a field
func (g *Generator) Fields(name string) []*FieldMapping {
	return g.fields[name]
}

// FieldNames returns registered field names in registration order
func (g *Generator) FieldNames() []string {
	names := make([]string, len(g.fieldOrder))
	copy(names, g.fieldOrder)
	return names
}
