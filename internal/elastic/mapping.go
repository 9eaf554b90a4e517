package elastic

import (
	"fmt"
	"strings"
)

// ScopeKind is the kind of wrapping query a scope produces
type ScopeKind int

const (
	// ScopeChild wraps in has_child; the name is the child type.
	ScopeChild ScopeKind = iota + 1
	// ScopeNested wraps in nested; the name is the nested path.
	ScopeNested
)

// Scope is one level of the wrapping chain of a property, outermost first
type Scope struct {
	Kind ScopeKind
	Name string
}

func (s Scope) wrap(query map[string]any) map[string]any {
	if s.Kind == ScopeNested {
		return map[string]any{"nested": map[string]any{"path": s.Name, "query": query}}
	}
	return map[string]any{"has_child": map[string]any{"type": s.Name, "query": query}}
}

func wrapScopes(query map[string]any, scopes []Scope) map[string]any {
	for i := len(scopes) - 1; i >= 0; i-- {
		query = scopes[i].wrap(query)
	}
	return query
}

func sameScopes(a, b []Scope) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ContextualCondition is an extra terms condition added next to a field's query
// whenever that field is used. Path uses the property path syntax; Value is a
// template string or a list of templates.
type ContextualCondition struct {
	Path  string
	Value any
}

// Condition is a contextual condition resolved against the parameter bag
type Condition struct {
	PropertyName string
	Scopes       []Scope
	Values       []any
}

func (c Condition) query() map[string]any {
	return map[string]any{"terms": map[string]any{c.PropertyName: c.Values}}
}

// FieldMapping binds a logical field to a document property
type FieldMapping struct {
	FieldName    string
	Path         string
	IndexName    string
	TypeName     string
	PropertyName string
	Scopes       []Scope
	Conditions   []Condition

	ValueConversion ValueConversion
	QueryConversion QueryConversion
}

// FieldOption configures a FieldMapping at registration
type FieldOption func(*fieldOptions)

type fieldOptions struct {
	conditions      []ContextualCondition
	valueConversion ValueConversion
	queryConversion QueryConversion
}

// WithContextualConditions attaches conditions added whenever the field is used
func WithContextualConditions(conditions ...ContextualCondition) FieldOption {
	return func(o *fieldOptions) { o.conditions = append(o.conditions, conditions...) }
}

// WithValueConversion converts each value before it is put in a query
func WithValueConversion(c ValueConversion) FieldOption {
	return func(o *fieldOptions) { o.valueConversion = c }
}

// WithQueryConversion lets c build the query for the field
func WithQueryConversion(c QueryConversion) FieldOption {
	return func(o *fieldOptions) { o.queryConversion = c }
}

// parsePath splits "[/index[/type]#][child>...]property" where the property may
// contain "[]." segments for nested documents
func parsePath(path string) (index, typ string, scopes []Scope, property string, err error) {
	rest := path
	if location, p, ok := strings.Cut(path, "#"); ok {
		rest = p
		index, typ, _ = strings.Cut(strings.TrimPrefix(location, "/"), "/")
	}

	segments := strings.Split(rest, ">")
	for _, s := range segments[:len(segments)-1] {
		if s == "" {
			return "", "", nil, "", fmt.Errorf("invalid property path %q: empty child type", path)
		}
		scopes = append(scopes, Scope{Kind: ScopeChild, Name: s})
	}

	last := segments[len(segments)-1]
	parts := strings.Split(last, "[].")
	for _, p := range parts[:len(parts)-1] {
		if p == "" {
			return "", "", nil, "", fmt.Errorf("invalid property path %q: empty nested path", path)
		}
		scopes = append(scopes, Scope{Kind: ScopeNested, Name: p})
	}

	property = parts[len(parts)-1]
	if len(parts) > 1 {
		property = parts[len(parts)-2] + "." + property
	}
	if parts[len(parts)-1] == "" || strings.HasSuffix(property, ".") || strings.Contains(property, "[]") {
		return "", "", nil, "", fmt.Errorf("invalid property path %q", path)
	}
	return index, typ, scopes, property, nil
}

func (g *Generator) newMapping(name, path string, opts fieldOptions) (*FieldMapping, error) {
	path = g.params.Inject(path)
	index, typ, scopes, property, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	m := &FieldMapping{
		FieldName:       name,
		Path:            path,
		IndexName:       index,
		TypeName:        typ,
		PropertyName:    property,
		Scopes:          scopes,
		ValueConversion: opts.valueConversion,
		QueryConversion: opts.queryConversion,
	}

	for _, c := range opts.conditions {
		_, _, cscopes, cproperty, err := parsePath(c.Path)
		if err != nil {
			return nil, fmt.Errorf("contextual condition: %w", err)
		}
		m.Conditions = append(m.Conditions, Condition{
			PropertyName: cproperty,
			Scopes:       cscopes,
			Values:       g.conditionValues(c.Value),
		})
	}
	return m, nil
}

func (g *Generator) conditionValues(value any) []any {
	switch v := value.(type) {
	case string:
		return []any{g.params.Resolve(v)}
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = g.params.Inject(s)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = g.params.Inject(fmt.Sprint(item))
		}
		return out
	default:
		return []any{v}
	}
}
