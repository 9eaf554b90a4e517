package elastic

import (
	"fmt"
	"regexp"
)

// ParameterBag holds runtime values substituted into "{name}" placeholders of
// mapping paths and contextual conditions
type ParameterBag map[string]any

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_.-]+)\}`)

// Inject replaces every known placeholder with its value formatted as a string.
// Unknown placeholders are left as they are.
func (p ParameterBag) Inject(template string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		v, ok := p[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return fmt.Sprint(v)
	})
}

// Resolve works like Inject, except a template that is exactly one placeholder
// yields the parameter value itself, keeping its type
func (p ParameterBag) Resolve(template string) any {
	if loc := placeholder.FindStringIndex(template); loc != nil && loc[0] == 0 && loc[1] == len(template) {
		if v, ok := p[template[1:len(template)-1]]; ok {
			return v
		}
	}
	return p.Inject(template)
}
