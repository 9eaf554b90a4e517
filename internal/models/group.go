package models

import (
	"fmt"
	"strings"
)

// GroupLogical combines the fields and subgroups of a ValuesGroup
type GroupLogical int

const (
	LogicalAnd GroupLogical = iota
	LogicalOr
)

func (l GroupLogical) String() string {
	if l == LogicalOr {
		return "OR"
	}
	return "AND"
}

// ParseGroupLogical resolves "AND" or "OR", case-insensitively. Empty means AND.
func ParseGroupLogical(s string) (GroupLogical, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return LogicalAnd, nil
	case "OR":
		return LogicalOr, nil
	default:
		return LogicalAnd, fmt.Errorf("invalid group logical: %s", s)
	}
}

// ValuesGroup is a node of the condition tree: named fields plus nested groups,
// combined with AND or OR
type ValuesGroup struct {
	Logical GroupLogical

	fieldNames []string
	fields     map[string]*ValuesBag
	groups     []*ValuesGroup
}

// NewValuesGroup creates an empty group
func NewValuesGroup(logical GroupLogical) *ValuesGroup {
	return &ValuesGroup{
		Logical: logical,
		fields:  make(map[string]*ValuesBag),
	}
}

// AddField sets the bag for a field. An existing field keeps its position.
func (g *ValuesGroup) AddField(name string, bag *ValuesBag) *ValuesGroup {
	if g.fields == nil {
		g.fields = make(map[string]*ValuesBag)
	}
	if _, ok := g.fields[name]; !ok {
		g.fieldNames = append(g.fieldNames, name)
	}
	g.fields[name] = bag
	return g
}

// Field returns the bag of a field
func (g *ValuesGroup) Field(name string) (*ValuesBag, bool) {
	bag, ok := g.fields[name]
	return bag, ok
}

// HasField reports whether the group holds the field
func (g *ValuesGroup) HasField(name string) bool {
	_, ok := g.fields[name]
	return ok
}

// FieldNames returns field names in insertion order
func (g *ValuesGroup) FieldNames() []string {
	names := make([]string, len(g.fieldNames))
	copy(names, g.fieldNames)
	return names
}

// AddGroup appends a subgroup
func (g *ValuesGroup) AddGroup(sub *ValuesGroup) *ValuesGroup {
	g.groups = append(g.groups, sub)
	return g
}

// Groups returns the subgroups in insertion order
func (g *ValuesGroup) Groups() []*ValuesGroup {
	return g.groups
}

func (g *ValuesGroup) HasFields() bool { return len(g.fieldNames) > 0 }
func (g *ValuesGroup) HasGroups() bool { return len(g.groups) > 0 }

// IsEmpty reports whether no field in the group or any subgroup holds a value
func (g *ValuesGroup) IsEmpty() bool {
	if g == nil {
		return true
	}
	for _, name := range g.fieldNames {
		if !g.fields[name].IsEmpty() {
			return false
		}
	}
	for _, sub := range g.groups {
		if !sub.IsEmpty() {
			return false
		}
	}
	return true
}
