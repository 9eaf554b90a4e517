package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Condition documents look like:
//
//	logical: OR
//	fields:
//	  customer:
//	    simple: [2, 5]
//	    ranges: [{lower: 1, upper: 10, upper_inclusive: false}]
//	groups:
//	  - fields: {...}
//	primary:
//	  fields: {...}
//
// Field order is preserved in both directions.

type groupDoc struct {
	Logical string     `yaml:"logical,omitempty"`
	Fields  yaml.Node  `yaml:"fields,omitempty"`
	Groups  []groupDoc `yaml:"groups,omitempty"`
}

type conditionDoc struct {
	groupDoc `yaml:",inline"`
	Primary  *groupDoc `yaml:"primary,omitempty"`
}

type bagDoc struct {
	Simple         []any        `yaml:"simple,omitempty"`
	Excluded       []any        `yaml:"excluded,omitempty"`
	Ranges         []rangeDoc   `yaml:"ranges,omitempty"`
	ExcludedRanges []rangeDoc   `yaml:"excluded_ranges,omitempty"`
	Compares       []compareDoc `yaml:"compares,omitempty"`
	Matches        []matchDoc   `yaml:"matches,omitempty"`
}

type rangeDoc struct {
	Lower          any   `yaml:"lower"`
	Upper          any   `yaml:"upper"`
	LowerInclusive *bool `yaml:"lower_inclusive,omitempty"`
	UpperInclusive *bool `yaml:"upper_inclusive,omitempty"`
}

type compareDoc struct {
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

type matchDoc struct {
	Type            string `yaml:"type"`
	Value           string `yaml:"value"`
	CaseInsensitive bool   `yaml:"case_insensitive,omitempty"`
}

// DecodeCondition parses a condition document
func DecodeCondition(data []byte) (*SearchCondition, error) {
	var doc conditionDoc
	if err := decodeStrict(data, &doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse condition: %w", err)
	}

	root, err := doc.groupDoc.toGroup()
	if err != nil {
		return nil, err
	}
	cond := NewSearchCondition(root)

	if doc.Primary != nil {
		primary, err := doc.Primary.toGroup()
		if err != nil {
			return nil, fmt.Errorf("primary: %w", err)
		}
		cond.SetPrimaryCondition(primary)
	}
	return cond, nil
}

// EncodeCondition renders a condition document that DecodeCondition reads back
func EncodeCondition(cond *SearchCondition) ([]byte, error) {
	root, err := fromGroup(cond.Root())
	if err != nil {
		return nil, err
	}
	doc := conditionDoc{groupDoc: root}
	if cond.PrimaryCondition() != nil {
		primary, err := fromGroup(cond.PrimaryCondition())
		if err != nil {
			return nil, err
		}
		doc.Primary = &primary
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode condition: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func (d groupDoc) toGroup() (*ValuesGroup, error) {
	logical, err := ParseGroupLogical(d.Logical)
	if err != nil {
		return nil, err
	}
	group := NewValuesGroup(logical)

	if d.Fields.Kind != 0 {
		if d.Fields.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: fields must be a mapping", d.Fields.Line)
		}
		for i := 0; i+1 < len(d.Fields.Content); i += 2 {
			name := d.Fields.Content[i].Value
			raw, err := yaml.Marshal(d.Fields.Content[i+1])
			if err != nil {
				return nil, err
			}
			var bd bagDoc
			if err := decodeStrict(raw, &bd); err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			bag, err := bd.toBag()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			group.AddField(name, bag)
		}
	}

	for i, sub := range d.Groups {
		g, err := sub.toGroup()
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		group.AddGroup(g)
	}
	return group, nil
}

func (d bagDoc) toBag() (*ValuesBag, error) {
	bag := NewValuesBag()
	for _, v := range d.Simple {
		bag.AddSimpleValue(v)
	}
	for _, v := range d.Excluded {
		bag.AddExcludedSimpleValue(v)
	}
	for _, r := range d.Ranges {
		bag.Add(Range{
			Lower:          r.Lower,
			Upper:          r.Upper,
			LowerInclusive: boolOr(r.LowerInclusive, true),
			UpperInclusive: boolOr(r.UpperInclusive, true),
		})
	}
	for _, r := range d.ExcludedRanges {
		bag.Add(ExcludedRange{
			Lower:          r.Lower,
			Upper:          r.Upper,
			LowerInclusive: boolOr(r.LowerInclusive, true),
			UpperInclusive: boolOr(r.UpperInclusive, true),
		})
	}
	for _, c := range d.Compares {
		op := CompareOperator(c.Operator)
		if !op.Valid() {
			return nil, &UnsupportedOperatorError{Operator: c.Operator}
		}
		bag.Add(Compare{Value: c.Value, Operator: op})
	}
	for _, m := range d.Matches {
		t, err := ParsePatternType(m.Type)
		if err != nil {
			return nil, err
		}
		bag.Add(PatternMatch{Value: m.Value, Type: t, CaseInsensitive: m.CaseInsensitive})
	}
	return bag, nil
}

func fromGroup(g *ValuesGroup) (groupDoc, error) {
	d := groupDoc{}
	if g.Logical == LogicalOr {
		d.Logical = g.Logical.String()
	}

	if g.HasFields() {
		d.Fields = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, name := range g.FieldNames() {
			bag, _ := g.Field(name)
			var value yaml.Node
			if err := value.Encode(fromBag(bag)); err != nil {
				return d, fmt.Errorf("field %q: %w", name, err)
			}
			key := yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
			d.Fields.Content = append(d.Fields.Content, &key, &value)
		}
	}

	for _, sub := range g.Groups() {
		sd, err := fromGroup(sub)
		if err != nil {
			return d, err
		}
		d.Groups = append(d.Groups, sd)
	}
	return d, nil
}

func fromBag(b *ValuesBag) bagDoc {
	var d bagDoc
	if b == nil {
		return d
	}
	d.Simple = b.SimpleValues()
	d.Excluded = b.ExcludedSimpleValues()
	for _, r := range b.Ranges() {
		d.Ranges = append(d.Ranges, rangeDoc{
			Lower:          r.Lower,
			Upper:          r.Upper,
			LowerInclusive: exclusiveOnly(r.LowerInclusive),
			UpperInclusive: exclusiveOnly(r.UpperInclusive),
		})
	}
	for _, r := range b.ExcludedRanges() {
		d.ExcludedRanges = append(d.ExcludedRanges, rangeDoc{
			Lower:          r.Lower,
			Upper:          r.Upper,
			LowerInclusive: exclusiveOnly(r.LowerInclusive),
			UpperInclusive: exclusiveOnly(r.UpperInclusive),
		})
	}
	for _, c := range b.Compares() {
		d.Compares = append(d.Compares, compareDoc{Operator: string(c.Operator), Value: c.Value})
	}
	for _, m := range b.PatternMatches() {
		d.Matches = append(d.Matches, matchDoc{Type: m.Type.String(), Value: m.Value, CaseInsensitive: m.CaseInsensitive})
	}
	return d
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// exclusiveOnly omits the default (inclusive) bound flag from the output
func exclusiveOnly(inclusive bool) *bool {
	if inclusive {
		return nil
	}
	f := false
	return &f
}
