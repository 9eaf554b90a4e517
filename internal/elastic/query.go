package elastic

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rebeliceyang/lazysearch/internal/models"
)

// maxIdentifierRange bounds the ids enumerated for a range on _id
const maxIdentifierRange = 10000

// ErrIdentifierRange is returned when a range on _id cannot be enumerated
var ErrIdentifierRange = errors.New("identifier range cannot be enumerated")

var comparisonOperators = map[models.CompareOperator]string{
	models.OpLess:           "lt",
	models.OpLessOrEqual:    "lte",
	models.OpGreater:        "gt",
	models.OpGreaterOrEqual: "gte",
}

// boolQuery collects the clauses of one bool query in insertion order
type boolQuery map[string][]any

func (b boolQuery) add(occur string, q map[string]any) {
	b[occur] = append(b[occur], q)
}

func (b boolQuery) query() map[string]any {
	clauses := make(map[string]any, len(b))
	for occur, qs := range b {
		clauses[occur] = qs
	}
	return map[string]any{"bool": clauses}
}

// processGroup returns nil for a group without values
func (g *Generator) processGroup(group *models.ValuesGroup) (map[string]any, error) {
	including := boolMust
	if group.Logical == models.LogicalOr {
		including = boolShould
	}

	b := boolQuery{}
	for _, name := range group.FieldNames() {
		bag, _ := group.Field(name)
		if bag.IsEmpty() {
			continue
		}
		mappings, ok := g.mappings[name]
		if !ok {
			return nil, &models.UnknownFieldError{Field: name}
		}
		if err := g.processField(b, including, mappings, bag); err != nil {
			return nil, err
		}
	}

	for _, sub := range group.Groups() {
		q, err := g.processGroup(sub)
		if err != nil {
			return nil, err
		}
		if q != nil {
			b.add(boolMust, q)
		}
	}

	if len(b) == 0 {
		return nil, nil
	}
	return b.query(), nil
}

type fragmentFunc func(m *FieldMapping) (map[string]any, error)

func (g *Generator) processField(b boolQuery, including string, mappings []*FieldMapping, bag *models.ValuesBag) error {
	emit := func(occur string, fn fragmentFunc) error {
		q, err := g.fieldQuery(mappings, occur != boolMustNot, fn)
		if err != nil {
			return err
		}
		b.add(occur, q)
		return nil
	}

	if bag.Has(models.KindSimple) {
		values := bag.SimpleValues()
		if err := emit(including, func(m *FieldMapping) (map[string]any, error) {
			return g.simpleQuery(m, ContextSimpleValues, values)
		}); err != nil {
			return err
		}
	}
	if bag.Has(models.KindExcludedSimple) {
		values := bag.ExcludedSimpleValues()
		if err := emit(boolMustNot, func(m *FieldMapping) (map[string]any, error) {
			return g.simpleQuery(m, ContextExcludedSimpleValues, values)
		}); err != nil {
			return err
		}
	}

	for _, r := range bag.Ranges() {
		if err := emit(including, func(m *FieldMapping) (map[string]any, error) {
			return g.rangeQuery(m, ContextRange, r.Lower, r.Upper, r.LowerInclusive, r.UpperInclusive)
		}); err != nil {
			return err
		}
	}
	for _, r := range bag.ExcludedRanges() {
		if err := emit(boolMustNot, func(m *FieldMapping) (map[string]any, error) {
			return g.rangeQuery(m, ContextExcludedRange, r.Lower, r.Upper, r.LowerInclusive, r.UpperInclusive)
		}); err != nil {
			return err
		}
	}

	for _, c := range bag.Compares() {
		occur := including
		if c.IsExclusive() {
			occur = boolMustNot
		}
		if err := emit(occur, func(m *FieldMapping) (map[string]any, error) {
			return g.compareQuery(m, c)
		}); err != nil {
			return err
		}
	}

	for _, p := range bag.PatternMatches() {
		occur := including
		if p.Type.IsExclusive() {
			occur = boolMustNot
		}
		if err := emit(occur, func(m *FieldMapping) (map[string]any, error) {
			return g.patternQuery(m, p)
		}); err != nil {
			return err
		}
	}
	return nil
}

// fieldQuery renders fn for every mapping of a field and scopes the result
func (g *Generator) fieldQuery(mappings []*FieldMapping, includes bool, fn fragmentFunc) (map[string]any, error) {
	queries := make([]any, 0, len(mappings))
	for _, m := range mappings {
		q, err := fn(m)
		if err != nil {
			return nil, err
		}
		queries = append(queries, scopeQuery(m, q, includes))
	}
	if len(queries) == 1 {
		return queries[0].(map[string]any), nil
	}
	return map[string]any{"bool": map[string]any{boolShould: queries}}, nil
}

func scopeQuery(m *FieldMapping, q map[string]any, includes bool) map[string]any {
	var same, others []Condition
	for _, c := range m.Conditions {
		if sameScopes(c.Scopes, m.Scopes) {
			same = append(same, c)
		} else {
			others = append(others, c)
		}
	}

	if len(same) > 0 {
		must := []any{q}
		for _, c := range same {
			must = append(must, c.query())
		}
		q = map[string]any{"bool": map[string]any{boolMust: must}}
	}
	q = wrapScopes(q, m.Scopes)

	if !includes || len(others) == 0 {
		return q
	}
	must := []any{q}
	for _, c := range others {
		must = append(must, wrapScopes(c.query(), c.Scopes))
	}
	return map[string]any{"bool": map[string]any{boolMust: must}}
}

func (g *Generator) convert(m *FieldMapping, hints QueryHints, value any) (any, error) {
	if m.ValueConversion == nil {
		return value, nil
	}
	return m.ValueConversion.ConvertValue(value, hints)
}

func (g *Generator) hints(m *FieldMapping, ctx QueryContext) QueryHints {
	return QueryHints{Field: m, Context: ctx, Identifier: m.PropertyName == propertyID}
}

// custom returns the query of the mapping's query conversion, or nil when the
// default rendering applies
func custom(m *FieldMapping, value any, hints QueryHints) (map[string]any, error) {
	if m.QueryConversion == nil {
		return nil, nil
	}
	return m.QueryConversion.ConvertQuery(m.PropertyName, value, hints)
}

func (g *Generator) simpleQuery(m *FieldMapping, ctx QueryContext, values []any) (map[string]any, error) {
	hints := g.hints(m, ctx)
	converted := make([]any, len(values))
	for i, v := range values {
		c, err := g.convert(m, hints, v)
		if err != nil {
			return nil, err
		}
		converted[i] = c
	}

	if q, err := custom(m, converted, hints); q != nil || err != nil {
		return q, err
	}
	if hints.Identifier {
		return map[string]any{"ids": map[string]any{"values": converted}}, nil
	}
	return map[string]any{"terms": map[string]any{m.PropertyName: converted}}, nil
}

func (g *Generator) rangeQuery(m *FieldMapping, ctx QueryContext, lower, upper any, lowerInc, upperInc bool) (map[string]any, error) {
	hints := g.hints(m, ctx)
	lower, err := g.convert(m, hints, lower)
	if err != nil {
		return nil, err
	}
	upper, err = g.convert(m, hints, upper)
	if err != nil {
		return nil, err
	}

	var value models.Value
	if ctx == ContextExcludedRange {
		value = models.ExcludedRange{Lower: lower, Upper: upper, LowerInclusive: lowerInc, UpperInclusive: upperInc}
	} else {
		value = models.Range{Lower: lower, Upper: upper, LowerInclusive: lowerInc, UpperInclusive: upperInc}
	}
	if q, err := custom(m, value, hints); q != nil || err != nil {
		return q, err
	}

	if hints.Identifier {
		ids, err := enumerateIdentifiers(lower, upper, lowerInc, upperInc)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", m.FieldName, err)
		}
		return map[string]any{"ids": map[string]any{"values": ids}}, nil
	}

	lowerOp, upperOp := "gt", "lt"
	if lowerInc {
		lowerOp = "gte"
	}
	if upperInc {
		upperOp = "lte"
	}
	return map[string]any{"range": map[string]any{
		m.PropertyName: map[string]any{lowerOp: lower, upperOp: upper},
	}}, nil
}

func (g *Generator) compareQuery(m *FieldMapping, c models.Compare) (map[string]any, error) {
	hints := g.hints(m, ContextComparison)
	v, err := g.convert(m, hints, c.Value)
	if err != nil {
		return nil, err
	}
	c.Value = v

	if q, err := custom(m, c, hints); q != nil || err != nil {
		return q, err
	}
	if c.Operator == models.OpNotEqual {
		return map[string]any{"term": map[string]any{
			m.PropertyName: map[string]any{"value": v},
		}}, nil
	}
	op, ok := comparisonOperators[c.Operator]
	if !ok {
		return nil, &models.UnsupportedOperatorError{Operator: string(c.Operator)}
	}
	return map[string]any{m.PropertyName: map[string]any{op: v}}, nil
}

func (g *Generator) patternQuery(m *FieldMapping, p models.PatternMatch) (map[string]any, error) {
	hints := g.hints(m, ContextPatternMatch)
	v, err := g.convert(m, hints, p.Value)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		p.Value = s
	} else {
		p.Value = fmt.Sprint(v)
	}

	if q, err := custom(m, p, hints); q != nil || err != nil {
		return q, err
	}

	var kind string
	params := map[string]any{"value": p.Value}
	switch p.Type.Base() {
	case models.PatternContains:
		return map[string]any{"match": map[string]any{
			m.PropertyName: map[string]any{"query": p.Value},
		}}, nil
	case models.PatternStartsWith:
		kind = "prefix"
	case models.PatternEndsWith:
		kind = "wildcard"
		params["value"] = "?" + escapeWildcard(p.Value)
	case models.PatternEquals:
		kind = "term"
	default:
		return nil, &models.UnsupportedPatternError{Type: p.Type.String()}
	}
	if p.CaseInsensitive {
		params["case_insensitive"] = true
	}
	return map[string]any{kind: map[string]any{m.PropertyName: params}}, nil
}

var wildcardEscaper = strings.NewReplacer(`?`, `\?`, `*`, `\*`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

func enumerateIdentifiers(lower, upper any, lowerInc, upperInc bool) ([]any, error) {
	lo, ok1 := toInt64(lower)
	hi, ok2 := toInt64(upper)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: bounds %v and %v are not 64-bit integers", ErrIdentifierRange, lower, upper)
	}
	if !lowerInc {
		if lo == math.MaxInt64 {
			return []any{}, nil
		}
		lo++
	}
	if !upperInc {
		if hi == math.MinInt64 {
			return []any{}, nil
		}
		hi--
	}
	if hi < lo {
		return []any{}, nil
	}
	// hi-lo may not fit in an int64
	if uint64(hi)-uint64(lo) >= maxIdentifierRange {
		return nil, fmt.Errorf("%w: more than %d identifiers", ErrIdentifierRange, maxIdentifierRange)
	}

	n := hi - lo
	ids := make([]any, 0, n+1)
	for i := int64(0); i <= n; i++ {
		ids = append(ids, lo+i)
	}
	return ids, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	default:
		return 0, false
	}
}
