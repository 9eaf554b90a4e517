package filter

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazysearch/internal/models"
)

// compiler holds the state of a single Build call
type compiler struct {
	gen  *Generator
	args []any
}

// group builds a group as "(f1 OP f2)", "(sg1 OP sg2)" or "((f1 OP f2) OP (sg1) OP (sg2))"
func (c *compiler) group(group *models.ValuesGroup) (string, error) {
	var fields, groups []string

	for _, name := range group.FieldNames() {
		bag, _ := group.Field(name)
		if bag.IsEmpty() {
			continue
		}
		clause, err := c.field(name, bag)
		if err != nil {
			return "", err
		}
		if clause != "" {
			fields = append(fields, clause)
		}
	}

	for _, subGroup := range group.Groups() {
		clause, err := c.group(subGroup)
		if err != nil {
			return "", err
		}
		if clause != "" {
			groups = append(groups, clause)
		}
	}

	logic := " " + group.Logical.String() + " "

	switch {
	case len(fields) == 0 && len(groups) == 0:
		return "", nil
	case len(groups) == 0:
		return "(" + strings.Join(fields, logic) + ")", nil
	case len(fields) == 0:
		return "(" + strings.Join(groups, logic) + ")", nil
	}

	clauses := []string{"(" + strings.Join(fields, logic) + ")"}
	for _, clause := range groups {
		clauses = append(clauses, "("+clause+")")
	}
	return "(" + strings.Join(clauses, logic) + ")", nil
}

// field builds the fragment of one field, OR-ing the columns of a combined field
func (c *compiler) field(name string, bag *models.ValuesBag) (string, error) {
	mappings, ok := c.gen.fields[name]
	if !ok {
		return "", &models.UnknownFieldError{Field: name}
	}

	var bodies []string
	compound := false
	for _, m := range mappings {
		include, exclude, err := c.fieldParts(m, bag)
		if err != nil {
			return "", err
		}
		switch {
		case include != "" && exclude != "":
			bodies = append(bodies, include+" AND "+exclude)
			compound = true
		case include != "":
			bodies = append(bodies, include)
		case exclude != "":
			bodies = append(bodies, exclude)
		}
	}

	switch len(bodies) {
	case 0:
		return "", nil
	case 1:
		return "(" + bodies[0] + ")", nil
	}

	if compound {
		for i, body := range bodies {
			bodies[i] = "(" + body + ")"
		}
	}
	return "((" + strings.Join(bodies, " OR ") + "))", nil
}

// fieldParts returns the including part (OR-ed) and the excluding part (AND-ed)
// of a field for one mapping
func (c *compiler) fieldParts(m *FieldMapping, bag *models.ValuesBag) (string, string, error) {
	conversion, err := m.Conversion()
	if err != nil {
		return "", "", err
	}

	var include, exclude []string
	add := func(list *[]string, part string, err error) error {
		if err != nil {
			return err
		}
		if part != "" {
			*list = append(*list, part)
		}
		return nil
	}

	if bag.Has(models.KindSimple) {
		part, err := c.simpleValues(m, conversion, bag.SimpleValues(), false)
		if err := add(&include, part, err); err != nil {
			return "", "", err
		}
	}
	if bag.Has(models.KindRange) {
		part, err := c.ranges(m, conversion, bag.Ranges())
		if err := add(&include, part, err); err != nil {
			return "", "", err
		}
	}
	if bag.Has(models.KindCompare) {
		part, err := c.compares(m, conversion, bag.Compares(), false)
		if err := add(&include, part, err); err != nil {
			return "", "", err
		}
	}
	if bag.Has(models.KindPatternMatch) {
		part, err := c.patterns(m, conversion, bag.PatternMatches(), false)
		if err := add(&include, part, err); err != nil {
			return "", "", err
		}
	}

	if bag.Has(models.KindExcludedSimple) {
		part, err := c.simpleValues(m, conversion, bag.ExcludedSimpleValues(), true)
		if err := add(&exclude, part, err); err != nil {
			return "", "", err
		}
	}
	if bag.Has(models.KindExcludedRange) {
		part, err := c.excludedRanges(m, conversion, bag.ExcludedRanges())
		if err := add(&exclude, part, err); err != nil {
			return "", "", err
		}
	}
	if bag.Has(models.KindCompare) {
		part, err := c.compares(m, conversion, bag.Compares(), true)
		if err := add(&exclude, part, err); err != nil {
			return "", "", err
		}
	}
	if bag.Has(models.KindPatternMatch) {
		part, err := c.patterns(m, conversion, bag.PatternMatches(), true)
		if err := add(&exclude, part, err); err != nil {
			return "", "", err
		}
	}

	return wrapJoin(include, " OR "), wrapJoin(exclude, " AND "), nil
}

func (c *compiler) simpleValues(m *FieldMapping, conversion any, values []any, exclude bool) (string, error) {
	if !convertsPerValue(conversion) {
		column, err := c.column(m, conversion, 0)
		if err != nil {
			return "", err
		}
		literals := make([]string, 0, len(values))
		for _, v := range values {
			lit, err := c.literal(v)
			if err != nil {
				return "", err
			}
			literals = append(literals, lit)
		}
		op := "IN"
		if exclude {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s(%s)", column, op, strings.Join(literals, ", ")), nil
	}

	op, sep := "=", " OR "
	if exclude {
		op, sep = "<>", " AND "
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		column, value, err := c.operands(m, conversion, v)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", column, op, value))
	}
	return wrapJoin(parts, sep), nil
}

func (c *compiler) ranges(m *FieldMapping, conversion any, ranges []models.Range) (string, error) {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		column, lower, upper, err := c.bounds(m, conversion, r.Lower, r.Upper)
		if err != nil {
			return "", err
		}
		lowerOp, upperOp := ">=", "<="
		if !r.LowerInclusive {
			lowerOp = ">"
		}
		if !r.UpperInclusive {
			upperOp = "<"
		}
		parts = append(parts, fmt.Sprintf("(%s %s %s AND %s %s %s)", column, lowerOp, lower, column, upperOp, upper))
	}
	return wrapJoin(parts, " OR "), nil
}

func (c *compiler) excludedRanges(m *FieldMapping, conversion any, ranges []models.ExcludedRange) (string, error) {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		column, lower, upper, err := c.bounds(m, conversion, r.Lower, r.Upper)
		if err != nil {
			return "", err
		}
		lowerOp, upperOp := "<=", ">="
		if !r.LowerInclusive {
			lowerOp = "<"
		}
		if !r.UpperInclusive {
			upperOp = ">"
		}
		parts = append(parts, fmt.Sprintf("(%s %s %s OR %s %s %s)", column, lowerOp, lower, column, upperOp, upper))
	}
	return wrapJoin(parts, " AND "), nil
}

// compares renders the narrowing comparisons, or with exclusive set the "<>" ones.
// Exclusive comparisons are AND-ed without parentheses.
func (c *compiler) compares(m *FieldMapping, conversion any, compares []models.Compare, exclusive bool) (string, error) {
	var parts []string
	for _, cmp := range compares {
		if !cmp.Operator.Valid() {
			return "", &models.UnsupportedOperatorError{Operator: string(cmp.Operator)}
		}
		if cmp.IsExclusive() != exclusive {
			continue
		}
		column, value, err := c.operands(m, conversion, cmp.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", column, cmp.Operator, value))
	}
	if exclusive {
		return strings.Join(parts, " AND "), nil
	}
	return wrapJoin(parts, " AND "), nil
}

func (c *compiler) patterns(m *FieldMapping, conversion any, matches []models.PatternMatch, exclusive bool) (string, error) {
	var parts []string
	for _, match := range matches {
		if match.IsExclusive() != exclusive {
			continue
		}
		part, err := c.pattern(m, conversion, match)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if exclusive {
		return wrapJoin(parts, " AND "), nil
	}
	return wrapJoin(parts, " OR "), nil
}

func (c *compiler) pattern(m *FieldMapping, conversion any, match models.PatternMatch) (string, error) {
	var value string
	like := true
	switch match.Type.Base() {
	case models.PatternContains:
		value = "%" + escapeLike(match.Value) + "%"
	case models.PatternStartsWith:
		value = escapeLike(match.Value) + "%"
	case models.PatternEndsWith:
		value = "%" + escapeLike(match.Value)
	case models.PatternEquals:
		value = match.Value
		like = false
	default:
		return "", &models.UnsupportedPatternError{Type: match.Type.String()}
	}

	strategy, err := c.strategy(m, conversion, match.Value)
	if err != nil {
		return "", err
	}
	column, err := c.column(m, conversion, strategy)
	if err != nil {
		return "", err
	}
	lit, err := c.literal(value)
	if err != nil {
		return "", err
	}
	if match.CaseInsensitive {
		column = c.gen.dialect.CaseFold(column)
		lit = c.gen.dialect.CaseFold(lit)
	}

	if !like {
		op := "="
		if match.IsExclusive() {
			op = "<>"
		}
		return fmt.Sprintf("%s %s %s", column, op, lit), nil
	}

	escape, err := c.gen.dialect.QuoteLiteral(`\`)
	if err != nil {
		return "", err
	}
	op := "LIKE"
	if match.IsExclusive() {
		op = "NOT LIKE"
	}
	return fmt.Sprintf("%s %s %s ESCAPE %s", column, op, lit, escape), nil
}

// operands resolves the strategy of a value and returns the converted column and value
func (c *compiler) operands(m *FieldMapping, conversion any, v any) (string, string, error) {
	strategy, err := c.strategy(m, conversion, v)
	if err != nil {
		return "", "", err
	}
	column, err := c.column(m, conversion, strategy)
	if err != nil {
		return "", "", err
	}
	value, err := c.value(m, conversion, v, strategy)
	if err != nil {
		return "", "", err
	}
	return column, value, nil
}

// bounds resolves the strategy from the lower bound and converts both bounds with it
func (c *compiler) bounds(m *FieldMapping, conversion any, lower, upper any) (string, string, string, error) {
	strategy, err := c.strategy(m, conversion, lower)
	if err != nil {
		return "", "", "", err
	}
	column, err := c.column(m, conversion, strategy)
	if err != nil {
		return "", "", "", err
	}
	lo, err := c.value(m, conversion, lower, strategy)
	if err != nil {
		return "", "", "", err
	}
	hi, err := c.value(m, conversion, upper, strategy)
	if err != nil {
		return "", "", "", err
	}
	return column, lo, hi, nil
}

func (c *compiler) hints(m *FieldMapping, strategy int) ConversionHints {
	return ConversionHints{
		Field:    m,
		Column:   m.ColumnRef(),
		Strategy: strategy,
		Dialect:  c.gen.dialect,
		literal:  c.literal,
	}
}

func (c *compiler) strategy(m *FieldMapping, conversion any, v any) (int, error) {
	if s, ok := conversion.(ConversionStrategy); ok {
		return s.ConversionStrategy(v, c.hints(m, 0))
	}
	return 0, nil
}

func (c *compiler) column(m *FieldMapping, conversion any, strategy int) (string, error) {
	if cc, ok := conversion.(ColumnConversion); ok {
		return cc.ConvertColumn(m.ColumnRef(), c.hints(m, strategy))
	}
	return m.ColumnRef(), nil
}

func (c *compiler) value(m *FieldMapping, conversion any, v any, strategy int) (string, error) {
	if vc, ok := conversion.(ValueConversion); ok {
		return vc.ConvertValue(v, c.hints(m, strategy))
	}
	return c.literal(v)
}

// literal quotes v inline, or binds it when bind vars are enabled
func (c *compiler) literal(v any) (string, error) {
	if !c.gen.bindVars {
		return c.gen.dialect.QuoteLiteral(v)
	}
	c.args = append(c.args, v)
	return "?", nil
}

func convertsPerValue(conversion any) bool {
	_, values := conversion.(ValueConversion)
	_, strategy := conversion.(ConversionStrategy)
	return values || strategy
}

// wrapJoin joins parts with sep, parenthesized when there is more than one
func wrapJoin(parts []string, sep string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
