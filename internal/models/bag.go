package models

// ValuesBag holds the values of one field, ordered per kind in insertion order
type ValuesBag struct {
	simple         []any
	excludedSimple []any
	ranges         []Range
	excludedRanges []ExcludedRange
	compares       []Compare
	matches        []PatternMatch
}

// NewValuesBag creates an empty bag
func NewValuesBag() *ValuesBag {
	return &ValuesBag{}
}

// Add appends a value to the list of its kind
func (b *ValuesBag) Add(v Value) *ValuesBag {
	switch v := v.(type) {
	case SimpleValue:
		b.simple = append(b.simple, v.Value)
	case ExcludedSimpleValue:
		b.excludedSimple = append(b.excludedSimple, v.Value)
	case Range:
		b.ranges = append(b.ranges, v)
	case ExcludedRange:
		b.excludedRanges = append(b.excludedRanges, v)
	case Compare:
		b.compares = append(b.compares, v)
	case PatternMatch:
		b.matches = append(b.matches, v)
	}
	return b
}

// AddSimpleValue appends a plain value
func (b *ValuesBag) AddSimpleValue(v any) *ValuesBag {
	b.simple = append(b.simple, v)
	return b
}

// AddExcludedSimpleValue appends a plain excluded value
func (b *ValuesBag) AddExcludedSimpleValue(v any) *ValuesBag {
	b.excludedSimple = append(b.excludedSimple, v)
	return b
}

// Has reports whether the bag holds at least one value of the kind
func (b *ValuesBag) Has(kind ValueKind) bool {
	switch kind {
	case KindSimple:
		return len(b.simple) > 0
	case KindExcludedSimple:
		return len(b.excludedSimple) > 0
	case KindRange:
		return len(b.ranges) > 0
	case KindExcludedRange:
		return len(b.excludedRanges) > 0
	case KindCompare:
		return len(b.compares) > 0
	case KindPatternMatch:
		return len(b.matches) > 0
	}
	return false
}

// Get returns the values of a kind in insertion order
func (b *ValuesBag) Get(kind ValueKind) []Value {
	var out []Value
	switch kind {
	case KindSimple:
		for _, v := range b.simple {
			out = append(out, SimpleValue{Value: v})
		}
	case KindExcludedSimple:
		for _, v := range b.excludedSimple {
			out = append(out, ExcludedSimpleValue{Value: v})
		}
	case KindRange:
		for _, v := range b.ranges {
			out = append(out, v)
		}
	case KindExcludedRange:
		for _, v := range b.excludedRanges {
			out = append(out, v)
		}
	case KindCompare:
		for _, v := range b.compares {
			out = append(out, v)
		}
	case KindPatternMatch:
		for _, v := range b.matches {
			out = append(out, v)
		}
	}
	return out
}

func (b *ValuesBag) SimpleValues() []any             { return b.simple }
func (b *ValuesBag) ExcludedSimpleValues() []any     { return b.excludedSimple }
func (b *ValuesBag) Ranges() []Range                 { return b.ranges }
func (b *ValuesBag) ExcludedRanges() []ExcludedRange { return b.excludedRanges }
func (b *ValuesBag) Compares() []Compare             { return b.compares }
func (b *ValuesBag) PatternMatches() []PatternMatch  { return b.matches }

// Count returns the total number of values across all kinds
func (b *ValuesBag) Count() int {
	if b == nil {
		return 0
	}
	return len(b.simple) + len(b.excludedSimple) + len(b.ranges) +
		len(b.excludedRanges) + len(b.compares) + len(b.matches)
}

// IsEmpty reports whether the bag holds no values
func (b *ValuesBag) IsEmpty() bool {
	return b.Count() == 0
}
