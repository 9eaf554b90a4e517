package models

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestValuesBagKeepsInsertionOrderPerKind(t *testing.T) {
	bag := NewValuesBag()
	bag.AddSimpleValue(5).
		Add(NewRange(1, 2)).
		AddSimpleValue(2).
		Add(Compare{Value: 10, Operator: OpGreater}).
		Add(NewRange(10, 20)).
		AddExcludedSimpleValue(7).
		Add(NewPatternMatch("foo", PatternStartsWith))

	if got := bag.SimpleValues(); !reflect.DeepEqual(got, []any{5, 2}) {
		t.Errorf("simple values = %v, want [5 2]", got)
	}
	ranges := bag.Ranges()
	if len(ranges) != 2 || ranges[0].Lower != 1 || ranges[1].Lower != 10 {
		t.Errorf("ranges out of order: %+v", ranges)
	}
	if bag.Count() != 7 {
		t.Errorf("Count() = %d, want 7", bag.Count())
	}
	if bag.Has(KindExcludedRange) {
		t.Error("bag should not report excluded ranges")
	}
	if !bag.Has(KindPatternMatch) {
		t.Error("bag should report pattern matches")
	}

	got := bag.Get(KindSimple)
	want := []Value{SimpleValue{Value: 5}, SimpleValue{Value: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get(KindSimple) = %v, want %v", got, want)
	}
	if len(bag.Get(KindExcludedRange)) != 0 {
		t.Error("Get of an absent kind should be empty")
	}
}

func TestValuesBagAllowsDuplicates(t *testing.T) {
	bag := NewValuesBag().AddSimpleValue(1).AddSimpleValue(1)
	if len(bag.SimpleValues()) != 2 {
		t.Fatalf("expected duplicates to be kept, got %v", bag.SimpleValues())
	}
}

func TestNilBagIsEmpty(t *testing.T) {
	var bag *ValuesBag
	if !bag.IsEmpty() {
		t.Error("nil bag should be empty")
	}
}

func TestValuesGroupFieldOrder(t *testing.T) {
	g := NewValuesGroup(LogicalAnd)
	g.AddField("zeta", NewValuesBag().AddSimpleValue(1))
	g.AddField("alpha", NewValuesBag().AddSimpleValue(2))
	g.AddField("zeta", NewValuesBag().AddSimpleValue(3))

	if got := g.FieldNames(); !reflect.DeepEqual(got, []string{"zeta", "alpha"}) {
		t.Errorf("FieldNames() = %v", got)
	}
	bag, ok := g.Field("zeta")
	if !ok || bag.SimpleValues()[0] != 3 {
		t.Errorf("replacing a field should keep the new bag, got %v", bag)
	}
}

func TestValuesGroupIsEmpty(t *testing.T) {
	g := NewValuesGroup(LogicalOr)
	if !g.IsEmpty() {
		t.Error("new group should be empty")
	}

	g.AddField("id", NewValuesBag())
	g.AddGroup(NewValuesGroup(LogicalAnd).AddGroup(NewValuesGroup(LogicalOr)))
	if !g.IsEmpty() {
		t.Error("group with only empty bags and empty subgroups should be empty")
	}

	g.Groups()[0].Groups()[0].AddField("id", NewValuesBag().AddSimpleValue(1))
	if g.IsEmpty() {
		t.Error("group with a nested value should not be empty")
	}
}

func TestPatternTypeExclusive(t *testing.T) {
	tests := []struct {
		typ       PatternType
		exclusive bool
		base      PatternType
	}{
		{PatternContains, false, PatternContains},
		{PatternEquals, false, PatternEquals},
		{PatternNotContains, true, PatternContains},
		{PatternNotStartsWith, true, PatternStartsWith},
		{PatternNotEndsWith, true, PatternEndsWith},
		{PatternNotEquals, true, PatternEquals},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if tt.typ.IsExclusive() != tt.exclusive {
				t.Errorf("IsExclusive() = %v, want %v", tt.typ.IsExclusive(), tt.exclusive)
			}
			if tt.typ.Base() != tt.base {
				t.Errorf("Base() = %v, want %v", tt.typ.Base(), tt.base)
			}
		})
	}
}

func TestParsePatternType(t *testing.T) {
	typ, err := ParsePatternType("not_ends_with")
	if err != nil {
		t.Fatalf("ParsePatternType failed: %v", err)
	}
	if typ != PatternNotEndsWith {
		t.Errorf("got %v, want NOT_ENDS_WITH", typ)
	}

	_, err = ParsePatternType("REGEX")
	if !errors.Is(err, ErrUnsupportedPattern) {
		t.Fatalf("expected ErrUnsupportedPattern, got %v", err)
	}
	if !strings.Contains(err.Error(), "REGEX") {
		t.Errorf("error should name the type: %v", err)
	}
}

func TestCompareIsExclusive(t *testing.T) {
	if !(Compare{Value: 1, Operator: OpNotEqual}).IsExclusive() {
		t.Error("<> should be exclusive")
	}
	if (Compare{Value: 1, Operator: OpLessOrEqual}).IsExclusive() {
		t.Error("<= should not be exclusive")
	}
	if CompareOperator("==").Valid() {
		t.Error("== should not be a valid operator")
	}
}

func TestConditionBuilder(t *testing.T) {
	cond := NewConditionBuilder(LogicalOr).
		Field("customer").AddSimpleValue(2).End().
		Group(LogicalAnd).
		Field("status").Add(NewRange(1, 3)).End().
		Group(LogicalOr).
		Field("name").Add(NewPatternMatch("foo", PatternContains)).End().
		End().
		End().
		Field("customer").AddExcludedSimpleValue(5).End().
		Build()

	root := cond.Root()
	if root.Logical != LogicalOr {
		t.Errorf("root logical = %v, want OR", root.Logical)
	}
	bag, _ := root.Field("customer")
	if bag.Count() != 2 {
		t.Errorf("reused field should accumulate values, got %d", bag.Count())
	}
	if len(root.Groups()) != 1 || len(root.Groups()[0].Groups()) != 1 {
		t.Fatalf("unexpected group shape")
	}
	if cond.PrimaryCondition() != nil {
		t.Error("builder should not set a primary condition")
	}
}

func TestSearchConditionPrimary(t *testing.T) {
	cond := NewSearchCondition(nil)
	if !cond.IsEmpty() {
		t.Error("condition over a nil root should be empty")
	}

	primary := NewValuesGroup(LogicalAnd)
	primary.AddField("status", NewValuesBag().AddSimpleValue(1))
	cond.SetPrimaryCondition(primary)
	if cond.IsEmpty() {
		t.Error("primary values should make the condition non-empty")
	}
	cond.SetPrimaryCondition(nil)
	if cond.PrimaryCondition() != nil {
		t.Error("primary condition should be cleared")
	}
}
