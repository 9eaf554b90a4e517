package models

// GroupBuilder builds a ValuesGroup fluently:
//
//	cond := models.NewConditionBuilder(models.LogicalAnd).
//	    Field("customer").AddSimpleValue(2).AddSimpleValue(5).End().
//	    Group(models.LogicalOr).
//	        Field("status").Add(models.NewRange(1, 3)).End().
//	    End().
//	    Build()
type GroupBuilder struct {
	group  *ValuesGroup
	parent *GroupBuilder
}

// FieldBuilder adds values to one field of a group
type FieldBuilder struct {
	bag    *ValuesBag
	parent *GroupBuilder
}

// NewConditionBuilder starts a condition with a root group of the given logical
func NewConditionBuilder(logical GroupLogical) *GroupBuilder {
	return &GroupBuilder{group: NewValuesGroup(logical)}
}

// Field returns a builder for the named field, reusing an existing bag
func (b *GroupBuilder) Field(name string) *FieldBuilder {
	bag, ok := b.group.Field(name)
	if !ok {
		bag = NewValuesBag()
		b.group.AddField(name, bag)
	}
	return &FieldBuilder{bag: bag, parent: b}
}

// Group starts a nested group
func (b *GroupBuilder) Group(logical GroupLogical) *GroupBuilder {
	sub := NewValuesGroup(logical)
	b.group.AddGroup(sub)
	return &GroupBuilder{group: sub, parent: b}
}

// End returns to the parent group. On the root it returns the root itself.
func (b *GroupBuilder) End() *GroupBuilder {
	if b.parent == nil {
		return b
	}
	return b.parent
}

// ValuesGroup returns the group being built
func (b *GroupBuilder) ValuesGroup() *ValuesGroup {
	return b.group
}

// Build returns the condition rooted at the outermost group
func (b *GroupBuilder) Build() *SearchCondition {
	root := b
	for root.parent != nil {
		root = root.parent
	}
	return NewSearchCondition(root.group)
}

func (f *FieldBuilder) Add(v Value) *FieldBuilder {
	f.bag.Add(v)
	return f
}

func (f *FieldBuilder) AddSimpleValue(v any) *FieldBuilder {
	f.bag.AddSimpleValue(v)
	return f
}

func (f *FieldBuilder) AddExcludedSimpleValue(v any) *FieldBuilder {
	f.bag.AddExcludedSimpleValue(v)
	return f
}

// End returns to the owning group
func (f *FieldBuilder) End() *GroupBuilder {
	return f.parent
}
