package models

// SearchCondition is the root of a condition tree, optionally paired with a
// primary condition that is always AND-ed with it
type SearchCondition struct {
	root    *ValuesGroup
	primary *ValuesGroup
}

// NewSearchCondition wraps a root group. A nil root becomes an empty AND group.
func NewSearchCondition(root *ValuesGroup) *SearchCondition {
	if root == nil {
		root = NewValuesGroup(LogicalAnd)
	}
	return &SearchCondition{root: root}
}

// Root returns the root group
func (c *SearchCondition) Root() *ValuesGroup {
	return c.root
}

// PrimaryCondition returns the primary group, or nil
func (c *SearchCondition) PrimaryCondition() *ValuesGroup {
	return c.primary
}

// SetPrimaryCondition sets or clears (nil) the primary group
func (c *SearchCondition) SetPrimaryCondition(group *ValuesGroup) {
	c.primary = group
}

// IsEmpty reports whether neither the root nor the primary group holds values
func (c *SearchCondition) IsEmpty() bool {
	return c.root.IsEmpty() && c.primary.IsEmpty()
}
