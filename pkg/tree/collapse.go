package tree

import "slices"

// CollapseSet holds the entities whose subtree is not traversed. For a
// person that is their ancestors, for a family its children. Order of
// insertion is kept so the set persists stably.
type CollapseSet struct {
	ids []string
	set map[string]bool
}

// NewCollapseSet returns a set containing ids.
func NewCollapseSet(ids ...string) *CollapseSet {
	c := &CollapseSet{set: make(map[string]bool)}
	for _, id := range ids {
		c.Add(id)
	}
	return c
}

// Contains reports whether id is collapsed.
func (c *CollapseSet) Contains(id string) bool { return c.set[id] }

// Add collapses id.
func (c *CollapseSet) Add(id string) {
	if id == "" || c.set[id] {
		return
	}
	c.set[id] = true
	c.ids = append(c.ids, id)
}

// Remove expands id.
func (c *CollapseSet) Remove(id string) {
	if !c.set[id] {
		return
	}
	delete(c.set, id)
	c.ids = slices.DeleteFunc(c.ids, func(s string) bool { return s == id })
}

// Toggle flips id and returns whether it is now collapsed.
func (c *CollapseSet) Toggle(id string) bool {
	if id == "" {
		return false
	}
	if c.set[id] {
		c.Remove(id)
		return false
	}
	c.Add(id)
	return true
}

// IDs returns the collapsed ids in insertion order.
func (c *CollapseSet) IDs() []string { return slices.Clone(c.ids) }

// Len returns the number of collapsed entities.
func (c *CollapseSet) Len() int { return len(c.ids) }
