package gedcom

import "slices"

// Relationship tags. Properties with these tags reference other entities.
const (
	TagFamc = "FAMC"
	TagFams = "FAMS"
	TagHusb = "HUSB"
	TagWife = "WIFE"
	TagChil = "CHIL"
)

// IsXRefTag reports whether tag is a relationship (cross-reference) tag.
func IsXRefTag(tag string) bool {
	switch tag {
	case TagFamc, TagFams, TagHusb, TagWife, TagChil:
		return true
	}
	return false
}

// PropertyChange names one property touched by a transaction.
type PropertyChange struct {
	Entity string
	Tag    string
	XRef   bool
}

// Change summarizes a committed transaction.
type Change struct {
	Added         []string // entity IDs
	Deleted       []string // entity IDs
	PropsAdded    []PropertyChange
	PropsDeleted  []PropertyChange
	PropsModified []PropertyChange
}

// IsEmpty reports whether the transaction touched nothing.
func (c Change) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Deleted) == 0 &&
		len(c.PropsAdded) == 0 && len(c.PropsDeleted) == 0 && len(c.PropsModified) == 0
}

// IsStructural reports whether the change can move boxes: entities were
// added or deleted, or a relationship property was added, deleted or
// modified.
func (c Change) IsStructural() bool {
	if len(c.Added) > 0 || len(c.Deleted) > 0 {
		return true
	}
	for _, set := range [][]PropertyChange{c.PropsAdded, c.PropsDeleted, c.PropsModified} {
		if slices.ContainsFunc(set, func(p PropertyChange) bool { return p.XRef }) {
			return true
		}
	}
	return false
}

// Modified returns the IDs of entities whose properties changed, each once,
// in first-touched order.
func (c Change) Modified() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, set := range [][]PropertyChange{c.PropsAdded, c.PropsDeleted, c.PropsModified} {
		for _, p := range set {
			if !seen[p.Entity] {
				seen[p.Entity] = true
				ids = append(ids, p.Entity)
			}
		}
	}
	return ids
}

// WasDeleted reports whether id was deleted by the change.
func (c Change) WasDeleted(id string) bool {
	return slices.Contains(c.Deleted, id)
}
