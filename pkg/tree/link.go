package tree

// Kind is the closed set of link variants.
type Kind int

const (
	// KindPerson is a person box. A person link without an entity stands
	// for an unknown parent or spouse.
	KindPerson Kind = iota
	// KindFamily is a family box. It lists the links of the children it
	// was laid out with.
	KindFamily
	// KindMarriage is a pseudo-link between two spouses. It never has an
	// entity.
	KindMarriage
	// KindMarker is a collapse/expand toggle tied to an entity. A marker
	// without an entity hints that a spouse has ancestors the tree does
	// not show; its Anchor is the spouse's link.
	KindMarker
)

func (k Kind) String() string {
	switch k {
	case KindPerson:
		return "person"
	case KindFamily:
		return "family"
	case KindMarriage:
		return "marriage"
	case KindMarker:
		return "marker"
	}
	return "unknown"
}

// Link is a positioned node of a layout.
//
// Depth runs along the ancestor/descendant axis and Lateral across a
// generation; both locate the centre of the box. Generation counts
// generations relative to the root (negative for ancestors). Links refer to
// each other by index into the owning [Layout]'s Links slice.
type Link struct {
	Kind       Kind   `json:"kind"`
	Depth      int    `json:"depth"`
	Lateral    int    `json:"lateral"`
	Generation int    `json:"generation"`
	Entity     string `json:"entity,omitempty"`
	Collapsed  bool   `json:"collapsed,omitempty"`
	Children   []int  `json:"children,omitempty"`
	Anchor     int    `json:"anchor"`
}

// MoveBy shifts the link by the given deltas.
func (l *Link) MoveBy(deltaDepth, deltaLateral int) {
	l.Depth += deltaDepth
	l.Lateral += deltaLateral
}

// AddChildLink records the link at index child as a child of this family.
func (l *Link) AddChildLink(child int) {
	l.Children = append(l.Children, child)
}

// IsCollapsedMarker reports whether the link stands for a collapsed subtree.
func (l Link) IsCollapsedMarker() bool {
	return l.Kind == KindMarker && l.Collapsed
}

// HasEntity reports whether the link references an entity.
func (l Link) HasEntity() bool {
	return l.Entity != ""
}

// Size returns the screen size of the link's box.
func (l Link) Size(cfg Config) Size {
	switch l.Kind {
	case KindFamily:
		return cfg.FamilySize
	case KindMarriage:
		return cfg.MarriageSize
	case KindMarker:
		return cfg.MarkerSize
	}
	return cfg.PersonSize
}
