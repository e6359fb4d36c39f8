package tree

import "image"

// Layout is the result of one gather: every positioned link plus the
// bounding extent of the tree, with the top-left corner at the origin.
//
// A Layout is never modified after it is published; the engine replaces it
// wholesale on the next gather.
type Layout struct {
	Links []Link `json:"links"`
	// Root is the index of the root link, or -1 for an empty layout.
	Root int `json:"root"`
	// Depth and Lateral are the tree's extents along each axis.
	Depth   int    `json:"depth"`
	Lateral int    `json:"lateral"`
	Config  Config `json:"-"`
}

func emptyLayout(cfg Config) *Layout {
	return &Layout{Root: -1, Config: cfg}
}

// Len returns the number of links.
func (l *Layout) Len() int { return len(l.Links) }

// Empty reports whether the layout has no root.
func (l *Layout) Empty() bool { return l.Root < 0 }

// Size returns the screen size of the tree.
func (l *Layout) Size() Size {
	if l.Config.Vertical {
		return Size{Width: l.Lateral, Height: l.Depth}
	}
	return Size{Width: l.Depth, Height: l.Lateral}
}

// Position returns the screen centre of link i.
func (l *Layout) Position(i int) image.Point {
	k := l.Links[i]
	if l.Config.Vertical {
		return image.Pt(k.Lateral, k.Depth)
	}
	return image.Pt(k.Depth, k.Lateral)
}

// Bounds returns the screen rectangle covered by link i.
func (l *Layout) Bounds(i int) image.Rectangle {
	c := l.Position(i)
	s := l.Links[i].Size(l.Config)
	tl := image.Pt(c.X-s.Width/2, c.Y-s.Height/2)
	return image.Rectangle{Min: tl, Max: tl.Add(image.Pt(s.Width, s.Height))}
}

// LinkAt returns the link covering the screen point (x, y). Markers win
// over the boxes they sit on.
func (l *Layout) LinkAt(x, y int) (int, bool) {
	p := image.Pt(x, y)
	hit := -1
	for i := range l.Links {
		if !p.In(l.Bounds(i)) {
			continue
		}
		if l.Links[i].Kind == KindMarker {
			return i, true
		}
		if hit < 0 {
			hit = i
		}
	}
	return hit, hit >= 0
}

// LinkFor returns the first person or family link for an entity.
func (l *Layout) LinkFor(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	for i, k := range l.Links {
		if k.Entity == id && (k.Kind == KindPerson || k.Kind == KindFamily) {
			return i, true
		}
	}
	return -1, false
}

// Contains reports whether any person or family link shows the entity.
func (l *Layout) Contains(id string) bool {
	_, ok := l.LinkFor(id)
	return ok
}

// RootRatio returns the root's screen position as a fraction of the tree
// size, for centring a viewport on it. An empty layout yields (0.5, 0.5).
func (l *Layout) RootRatio() (float64, float64) {
	s := l.Size()
	if l.Empty() || s.Width == 0 || s.Height == 0 {
		return 0.5, 0.5
	}
	p := l.Position(l.Root)
	return float64(p.X) / float64(s.Width), float64(p.Y) / float64(s.Height)
}
