package tree

import (
	"errors"
	"fmt"

	"github.com/matzehuels/kintree/pkg/gedcom"
)

// ErrCyclicRelationship is returned when a person turns out to be their own
// ancestor or descendant while gathering.
var ErrCyclicRelationship = errors.New("cyclic relationship")

// Source is the read-only view of the genealogy data the gatherer needs.
// *gedcom.Gedcom satisfies it.
type Source interface {
	Person(id string) (*gedcom.Person, bool)
	Family(id string) (*gedcom.Family, bool)
	Entity(id string) (gedcom.Entity, error)
	FirstPerson() (*gedcom.Person, bool)
	FirstFamily() (*gedcom.Family, bool)
}

// Collapsible reports whether collapsing id hides anything: a person needs
// a parent family, a family needs children. Only these get a marker.
func Collapsible(src Source, id string) bool {
	if p, ok := src.Person(id); ok {
		_, ok := src.Family(p.Famc)
		return ok
	}
	if f, ok := src.Family(id); ok {
		return f.NoOfChildren() > 0
	}
	return false
}

// Gather lays out the tree around root. collapsed reports whether the
// subtree behind an entity is hidden: a person's ancestors or a family's
// children. An empty root yields an empty layout.
func Gather(src Source, root string, cfg Config, collapsed func(id string) bool) (*Layout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if collapsed == nil {
		collapsed = func(string) bool { return false }
	}
	if root == "" {
		return emptyLayout(cfg), nil
	}
	e, err := src.Entity(root)
	if err != nil {
		return nil, err
	}

	g := &gatherer{
		src:  src,
		cfg:  cfg,
		m:    cfg.metrics(),
		stop: collapsed,
		path: make(map[string]bool),
	}
	var rootLink int
	var depth, lateral int
	switch v := e.(type) {
	case *gedcom.Person:
		rootLink, depth, lateral, err = g.treeOfPerson(v)
	case *gedcom.Family:
		rootLink, depth, lateral, err = g.treeOfFamily(v)
	default:
		return nil, fmt.Errorf("%w: %s", gedcom.ErrUnknownEntity, root)
	}
	if err != nil {
		return nil, err
	}
	return &Layout{
		Links:   g.links,
		Root:    rootLink,
		Depth:   depth,
		Lateral: lateral,
		Config:  cfg,
	}, nil
}

type gatherer struct {
	src   Source
	cfg   Config
	m     metrics
	stop  func(id string) bool
	links []Link
	path  map[string]bool
}

func (g *gatherer) add(l Link) int {
	l.Anchor = -1
	g.links = append(g.links, l)
	return len(g.links) - 1
}

// shift moves every link from index from onwards.
func (g *gatherer) shift(from, generations, depth, lateral int) {
	for i := from; i < len(g.links); i++ {
		g.links[i].MoveBy(depth, lateral)
		g.links[i].Generation += generations
	}
}

func (g *gatherer) lateral(f *frontier, pos int) int {
	return g.links[f.get(pos)].Lateral
}

// clearance returns how far a subtree with left boundary next has to move
// so it keeps spacing from a subtree with right boundary prev on every
// generation both share.
func (g *gatherer) clearance(prev, next *frontier, spacing int) int {
	d := 0
	for i := 1; i <= prev.size() && i <= next.size(); i++ {
		d = max(d, g.lateral(prev, i)-g.lateral(next, i)+spacing)
	}
	return d
}

// merge folds the boundaries of a subtree placed to the right into left and
// right.
func (g *gatherer) merge(left, right, nextLeft, nextRight *frontier) {
	for i := 1; i <= nextRight.size(); i++ {
		right.set(i, nextRight.get(i))
	}
	for i := left.size() + 1; i <= nextLeft.size(); i++ {
		left.set(i, nextLeft.get(i))
	}
}

func (g *gatherer) enter(id string) error {
	if g.path[id] {
		return fmt.Errorf("%w: %s", ErrCyclicRelationship, id)
	}
	g.path[id] = true
	return nil
}

func (g *gatherer) leave(id string) {
	delete(g.path, id)
}

func (g *gatherer) marriage(depth, lateral, generation int) {
	if g.cfg.MarriageSymbols {
		g.add(Link{Kind: KindMarriage, Depth: depth, Lateral: lateral, Generation: generation})
	}
}

// =============================================================================
// Ancestors
// =============================================================================

// couple lays out the ancestor trees of a family's husband and wife side by
// side and centres the pair on lateral 0. It returns the links of both
// spouses.
func (g *gatherer) couple(f *gedcom.Family, left, right *frontier) (husband, wife int, err error) {
	start := len(g.links)
	if husband, err = g.ancestorsOfPerson(f.Husband, left, right); err != nil {
		return -1, -1, err
	}
	wifeStart := len(g.links)
	wifeLeft, wifeRight := &frontier{}, &frontier{}
	if wife, err = g.ancestorsOfPerson(f.Wife, wifeLeft, wifeRight); err != nil {
		return -1, -1, err
	}
	g.shift(wifeStart, 0, 0, g.clearance(right, wifeLeft, g.m.distOfAncestors))
	g.merge(left, right, wifeLeft, wifeRight)

	center := (g.links[husband].Lateral + g.links[wife].Lateral) / 2
	g.shift(start, 0, 0, -center)
	return husband, wife, nil
}

// ancestorsOfPerson gathers a person and everything above them. The person
// link is the last one added; left and right receive the boundaries with
// the person's own generation at position 1. An empty or unknown id adds a
// placeholder box.
func (g *gatherer) ancestorsOfPerson(id string, left, right *frontier) (int, error) {
	var p *gedcom.Person
	if id != "" {
		p, _ = g.src.Person(id)
	}
	if p == nil {
		self := g.add(Link{Kind: KindPerson})
		left.insertAt(1, self)
		right.insertAt(1, self)
		return self, nil
	}

	parents, _ := g.src.Family(p.Famc)
	fam := -1
	if parents != nil {
		if g.stop(p.ID) {
			g.add(Link{Kind: KindMarker, Depth: -g.m.distOfIndiMarker, Entity: p.ID, Collapsed: true})
		} else {
			if err := g.enter(p.ID); err != nil {
				return -1, err
			}
			start := len(g.links)
			husband, wife, err := g.couple(parents, left, right)
			if err != nil {
				return -1, err
			}
			g.shift(start, -1, -g.m.distOfGenerations, 0)
			g.links[husband].Lateral = -g.m.distOfPartners / 2
			g.links[wife].Lateral = g.m.distOfPartners / 2
			g.marriage(-g.m.distOfGenerations, 0, -1)
			fam = g.add(Link{
				Kind:       KindFamily,
				Depth:      -g.m.distOfGenerations + g.m.distOfEntities,
				Generation: -1,
				Entity:     parents.ID,
			})
			g.add(Link{
				Kind:   KindMarker,
				Depth:  -g.m.distOfGenerations + g.m.distOfEntities + g.m.distOfFamMarker,
				Entity: p.ID,
			})
			g.leave(p.ID)
		}
	}

	self := g.add(Link{Kind: KindPerson, Entity: p.ID})
	if fam >= 0 {
		g.links[fam].AddChildLink(self)
	}
	left.insertAt(1, self)
	right.insertAt(1, self)
	return self, nil
}

// ancestorsOfFamily gathers a family box at the origin with its spouses and
// their ancestors above it. left and right hold the spouses' generation at
// position 1.
func (g *gatherer) ancestorsOfFamily(f *gedcom.Family, left, right *frontier) (int, error) {
	start := len(g.links)
	husband, wife, err := g.couple(f, left, right)
	if err != nil {
		return -1, err
	}
	g.shift(start, 0, -g.m.distOfEntities, 0)
	g.links[husband].Lateral = -g.m.distOfPartners / 2
	g.links[wife].Lateral = g.m.distOfPartners / 2
	g.marriage(-g.m.distOfEntities, 0, 0)
	return g.add(Link{Kind: KindFamily, Entity: f.ID}), nil
}

// =============================================================================
// Descendants
// =============================================================================

// descendantsOfPerson gathers a person, their spouses and everything below.
// preset is an existing link to reuse for the person, or -1. left receives
// the person and right the last spouse at position 1.
func (g *gatherer) descendantsOfPerson(id string, left, right *frontier, preset int) (int, error) {
	p, ok := g.src.Person(id)
	if !ok {
		self := preset
		if self < 0 {
			self = g.add(Link{Kind: KindPerson})
		}
		left.insertAt(1, self)
		right.insertAt(1, self)
		return self, nil
	}
	if err := g.enter(p.ID); err != nil {
		return -1, err
	}
	defer g.leave(p.ID)

	start := len(g.links)
	var pending []Link
	for i, fid := range p.Fams {
		f, ok := g.src.Family(fid)
		if !ok {
			continue
		}
		lateral := (i+1)*g.m.distOfPartners - g.m.distOfPartners/2
		fam := Link{Kind: KindFamily, Depth: g.m.distOfEntities, Lateral: lateral, Entity: f.ID}
		if !g.stop(f.ID) {
			for _, cid := range f.Children {
				from := len(g.links)
				childLeft, childRight := &frontier{}, &frontier{}
				child, err := g.descendantsOfPerson(cid, childLeft, childRight, -1)
				if err != nil {
					return -1, err
				}
				fam.AddChildLink(child)
				g.shift(from, 0, 0, g.clearance(right, childLeft, g.m.distOfSiblings))
				g.merge(left, right, childLeft, childRight)
			}
		}
		pending = append(pending, fam)
		if f.NoOfChildren() > 0 {
			pending = append(pending, Link{
				Kind:      KindMarker,
				Depth:     g.m.distOfEntities + g.m.distOfFamMarker,
				Lateral:   lateral,
				Entity:    f.ID,
				Collapsed: g.stop(f.ID),
			})
		}
	}
	if right.size() > 0 {
		d := (g.lateral(right, 1) - g.lateral(left, 1) - g.m.distOfPartners) / 2
		g.shift(start, 1, g.m.distOfGenerations, -g.lateral(left, 1)-d)
	}
	for _, l := range pending {
		g.add(l)
	}

	self := preset
	if self < 0 {
		self = g.add(Link{Kind: KindPerson, Entity: p.ID})
	}
	last := self
	for i, fid := range p.Fams {
		f, ok := g.src.Family(fid)
		if !ok {
			continue
		}
		lateral := (i + 1) * g.m.distOfPartners
		spouse, _ := g.src.Person(f.OtherSpouse(p.ID))
		partner := Link{Kind: KindPerson, Lateral: lateral}
		if spouse != nil {
			partner.Entity = spouse.ID
		}
		last = g.add(partner)
		if spouse != nil && spouse.Famc != "" {
			more := g.add(Link{Kind: KindMarker, Depth: -g.m.distOfIndiMarker, Lateral: lateral})
			g.links[more].Anchor = last
		}
		g.marriage(0, lateral-g.m.distOfPartners/2, 0)
	}
	left.insertAt(1, self)
	right.insertAt(1, last)
	return self, nil
}

// descendantsOfFamily gathers a family box and its children below it.
// preset is an existing link to reuse for the family, or -1. left and right
// hold the children's generation at position 1.
func (g *gatherer) descendantsOfFamily(f *gedcom.Family, left, right *frontier, preset int) (int, error) {
	var children []int
	if !g.stop(f.ID) {
		start := len(g.links)
		for _, cid := range f.Children {
			from := len(g.links)
			childLeft, childRight := &frontier{}, &frontier{}
			child, err := g.descendantsOfPerson(cid, childLeft, childRight, -1)
			if err != nil {
				return -1, err
			}
			children = append(children, child)
			g.shift(from, 0, 0, g.clearance(right, childLeft, g.m.distOfSiblings))
			g.merge(left, right, childLeft, childRight)
		}
		if right.size() > 0 {
			center := (g.lateral(right, 1) + g.lateral(left, 1)) / 2
			g.shift(start, 1, g.m.distOfGenerations-g.m.distOfEntities, -center)
		}
	}
	self := preset
	if self < 0 {
		self = g.add(Link{Kind: KindFamily, Entity: f.ID})
	}
	if f.NoOfChildren() > 0 {
		g.add(Link{Kind: KindMarker, Depth: g.m.distOfFamMarker, Entity: f.ID, Collapsed: g.stop(f.ID)})
	}
	for _, c := range children {
		g.links[self].AddChildLink(c)
	}
	return self, nil
}

// =============================================================================
// Whole trees
// =============================================================================

func (g *gatherer) treeOfPerson(p *gedcom.Person) (root, depth, lateral int, err error) {
	left, right := &frontier{}, &frontier{}
	if root, err = g.ancestorsOfPerson(p.ID, left, right); err != nil {
		return -1, 0, 0, err
	}
	above := (max(left.size(), right.size()) - 1) * g.m.distOfGenerations
	wLeft, wRight := g.widths(left, right, 0, 0)

	left, right = &frontier{}, &frontier{}
	if _, err = g.descendantsOfPerson(p.ID, left, right, root); err != nil {
		return -1, 0, 0, err
	}
	below := (max(left.size(), right.size()) - 1) * g.m.distOfGenerations
	wLeft, wRight = g.widths(left, right, wLeft, wRight)

	return g.realign(root, above, below, wLeft, wRight)
}

func (g *gatherer) treeOfFamily(f *gedcom.Family) (root, depth, lateral int, err error) {
	left, right := &frontier{}, &frontier{}
	if root, err = g.ancestorsOfFamily(f, left, right); err != nil {
		return -1, 0, 0, err
	}
	above := (max(left.size(), right.size())-1)*g.m.distOfGenerations + g.m.distOfEntities
	wLeft, wRight := g.widths(left, right, 0, 0)

	left, right = &frontier{}, &frontier{}
	if _, err = g.descendantsOfFamily(f, left, right, root); err != nil {
		return -1, 0, 0, err
	}
	below := 0
	if n := max(left.size(), right.size()); n > 0 {
		below = (n-1)*g.m.distOfGenerations + g.m.distOfGenerations - g.m.distOfEntities
	}
	wLeft, wRight = g.widths(left, right, wLeft, wRight)

	return g.realign(root, above, below, wLeft, wRight)
}

// widths widens the extents left and right of the root to cover the given
// boundaries.
func (g *gatherer) widths(left, right *frontier, wLeft, wRight int) (int, int) {
	for i := 1; i <= left.size(); i++ {
		wLeft = max(wLeft, -g.lateral(left, i))
	}
	for i := 1; i <= right.size(); i++ {
		wRight = max(wRight, g.lateral(right, i))
	}
	return wLeft, wRight
}

// realign pads the extents and moves every link so the tree starts at the
// origin.
func (g *gatherer) realign(root, above, below, wLeft, wRight int) (int, int, int, error) {
	above += g.m.distOfGenerations
	below += g.m.distOfGenerations
	wLeft += g.m.distOfSiblings
	wRight += g.m.distOfSiblings
	g.shift(0, 0, above, wLeft)
	return root, above + below, wLeft + wRight, nil
}
