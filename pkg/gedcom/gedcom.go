package gedcom

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidID is returned when an operation needs an entity identifier
	// and gets an empty one.
	ErrInvalidID = errors.New("entity ID must not be empty")

	// ErrDuplicateID is returned by [Gedcom.Entity] when an identifier is
	// used by more than one record, and by [Tx.AddPerson]/[Tx.AddFamily]
	// when the identifier is already taken.
	ErrDuplicateID = errors.New("duplicate entity ID")

	// ErrUnknownEntity is returned when an identifier does not resolve.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrXRefProperty is returned by [Tx.SetProperty] for relationship tags,
	// which must be changed through the dedicated relationship methods.
	ErrXRefProperty = errors.New("relationship properties cannot be set directly")
)

// Kind distinguishes persons from families.
type Kind int

const (
	// KindPerson is an individual (GEDCOM INDI record).
	KindPerson Kind = iota
	// KindFamily is a family (GEDCOM FAM record).
	KindFamily
)

func (k Kind) String() string {
	switch k {
	case KindPerson:
		return "person"
	case KindFamily:
		return "family"
	}
	return "unknown"
}

// Entity is either a *Person or a *Family.
type Entity interface {
	EntityID() string
	EntityKind() Kind
}

// Person is an individual.
type Person struct {
	ID    string            `json:"id"`
	Name  string            `json:"name,omitempty"`
	Sex   string            `json:"sex,omitempty"`
	Famc  string            `json:"famc,omitempty"` // family the person is a child of
	Fams  []string          `json:"fams,omitempty"` // families the person is a spouse in
	Props map[string]string `json:"props,omitempty"`
}

// EntityID implements [Entity].
func (p *Person) EntityID() string { return p.ID }

// EntityKind implements [Entity].
func (p *Person) EntityKind() Kind { return KindPerson }

// Family joins a husband and a wife and lists their children in order.
type Family struct {
	ID       string            `json:"id"`
	Husband  string            `json:"husband,omitempty"`
	Wife     string            `json:"wife,omitempty"`
	Children []string          `json:"children,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
}

// EntityID implements [Entity].
func (f *Family) EntityID() string { return f.ID }

// EntityKind implements [Entity].
func (f *Family) EntityKind() Kind { return KindFamily }

// NoOfChildren returns the number of recorded children.
func (f *Family) NoOfChildren() int { return len(f.Children) }

// OtherSpouse returns the spouse of the family that is not personID.
// It returns "" when there is no such spouse.
func (f *Family) OtherSpouse(personID string) string {
	switch personID {
	case f.Husband:
		return f.Wife
	case f.Wife:
		return f.Husband
	}
	return ""
}

// Listener receives the change of every committed transaction.
type Listener interface {
	HandleChange(Change)
}

// Gedcom is an in-memory genealogy.
//
// The zero value is not usable - use New.
type Gedcom struct {
	persons   map[string]*Person
	families  map[string]*Family
	order     []string // persons in insertion order
	famOrder  []string // families in insertion order
	ambiguous map[string]bool
	listeners []Listener
}

// New creates an empty genealogy.
func New() *Gedcom {
	return &Gedcom{
		persons:   make(map[string]*Person),
		families:  make(map[string]*Family),
		ambiguous: make(map[string]bool),
	}
}

// Person returns the person with the given ID.
func (g *Gedcom) Person(id string) (*Person, bool) {
	p, ok := g.persons[id]
	return p, ok
}

// Family returns the family with the given ID.
func (g *Gedcom) Family(id string) (*Family, bool) {
	f, ok := g.families[id]
	return f, ok
}

// Entity resolves an identifier to a person or family.
// It returns ErrDuplicateID when the identifier is ambiguous and
// ErrUnknownEntity when nothing carries it.
func (g *Gedcom) Entity(id string) (Entity, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	p, isPerson := g.persons[id]
	f, isFamily := g.families[id]
	switch {
	case g.ambiguous[id] || (isPerson && isFamily):
		return nil, ErrDuplicateID
	case isPerson:
		return p, nil
	case isFamily:
		return f, nil
	}
	return nil, ErrUnknownEntity
}

// Persons returns all persons in insertion order.
func (g *Gedcom) Persons() []*Person {
	out := make([]*Person, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.persons[id])
	}
	return out
}

// Families returns all families in insertion order.
func (g *Gedcom) Families() []*Family {
	out := make([]*Family, 0, len(g.famOrder))
	for _, id := range g.famOrder {
		out = append(out, g.families[id])
	}
	return out
}

// FirstPerson returns the earliest inserted person.
func (g *Gedcom) FirstPerson() (*Person, bool) {
	if len(g.order) == 0 {
		return nil, false
	}
	return g.persons[g.order[0]], true
}

// FirstFamily returns the earliest inserted family.
func (g *Gedcom) FirstFamily() (*Family, bool) {
	if len(g.famOrder) == 0 {
		return nil, false
	}
	return g.families[g.famOrder[0]], true
}

// PersonCount returns the number of persons.
func (g *Gedcom) PersonCount() int { return len(g.order) }

// FamilyCount returns the number of families.
func (g *Gedcom) FamilyCount() int { return len(g.famOrder) }

// Ambiguous returns the sorted identifiers shared by more than one record.
func (g *Gedcom) Ambiguous() []string {
	ids := make([]string, 0, len(g.ambiguous))
	for id := range g.ambiguous {
		ids = append(ids, id)
	}
	for id := range g.persons {
		if _, ok := g.families[id]; ok && !g.ambiguous[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// AddListener registers l for change notifications.
func (g *Gedcom) AddListener(l Listener) {
	g.listeners = append(g.listeners, l)
}

// RemoveListener unregisters l. Unknown listeners are ignored.
func (g *Gedcom) RemoveListener(l Listener) {
	g.listeners = slices.DeleteFunc(g.listeners, func(x Listener) bool { return x == l })
}

// Do runs fn in a transaction. On success the resulting change is delivered
// to all listeners; on error every mutation made by fn is undone.
func (g *Gedcom) Do(fn func(tx *Tx) error) error {
	snapshot := g.clone()
	tx := &Tx{g: g}
	if err := fn(tx); err != nil {
		g.restore(snapshot)
		return err
	}
	if tx.change.IsEmpty() {
		return nil
	}
	for _, l := range slices.Clone(g.listeners) {
		l.HandleChange(tx.change)
	}
	return nil
}

func (g *Gedcom) clone() *Gedcom {
	c := New()
	for _, id := range g.order {
		p := *g.persons[id]
		p.Fams = slices.Clone(p.Fams)
		p.Props = cloneProps(p.Props)
		c.persons[id] = &p
	}
	for _, id := range g.famOrder {
		f := *g.families[id]
		f.Children = slices.Clone(f.Children)
		f.Props = cloneProps(f.Props)
		c.families[id] = &f
	}
	c.order = slices.Clone(g.order)
	c.famOrder = slices.Clone(g.famOrder)
	for id := range g.ambiguous {
		c.ambiguous[id] = true
	}
	return c
}

func (g *Gedcom) restore(s *Gedcom) {
	g.persons, g.families = s.persons, s.families
	g.order, g.famOrder = s.order, s.famOrder
	g.ambiguous = s.ambiguous
}

func cloneProps(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// load inserts records without notifications. Duplicate identifiers keep
// the first record and are marked ambiguous.
func (g *Gedcom) load(persons []Person, families []Family) {
	for i := range persons {
		p := persons[i]
		if p.ID == "" {
			continue
		}
		if _, dup := g.persons[p.ID]; dup {
			g.ambiguous[p.ID] = true
			continue
		}
		g.persons[p.ID] = &p
		g.order = append(g.order, p.ID)
	}
	for i := range families {
		f := families[i]
		if f.ID == "" {
			continue
		}
		if _, dup := g.families[f.ID]; dup {
			g.ambiguous[f.ID] = true
			continue
		}
		g.families[f.ID] = &f
		g.famOrder = append(g.famOrder, f.ID)
	}
	g.reindex()
}

// reindex makes person references agree with the families, which are
// authoritative. The recorded order of a person's marriages is kept.
func (g *Gedcom) reindex() {
	for _, p := range g.persons {
		p.Fams = slices.DeleteFunc(p.Fams, func(id string) bool {
			f, ok := g.families[id]
			return !ok || (f.Husband != p.ID && f.Wife != p.ID)
		})
		if f, ok := g.families[p.Famc]; !ok || !slices.Contains(f.Children, p.ID) {
			p.Famc = ""
		}
	}
	for _, fid := range g.famOrder {
		f := g.families[fid]
		for _, sid := range []string{f.Husband, f.Wife} {
			if p, ok := g.persons[sid]; ok && !slices.Contains(p.Fams, fid) {
				p.Fams = append(p.Fams, fid)
			}
		}
		for _, cid := range f.Children {
			if p, ok := g.persons[cid]; ok && p.Famc == "" {
				p.Famc = fid
			}
		}
	}
}
