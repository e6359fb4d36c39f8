package tree

import (
	"testing"

	"github.com/matzehuels/kintree/pkg/gedcom"
)

// build returns a genealogy with the given persons and families. Families
// are added in order, so a family may only reference persons.
func build(t *testing.T, persons []string, families ...gedcom.Family) *gedcom.Gedcom {
	t.Helper()
	g := gedcom.New()
	err := g.Do(func(tx *gedcom.Tx) error {
		for _, id := range persons {
			if _, err := tx.AddPerson(gedcom.Person{ID: id, Name: id}); err != nil {
				return err
			}
		}
		for _, f := range families {
			if _, err := tx.AddFamily(f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

// pedigree is the root R with father F (no parents) and mother M, whose
// parents are GF and GM.
func pedigree(t *testing.T) *gedcom.Gedcom {
	return build(t, []string{"R", "F", "M", "GF", "GM"},
		gedcom.Family{ID: "F1", Husband: "F", Wife: "M", Children: []string{"R"}},
		gedcom.Family{ID: "F2", Husband: "GF", Wife: "GM", Children: []string{"M"}},
	)
}

// household is A married to B with children C1 and C2, C1 married to D
// with child E.
func household(t *testing.T) *gedcom.Gedcom {
	return build(t, []string{"A", "B", "C1", "C2", "D", "E"},
		gedcom.Family{ID: "F1", Husband: "A", Wife: "B", Children: []string{"C1", "C2"}},
		gedcom.Family{ID: "F2", Husband: "C1", Wife: "D", Children: []string{"E"}},
	)
}

// clan combines ancestors and descendants over four generations.
func clan(t *testing.T) *gedcom.Gedcom {
	return build(t,
		[]string{"R", "S", "F", "M", "FF", "FM", "MF", "MM", "U", "K1", "K2", "K3", "P", "G1", "G2", "X"},
		gedcom.Family{ID: "FA", Husband: "FF", Wife: "FM", Children: []string{"F", "U"}},
		gedcom.Family{ID: "FB", Husband: "MF", Wife: "MM", Children: []string{"M"}},
		gedcom.Family{ID: "FC", Husband: "F", Wife: "M", Children: []string{"R"}},
		gedcom.Family{ID: "FD", Husband: "R", Wife: "S", Children: []string{"K1", "K2", "K3"}},
		gedcom.Family{ID: "FE", Husband: "K2", Wife: "P", Children: []string{"G1", "G2"}},
		gedcom.Family{ID: "FF2", Husband: "R", Wife: "X"},
	)
}

func noCollapse(string) bool { return false }

func gather(t *testing.T, src Source, root string, cfg Config, collapsed ...string) *Layout {
	t.Helper()
	set := NewCollapseSet(collapsed...)
	l, err := Gather(src, root, cfg, set.Contains)
	if err != nil {
		t.Fatalf("Gather(%s): %v", root, err)
	}
	return l
}

// find returns the index of the first link of kind for entity.
func find(t *testing.T, l *Layout, kind Kind, entity string) int {
	t.Helper()
	for i, k := range l.Links {
		if k.Kind == kind && k.Entity == entity {
			return i
		}
	}
	t.Fatalf("no %s link for %q", kind, entity)
	return -1
}

// rel returns a link's position relative to the root.
func rel(l *Layout, i int) (depth, lateral int) {
	r := l.Links[l.Root]
	return l.Links[i].Depth - r.Depth, l.Links[i].Lateral - r.Lateral
}

type recorder struct {
	selections [][2]int
	data       int
	entities   [][]string
	structure  int
}

func (r *recorder) SelectionChanged(old, new int) {
	r.selections = append(r.selections, [2]int{old, new})
}
func (r *recorder) DataChanged()                 { r.data++ }
func (r *recorder) EntitiesChanged(ids []string) { r.entities = append(r.entities, ids) }
func (r *recorder) StructureChanged()            { r.structure++ }
