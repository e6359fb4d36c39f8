package tree

import (
	"errors"
	"image"
	"reflect"
	"slices"
	"sort"
	"testing"

	"github.com/matzehuels/kintree/pkg/gedcom"
)

func TestGatherPedigree(t *testing.T) {
	cfg := DefaultConfig()
	l := gather(t, pedigree(t), "R", cfg)

	if l.Links[l.Root].Entity != "R" {
		t.Fatalf("root link entity = %q, want R", l.Links[l.Root].Entity)
	}

	tests := []struct {
		kind    Kind
		entity  string
		depth   int
		lateral int
		gen     int
	}{
		{KindPerson, "F", -150, -86, -1},
		{KindPerson, "M", -150, 86, -1},
		{KindFamily, "F1", -93, 0, -1},
		{KindPerson, "GF", -300, 4, -2},
		{KindPerson, "GM", -300, 176, -2},
		{KindFamily, "F2", -243, 90, -2},
	}
	for _, tt := range tests {
		i := find(t, l, tt.kind, tt.entity)
		d, lat := rel(l, i)
		if d != tt.depth || lat != tt.lateral {
			t.Errorf("%s %s at (%d, %d), want (%d, %d)", tt.kind, tt.entity, d, lat, tt.depth, tt.lateral)
		}
		if g := l.Links[i].Generation; g != tt.gen {
			t.Errorf("%s %s generation = %d, want %d", tt.kind, tt.entity, g, tt.gen)
		}
	}

	// The grandparents' family sits above M, not above F.
	f2 := l.Links[find(t, l, KindFamily, "F2")]
	m := l.Links[find(t, l, KindPerson, "M")]
	if abs(f2.Lateral-m.Lateral) >= cfg.PersonSize.Width/2 {
		t.Errorf("F2 at lateral %d is not above M at %d", f2.Lateral, m.Lateral)
	}
	f := find(t, l, KindPerson, "F")
	if l.Bounds(f).Overlaps(l.Bounds(find(t, l, KindFamily, "F2"))) {
		t.Error("F overlaps the grandparents' family box")
	}

	if l.Depth != 600 || l.Lateral != 622 {
		t.Errorf("extent = %dx%d, want 600x622", l.Depth, l.Lateral)
	}
	if r := l.Links[l.Root]; r.Depth != 450 || r.Lateral != 266 {
		t.Errorf("root at (%d, %d), want (450, 266)", r.Depth, r.Lateral)
	}

	counts := map[Kind]int{}
	for _, k := range l.Links {
		counts[k.Kind]++
	}
	want := map[Kind]int{KindPerson: 5, KindFamily: 2, KindMarriage: 2, KindMarker: 2}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("link counts = %v, want %v", counts, want)
	}

	f1 := l.Links[find(t, l, KindFamily, "F1")]
	if !slices.Equal(f1.Children, []int{l.Root}) {
		t.Errorf("F1 children = %v, want [%d]", f1.Children, l.Root)
	}
}

func TestGatherDescendants(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarriageSymbols = false
	l := gather(t, household(t), "A", cfg)

	tests := []struct {
		kind    Kind
		entity  string
		depth   int
		lateral int
	}{
		{KindPerson, "B", 0, 162},
		{KindFamily, "F1", 57, 81},
		{KindMarker, "F1", 67, 81},
		{KindPerson, "C1", 150, -90},
		{KindPerson, "D", 150, 72},
		{KindPerson, "C2", 150, 252},
		{KindFamily, "F2", 207, -9},
		{KindPerson, "E", 300, -9},
	}
	for _, tt := range tests {
		d, lat := rel(l, find(t, l, tt.kind, tt.entity))
		if d != tt.depth || lat != tt.lateral {
			t.Errorf("%s %s at (%d, %d), want (%d, %d)", tt.kind, tt.entity, d, lat, tt.depth, tt.lateral)
		}
	}

	f1 := l.Links[find(t, l, KindFamily, "F1")]
	var kids []string
	for _, c := range f1.Children {
		kids = append(kids, l.Links[c].Entity)
	}
	if !slices.Equal(kids, []string{"C1", "C2"}) {
		t.Errorf("F1 children = %v, want [C1 C2]", kids)
	}
}

func TestGatherFamilyRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarriageSymbols = false
	g := build(t, []string{"A", "B", "C1", "C2"},
		gedcom.Family{ID: "F1", Husband: "A", Wife: "B", Children: []string{"C1", "C2"}})
	l := gather(t, g, "F1", cfg)

	if r := l.Links[l.Root]; r.Kind != KindFamily || r.Entity != "F1" {
		t.Fatalf("root = %+v, want family F1", r)
	}
	tests := []struct {
		kind    Kind
		entity  string
		depth   int
		lateral int
		gen     int
	}{
		{KindPerson, "A", -57, -81, 0},
		{KindPerson, "B", -57, 81, 0},
		{KindMarker, "F1", 10, 0, 0},
		{KindPerson, "C1", 93, -90, 1},
		{KindPerson, "C2", 93, 90, 1},
	}
	for _, tt := range tests {
		i := find(t, l, tt.kind, tt.entity)
		d, lat := rel(l, i)
		if d != tt.depth || lat != tt.lateral || l.Links[i].Generation != tt.gen {
			t.Errorf("%s %s at (%d, %d) gen %d, want (%d, %d) gen %d",
				tt.kind, tt.entity, d, lat, l.Links[i].Generation, tt.depth, tt.lateral, tt.gen)
		}
	}
	if n := len(l.Links[l.Root].Children); n != 2 {
		t.Errorf("root family has %d children, want 2", n)
	}
}

func TestGatherMissingSpouse(t *testing.T) {
	g := build(t, []string{"R", "M"},
		gedcom.Family{ID: "F1", Wife: "M", Children: []string{"R"}})
	l := gather(t, g, "R", DefaultConfig())

	var blanks int
	for i, k := range l.Links {
		if k.Kind == KindPerson && !k.HasEntity() {
			blanks++
			if d, lat := rel(l, i); d != -150 || lat != -86 {
				t.Errorf("missing father at (%d, %d), want (-150, -86)", d, lat)
			}
		}
	}
	if blanks != 1 {
		t.Errorf("got %d placeholder boxes, want 1", blanks)
	}
}

func TestGatherSpouseHint(t *testing.T) {
	l := gather(t, pedigree(t), "F", DefaultConfig())

	m := find(t, l, KindPerson, "M")
	var hints []Link
	for _, k := range l.Links {
		if k.Kind == KindMarker && !k.HasEntity() {
			hints = append(hints, k)
		}
	}
	if len(hints) != 1 || hints[0].Anchor != m {
		t.Fatalf("spouse hints = %+v, want one anchored at %d", hints, m)
	}
	if hints[0].Lateral != l.Links[m].Lateral || hints[0].Depth != l.Links[m].Depth-45 {
		t.Errorf("hint at (%d, %d), want above M", hints[0].Depth, hints[0].Lateral)
	}
}

func TestGatherCompleteness(t *testing.T) {
	l := gather(t, clan(t), "R", DefaultConfig())

	seen := map[string]int{}
	for _, k := range l.Links {
		if (k.Kind == KindPerson || k.Kind == KindFamily) && k.HasEntity() {
			seen[k.Entity]++
		}
	}
	want := []string{"R", "S", "X", "F", "M", "FF", "FM", "MF", "MM", "K1", "K2", "K3", "P", "G1", "G2",
		"FA", "FB", "FC", "FD", "FE", "FF2"}
	for _, id := range want {
		if seen[id] != 1 {
			t.Errorf("%s has %d links, want 1", id, seen[id])
		}
	}
	if len(seen) != len(want) {
		t.Errorf("layout shows %d entities, want %d", len(seen), len(want))
	}
	if seen["U"] != 0 {
		t.Error("a sibling of an ancestor must not be shown")
	}
}

func TestGatherCollapsed(t *testing.T) {
	cfg := DefaultConfig()
	full := gather(t, clan(t), "R", cfg)
	l := gather(t, clan(t), "R", cfg, "M", "FD")

	for _, id := range []string{"MF", "MM", "FB", "K1", "K2", "K3", "P", "G1", "G2", "FE"} {
		if _, ok := l.LinkFor(id); ok {
			t.Errorf("%s should be hidden", id)
		}
	}
	for _, id := range []string{"M", "FD"} {
		n := 0
		for _, k := range l.Links {
			if k.Entity == id && k.IsCollapsedMarker() {
				n++
			}
		}
		if n != 1 {
			t.Errorf("%s has %d collapsed markers, want 1", id, n)
		}
		if _, ok := l.LinkFor(id); !ok {
			t.Errorf("%s box should stay visible", id)
		}
	}

	// Subtrees not adjacent to a collapsed entity keep their shape.
	for _, g := range []*Layout{full, l} {
		ff := g.Links[find(t, g, KindPerson, "FF")]
		fm := g.Links[find(t, g, KindPerson, "FM")]
		if fm.Lateral-ff.Lateral != 172 {
			t.Errorf("FF..FM distance = %d, want 172", fm.Lateral-ff.Lateral)
		}
	}
	for _, id := range []string{"S", "X"} {
		d1, l1 := rel(full, find(t, full, KindPerson, id))
		d2, l2 := rel(l, find(t, l, KindPerson, id))
		if d1 != d2 || l1 != l2 {
			t.Errorf("%s moved from (%d, %d) to (%d, %d)", id, d1, l1, d2, l2)
		}
	}
}

func TestCollapsible(t *testing.T) {
	c := clan(t)
	tests := []struct {
		id   string
		want bool
	}{
		{"R", true},   // parents FC
		{"F", true},   // parents FA
		{"FF", false}, // no parents
		{"S", false},  // spouse without parents
		{"FD", true},  // three children
		{"FF2", false},
		{"ghost", false},
	}
	for _, tt := range tests {
		if got := Collapsible(c, tt.id); got != tt.want {
			t.Errorf("Collapsible(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}

	// A marker appears exactly for collapsible entities on the paths where
	// they stop the gather: ancestors for persons, descendants for families.
	for _, id := range []string{"R", "F", "M", "FF", "FM", "MF", "MM", "FD", "FE", "FF2"} {
		l := gather(t, c, "R", DefaultConfig(), id)
		n := 0
		for _, k := range l.Links {
			if k.Entity == id && k.IsCollapsedMarker() {
				n++
			}
		}
		want := 0
		if Collapsible(c, id) {
			want = 1
		}
		if n != want {
			t.Errorf("%s: %d collapsed markers, want %d", id, n, want)
		}
	}
}

func TestGatherCollapsedWithoutParents(t *testing.T) {
	for _, id := range []string{"F", "GF"} {
		l := gather(t, pedigree(t), "R", DefaultConfig(), id)
		for _, k := range l.Links {
			if k.Kind == KindMarker && k.Entity == id {
				t.Errorf("collapsed %s: unexpected marker %+v", id, k)
			}
		}
		if Collapsible(pedigree(t), id) {
			t.Errorf("Collapsible(%s) = true for a person without parents", id)
		}
	}
}

func TestGatherParentCentering(t *testing.T) {
	l := gather(t, clan(t), "R", DefaultConfig())

	tests := []struct{ fam, husband, wife string }{
		{"FA", "FF", "FM"},
		{"FB", "MF", "MM"},
		{"FC", "F", "M"},
		{"FD", "R", "S"},
		{"FE", "K2", "P"},
	}
	for _, tt := range tests {
		f := l.Links[find(t, l, KindFamily, tt.fam)]
		h := l.Links[find(t, l, KindPerson, tt.husband)]
		w := l.Links[find(t, l, KindPerson, tt.wife)]
		if f.Lateral != (h.Lateral+w.Lateral)/2 {
			t.Errorf("%s at %d, want midpoint of %d and %d", tt.fam, f.Lateral, h.Lateral, w.Lateral)
		}
	}
}

func TestGatherNoOverlap(t *testing.T) {
	for _, vertical := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.Vertical = vertical
		for _, root := range []string{"R", "FC", "K2", "FF"} {
			l := gather(t, clan(t), root, cfg)
			for i := range l.Links {
				for j := i + 1; j < len(l.Links); j++ {
					a, b := l.Links[i], l.Links[j]
					if a.Kind != b.Kind || a.Kind == KindMarker || a.Depth != b.Depth {
						continue
					}
					if l.Bounds(i).Overlaps(l.Bounds(j)) {
						t.Errorf("vertical=%v root=%s: %s %q overlaps %q", vertical, root, a.Kind, a.Entity, b.Entity)
					}
				}
			}
		}
	}
}

func TestGatherIdempotent(t *testing.T) {
	g := clan(t)
	a := gather(t, g, "R", DefaultConfig(), "FE")
	b := gather(t, g, "R", DefaultConfig(), "FE")
	if !reflect.DeepEqual(a, b) {
		t.Error("two gathers over the same data differ")
	}
}

func TestGatherOrientation(t *testing.T) {
	g := clan(t)
	vcfg := DefaultConfig()
	hcfg := vcfg
	hcfg.Vertical = false
	v := gather(t, g, "R", vcfg)
	h := gather(t, g, "R", hcfg)

	if len(v.Links) != len(h.Links) {
		t.Fatalf("link count %d vs %d", len(v.Links), len(h.Links))
	}
	for i := range v.Links {
		a, b := v.Links[i], h.Links[i]
		if a.Kind != b.Kind || a.Entity != b.Entity || a.Generation != b.Generation || !slices.Equal(a.Children, b.Children) {
			t.Errorf("link %d differs: %+v vs %+v", i, a, b)
		}
		if pv := v.Position(i); pv != image.Pt(a.Lateral, a.Depth) {
			t.Errorf("vertical position of %d = %v", i, pv)
		}
		if ph := h.Position(i); ph != image.Pt(b.Depth, b.Lateral) {
			t.Errorf("horizontal position of %d = %v", i, ph)
		}
	}
	if !reflect.DeepEqual(order(v), order(h)) {
		t.Errorf("left-to-right order differs:\n%v\n%v", order(v), order(h))
	}
	if s := h.Size(); s.Width != h.Depth || s.Height != h.Lateral {
		t.Errorf("horizontal size = %+v", s)
	}
}

// order lists person entities per generation sorted by lateral position.
func order(l *Layout) map[int][]string {
	byGen := map[int][]Link{}
	for _, k := range l.Links {
		if k.Kind == KindPerson {
			byGen[k.Generation] = append(byGen[k.Generation], k)
		}
	}
	out := map[int][]string{}
	for gen, links := range byGen {
		sort.SliceStable(links, func(i, j int) bool { return links[i].Lateral < links[j].Lateral })
		for _, k := range links {
			out[gen] = append(out[gen], k.Entity)
		}
	}
	return out
}

func TestGatherCycle(t *testing.T) {
	g := build(t, []string{"A", "B"},
		gedcom.Family{ID: "F1", Husband: "B", Children: []string{"A"}},
		gedcom.Family{ID: "F2", Husband: "A", Children: []string{"B"}},
	)
	for _, root := range []string{"A", "F1"} {
		if _, err := Gather(g, root, DefaultConfig(), noCollapse); !errors.Is(err, ErrCyclicRelationship) {
			t.Errorf("Gather(%s) error = %v, want ErrCyclicRelationship", root, err)
		}
	}
}

func TestGatherRoots(t *testing.T) {
	g := pedigree(t)

	l, err := Gather(g, "", DefaultConfig(), nil)
	if err != nil || !l.Empty() || l.Len() != 0 {
		t.Errorf("empty root: layout %+v, err %v", l, err)
	}
	if _, err := Gather(g, "nobody", DefaultConfig(), nil); !errors.Is(err, gedcom.ErrUnknownEntity) {
		t.Errorf("unknown root error = %v, want ErrUnknownEntity", err)
	}
	bad := DefaultConfig()
	bad.PersonSize.Width = 0
	if _, err := Gather(g, "R", bad, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("invalid config error = %v, want ErrInvalidConfig", err)
	}
}

func TestLayoutHitTesting(t *testing.T) {
	l := gather(t, pedigree(t), "R", DefaultConfig())

	if i, ok := l.LinkAt(266, 450); !ok || i != l.Root {
		t.Errorf("LinkAt(root centre) = %d, %v, want %d", i, ok, l.Root)
	}
	i, ok := l.LinkAt(266, 367)
	if !ok || l.Links[i].Kind != KindMarker || l.Links[i].Entity != "R" {
		t.Errorf("LinkAt(marker) = %d, %v, want R's marker", i, ok)
	}
	if _, ok := l.LinkAt(0, 0); ok {
		t.Error("LinkAt(0, 0) should miss")
	}

	x, y := l.RootRatio()
	if x != 266.0/622.0 || y != 450.0/600.0 {
		t.Errorf("RootRatio = %v, %v", x, y)
	}
	if x, y := emptyLayout(DefaultConfig()).RootRatio(); x != 0.5 || y != 0.5 {
		t.Errorf("empty RootRatio = %v, %v", x, y)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
