package tree

import (
	"errors"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/gedcom"
)

func quiet() *log.Logger { return log.New(io.Discard) }

func newEngine(t *testing.T, src Source, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	e, err := New(src, DefaultConfig(), append([]Option{WithLogger(quiet())}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := &recorder{}
	e.AddListener(rec)
	return e, rec
}

func TestNewResolvesRoot(t *testing.T) {
	tests := []struct {
		name string
		root string
		want string
	}{
		{"explicit person", "M", "M"},
		{"explicit family", "F2", "F2"},
		{"unknown falls back", "ghost", "R"},
		{"empty falls back", "", "R"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t, pedigree(t), WithRoot(tt.root))
			if e.Root() != tt.want {
				t.Errorf("Root() = %q, want %q", e.Root(), tt.want)
			}
			if e.Err() != nil {
				t.Errorf("Err() = %v", e.Err())
			}
			l := e.Layout()
			if l.Links[l.Root].Entity != tt.want || e.Actual() != l.Root {
				t.Errorf("root link = %+v, actual = %d", l.Links[l.Root], e.Actual())
			}
		})
	}
}

func TestNewEmptySource(t *testing.T) {
	e, _ := newEngine(t, gedcom.New())
	if e.Root() != "" || !e.Layout().Empty() || e.Actual() != -1 {
		t.Errorf("root = %q, layout = %+v", e.Root(), e.Layout())
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpaceBetweenSiblings = -1
	if _, err := New(pedigree(t), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewDropsUnknownCollapsed(t *testing.T) {
	e, _ := newEngine(t, pedigree(t), WithCollapsed("M", "ghost"))
	if got := e.Collapsed(); !slices.Equal(got, []string{"M"}) {
		t.Errorf("Collapsed() = %v, want [M]", got)
	}
	if e.Layout().Contains("GF") {
		t.Error("GF should be hidden behind collapsed M")
	}
}

func TestSetRoot(t *testing.T) {
	e, rec := newEngine(t, pedigree(t))

	if err := e.SetRoot("M"); err != nil {
		t.Fatalf("SetRoot(M): %v", err)
	}
	if e.Root() != "M" || rec.structure != 1 {
		t.Errorf("root = %q, structure events = %d", e.Root(), rec.structure)
	}
	if err := e.SetRoot("ghost"); !errors.Is(err, gedcom.ErrUnknownEntity) {
		t.Errorf("SetRoot(ghost) error = %v", err)
	}
	if e.Root() != "M" || rec.structure != 1 {
		t.Errorf("failed SetRoot changed state: root = %q, events = %d", e.Root(), rec.structure)
	}
}

func TestToggleCollapse(t *testing.T) {
	e, rec := newEngine(t, pedigree(t))

	if c, err := e.ToggleCollapse("M"); err != nil || !c || !e.IsCollapsed("M") {
		t.Fatalf("ToggleCollapse(M) = %v, %v; want collapsed", c, err)
	}
	if e.Layout().Contains("GF") {
		t.Error("GF still in layout")
	}
	if c, err := e.ToggleCollapse("M"); err != nil || c || e.IsCollapsed("M") {
		t.Fatalf("ToggleCollapse(M) = %v, %v; want expanded", c, err)
	}
	if !e.Layout().Contains("GF") {
		t.Error("GF missing after expand")
	}
	if rec.structure != 2 {
		t.Errorf("structure events = %d, want 2", rec.structure)
	}
}

func TestToggleCollapseNothingToHide(t *testing.T) {
	e, rec := newEngine(t, pedigree(t), WithRoot("R"))
	before := e.Layout()

	for _, id := range []string{"F", "GF", "ghost"} {
		c, err := e.ToggleCollapse(id)
		if !errors.Is(err, ErrNotCollapsible) || c {
			t.Errorf("ToggleCollapse(%s) = %v, %v; want ErrNotCollapsible", id, c, err)
		}
	}
	if got := e.Collapsed(); len(got) != 0 {
		t.Errorf("Collapsed() = %v, want none", got)
	}
	if e.Layout() != before || rec.structure != 0 {
		t.Error("refused toggles should not re-gather")
	}
}

func TestNewDropsUncollapsible(t *testing.T) {
	e, _ := newEngine(t, pedigree(t), WithRoot("R"), WithCollapsed("F", "GF", "F2"))
	if got := e.Collapsed(); !slices.Equal(got, []string{"F2"}) {
		t.Errorf("Collapsed() = %v, want [F2]", got)
	}
}

func TestExpandAfterParentsRemoved(t *testing.T) {
	g := pedigree(t)
	e, _ := newEngine(t, g, WithRoot("R"), WithCollapsed("M"))
	if err := g.Do(func(tx *gedcom.Tx) error { return tx.Delete("F2") }); err != nil {
		t.Fatal(err)
	}
	e.HandleChange(g.LastChange())
	if c, err := e.ToggleCollapse("M"); err != nil || c {
		t.Errorf("expanding M = %v, %v; want expanded", c, err)
	}
}

func TestClick(t *testing.T) {
	e, rec := newEngine(t, pedigree(t))
	l := e.Layout()

	f := find(t, l, KindPerson, "F")
	if err := e.Click(f); err != nil {
		t.Fatal(err)
	}
	if e.Actual() != f || len(rec.selections) != 1 || rec.selections[0] != [2]int{l.Root, f} {
		t.Errorf("actual = %d, selections = %v", e.Actual(), rec.selections)
	}
	_ = e.Click(f)
	if len(rec.selections) != 1 {
		t.Error("clicking the actual link again should not notify")
	}

	if err := e.Click(find(t, l, KindMarker, "M")); err != nil {
		t.Fatal(err)
	}
	if !e.IsCollapsed("M") || rec.structure != 1 {
		t.Errorf("marker click: collapsed = %v, structure = %d", e.IsCollapsed("M"), rec.structure)
	}
	if e.Root() != "R" {
		t.Errorf("single click changed root to %q", e.Root())
	}

	for _, i := range []int{-1, e.Layout().Len()} {
		if err := e.Click(i); !errors.Is(err, ErrUnknownLink) {
			t.Errorf("Click(%d) error = %v, want ErrUnknownLink", i, err)
		}
	}
}

func TestDoubleClick(t *testing.T) {
	e, _ := newEngine(t, pedigree(t))
	if err := e.DoubleClick(find(t, e.Layout(), KindFamily, "F2")); err != nil {
		t.Fatal(err)
	}
	if e.Root() != "F2" {
		t.Errorf("Root() = %q, want F2", e.Root())
	}

	e.SetStickToRoot(true)
	gf := find(t, e.Layout(), KindPerson, "GF")
	if err := e.DoubleClick(gf); err != nil {
		t.Fatal(err)
	}
	if e.Root() != "F2" || e.Actual() != gf {
		t.Errorf("stick to root: root = %q, actual = %d, want F2 and %d", e.Root(), e.Actual(), gf)
	}
}

func TestClickSpouseHint(t *testing.T) {
	e, _ := newEngine(t, pedigree(t), WithRoot("F"))
	hint := -1
	for i, k := range e.Layout().Links {
		if k.Kind == KindMarker && !k.HasEntity() {
			hint = i
		}
	}
	if hint < 0 {
		t.Fatal("no spouse hint in layout")
	}
	if err := e.Click(hint); err != nil {
		t.Fatal(err)
	}
	if e.Root() != "M" {
		t.Errorf("Root() = %q, want M", e.Root())
	}
}

func TestClickSpouseHintDuringRelayout(t *testing.T) {
	e, _ := newEngine(t, pedigree(t), WithRoot("F"))
	hint := -1
	for i, k := range e.Layout().Links {
		if k.Kind == KindMarker && !k.HasEntity() {
			hint = i
		}
	}
	if hint < 0 {
		t.Fatal("no spouse hint in layout")
	}

	// Re-gathers replace the layout while the click resolves its anchor.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = e.Relayout()
		}
	}()
	err := e.Click(hint)
	wg.Wait()

	if err != nil {
		t.Fatal(err)
	}
	if e.Root() != "M" {
		t.Errorf("Root() = %q, want M", e.Root())
	}
}

func TestSnapshot(t *testing.T) {
	e, _ := newEngine(t, pedigree(t), WithRoot("R"))
	m := find(t, e.Layout(), KindPerson, "M")
	if err := e.Click(m); err != nil {
		t.Fatal(err)
	}
	s := e.Snapshot()
	if s.Layout != e.Layout() || s.Actual != m || s.Err != nil {
		t.Errorf("Snapshot() = %+v, want layout with actual %d", s, m)
	}
}

func TestSelect(t *testing.T) {
	e, rec := newEngine(t, pedigree(t))
	if !e.Select("GM") {
		t.Fatal("Select(GM) = false")
	}
	if want := find(t, e.Layout(), KindPerson, "GM"); e.Actual() != want {
		t.Errorf("Actual() = %d, want %d", e.Actual(), want)
	}
	if e.Select("ghost") || len(rec.selections) != 1 {
		t.Errorf("Select(ghost) changed selection: %v", rec.selections)
	}
}

func TestConfigChanges(t *testing.T) {
	e, rec := newEngine(t, pedigree(t))

	if err := e.SetVertical(false); err != nil {
		t.Fatal(err)
	}
	if err := e.SetVertical(false); err != nil {
		t.Fatal(err)
	}
	if e.Config().Vertical || rec.structure != 1 {
		t.Errorf("vertical = %v, structure events = %d, want one", e.Config().Vertical, rec.structure)
	}

	if err := e.SetBoxSize(gedcom.KindFamily, Size{Width: 100, Height: 30}); err != nil {
		t.Fatal(err)
	}
	if e.Config().FamilySize != (Size{Width: 100, Height: 30}) {
		t.Errorf("FamilySize = %+v", e.Config().FamilySize)
	}
	if err := e.SetBoxSize(gedcom.KindPerson, Size{Width: 0, Height: 10}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetBoxSize(0x10) error = %v", err)
	}
	if e.Config().PersonSize != DefaultConfig().PersonSize {
		t.Error("invalid size was applied")
	}
}

func TestHandleChange(t *testing.T) {
	g := clan(t)
	e, rec := newEngine(t, g)
	g.AddListener(e)

	t.Run("cosmetic change in layout", func(t *testing.T) {
		before := e.Layout()
		if err := g.Do(func(tx *gedcom.Tx) error { return tx.SetProperty("F", "NAME", "Fritz") }); err != nil {
			t.Fatal(err)
		}
		if len(rec.entities) != 1 || !slices.Equal(rec.entities[0], []string{"F"}) || rec.data != 1 {
			t.Errorf("entities = %v, data = %d", rec.entities, rec.data)
		}
		if e.Layout() != before || rec.structure != 0 {
			t.Error("cosmetic change re-gathered")
		}
	})

	t.Run("cosmetic change outside layout", func(t *testing.T) {
		if err := g.Do(func(tx *gedcom.Tx) error { return tx.SetProperty("U", "NAME", "Uwe") }); err != nil {
			t.Fatal(err)
		}
		if len(rec.entities) != 1 || rec.structure != 0 {
			t.Errorf("entities = %v, structure = %d", rec.entities, rec.structure)
		}
	})

	t.Run("relationship change", func(t *testing.T) {
		if err := g.Do(func(tx *gedcom.Tx) error { return tx.RemoveChild("FE", "G2") }); err != nil {
			t.Fatal(err)
		}
		if rec.structure != 1 || e.Layout().Contains("G2") {
			t.Errorf("structure = %d, G2 shown = %v", rec.structure, e.Layout().Contains("G2"))
		}
	})

	t.Run("root deleted", func(t *testing.T) {
		if err := g.Do(func(tx *gedcom.Tx) error { return tx.Delete("R") }); err != nil {
			t.Fatal(err)
		}
		if e.Root() != "S" || rec.structure != 2 {
			t.Errorf("root = %q, structure = %d, want S and 2", e.Root(), rec.structure)
		}
	})
}

func TestHandleChangeAdoptsFirstEntity(t *testing.T) {
	g := gedcom.New()
	e, rec := newEngine(t, g)
	g.AddListener(e)

	err := g.Do(func(tx *gedcom.Tx) error {
		_, err := tx.AddPerson(gedcom.Person{ID: "A"})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.Root() != "A" || e.Layout().Empty() || rec.structure != 1 {
		t.Errorf("root = %q, empty = %v, structure = %d", e.Root(), e.Layout().Empty(), rec.structure)
	}
}

func TestEngineCycle(t *testing.T) {
	g := build(t, []string{"A", "B"},
		gedcom.Family{ID: "F1", Husband: "B", Children: []string{"A"}},
		gedcom.Family{ID: "F2", Husband: "A", Children: []string{"B"}},
	)
	e, rec := newEngine(t, g)
	if !errors.Is(e.Err(), ErrCyclicRelationship) || !e.Layout().Empty() {
		t.Fatalf("Err() = %v, empty = %v", e.Err(), e.Layout().Empty())
	}
	if err := e.Relayout(); !errors.Is(err, ErrCyclicRelationship) {
		t.Errorf("Relayout error = %v", err)
	}
	if rec.structure != 1 {
		t.Errorf("structure events = %d, want 1", rec.structure)
	}
}

func TestStateAndListeners(t *testing.T) {
	e, rec := newEngine(t, pedigree(t), WithRoot("M"), WithCollapsed("F2"), WithStickToRoot(true))

	s := e.State()
	if s.Root != "M" || !slices.Equal(s.Collapsed, []string{"F2"}) || !s.StickToRoot || s.Config != DefaultConfig() {
		t.Errorf("State() = %+v", s)
	}

	e.RemoveListener(rec)
	_ = e.Relayout()
	if rec.structure != 0 {
		t.Error("removed listener was notified")
	}

	var calls int
	e.AddListener(&Funcs{OnStructure: func() { calls++ }})
	_ = e.Relayout()
	if calls != 1 {
		t.Errorf("Funcs listener called %d times", calls)
	}
}
