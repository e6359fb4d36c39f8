package render

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/tree"
)

func pedigree(t *testing.T) (*gedcom.Gedcom, *tree.Layout) {
	t.Helper()
	g := gedcom.New()
	err := g.Do(func(tx *gedcom.Tx) error {
		for _, p := range []gedcom.Person{{ID: "R", Name: "Rosa"}, {ID: "F", Name: "Franz"}, {ID: "M", Name: "Maria"}} {
			if _, err := tx.AddPerson(p); err != nil {
				return err
			}
		}
		_, err := tx.AddFamily(gedcom.Family{ID: "F1", Husband: "F", Wife: "M", Children: []string{"R"}})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	l, err := tree.Gather(g, "R", tree.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return g, l
}

func TestExport(t *testing.T) {
	g, l := pedigree(t)
	doc := Export(l, Labels(g))

	if doc.RootID != "R" || doc.Root != l.Root || len(doc.Nodes) != l.Len() {
		t.Fatalf("doc = root %d (%s), %d nodes", doc.Root, doc.RootID, len(doc.Nodes))
	}
	if s := l.Size(); doc.Width != s.Width || doc.Height != s.Height || !doc.Vertical {
		t.Errorf("doc size = %dx%d, want %dx%d", doc.Width, doc.Height, s.Width, s.Height)
	}
	for i, n := range doc.Nodes {
		p := l.Position(i)
		if n.X != p.X || n.Y != p.Y {
			t.Errorf("node %d at (%d, %d), want %v", i, n.X, n.Y, p)
		}
		if n.Anchor != nil {
			t.Errorf("node %d has anchor %d", i, *n.Anchor)
		}
	}
	root := doc.Nodes[doc.Root]
	if root.Label != "Rosa" || root.Kind != "person" || root.Width != 160 || root.Height != 90 {
		t.Errorf("root node = %+v", root)
	}
	for _, n := range doc.Nodes {
		if n.Kind == "family" && n.Label != "F1" {
			t.Errorf("family label = %q, want F1", n.Label)
		}
		if n.Kind == "marker" && n.Label != "" {
			t.Errorf("marker label = %q, want none", n.Label)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g, l := pedigree(t)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Export(l, Labels(g))); err != nil {
		t.Fatal(err)
	}
	doc, err := UnmarshalJSON(buf.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if doc.RootID != "R" || len(doc.Nodes) != l.Len() {
		t.Errorf("decoded root %q with %d nodes", doc.RootID, len(doc.Nodes))
	}
}

func TestUnmarshalJSONInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"root out of range", `{"root": 2, "nodes": [{"kind": "person"}]}`},
		{"missing root", `{"root": -1, "nodes": [{"kind": "person"}]}`},
		{"child out of range", `{"root": 0, "nodes": [{"kind": "family", "children": [5]}]}`},
		{"anchor out of range", `{"root": 0, "nodes": [{"kind": "marker", "anchor": 3}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalJSON([]byte(tt.data)); !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("error = %v, want ErrInvalidDocument", err)
			}
		})
	}
	if _, err := UnmarshalJSON([]byte(`{"root": -1, "nodes": []}`)); err != nil {
		t.Errorf("empty document: %v", err)
	}
	if _, err := UnmarshalJSON([]byte(`not json`)); err == nil {
		t.Error("expected syntax error")
	}
}

func TestToDOT(t *testing.T) {
	g, l := pedigree(t)
	dot := ToDOT(l, Labels(g))

	p := l.Position(l.Root)
	pin := `pos="` + strconv.Itoa(p.X) + "," + strconv.Itoa(l.Size().Height-p.Y) + `!"`
	for _, want := range []string{
		"graph G {",
		"inputscale=72;",
		pin,
		`label="Rosa"`,
		`label="-"`,
		"width=2.222",
		" -- n" + strconv.Itoa(l.Root) + ";",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTCollapsed(t *testing.T) {
	g, _ := pedigree(t)
	set := tree.NewCollapseSet("R")
	l, err := tree.Gather(g, "R", tree.DefaultConfig(), set.Contains)
	if err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(l, nil)
	if !strings.Contains(dot, `label="+"`) || strings.Contains(dot, `label="F"`) {
		t.Errorf("collapsed DOT:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	g, l := pedigree(t)
	svg, err := RenderSVG(context.Background(), ToDOT(l, Labels(g)))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("Rosa")) {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}
