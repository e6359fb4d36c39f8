package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/tree"
)

// ErrInvalidDocument is returned when decoding a malformed [Document].
var ErrInvalidDocument = errors.New("invalid layout document")

// LabelFunc returns the display label for an entity id.
type LabelFunc func(id string) string

// Labels returns a LabelFunc that shows person names and family ids.
func Labels(g *gedcom.Gedcom) LabelFunc {
	return func(id string) string {
		if p, ok := g.Person(id); ok && p.Name != "" {
			return p.Name
		}
		return id
	}
}

// =============================================================================
// Document - Serialized Layout
// =============================================================================

// Document is the serialization format of a layout.
//
// Nodes keep their index from the layout, so Children and Anchor refer to
// positions in Nodes. X and Y are screen coordinates of the box centre;
// Depth and Lateral are the orientation-neutral ones.
type Document struct {
	Root     int    `json:"root" bson:"root"`
	RootID   string `json:"root_id,omitempty" bson:"root_id,omitempty"`
	Vertical bool   `json:"vertical" bson:"vertical"`
	Width    int    `json:"width" bson:"width"`
	Height   int    `json:"height" bson:"height"`
	Nodes    []Node `json:"nodes" bson:"nodes"`
}

// Node is one positioned link.
type Node struct {
	Kind       string `json:"kind" bson:"kind"`
	Entity     string `json:"entity,omitempty" bson:"entity,omitempty"`
	Label      string `json:"label,omitempty" bson:"label,omitempty"`
	Generation int    `json:"generation" bson:"generation"`
	Depth      int    `json:"depth" bson:"depth"`
	Lateral    int    `json:"lateral" bson:"lateral"`
	X          int    `json:"x" bson:"x"`
	Y          int    `json:"y" bson:"y"`
	Width      int    `json:"width" bson:"width"`
	Height     int    `json:"height" bson:"height"`
	Collapsed  bool   `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Children   []int  `json:"children,omitempty" bson:"children,omitempty"`
	Anchor     *int   `json:"anchor,omitempty" bson:"anchor,omitempty"`
}

// Export converts a layout into a Document. labels may be nil.
func Export(l *tree.Layout, labels LabelFunc) Document {
	s := l.Size()
	doc := Document{
		Root:     l.Root,
		Vertical: l.Config.Vertical,
		Width:    s.Width,
		Height:   s.Height,
		Nodes:    make([]Node, 0, l.Len()),
	}
	if !l.Empty() {
		doc.RootID = l.Links[l.Root].Entity
	}
	for i, k := range l.Links {
		p := l.Position(i)
		size := k.Size(l.Config)
		n := Node{
			Kind:       k.Kind.String(),
			Entity:     k.Entity,
			Generation: k.Generation,
			Depth:      k.Depth,
			Lateral:    k.Lateral,
			X:          p.X,
			Y:          p.Y,
			Width:      size.Width,
			Height:     size.Height,
			Collapsed:  k.Collapsed,
			Children:   k.Children,
		}
		if k.Anchor >= 0 {
			anchor := k.Anchor
			n.Anchor = &anchor
		}
		if labels != nil && k.HasEntity() && k.Kind != tree.KindMarker {
			n.Label = labels(k.Entity)
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc
}

// MarshalJSON serializes a Document to pretty-printed JSON.
func MarshalJSON(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// WriteJSON writes a Document as JSON to w.
func WriteJSON(w io.Writer, doc Document) error {
	data, err := MarshalJSON(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// UnmarshalJSON decodes a Document and checks its link references.
func UnmarshalJSON(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	n := len(doc.Nodes)
	if doc.Root >= n || (doc.Root < 0 && n > 0) {
		return Document{}, fmt.Errorf("%w: root %d out of range", ErrInvalidDocument, doc.Root)
	}
	for i, node := range doc.Nodes {
		for _, c := range node.Children {
			if c < 0 || c >= n {
				return Document{}, fmt.Errorf("%w: node %d has child %d out of range", ErrInvalidDocument, i, c)
			}
		}
		if node.Anchor != nil && (*node.Anchor < 0 || *node.Anchor >= n) {
			return Document{}, fmt.Errorf("%w: node %d has anchor %d out of range", ErrInvalidDocument, i, *node.Anchor)
		}
	}
	return doc, nil
}
