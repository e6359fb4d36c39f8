package gedcom

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Document is the JSON form of a genealogy.
type Document struct {
	Persons  []Person `json:"persons"`
	Families []Family `json:"families"`
}

// ReadJSON decodes a [Document] into a new genealogy.
func ReadJSON(r io.Reader) (*Gedcom, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g := New()
	g.load(doc.Persons, doc.Families)
	return g, nil
}

// WriteJSON encodes g as an indented [Document].
func WriteJSON(g *Gedcom, w io.Writer) error {
	doc := Document{Persons: []Person{}, Families: []Family{}}
	for _, p := range g.Persons() {
		doc.Persons = append(doc.Persons, *p)
	}
	for _, f := range g.Families() {
		doc.Families = append(doc.Families, *f)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadFile reads a genealogy from path, choosing the format by extension:
// .json is JSON, anything else is parsed as GEDCOM.
func ReadFile(path string) (*Gedcom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(path, f)
}

// Read parses r in the format implied by the extension of name.
func Read(name string, r io.Reader) (*Gedcom, error) {
	if isJSONPath(name) {
		return ReadJSON(r)
	}
	return ReadGEDCOM(r)
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
