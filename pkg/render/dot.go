package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/tree"
)

// ToDOT converts a layout to Graphviz DOT. Every node is pinned at its
// layout position, so the result must be rendered with neato (see
// [RenderSVG]). Graphviz's y axis points up; positions are flipped.
//
// Families are connected to the children they were laid out with.
func ToDOT(l *tree.Layout, labels LabelFunc) string {
	height := l.Size().Height

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("\n")

	for i, k := range l.Links {
		p := l.Position(i)
		s := k.Size(l.Config)
		attrs := []string{
			fmt.Sprintf("pos=\"%d,%d!\"", p.X, height-p.Y),
			fmt.Sprintf("width=%s", inches(s.Width)),
			fmt.Sprintf("height=%s", inches(s.Height)),
		}
		attrs = append(attrs, fmtAttrs(k, labels)...)
		fmt.Fprintf(&buf, "  n%d [%s];\n", i, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i, k := range l.Links {
		for _, c := range k.Children {
			fmt.Fprintf(&buf, "  n%d -- n%d;\n", i, c)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(k tree.Link, labels LabelFunc) []string {
	switch k.Kind {
	case tree.KindMarker:
		label := "-"
		if k.Collapsed || !k.HasEntity() {
			label = "+"
		}
		return []string{fmt.Sprintf("label=%q", label), "shape=circle", "fontsize=8"}
	case tree.KindMarriage:
		return []string{"label=\"\"", "shape=circle", "style=filled", "fillcolor=black"}
	}

	label := k.Entity
	if labels != nil && k.HasEntity() {
		label = labels(k.Entity)
	}
	if !k.HasEntity() {
		return []string{"label=\"?\"", "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey"}
	}
	if k.Kind == tree.KindFamily {
		return []string{fmt.Sprintf("label=%q", label), "fillcolor=lightyellow", "fontsize=10"}
	}
	return []string{fmt.Sprintf("label=%q", label)}
}

func inches(points int) string {
	return strconv.FormatFloat(float64(points)/72, 'f', 3, 64)
}

// RenderSVG renders pinned DOT from [ToDOT] to SVG using Graphviz neato.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
