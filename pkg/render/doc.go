// Package render turns a finished tree layout into output formats.
//
// # Overview
//
// The layout engine in [tree] produces positioned links in an
// orientation-neutral (depth, lateral) coordinate system. This package is
// the renderer side of that contract:
//
//   - [Export] builds a [Document] with both coordinate systems and labels
//   - [MarshalJSON] / [WriteJSON] serialize it for web front-ends
//   - [ToDOT] emits Graphviz DOT with every node pinned at its position
//   - [RenderSVG] renders that DOT with Graphviz (neato honours the pins)
//   - [ToPDF] / [ToPNG] convert SVG output with rsvg-convert
//
// # Usage
//
//	labels := render.Labels(g)
//	doc := render.Export(engine.Layout(), labels)
//	data, err := render.MarshalJSON(doc)
//
//	dot := render.ToDOT(engine.Layout(), labels)
//	svg, err := render.RenderSVG(ctx, dot)
//
// [tree]: github.com/matzehuels/kintree/pkg/tree
package render
