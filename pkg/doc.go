// Package pkg provides the libraries behind kintree, a family tree layout
// engine.
//
// # Overview
//
// kintree reads a genealogy and positions the ancestors and descendants of
// one root entity as a tree of boxes. The packages are layered:
//
//  1. [gedcom] - The genealogy model: persons, families, transactions and
//     change events, plus GEDCOM and JSON readers.
//  2. [tree] - The layout engine: the gatherer that positions links and the
//     [tree.Engine] that keeps a layout current as roots, collapse state and
//     the genealogy change.
//  3. [render] - Serialization of layouts as JSON documents, DOT and SVG.
//  4. [pipeline] - Orchestration (load → layout → render) with caching.
//  5. [server] - An HTTP API over a live engine.
//
// Supporting packages:
//
//   - [cache] - Layout and artifact caches (file, Redis, null).
//   - [prefs] - Persisted views (TOML files, MongoDB, memory).
//   - [errors] - Coded errors and input validation.
//   - [observability] - Hooks for instrumentation.
//   - [buildinfo] - Version information set at build time.
//
// # Data Flow
//
//	GEDCOM / JSON file
//	         ↓
//	    [gedcom] package (parse, index, validate)
//	         ↓
//	    [tree] package (gather links around the root)
//	         ↓
//	    [render] package (document, DOT, SVG)
//	         ↓
//	    JSON/DOT/SVG/PDF/PNG output
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "family.ged",
//	    Root:    "I1",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("family.svg", result.Artifacts["svg"], 0o644)
//
// [gedcom]: github.com/matzehuels/kintree/pkg/gedcom
// [tree]: github.com/matzehuels/kintree/pkg/tree
// [tree.Engine]: github.com/matzehuels/kintree/pkg/tree#Engine
// [render]: github.com/matzehuels/kintree/pkg/render
// [pipeline]: github.com/matzehuels/kintree/pkg/pipeline
// [server]: github.com/matzehuels/kintree/pkg/server
// [cache]: github.com/matzehuels/kintree/pkg/cache
// [prefs]: github.com/matzehuels/kintree/pkg/prefs
// [errors]: github.com/matzehuels/kintree/pkg/errors
// [observability]: github.com/matzehuels/kintree/pkg/observability
// [buildinfo]: github.com/matzehuels/kintree/pkg/buildinfo
package pkg
