package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/kintree/pkg/cache"
	kerrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Render produces the artifacts named by opts.Formats. Artifacts are
// cached under the hash of the exported layout document, which includes
// the person labels. The returned bool reports that every artifact came
// from the cache.
func (r *Runner) Render(ctx context.Context, g *gedcom.Gedcom, l *tree.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	labels := render.Labels(g)
	doc, err := render.MarshalJSON(render.Export(l, labels))
	if err != nil {
		return nil, false, kerrors.Wrap(kerrors.ErrCodeInternal, err, "export layout")
	}
	rd := &renderer{layout: l, labels: labels, doc: doc, scale: opts.Scale}
	layoutHash := cache.Hash(doc)

	hooks := observability.Pipeline()
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if format != FormatJSON && !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			}
		}
		allCached = false

		hooks.OnRenderStart(ctx, format)
		start := time.Now()
		data, err := rd.render(ctx, format)
		hooks.OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data

		if format != FormatJSON {
			if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
				opts.Logger.Warn("cache artifact", "format", format, "err", err)
			}
		}
	}
	return artifacts, allCached, nil
}

// renderer produces formats from one layout, sharing the DOT and SVG
// intermediates between them.
type renderer struct {
	layout *tree.Layout
	labels render.LabelFunc
	doc    []byte
	scale  float64

	dot string
	svg []byte
}

func (rd *renderer) render(ctx context.Context, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return rd.doc, nil
	case FormatDOT:
		return []byte(rd.toDOT()), nil
	case FormatSVG:
		return rd.toSVG(ctx)
	case FormatPDF, FormatPNG:
		svg, err := rd.toSVG(ctx)
		if err != nil {
			return nil, err
		}
		var data []byte
		if format == FormatPDF {
			data, err = render.ToPDF(ctx, svg)
		} else {
			data, err = render.ToPNG(ctx, svg, rd.scale)
		}
		if errors.Is(err, render.ErrNoConverter) {
			return nil, kerrors.Wrap(kerrors.ErrCodeUnsupported, err, "render %s", format)
		}
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ErrCodeInternal, err, "render %s", format)
		}
		return data, nil
	}
	return nil, kerrors.New(kerrors.ErrCodeInvalidFormat, "unsupported format: %q", format)
}

func (rd *renderer) toDOT() string {
	if rd.dot == "" {
		rd.dot = render.ToDOT(rd.layout, rd.labels)
	}
	return rd.dot
}

func (rd *renderer) toSVG(ctx context.Context) ([]byte, error) {
	if rd.svg != nil {
		return rd.svg, nil
	}
	svg, err := render.RenderSVG(ctx, rd.toDOT())
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInternal, err, "render svg")
	}
	rd.svg = svg
	return svg, nil
}
