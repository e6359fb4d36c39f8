package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Engine creates a layout engine over g configured by opts. An explicit
// root must resolve to exactly one entity; collapsed ids that don't resolve
// are dropped by the engine.
func (r *Runner) Engine(g *gedcom.Gedcom, opts Options) (*tree.Engine, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	if opts.Root != "" {
		if _, err := g.Entity(opts.Root); err != nil {
			return nil, Coded(fmt.Errorf("root %s: %w", opts.Root, err))
		}
	}
	e, err := tree.New(g, opts.Config(),
		tree.WithRoot(opts.Root),
		tree.WithCollapsed(opts.Collapsed...),
		tree.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, Coded(err)
	}
	return e, nil
}

// Layout gathers the tree of g. Layouts are cached under sourceHash and the
// layout options; an empty sourceHash disables caching. The returned bool
// reports a cache hit.
func (r *Runner) Layout(ctx context.Context, g *gedcom.Gedcom, sourceHash string, opts Options) (*tree.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Root)
	start := time.Now()

	l, hit, err := r.layout(ctx, g, sourceHash, opts)

	hooks.OnLayoutComplete(ctx, opts.Root, time.Since(start), err)
	return l, hit, err
}

func (r *Runner) layout(ctx context.Context, g *gedcom.Gedcom, sourceHash string, opts Options) (*tree.Layout, bool, error) {
	cfg := opts.Config()
	key := r.Keyer.LayoutKey(sourceHash, opts.LayoutKeyOpts())

	if sourceHash != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached tree.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				cached.Config = cfg
				return &cached, true, nil
			}
			opts.Logger.Debug("discarding unreadable cached layout", "key", key)
		}
	}

	e, err := r.Engine(g, opts)
	if err != nil {
		return nil, false, err
	}
	if err := e.Err(); err != nil {
		return nil, false, Coded(err)
	}
	l := e.Layout()

	if sourceHash != "" {
		if data, err := json.Marshal(l); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err != nil {
				opts.Logger.Warn("cache layout", "err", err)
			}
		}
	}
	return l, false, nil
}
