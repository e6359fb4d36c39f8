package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/observability"
)

// logHooks reports pipeline, cache and engine events as debug log lines.
// It is installed by the root command when --verbose is set.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
	_ observability.TreeHooks     = (*logHooks)(nil)
)

func (h *logHooks) OnLoadStart(_ context.Context, path string) {
	h.logger.Debug("load start", "path", path)
}

func (h *logHooks) OnLoadComplete(_ context.Context, path string, persons, families int, d time.Duration, err error) {
	h.logger.Debug("load done", "path", path, "persons", persons, "families", families, "duration", d, "err", err)
}

func (h *logHooks) OnLayoutStart(_ context.Context, root string) {
	h.logger.Debug("layout start", "root", root)
}

func (h *logHooks) OnLayoutComplete(_ context.Context, root string, d time.Duration, err error) {
	h.logger.Debug("layout done", "root", root, "duration", d, "err", err)
}

func (h *logHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render start", "format", format)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	h.logger.Debug("render done", "format", format, "duration", d, "err", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnGatherStart(root string) {
	h.logger.Debug("gather start", "root", root)
}

func (h *logHooks) OnGatherComplete(root string, links int, d time.Duration, err error) {
	h.logger.Debug("gather done", "root", root, "links", links, "duration", d, "err", err)
}

func (h *logHooks) OnCollapseToggled(id string, collapsed bool) {
	h.logger.Debug("collapse toggled", "id", id, "collapsed", collapsed)
}
