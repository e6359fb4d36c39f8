// Package cli implements the kintree command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	kerrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/prefs"
	"github.com/matzehuels/kintree/pkg/tree"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "kintree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	redisURL string // artifact cache backend; empty means file cache
	mongoURI string // view store backend; empty means TOML files
	mongoDB  string
	viewDir  string // TOML view directory; empty means the user config dir
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache.Instrument(ch, "pipeline"), nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: c.redisURL, Prefix: appName + ":"})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Debug("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens the view store: MongoDB when --mongo is set, TOML files
// otherwise.
func (c *CLI) newStore(ctx context.Context) (prefs.Store, error) {
	if c.mongoURI != "" {
		s, err := prefs.NewMongoStore(ctx, prefs.MongoConfig{URI: c.mongoURI, Database: c.mongoDB})
		if err != nil {
			return nil, fmt.Errorf("connect view store: %w", err)
		}
		return s, nil
	}
	return prefs.NewFileStore(c.viewDir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/kintree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// viewName returns the explicit view name, or the input's base name without
// extension so that each file keeps its own view.
func viewName(explicit, input string) string {
	if explicit != "" {
		return explicit
	}
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if prefs.ValidateName(name) != nil {
		return prefs.DefaultViewName
	}
	return name
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the flags shared by every command that lays out a tree.
type layoutFlags struct {
	view       string
	root       string
	collapsed  []string
	horizontal bool
	personSize string
	familySize string
	noSymbols  bool
	noCache    bool
}

// options merges the saved view v with the flags that were set explicitly;
// flags win.
func (f *layoutFlags) options(input string, v *prefs.View, changed func(string) bool) (pipeline.Options, error) {
	opts := pipeline.Options{
		Input:             input,
		Root:              v.Root,
		Collapsed:         v.Collapsed,
		Orientation:       pipeline.OrientationVertical,
		PersonWidth:       v.PersonSize.Width,
		PersonHeight:      v.PersonSize.Height,
		FamilyWidth:       v.FamilySize.Width,
		FamilyHeight:      v.FamilySize.Height,
		NoMarriageSymbols: !v.MarriageSymbols,
	}
	if !v.Vertical {
		opts.Orientation = pipeline.OrientationHorizontal
	}

	if changed("root") {
		opts.Root = f.root
	}
	if changed("collapse") {
		opts.Collapsed = f.collapsed
	}
	if changed("horizontal") {
		opts.Orientation = pipeline.OrientationVertical
		if f.horizontal {
			opts.Orientation = pipeline.OrientationHorizontal
		}
	}
	if changed("no-marriage-symbols") {
		opts.NoMarriageSymbols = f.noSymbols
	}
	if changed("person-size") {
		s, err := parseSize(f.personSize)
		if err != nil {
			return opts, err
		}
		opts.PersonWidth, opts.PersonHeight = s.Width, s.Height
	}
	if changed("family-size") {
		s, err := parseSize(f.familySize)
		if err != nil {
			return opts, err
		}
		opts.FamilyWidth, opts.FamilyHeight = s.Width, s.Height
	}
	return opts, nil
}

// parseSize parses "WIDTHxHEIGHT", e.g. "160x90".
func parseSize(s string) (tree.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return tree.Size{}, kerrors.New(kerrors.ErrCodeInvalidSize, "invalid size %q (want WIDTHxHEIGHT)", s)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil {
		return tree.Size{}, kerrors.New(kerrors.ErrCodeInvalidSize, "invalid size %q (want WIDTHxHEIGHT)", s)
	}
	if err := kerrors.ValidateSize(width, height); err != nil {
		return tree.Size{}, err
	}
	return tree.Size{Width: width, Height: height}, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .dot, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
