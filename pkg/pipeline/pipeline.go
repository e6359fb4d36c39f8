// Package pipeline provides the load → layout → render pipeline shared by
// the kintree CLI and HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a GEDCOM or JSON genealogy and hash its contents
//  2. Layout: gather the tree around a root entity
//  3. Render: export the layout as JSON, Graphviz DOT, SVG, PDF or PNG
//
// Layouts are cached by source hash, root, collapsed set and config;
// artifacts by layout hash and format. Each stage can be run on its own.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "royal.ged",
//	    Root:    "I1",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	kerrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// Orientation constants.
const (
	OrientationVertical   = "vertical"
	OrientationHorizontal = "horizontal"
)

// DefaultScale is the PNG rasterization scale.
const DefaultScale = 2.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
}

// ValidOrientations is the set of supported orientations.
var ValidOrientations = map[string]bool{
	OrientationVertical:   true,
	OrientationHorizontal: true,
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Input string `json:"input"`

	// Layout options
	Root              string   `json:"root,omitempty"`
	Collapsed         []string `json:"collapsed,omitempty"`
	Orientation       string   `json:"orientation,omitempty"`
	PersonWidth       int      `json:"person_width,omitempty"`
	PersonHeight      int      `json:"person_height,omitempty"`
	FamilyWidth       int      `json:"family_width,omitempty"`
	FamilyHeight      int      `json:"family_height,omitempty"`
	NoMarriageSymbols bool     `json:"no_marriage_symbols,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	Refresh bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Gedcom is the loaded genealogy.
	Gedcom *gedcom.Gedcom

	// SourceHash is the content hash of the input file.
	SourceHash string

	// Layout is the gathered tree.
	Layout *tree.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Persons    int
	Families   int
	Links      int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool // all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return kerrors.ValidateFormat(format, ValidFormats)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOrientation checks that an orientation is valid.
func ValidateOrientation(o string) error {
	if !ValidOrientations[o] {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "invalid orientation: %q (must be vertical or horizontal)", o)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := kerrors.ValidatePath(o.Input); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLayout normalizes entity ids and applies layout defaults.
func (o *Options) ValidateForLayout() error {
	if o.Root != "" {
		if err := kerrors.ValidateEntityID(o.Root); err != nil {
			return err
		}
		o.Root = kerrors.NormalizeID(o.Root)
	}
	for i, id := range o.Collapsed {
		if err := kerrors.ValidateEntityID(id); err != nil {
			return err
		}
		o.Collapsed[i] = kerrors.NormalizeID(id)
	}
	o.SetLayoutDefaults()
	if err := ValidateOrientation(o.Orientation); err != nil {
		return err
	}
	if err := kerrors.ValidateSize(o.PersonWidth, o.PersonHeight); err != nil {
		return err
	}
	return kerrors.ValidateSize(o.FamilyWidth, o.FamilyHeight)
}

// SetLayoutDefaults fills unset layout options from [tree.DefaultConfig].
func (o *Options) SetLayoutDefaults() {
	def := tree.DefaultConfig()
	if o.Orientation == "" {
		o.Orientation = OrientationVertical
	}
	if o.PersonWidth == 0 {
		o.PersonWidth = def.PersonSize.Width
	}
	if o.PersonHeight == 0 {
		o.PersonHeight = def.PersonSize.Height
	}
	if o.FamilyWidth == 0 {
		o.FamilyWidth = def.FamilySize.Width
	}
	if o.FamilyHeight == 0 {
		o.FamilyHeight = def.FamilySize.Height
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Config returns the layout config described by the options.
func (o *Options) Config() tree.Config {
	cfg := tree.DefaultConfig()
	if o.PersonWidth > 0 && o.PersonHeight > 0 {
		cfg.PersonSize = tree.Size{Width: o.PersonWidth, Height: o.PersonHeight}
	}
	if o.FamilyWidth > 0 && o.FamilyHeight > 0 {
		cfg.FamilySize = tree.Size{Width: o.FamilyWidth, Height: o.FamilyHeight}
	}
	cfg.Vertical = o.Orientation != OrientationHorizontal
	cfg.MarriageSymbols = !o.NoMarriageSymbols
	return cfg
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Root:      o.Root,
		Collapsed: slices.Clone(o.Collapsed),
		Config:    o.Config(),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	if format == FormatPNG {
		format = fmt.Sprintf("%s@%gx", format, o.Scale)
	}
	return cache.ArtifactKeyOpts{Format: format}
}

// Coded maps the sentinel errors of the data and layout packages onto coded
// errors. Errors that already carry a code are returned unchanged.
func Coded(err error) error {
	if err == nil || kerrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, gedcom.ErrDuplicateID):
		return kerrors.Wrap(kerrors.ErrCodeAmbiguousID, err, "ambiguous entity")
	case errors.Is(err, gedcom.ErrUnknownEntity):
		return kerrors.Wrap(kerrors.ErrCodeEntityNotFound, err, "entity not found")
	case errors.Is(err, gedcom.ErrInvalidID):
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "invalid entity")
	case errors.Is(err, tree.ErrNotCollapsible):
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "cannot collapse")
	case errors.Is(err, tree.ErrUnknownLink):
		return kerrors.Wrap(kerrors.ErrCodeNotFound, err, "link not found")
	case errors.Is(err, tree.ErrCyclicRelationship), errors.Is(err, gedcom.ErrCycle):
		return kerrors.Wrap(kerrors.ErrCodeCyclicRelationship, err, "cannot lay out tree")
	case errors.Is(err, tree.ErrInvalidConfig):
		return kerrors.Wrap(kerrors.ErrCodeInvalidSize, err, "invalid layout config")
	}
	return kerrors.Wrap(kerrors.ErrCodeInternal, err, "internal error")
}
