// Package prefs persists per-view tree preferences.
//
// A [View] records what a user last looked at: the root entity, the
// collapsed entities, box sizes and orientation. It is read when a tree
// engine is created and written back when the view closes, mirroring the
// engine's [tree.State].
//
// Backends:
//   - [FileStore]: TOML files under the user config directory (CLI)
//   - [MongoStore]: a MongoDB collection (shared server deployments)
//   - [MemoryStore]: in-process, for tests and ephemeral servers
//
// [tree.State]: github.com/matzehuels/kintree/pkg/tree#State
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/kintree/pkg/tree"
)

var (
	// ErrNotFound is returned by Load when no view is stored under a name.
	ErrNotFound = errors.New("view not found")

	// ErrInvalidName is returned for empty names or names containing path
	// separators.
	ErrInvalidName = errors.New("invalid view name")
)

// DefaultViewName is used when the caller does not name a view.
const DefaultViewName = "default"

// View is the persisted state of one tree view.
type View struct {
	Name            string    `toml:"name" json:"name" bson:"_id"`
	Root            string    `toml:"root" json:"root" bson:"root"`
	Collapsed       []string  `toml:"collapsed" json:"collapsed" bson:"collapsed"`
	PersonSize      tree.Size `toml:"person_size" json:"person_size" bson:"person_size"`
	FamilySize      tree.Size `toml:"family_size" json:"family_size" bson:"family_size"`
	Vertical        bool      `toml:"vertical" json:"vertical" bson:"vertical"`
	MarriageSymbols bool      `toml:"marriage_symbols" json:"marriage_symbols" bson:"marriage_symbols"`
	StickToRoot     bool      `toml:"stick_to_root" json:"stick_to_root" bson:"stick_to_root"`
	UpdatedAt       time.Time `toml:"updated_at" json:"updated_at" bson:"updated_at"`
}

// Store loads and saves views.
type Store interface {
	// Load returns the view stored under name, or ErrNotFound.
	Load(ctx context.Context, name string) (*View, error)
	// Save stores v under v.Name, replacing any previous version.
	Save(ctx context.Context, v *View) error
	// Delete removes a view. Deleting a missing view is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the stored view names in lexical order.
	List(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// NewView returns a view with the default layout config.
func NewView(name string) *View {
	cfg := tree.DefaultConfig()
	return &View{
		Name:            name,
		PersonSize:      cfg.PersonSize,
		FamilySize:      cfg.FamilySize,
		Vertical:        cfg.Vertical,
		MarriageSymbols: cfg.MarriageSymbols,
	}
}

// FromState captures an engine state as a view.
func FromState(name string, s tree.State) *View {
	return &View{
		Name:            name,
		Root:            s.Root,
		Collapsed:       s.Collapsed,
		PersonSize:      s.Config.PersonSize,
		FamilySize:      s.Config.FamilySize,
		Vertical:        s.Config.Vertical,
		MarriageSymbols: s.Config.MarriageSymbols,
		StickToRoot:     s.StickToRoot,
	}
}

// Config applies the view's sizes and flags to base. Unset sizes keep the
// base values.
func (v *View) Config(base tree.Config) tree.Config {
	cfg := base
	if v.PersonSize.Width > 0 && v.PersonSize.Height > 0 {
		cfg.PersonSize = v.PersonSize
	}
	if v.FamilySize.Width > 0 && v.FamilySize.Height > 0 {
		cfg.FamilySize = v.FamilySize
	}
	cfg.Vertical = v.Vertical
	cfg.MarriageSymbols = v.MarriageSymbols
	return cfg
}

// Options returns the engine options restoring the view.
func (v *View) Options() []tree.Option {
	return []tree.Option{
		tree.WithRoot(v.Root),
		tree.WithCollapsed(v.Collapsed...),
		tree.WithStickToRoot(v.StickToRoot),
	}
}

// ValidateName rejects names that cannot be used as a file or document key.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LoadOrNew loads a view, or returns a fresh one when none is stored.
func LoadOrNew(ctx context.Context, s Store, name string) (*View, error) {
	v, err := s.Load(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return NewView(name), nil
	}
	return v, err
}
