// Package cache stores derived artifacts (layouts, rendered SVG) keyed by
// the content they were computed from.
//
// Backends:
//   - [FileCache]: hashed files under the user cache directory (CLI)
//   - [RedisCache]: a shared Redis instance (servers)
//   - [NewNullCache]: caching disabled (--no-cache, no cache directory)
//
// Keys come from a [Keyer] so that every input that affects an artifact
// (source file contents, root, collapsed set, config, output format) is part
// of its key. Entries never need invalidation; a changed input simply
// produces a different key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"time"
)

// Default time-to-live values for cached entries.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey keys a gathered layout by the hash of its source data.
	LayoutKey(sourceHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered artifact by the hash of its layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout inputs besides the source data.
type LayoutKeyOpts struct {
	Root      string   `json:"root"`
	Collapsed []string `json:"collapsed,omitempty"`
	Config    any      `json:"config"`
}

// ArtifactKeyOpts are the render inputs besides the layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(sourceHash string, opts LayoutKeyOpts) string {
	// The collapse set is a set; its order must not change the key.
	opts.Collapsed = slices.Sorted(slices.Values(opts.Collapsed))
	return hashKey("layout", sourceHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Hash returns the hex SHA-256 of data. The pipeline keys layouts by the
// Hash of the genealogy file's bytes and artifacts by the Hash of the
// layout document, so identical inputs share entries across runs and
// across backends.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "kind:" followed by the Hash of the JSON encoding of parts.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// nullCache misses every lookup and drops every write.
type nullCache struct{}

// NewNullCache returns a cache that stores nothing. The CLI uses it for
// --no-cache and when no cache directory can be determined.
func NewNullCache() Cache { return nullCache{} }

func (nullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullCache) Delete(context.Context, string) error                     { return nil }
func (nullCache) Close() error                                             { return nil }
