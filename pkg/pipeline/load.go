package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/matzehuels/kintree/pkg/cache"
	kerrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/observability"
)

// Load reads the genealogy at path and returns it with the content hash
// used for layout cache keys. Files ending in .json are read as JSON,
// everything else as GEDCOM.
func (r *Runner) Load(ctx context.Context, path string) (*gedcom.Gedcom, string, error) {
	if err := kerrors.ValidatePath(path); err != nil {
		return nil, "", err
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, path)
	start := time.Now()

	g, hash, err := load(path)

	var persons, families int
	if g != nil {
		persons, families = g.PersonCount(), g.FamilyCount()
	}
	hooks.OnLoadComplete(ctx, path, persons, families, time.Since(start), err)
	return g, hash, err
}

func load(path string) (*gedcom.Gedcom, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, "", kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "read %s", path)
	}
	g, err := gedcom.Read(path, bytes.NewReader(data))
	if err != nil {
		return nil, "", kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	return g, cache.Hash(data), nil
}
