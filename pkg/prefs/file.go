package prefs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// FileStore keeps one TOML file per view.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based view store.
// If baseDir is empty, it defaults to $XDG_CONFIG_HOME/kintree/views.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		baseDir = filepath.Join(dir, "kintree", "views")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create view dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) viewPath(name string) string {
	return filepath.Join(s.baseDir, name+".toml")
}

func (s *FileStore) Load(ctx context.Context, name string) (*View, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v View
	if _, err := toml.DecodeFile(s.viewPath(name), &v); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read view %s: %w", name, err)
	}
	v.Name = name
	return &v, nil
}

func (s *FileStore) Save(ctx context.Context, v *View) error {
	if err := ValidateName(v.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	tmp, err := os.CreateTemp(s.baseDir, v.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create view file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode view: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write view file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.viewPath(v.Name)); err != nil {
		return fmt.Errorf("write view file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.viewPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove view file: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read view dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	slices.Sort(names)
	return names, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding the view files.
func (s *FileStore) Path() string { return s.baseDir }

var _ Store = (*FileStore)(nil)
