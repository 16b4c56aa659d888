package storage

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore keeps content on a filesystem under root. Keys are full paths
// produced by NewKey.
type LocalStore struct {
	fs   afero.Fs
	root string
}

func NewLocalStore(root string) *LocalStore {
	return NewLocalStoreFs(afero.NewOsFs(), root)
}

func NewLocalStoreFs(fsys afero.Fs, root string) *LocalStore {
	return &LocalStore{fs: fsys, root: filepath.Clean(root)}
}

// NewKey returns the location for a new object named name.
func (s *LocalStore) NewKey(name string) string {
	return filepath.Join(s.root, name)
}

func (s *LocalStore) Save(_ context.Context, key string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(key), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, key, data, 0o644)
}

func (s *LocalStore) Open(_ context.Context, key string) ([]byte, error) {
	b, err := afero.ReadFile(s.fs, key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	return b, err
}

func (s *LocalStore) Remove(_ context.Context, key string) error {
	err := s.fs.Remove(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
