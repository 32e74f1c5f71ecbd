// Package partstore resolves fragment ids to their raw text.
//
// Fragments live under a single root directory. A Store never writes; the
// files are authored outside of stitch and read fresh on every build.
package partstore

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/errors"
)

// Store maps fragment ids (file names relative to the parts directory) to
// their content.
type Store interface {
	Get(id string) (string, error)
	Exists(id string) bool
}

// FSStore is a Store backed by an afero filesystem.
type FSStore struct {
	fs afero.Fs
}

// New returns a store reading fragments from fsys, which is treated as the
// parts root.
func New(fsys afero.Fs) *FSStore {
	return &FSStore{fs: fsys}
}

// NewOS returns a store rooted at dir on the host filesystem.
func NewOS(dir string) *FSStore {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// Fs exposes the underlying filesystem.
func (s *FSStore) Fs() afero.Fs {
	return s.fs
}

// Get returns the content of the fragment id.
func (s *FSStore) Get(id string) (string, error) {
	name, err := clean(id)
	if err != nil {
		return "", errors.NewFragmentNotFoundError(id, err)
	}

	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		return "", errors.NewFragmentNotFoundError(id, err)
	}

	return string(data), nil
}

// Exists reports whether id names a file (not a directory) in the store.
func (s *FSStore) Exists(id string) bool {
	name, err := clean(id)
	if err != nil {
		return false
	}

	info, err := s.fs.Stat(name)
	if err != nil {
		return false
	}

	return !info.IsDir()
}

// clean normalizes id to a slash-separated relative path that stays inside
// the root.
func clean(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("empty fragment id")
	}

	name := strings.TrimPrefix(path.Clean(filepath.ToSlash(id)), "/")
	if name == "." || !fs.ValidPath(name) {
		return "", fmt.Errorf("fragment id %q escapes the parts directory", id)
	}

	return filepath.FromSlash(name), nil
}
