// Package output persists the composed text and reports its size.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/errors"
)

// Stats summarizes a written output.
type Stats struct {
	Lines      int `json:"lines"`
	Characters int `json:"characters"`
	Words      int `json:"words"`
	Bytes      int `json:"bytes"`
}

// Measure computes Stats for text. Lines counts newline-delimited segments,
// so an empty text has one line; Characters counts code points; Words
// counts whitespace-delimited tokens.
func Measure(text string) Stats {
	return Stats{
		Lines:      strings.Count(text, "\n") + 1,
		Characters: utf8.RuneCountInString(text),
		Words:      len(strings.Fields(text)),
		Bytes:      len(text),
	}
}

// Sink writes the output file at a fixed path.
type Sink struct {
	fs   afero.Fs
	path string
	perm os.FileMode
}

// NewSink creates a sink writing to path on fsys.
func NewSink(fsys afero.Fs, path string) *Sink {
	return &Sink{fs: fsys, path: path, perm: 0644}
}

// Path returns the destination path.
func (s *Sink) Path() string {
	return s.path
}

// Write replaces the destination with text. The parent directory is
// created if needed. Content goes to a temporary sibling first and is then
// renamed into place, so a failed write leaves any previous output intact.
func (s *Sink) Write(ctx context.Context, text string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, errors.NewWriteError(s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return Stats{}, errors.NewWriteError(s.path, fmt.Errorf("creating %s: %w", dir, err))
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return Stats{}, errors.NewWriteError(s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return Stats{}, errors.NewWriteError(s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return Stats{}, errors.NewWriteError(s.path, err)
	}
	if err := s.fs.Chmod(tmpName, s.perm); err != nil {
		_ = s.fs.Remove(tmpName)
		return Stats{}, errors.NewWriteError(s.path, err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return Stats{}, errors.NewWriteError(s.path, err)
	}

	return Measure(text), nil
}
