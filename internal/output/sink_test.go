package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stitch/internal/errors"
)

func TestMeasure(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Stats
	}{
		{"empty", "", Stats{Lines: 1, Characters: 0, Words: 0, Bytes: 0}},
		{"single line", "Hello world", Stats{Lines: 1, Characters: 11, Words: 2, Bytes: 11}},
		{"parts", "Hello\n\nWorld !", Stats{Lines: 3, Characters: 14, Words: 3, Bytes: 14}},
		{"trailing newline", "a\n", Stats{Lines: 2, Characters: 2, Words: 1, Bytes: 2}},
		{"mixed whitespace", " a\tb \n c  ", Stats{Lines: 2, Characters: 10, Words: 3, Bytes: 10}},
		{"multibyte", "héllo → wörld", Stats{Lines: 1, Characters: 13, Words: 3, Bytes: 17}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Measure(tt.text))
		})
	}
}

func TestSinkWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewSink(fs, filepath.Join("dist", "prompt.md"))

	stats, err := sink.Write(context.Background(), "Hello\n\nWorld !")
	require.NoError(t, err)
	assert.Equal(t, Measure("Hello\n\nWorld !"), stats)

	data, err := afero.ReadFile(fs, filepath.Join("dist", "prompt.md"))
	require.NoError(t, err)
	assert.Equal(t, "Hello\n\nWorld !", string(data))

	entries, err := afero.ReadDir(fs, "dist")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "dist/prompt.md", filepath.ToSlash(sink.Path()))
}

func TestSinkOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewSink(fs, "out/prompt.md")

	_, err := sink.Write(context.Background(), "a much longer first version")
	require.NoError(t, err)
	_, err = sink.Write(context.Background(), "short")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "out/prompt.md")
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestSinkWriteOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "dist", "prompt.md")
	sink := NewSink(afero.NewOsFs(), path)

	_, err := sink.Write(context.Background(), "content")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestSinkWriteFailed(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "dist/prompt.md", []byte("previous"), 0644))
	sink := NewSink(afero.NewReadOnlyFs(base), "dist/prompt.md")

	_, err := sink.Write(context.Background(), "new")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrWriteFailed)

	data, err := afero.ReadFile(base, "dist/prompt.md")
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data), "previous output must survive a failed write")
}

func TestSinkWriteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSink(afero.NewMemMapFs(), "dist/prompt.md").Write(ctx, "x")
	assert.True(t, errors.IsKind(err, errors.KindWriteFailed))
}
