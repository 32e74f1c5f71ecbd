package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/conneroisu/stitch/internal/testutils"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (r *eventRecorder) handle(event ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) has(eventType EventType, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type == eventType && e.Path == path {
			return true
		}
	}
	return false
}

func (r *eventRecorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Path)
	}
	return out
}

func startWatcher(t *testing.T, dir string, filters ...FileFilter) *eventRecorder {
	t.Helper()

	fw, err := NewFileWatcher(testutils.NewRecordingLogger())
	require.NoError(t, err)

	for _, f := range filters {
		fw.AddFilter(f)
	}
	rec := &eventRecorder{}
	fw.AddHandler(rec.handle)

	require.NoError(t, fw.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, fw.Start(ctx))
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, fw.Stop())
	})

	return rec
}

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeAdded, "added"},
		{EventTypeModified, "modified"},
		{EventTypeRemoved, "removed"},
		{EventType(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.logger)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddFilterAndHandler(t *testing.T) {
	watcher, err := NewFileWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(FragmentFilter)
	watcher.AddFilter(NoHiddenFilter)
	assert.Len(t, watcher.filters, 2)

	watcher.AddHandler(func(ChangeEvent) error { return nil })
	assert.Len(t, watcher.handlers, 1)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NoError(t, watcher.AddPath(t.TempDir()))
	assert.Error(t, watcher.AddPath("/non/existent/path"))
}

func TestFileWatcherAddRecursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sections", "deep"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))

	watcher, err := NewFileWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(dir))

	watched := watcher.WatchList()
	assert.Contains(t, watched, dir)
	assert.Contains(t, watched, filepath.Join(dir, "sections"))
	assert.Contains(t, watched, filepath.Join(dir, "sections", "deep"))
	assert.NotContains(t, watched, filepath.Join(dir, ".git"))

	assert.Error(t, watcher.AddRecursive(filepath.Join(dir, "missing")))
}

func TestFileWatcherEvents(t *testing.T) {
	dir := t.TempDir()
	existing := testutils.CreateTestFragment(t, dir, "intro.md", "v1")

	rec := startWatcher(t, dir, FragmentFilter, NoHiddenFilter)

	added := filepath.Join(dir, "body.md")
	require.NoError(t, os.WriteFile(added, []byte("new"), 0644))
	assert.Eventually(t, func() bool { return rec.has(EventTypeAdded, added) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(existing, []byte("v2"), 0644))
	assert.Eventually(t, func() bool { return rec.has(EventTypeModified, existing) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(existing))
	assert.Eventually(t, func() bool { return rec.has(EventTypeRemoved, existing) }, 2*time.Second, 10*time.Millisecond)
}

func TestFileWatcherFiltersEvents(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, dir, FragmentFilter, NoHiddenFilter)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0644))
	marker := filepath.Join(dir, "marker.md")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0644))

	require.Eventually(t, func() bool { return rec.has(EventTypeAdded, marker) }, 2*time.Second, 10*time.Millisecond)
	for _, p := range rec.paths() {
		assert.Equal(t, marker, p)
	}
}

func TestFileWatcherWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, dir, FragmentFilter)

	sub := filepath.Join(dir, "chapters")
	require.NoError(t, os.Mkdir(sub, 0755))

	target := filepath.Join(sub, "one.md")
	assert.Eventually(t, func() bool {
		// Rewrite until the new directory has been picked up.
		_ = os.WriteFile(target, []byte("x"), 0644)
		return rec.has(EventTypeAdded, target) || rec.has(EventTypeModified, target)
	}, 2*time.Second, 50*time.Millisecond)
}

func TestFileWatcherHandlerErrorsDoNotStopDelivery(t *testing.T) {
	dir := t.TempDir()

	fw, err := NewFileWatcher(nil)
	require.NoError(t, err)

	rec := &eventRecorder{}
	fw.AddHandler(func(ChangeEvent) error { return errors.New("handler failed") })
	fw.AddHandler(rec.handle)
	require.NoError(t, fw.AddPath(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()

	target := filepath.Join(dir, "a.md")
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte("x"), 0644)
		return rec.has(EventTypeAdded, target) || rec.has(EventTypeModified, target)
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	assert.NoError(t, fw.Stop(), "Stop is idempotent")
}

func TestFragmentFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"intro.md", true},
		{"README.MD", true},
		{"config.json", true},
		{"config.jsonc", true},
		{"config.yaml", true},
		{"config.yml", true},
		{"notes.txt", true},
		{"main.go", false},
		{"image.png", false},
		{"noext", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, FragmentFilter(tc.path))
		})
	}
}

func TestNoHiddenFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"src/parts/intro.md", true},
		{"./src/parts/intro.md", true},
		{"../parts/intro.md", true},
		{".git/config", false},
		{"src/.cache/intro.md", false},
		{"src/parts/.intro.md.swp", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, NoHiddenFilter(tc.path))
		})
	}
}

func TestNoEditorTempFilter(t *testing.T) {
	assert.True(t, NoEditorTempFilter("intro.md"))
	assert.False(t, NoEditorTempFilter("intro.md~"))
	assert.False(t, NoEditorTempFilter("intro.md.swp"))
	assert.False(t, NoEditorTempFilter("prompt.md.123.tmp"))
}

func TestExcludeFilter(t *testing.T) {
	filter := ExcludeFilter("dist/prompt.md")

	assert.False(t, filter("dist/prompt.md"))
	assert.False(t, filter("./dist/../dist/prompt.md"))
	assert.True(t, filter("dist/other.md"))
}
