package testutils

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stitch/internal/logging"
)

// CreateTempProject creates a temporary project with the default layout:
// src/parts for fragments and dist for output.
func CreateTempProject(t *testing.T) string {
	tempDir := t.TempDir()

	dirs := []string{
		filepath.Join("src", "parts"),
		"dist",
	}

	for _, dir := range dirs {
		err := os.MkdirAll(filepath.Join(tempDir, dir), 0755)
		require.NoError(t, err)
	}

	return tempDir
}

// CreateTestFragment writes a fragment file on disk and returns its path.
func CreateTestFragment(t *testing.T, dir, name, content string) string {
	fragmentPath := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(fragmentPath), 0755))
	err := os.WriteFile(fragmentPath, []byte(content), 0644)
	require.NoError(t, err)
	return fragmentPath
}

// MemFs returns an in-memory filesystem seeded with files.
func MemFs(t *testing.T, files map[string]string) afero.Fs {
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
	return fs
}

// PathTraversal provides common path traversal vectors.
var PathTraversal = []string{
	"../../../etc/passwd",
	"../secret.md",
	"nested/../../escape.md",
	"../../../../../etc/passwd",
}

// LogEntry is one call captured by RecordingLogger.
type LogEntry struct {
	Level     string
	Message   string
	Err       error
	Component string
	Fields    map[string]interface{}
}

// RecordingLogger is a logging.Logger that keeps every call in memory.
type RecordingLogger struct {
	mu        *sync.Mutex
	entries   *[]LogEntry
	component string
	fields    map[string]interface{}
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{
		mu:      &sync.Mutex{},
		entries: &[]LogEntry{},
		fields:  map[string]interface{}{},
	}
}

func (r *RecordingLogger) record(level string, err error, msg string, fields []interface{}) {
	merged := make(map[string]interface{}, len(r.fields)+len(fields)/2)
	for k, v := range r.fields {
		merged[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			merged[key] = fields[i+1]
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, LogEntry{
		Level:     level,
		Message:   msg,
		Err:       err,
		Component: r.component,
		Fields:    merged,
	})
}

func (r *RecordingLogger) Debug(_ context.Context, msg string, fields ...interface{}) {
	r.record("debug", nil, msg, fields)
}

func (r *RecordingLogger) Info(_ context.Context, msg string, fields ...interface{}) {
	r.record("info", nil, msg, fields)
}

func (r *RecordingLogger) Success(_ context.Context, msg string, fields ...interface{}) {
	r.record("success", nil, msg, fields)
}

func (r *RecordingLogger) Warn(_ context.Context, err error, msg string, fields ...interface{}) {
	r.record("warn", err, msg, fields)
}

func (r *RecordingLogger) Error(_ context.Context, err error, msg string, fields ...interface{}) {
	r.record("error", err, msg, fields)
}

func (r *RecordingLogger) With(fields ...interface{}) logging.Logger {
	merged := make(map[string]interface{}, len(r.fields)+len(fields)/2)
	for k, v := range r.fields {
		merged[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			merged[key] = fields[i+1]
		}
	}
	return &RecordingLogger{mu: r.mu, entries: r.entries, component: r.component, fields: merged}
}

func (r *RecordingLogger) WithComponent(component string) logging.Logger {
	return &RecordingLogger{mu: r.mu, entries: r.entries, component: component, fields: r.fields}
}

// Entries returns a copy of everything logged so far.
func (r *RecordingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(*r.entries))
	copy(out, *r.entries)
	return out
}

// Messages returns the messages logged at level, in order.
func (r *RecordingLogger) Messages(level string) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// WaitForFileChange waits for a file to be modified after originalModTime.
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
