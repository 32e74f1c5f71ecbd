// Package errors defines the structured error kinds returned while reading
// a manifest, resolving fragments, and writing the composed output.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a build failure.
type Kind string

const (
	KindConfigReadFailed Kind = "config_read_failed"
	KindConfigInvalid    Kind = "config_invalid"
	KindFragmentNotFound Kind = "fragment_not_found"
	KindWriteFailed      Kind = "write_failed"
)

// Common error codes.
const (
	ErrCodeConfigRead       = "ERR_CONFIG_READ"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeConfigParse      = "ERR_CONFIG_PARSE"
	ErrCodeFragmentNotFound = "ERR_FRAGMENT_NOT_FOUND"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
)

// StitchError is a structured error type with context.
type StitchError struct {
	Kind    Kind
	Code    string
	Message string
	File    string
	Cause   error
}

// Error implements the error interface.
func (e *StitchError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.File != "" {
		parts = append(parts, e.File)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *StitchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a StitchError of the same kind. A target
// without a File matches any file; a target with one must match it exactly.
func (e *StitchError) Is(target error) bool {
	var t *StitchError
	if !errors.As(target, &t) {
		return false
	}

	if e.Kind != t.Kind {
		return false
	}

	return t.File == "" || t.File == e.File
}

// WithFile attaches the file the error refers to.
func (e *StitchError) WithFile(file string) *StitchError {
	e.File = file

	return e
}

// Sentinels for errors.Is comparisons against a kind.
var (
	ErrConfigReadFailed = &StitchError{Kind: KindConfigReadFailed}
	ErrConfigInvalid    = &StitchError{Kind: KindConfigInvalid}
	ErrFragmentNotFound = &StitchError{Kind: KindFragmentNotFound}
	ErrWriteFailed      = &StitchError{Kind: KindWriteFailed}
)

// NewConfigReadError creates an error for a manifest that could not be read
// or decoded.
func NewConfigReadError(path string, cause error) *StitchError {
	return &StitchError{
		Kind:    KindConfigReadFailed,
		Code:    ErrCodeConfigRead,
		Message: "failed to read config file",
		File:    path,
		Cause:   cause,
	}
}

// NewConfigInvalidError creates an error for a manifest with a bad shape.
func NewConfigInvalidError(message string) *StitchError {
	return &StitchError{
		Kind:    KindConfigInvalid,
		Code:    ErrCodeConfigInvalid,
		Message: message,
	}
}

// NewFragmentNotFoundError creates an error for a fragment missing from the
// part store.
func NewFragmentNotFoundError(file string, cause error) *StitchError {
	return &StitchError{
		Kind:    KindFragmentNotFound,
		Code:    ErrCodeFragmentNotFound,
		Message: "part file does not exist",
		File:    file,
		Cause:   cause,
	}
}

// NewWriteError creates an error for an output that could not be written.
func NewWriteError(path string, cause error) *StitchError {
	return &StitchError{
		Kind:    KindWriteFailed,
		Code:    ErrCodeWriteFailed,
		Message: "failed to write output file",
		File:    path,
		Cause:   cause,
	}
}

// KindOf returns the kind of the first StitchError in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *StitchError
	if errors.As(err, &se) {
		return se.Kind, true
	}

	return "", false
}

// IsKind checks if err carries a StitchError of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)

	return ok && k == kind
}

// FileOf returns the file attached to the first StitchError in err's chain.
func FileOf(err error) string {
	var se *StitchError
	if errors.As(err, &se) {
		return se.File
	}

	return ""
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
}

// Report logs err with its kind and file as structured fields.
func Report(ctx context.Context, logger Logger, err error, msg string) {
	if err == nil || logger == nil {
		return
	}

	var se *StitchError
	if errors.As(err, &se) {
		logger.Error(ctx, err, msg, "kind", se.Kind, "code", se.Code, "file", se.File)

		return
	}

	logger.Error(ctx, err, msg)
}
