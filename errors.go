package schemaforge

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotImplemented is returned by operations that are declared in
	// the public surface but intentionally not implemented yet.
	ErrNotImplemented = errors.New("schemaforge: not implemented")

	// ErrLoadFailed indicates a schema file could not be loaded.
	ErrLoadFailed = errors.New("schemaforge: schema load failed")

	// ErrWatchFailed indicates a watcher refresh cycle failed.
	ErrWatchFailed = errors.New("schemaforge: watch cycle failed")
)

// LoadError represents a failure to read or parse a schema file.
// It always carries the offending path and, when known, a line number.
type LoadError struct {
	Path    string
	Line    int // 1-based, 0 when unknown
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("schemaforge: load error")
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

// NewLoadError creates a new LoadError for the given path.
func NewLoadError(path, message string, cause error) *LoadError {
	return &LoadError{
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// WatchError represents a failure inside a watcher refresh cycle.
// The watcher keeps running after emitting it; the last good snapshot
// is retained.
type WatchError struct {
	Op      string // "load", "diff", "fsnotify"
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *WatchError) Error() string {
	var b strings.Builder
	b.WriteString("schemaforge: watch error")
	if e.Op != "" {
		fmt.Fprintf(&b, " during %s", e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *WatchError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for WatchError.
func (e *WatchError) Is(target error) bool {
	return target == ErrWatchFailed
}

// NewWatchError creates a new WatchError for the given operation.
func NewWatchError(op, message string, cause error) *WatchError {
	return &WatchError{
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// IsLoadError reports whether the error is a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsWatchError reports whether the error is a WatchError.
func IsWatchError(err error) bool {
	var we *WatchError
	return errors.As(err, &we)
}
