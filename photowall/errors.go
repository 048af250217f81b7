// Package photowall is the facade that composes the store, indexer,
// thumbnail pipeline, watcher, and auto-scan controller into the single
// Library a host integrates against.
package photowall

import (
	"errors"
	"fmt"

	"github.com/photowall/engine/store"
)

// ErrKind is the facade-level error taxonomy. It reuses store.ErrKind
// rather than redefining an equivalent enum, since every kind the facade
// needs (storage-unavailable, not-found, invalid-argument, ...) already
// exists there; the facade only adds the kinds store has no occasion to
// produce itself (unsupported format, cancelled, permission denied).
type ErrKind = store.ErrKind

const (
	ErrKindUnknown             = store.ErrKindUnknown
	ErrKindNotFound            = store.ErrKindNotFound
	ErrKindConstraintViolation = store.ErrKindConstraintViolation
	ErrKindStorageUnavailable  = store.ErrKindStorageUnavailable
	ErrKindSchemaMismatch      = store.ErrKindSchemaMismatch
	ErrKindInvalidArgument     = store.ErrKindInvalidArgument
)

// Kinds with no store.ErrKind equivalent, numbered well clear of store's
// own range so the two enums never collide if ever compared numerically.
const (
	ErrKindUnsupportedFormat ErrKind = 100 + iota
	ErrKindPermissionDenied
	ErrKindCancelled
	ErrKindTimeout
	// ErrKindBusy marks a single-writer conflict: a second bulk operation
	// (index, refresh) was requested while one was already running.
	ErrKindBusy
)

// Error is the error type every Library method returns, carrying enough
// structure for a host to branch on failure kind without string matching.
type Error struct {
	Kind ErrKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("photowall: %s", e.Op)
	}
	return fmt.Sprintf("photowall: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind ErrKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsNotFound reports whether err (or anything it wraps) is a not-found
// condition, mirroring store.IsNotFound for facade-level callers.
func IsNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == ErrKindNotFound
	}
	return store.IsNotFound(err)
}

// IsCancelled reports whether err represents cooperative cancellation.
func IsCancelled(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrKindCancelled
}
