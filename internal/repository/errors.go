package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is the logical "no such document" outcome. A slug lookup
// that finds nothing is not a fault; callers render a not-found view.
var ErrNotFound = errors.New("game not found")

// ReadError wraps a failed list or query against the games collection.
// The catalog store recovers from it locally by surfacing the message
// and keeping its previous state.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("games read %s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a failed mutation (rating submission, admin edit).
// It is propagated to the caller untouched; no local recovery happens.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("games write %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
