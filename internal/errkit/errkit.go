// Package errkit defines the error kinds emitted by the core (§7). Each
// kind is a distinct type so callers dispatch with errors.As rather than
// string matching, and each wraps its underlying cause for errors.Is.
package errkit

import (
	"fmt"
	"time"
)

// HashCollisionError is a programmer-visible error on bulk insert: an
// existing node has the same hash but a different name. It aborts the
// whole update transaction.
type HashCollisionError struct {
	Hash         string
	ExistingName string
	NewName      string
}

func (e *HashCollisionError) Error() string {
	return fmt.Sprintf("hash collision on %s: existing name %q, new name %q", e.Hash, e.ExistingName, e.NewName)
}

// DatabaseError wraps any storage-layer failure. It always propagates to
// the caller, which maps it to exit code 2 and a stderr diagnostic.
type DatabaseError struct {
	Op         string
	Underlying error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database: %s: %v", e.Op, e.Underlying)
}

func (e *DatabaseError) Unwrap() error { return e.Underlying }

// ParseFailureError records that a single file failed to parse. The
// batch continues; the file contributes nothing.
type ParseFailureError struct {
	Language   string
	File       string
	Line       int
	Column     int
	Underlying error
}

func (e *ParseFailureError) Error() string {
	return fmt.Sprintf("parse failure (%s) at %s:%d:%d: %v", e.Language, e.File, e.Line, e.Column, e.Underlying)
}

func (e *ParseFailureError) Unwrap() error { return e.Underlying }

// IoFailureError records a file read, lock acquisition, or subprocess
// spawn failure. Per-file occurrences are recovered and logged;
// setup-level occurrences (missing .keel/, missing graph.db) propagate
// as exit code 2.
type IoFailureError struct {
	Op         string
	Path       string
	Underlying error
	SetupLevel bool
}

func (e *IoFailureError) Error() string {
	return fmt.Sprintf("io failure: %s %s: %v", e.Op, e.Path, e.Underlying)
}

func (e *IoFailureError) Unwrap() error { return e.Underlying }

// NotFoundError is returned by the graph-query operations (discover,
// where, check, explain) when a requested hash has no matching node.
// These queries have no "violations present" outcome of their own —
// unlike compile, a lookup either succeeds or is a setup-level failure
// — so a miss maps to CLI exit 2 like the other lookup/precondition
// failures in this package.
type NotFoundError struct {
	Kind string // "node", "violation", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// Tier3UnavailableError and Tier3TimeoutError are returned internally by
// the optional semantic provider. They must never surface past the
// resolver boundary: any code that sees one degrades the reference to
// "unresolved" and continues.
type Tier3UnavailableError struct{ Reason string }

func (e *Tier3UnavailableError) Error() string { return "tier3 unavailable: " + e.Reason }

type Tier3TimeoutError struct{ Elapsed time.Duration }

func (e *Tier3TimeoutError) Error() string { return fmt.Sprintf("tier3 timeout after %s", e.Elapsed) }

// ConfigParseFailureError records that keel.json failed to parse. The
// caller falls back to defaults with a warning; it never blocks a
// command.
type ConfigParseFailureError struct {
	Path       string
	Underlying error
}

func (e *ConfigParseFailureError) Error() string {
	return fmt.Sprintf("config parse failure at %s: %v", e.Path, e.Underlying)
}

func (e *ConfigParseFailureError) Unwrap() error { return e.Underlying }

// MultiError aggregates independent per-file failures collected over one
// batch (e.g. a map walk) so the caller can report "N files failed" once
// without aborting the rest of the batch.
type MultiError struct {
	Errors []error
}

// NewMultiError filters nil errors and returns nil if none remain.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors (first: %v)", len(e.Errors), e.Errors[0])
}

func (e *MultiError) Unwrap() []error { return e.Errors }
