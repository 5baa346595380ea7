package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes an engine failure and decides its propagation policy.
type Kind string

const (
	// KindCollection marks a single collector or probe that could not run.
	// The affected category degrades to unknown and the invocation continues.
	KindCollection Kind = "Collection"
	// KindPublish marks a status record that could not be written atomically.
	// This is the only kind fatal to an invocation; the previous record stays
	// valid and untouched.
	KindPublish Kind = "Publish"
	// KindRetention marks a stale artifact that could not be deleted.
	KindRetention Kind = "Retention"
	// KindBringUp marks the network state machine reaching FAILED or
	// NEEDS_REAUTH. Recorded as data, not escalated by the observing pass.
	KindBringUp Kind = "BringUp"
)

// Error is a categorized engine error.
type Error struct {
	Kind    Kind
	Subject string // category, probe name, or file path
	Err     error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s failure (%s): %v", e.Kind, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a categorized error wrapping err.
func New(kind Kind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Fatal reports whether err must abort the invocation with a non-zero exit.
// Only publish failures qualify; everything else degrades gracefully.
func Fatal(err error) bool {
	return IsKind(err, KindPublish)
}
