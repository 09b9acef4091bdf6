package scrape

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind string

const (
	// KindInvalidRequest is returned before any provider call is made.
	KindInvalidRequest Kind = "INVALID_REQUEST"
	// KindProvider wraps transport failures, non-success statuses,
	// undecodable bodies and unknown targets.
	KindProvider Kind = "PROVIDER_ERROR"
)

// ErrNotFound is wrapped by providers when a username or hashtag does not
// exist upstream.
var ErrNotFound = errors.New("not found")

// Error is the structured failure of a single-target run.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped original error

	// Trace holds a stack trace when the request asked for debug output.
	Trace string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports whether the upstream target does not exist.
func (e *Error) NotFound() bool {
	return errors.Is(e.Err, ErrNotFound)
}

func invalidf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// asError converts any failure into an *Error, keeping the upstream message
// verbatim.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindProvider, Message: err.Error(), Err: err}
}

// Message returns the human-readable part of err without the kind prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
