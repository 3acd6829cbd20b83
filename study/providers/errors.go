package providers

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure.
type Kind string

const (
	// KindNotFound means the provider had nothing for the request.
	KindNotFound Kind = "not_found"
	// KindEmpty means OCR produced no text.
	KindEmpty Kind = "empty"
	// KindCannotSolve means the math provider could not interpret the input.
	KindCannotSolve Kind = "cannot_solve"
	// KindBadInput means the input file was missing or not an image.
	KindBadInput Kind = "bad_input"
	// KindEngineMissing means the OCR binary could not be started.
	KindEngineMissing Kind = "engine_missing"
	// KindFailed covers network, timeout and protocol errors.
	KindFailed Kind = "failed"
	// KindUnavailable means the circuit breaker rejected the call.
	KindUnavailable Kind = "unavailable"
)

// Error is returned by every provider. Reply is safe to show to the user.
type Error struct {
	Provider string
	Kind     Kind
	Reply    string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// expected reports whether the failure is a normal answer rather than a
// fault of the provider. Expected failures do not trip the breaker.
func (e *Error) expected() bool {
	switch e.Kind {
	case KindNotFound, KindEmpty, KindCannotSolve, KindBadInput:
		return true
	}
	return false
}

// Reply extracts the user-facing text of err, or fallback when err is not a
// provider error.
func Reply(err error, fallback string) string {
	var perr *Error
	if errors.As(err, &perr) && perr.Reply != "" {
		return perr.Reply
	}
	return fallback
}

// IsKind reports whether err is a provider error of kind k.
func IsKind(err error, k Kind) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == k
}
