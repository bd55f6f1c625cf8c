package symptom

import (
	"errors"
	"fmt"
)

// Error definitions for the symptom package.
var (
	// ErrNotConfigured is returned when no candidate model has a credential.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrEmptySymptoms is returned when the symptom text is empty.
	ErrEmptySymptoms = errors.New("symptoms cannot be empty")

	// ErrAllCandidatesFailed is returned when every candidate model errored.
	ErrAllCandidatesFailed = errors.New("all candidate models failed")

	// ErrMissingFields is returned when a provider reply lacks a required field.
	ErrMissingFields = errors.New("response is missing required fields")
)

// Kind classifies an Error so callers can branch without matching text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration means no provider is usable. Surfaced to callers.
	KindConfiguration
	// KindProvider covers network, auth, quota and service failures. Recovered internally.
	KindProvider
	// KindParse means the provider reply was not the expected JSON. Recovered internally.
	KindParse
	// KindInvalidRequest means the request failed validation.
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindProvider:
		return "provider"
	case KindParse:
		return "parse"
	case KindInvalidRequest:
		return "invalid request"
	default:
		return "unknown"
	}
}

// Error is the error type returned by this package.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("symptom: %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("symptom: %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
