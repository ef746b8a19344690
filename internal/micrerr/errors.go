// Package micrerr defines the error-kind taxonomy used across the MICR
// pipeline: Configuration and Input errors are fatal for the request,
// Detection errors are soft and resolve to an empty result instead of a
// returned error.
package micrerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error per the pipeline's error-handling design.
type Kind int

const (
	// KindConfiguration covers fatal setup problems: a missing reference
	// template, an invalid log level, an unknown translator name, an
	// invalid adaptive-threshold block size.
	KindConfiguration Kind = iota
	// KindInput covers fatal-for-the-request problems with the supplied
	// image or parameters: zero-size image, unreadable format, a
	// rectangle outside raster bounds, a fraction outside [0,1].
	KindInput
	// KindDetection covers soft failures: anchor not found, line not
	// initialized. Callers should treat these as "nothing found", not as
	// exceptions.
	KindDetection
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInput:
		return "input"
	case KindDetection:
		return "detection"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can distinguish
// fatal request errors from soft detection misses via errors.As.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Configuration builds a fatal configuration Error.
func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Input builds a fatal input Error.
func Input(format string, args ...any) error {
	return &Error{Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

// Detection builds a soft detection Error. Most call sites don't return
// this as an error at all — they log it and produce an empty result — but
// it's useful internally to thread a reason through to the caller that
// chooses to log it.
func Detection(format string, args ...any) error {
	return &Error{Kind: KindDetection, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new Error of the given kind.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a micrerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
