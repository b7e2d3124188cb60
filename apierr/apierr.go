// Package apierr carries the sLS error taxonomy (spec §7) through the
// core so call sites can branch on Kind while still composing with
// normal Go error wrapping.
package apierr

import (
	"github.com/cockroachdb/errors"
)

// Kind is the closed set of error categories surfaced to clients.
type Kind int

const (
	BadRequest Kind = iota
	Forbidden
	NotFound
	NotSupported
	InternalError
	ServiceUnavailable
)

// HTTPStatus maps a Kind to the status code from spec §7's table.
func (k Kind) HTTPStatus() int {
	switch k {
	case BadRequest:
		return 400
	case Forbidden:
		return 403
	case NotFound:
		return 404
	case NotSupported:
		return 405
	case ServiceUnavailable:
		return 503
	case InternalError:
		fallthrough
	default:
		return 500
	}
}

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "BAD_REQUEST"
	case Forbidden:
		return "FORBIDDEN"
	case NotFound:
		return "NOT_FOUND"
	case NotSupported:
		return "NOT_SUPPORTED"
	case ServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case InternalError:
		return "INTERNAL_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// New wraps msg with the given Kind.
func New(kind Kind, msg string) error {
	return &kindError{kind: kind, err: errors.New(msg)}
}

// Wrap attaches a Kind to an existing error, preserving its chain.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: errors.Wrap(err, msg)}
}

// KindOf extracts the Kind from err's chain, defaulting to
// InternalError for errors that never passed through this package —
// internal failures should fail closed, not leak as 200s.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return InternalError
}
