// Package ideviceerr defines the closed taxonomy of failures surfaced by
// every service client in this module.
package ideviceerr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories a caller can match on.
type Kind int

const (
	InvalidArg Kind = iota
	DeviceNotFound
	ServiceNotAvailable
	AuthRequired
	UnexpectedResponse
	Io
	Tls
	PlistMalformed
	Protocol
	Cancelled
	Timeout
)

func (k Kind) String() string {
	switch k {
	case InvalidArg:
		return "InvalidArg"
	case DeviceNotFound:
		return "DeviceNotFound"
	case ServiceNotAvailable:
		return "ServiceNotAvailable"
	case AuthRequired:
		return "AuthRequired"
	case UnexpectedResponse:
		return "UnexpectedResponse"
	case Io:
		return "Io"
	case Tls:
		return "Tls"
	case PlistMalformed:
		return "PlistMalformed"
	case Protocol:
		return "Protocol"
	case Cancelled:
		return "Cancelled"
	case Timeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned across this module's public API.
// Service is set by Protocol-kind errors to name the offending service
// (e.g. "afc", "mounter"); Detail carries a short human-readable summary.
type Error struct {
	Kind    Kind
	Service string
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s{service:%s, detail:%s}", e.Kind, e.Service, e.Detail)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Detail)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target shares this error's Kind, so callers can write
// errors.Is(err, ideviceerr.New(ideviceerr.Timeout, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

// Protocolf builds a Protocol-kind error scoped to a named service.
func Protocolf(service, format string, args ...interface{}) *Error {
	return &Error{Kind: Protocol, Service: service, Detail: fmt.Sprintf(format, args...)}
}

// IoErr wraps a transport-level failure.
func IoErr(cause error) *Error {
	return &Error{Kind: Io, Cause: cause, Detail: cause.Error()}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
