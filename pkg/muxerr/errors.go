// Package muxerr defines the closed set of error kinds mediamux reports,
// following the teacher's fmt.Errorf("...: %w", sentinel) idiom.
package muxerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a mediamux error. The set is closed:
// callers can safely switch on it without a default case silently
// swallowing new values.
type Kind int

const (
	// InvalidArgument means a caller passed a value that is never valid
	// for the operation (nil config, unknown codec string, zero tracks).
	InvalidArgument Kind = iota
	// TimestampOrdering means a unit's timestamp violates the
	// monotonicity or key-frame-first rules of §4.7.
	TimestampOrdering
	// FormatConstraint means an operation is legal in general but not
	// for the chosen OutputFormat (e.g. B-frames muxed to a format
	// without composition-time offsets, a codec absent from WebM's
	// allow-list).
	FormatConstraint
	// DescriptorRequired means a track needs a codec description
	// (avcC/hvcC/dOps) before the first sample can be written and none
	// was supplied.
	DescriptorRequired
	// LifecycleMisuse means a method was called out of order (writing
	// after Finalize, adding a track after the first sample).
	LifecycleMisuse
	// InternalInvariant means the muxer's own bookkeeping is broken; it
	// should never surface to a correctly-used caller.
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case TimestampOrdering:
		return "timestamp ordering"
	case FormatConstraint:
		return "format constraint"
	case DescriptorRequired:
		return "descriptor required"
	case LifecycleMisuse:
		return "lifecycle misuse"
	case InternalInvariant:
		return "internal invariant"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per Kind, so callers can also match with
// errors.Is against a specific Kind's sentinel.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrTimestampOrdering = errors.New("timestamp ordering")
	ErrFormatConstraint  = errors.New("format constraint")
	ErrDescriptorMissing = errors.New("descriptor required")
	ErrLifecycleMisuse   = errors.New("lifecycle misuse")
	ErrInternalInvariant = errors.New("internal invariant")
)

func sentinelFor(k Kind) error {
	switch k {
	case InvalidArgument:
		return ErrInvalidArgument
	case TimestampOrdering:
		return ErrTimestampOrdering
	case FormatConstraint:
		return ErrFormatConstraint
	case DescriptorRequired:
		return ErrDescriptorMissing
	case LifecycleMisuse:
		return ErrLifecycleMisuse
	default:
		return ErrInternalInvariant
	}
}

// Error is a mediamux error: a Kind, a sentinel it wraps (so errors.Is
// keeps working against the package-level Err* vars), and a message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("mediamux: %s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("mediamux: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the Kind sentinel and any wrapped cause to
// errors.Is/errors.As.
func (e *Error) Unwrap() []error {
	s := sentinelFor(e.Kind)
	if e.cause == nil {
		return []error{s}
	}
	return []error{s, e.cause}
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}
