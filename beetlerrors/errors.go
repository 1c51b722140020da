// Package beetlerrors defines the structured error kinds the engine
// propagates, per the error handling design: every error that crosses a
// cycle boundary carries a kind plus cycle/pile/offset context instead of
// being an opaque wrapped error.
package beetlerrors

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an engine error.
type Kind int

const (
	// FormatError: input not in the declared format, or codec bytes
	// inconsistent with the declared alphabet. Non-recoverable.
	FormatError Kind = iota
	// IoError: a read or write short count, or an open failure.
	// Non-recoverable within a cycle.
	IoError
	// InvariantViolation: triple store, counts, or pile lengths disagree at
	// a checked boundary. Indicates a bug, not bad input.
	InvariantViolation
	// ConfigError: an unsupported combination was requested (e.g. LCP +
	// parallel + RLE intermediate). Refused at startup.
	ConfigError
	// ResourceExhaustion: the temporary-disk or RAM cap was exceeded.
	ResourceExhaustion
)

func (k Kind) String() string {
	switch k {
	case FormatError:
		return "format error"
	case IoError:
		return "I/O error"
	case InvariantViolation:
		return "invariant violation"
	case ConfigError:
		return "config error"
	case ResourceExhaustion:
		return "resource exhaustion"
	default:
		return "unknown error"
	}
}

// NoContext is used for Cycle or Pile when the error is not tied to a
// specific cycle/pile (e.g. a config error at startup).
const NoContext = -1

// NoOffset is used for Offset when the error is not tied to a specific byte
// offset.
const NoOffset = int64(-1)

// Error is a beetlerrors error: a Kind plus the cycle/pile/offset the
// propagation policy requires every engine-surfaced error to carry.
type Error struct {
	Kind        Kind
	Cycle, Pile int
	Offset      int64
	msg         string
	wrapped     error
}

func (e *Error) Error() string {
	loc := ""
	if e.Cycle != NoContext {
		loc += fmt.Sprintf(" cycle=%d", e.Cycle)
	}
	if e.Pile != NoContext {
		loc += fmt.Sprintf(" pile=%d", e.Pile)
	}
	if e.Offset != NoOffset {
		loc += fmt.Sprintf(" offset=%d", e.Offset)
	}
	msg := e.msg
	if e.wrapped != nil {
		msg = fmt.Sprintf("%s: %s", e.msg, e.wrapped)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s:%s: %s", e.Kind, loc, msg)
}

func (e *Error) Unwrap() error { return e.wrapped }

// E builds a beetlerrors.Error with the given cycle and pile (NoContext
// where there is none, as for config errors) and no byte offset.
func E(kind Kind, cycle, pile int, format string, args ...interface{}) error {
	return &Error{
		Kind:   kind,
		Cycle:  cycle,
		Pile:   pile,
		Offset: NoOffset,
		msg:    fmt.Sprintf(format, args...),
	}
}

// At builds a beetlerrors.Error tied to a specific cycle, pile and byte
// offset, the full context the propagation policy requires from the cycle
// engine.
func At(kind Kind, cycle, pile int, offset int64, format string, args ...interface{}) error {
	return &Error{
		Kind:   kind,
		Cycle:  cycle,
		Pile:   pile,
		Offset: offset,
		msg:    fmt.Sprintf(format, args...),
	}
}

// Wrap attaches kind/cycle/pile/offset context to an existing error, keeping
// it inspectable via errors.As/Unwrap. The underlying cause is run through
// pkg/errors.WithStack first, the way the teacher's encoding/fasta and
// encoding/pam packages capture a stack trace at the point an I/O error is
// first observed rather than where it is eventually logged.
func Wrap(kind Kind, cycle, pile int, offset int64, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Cycle:   cycle,
		Pile:    pile,
		Offset:  offset,
		msg:     msg,
		wrapped: pkgerrors.WithStack(err),
	}
}

// Is reports whether err is a beetlerrors.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
