// Package apperr defines the error kinds reported by the gospellib readers.
//
// Every error that leaves a reader, resolver or cache store carries one of
// the [Kind] values below, so callers can branch with errors.Is:
//
//	if errors.Is(err, apperr.ContentUnavailable) {
//	    // the language/version/item combination is not published
//	}
//
// The wrapped cause stays reachable through errors.Is and errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. A Kind is itself an error so it can be used
// as an errors.Is target.
type Kind string

const (
	// VersionUnavailable means the index endpoint failed or returned no
	// usable catalogVersion.
	VersionUnavailable Kind = "version unavailable"
	// ContentUnavailable means an archive could not be fetched for the
	// requested language/version/item combination.
	ContentUnavailable Kind = "content unavailable"
	// NotFound means a uri or id has no matching row in the local database.
	NotFound Kind = "not found"
	// InvalidArguments means the caller supplied insufficient or
	// contradictory parameters.
	InvalidArguments Kind = "invalid arguments"
	// CorruptArchive means an archive was downloaded but did not produce
	// a usable database file.
	CorruptArchive Kind = "corrupt archive"
	// MalformedRecord means stored data violates its expected encoding.
	MalformedRecord Kind = "malformed record"
)

func (k Kind) Error() string { return string(k) }

// Error is the concrete error type returned by the library.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "catalog.Item".
	Op  string
	Err error
}

// E builds an *Error. err may be nil.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error whose cause is a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf reports the Kind of err, or "" if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}
