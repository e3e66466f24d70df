package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error so handlers can map it to an HTTP status
// without string matching.
type Kind int

const (
	KindValidation Kind = iota + 1 // missing/malformed required field
	KindAuth                       // no authenticated identity
	KindForbidden                  // authenticated but lacking capability
	KindNotFound                   // id does not resolve
	KindConflict                   // uniqueness violation
	KindStore                      // backend/transport failure, retryable at caller's discretion
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapStore tags a backend failure so callers can distinguish it from
// domain errors.
func WrapStore(msg string, err error) *Error {
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not a service error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
