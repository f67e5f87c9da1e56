package errors

import (
	"fmt"
)

// CodecError is a wrapper around codec error kinds, with a customizable error
// message.
type CodecError interface {
	error
	Kind() Kind
	Unwrap() error
}

type codecError struct {
	kind          Kind
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a
// string describing the error.
func (e codecError) Error() string {
	if e.message != "" {
		return e.message
	}
	return StrKind(e.kind)
}

func (e codecError) Kind() Kind {
	return e.kind
}

func (e codecError) Unwrap() error {
	return e.originalError
}

// Is reports whether `target` carries the same [Kind]. It makes the package's
// singleton errors usable with the stdlib errors.Is.
func (e codecError) Is(target error) bool {
	other, ok := target.(CodecError)
	return ok && other.Kind() == e.kind
}

// New creates a new [CodecError] with a default message derived from the
// error kind.
func New(kind Kind) CodecError {
	return codecError{
		kind:    kind,
		message: StrKind(kind),
	}
}

func NewFromError(kind Kind, originalError error) CodecError {
	return codecError{
		kind:          kind,
		message:       fmt.Sprintf("%s: %s", StrKind(kind), originalError.Error()),
		originalError: originalError,
	}
}

// NewWithMessage creates a new CodecError from an error kind with a custom
// message.
func NewWithMessage(kind Kind, message string) CodecError {
	return codecError{
		kind:    kind,
		message: fmt.Sprintf("%s: %s", StrKind(kind), message),
	}
}
