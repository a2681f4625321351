// Package errors provides a thin convenience layer over github.com/pkg/errors
// so the rest of the codebase can format and wrap errors with stack traces
// through a single import.
package errors

import (
	"github.com/pkg/errors"
)

// StackTrace is re-exported so callers can inspect stacks without importing
// the underlying package.
type StackTrace = errors.StackTrace

// New returns an error with the supplied format. Arguments are optional; when
// present the message is formatted with them.
func New(format string, args ...interface{}) error {
	if len(args) == 0 {
		return errors.New(format)
	}
	return errors.Errorf(format, args...)
}

// Wrap annotates err with a message, preserving the original cause.
func Wrap(err error, format string, args ...interface{}) error {
	if len(args) == 0 {
		return errors.Wrap(err, format)
	}
	return errors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Cause returns the underlying cause of the error, if possible.
func Cause(err error) error {
	return errors.Cause(err)
}
