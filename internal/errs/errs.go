// Package errs defines the error-kind taxonomy shared across the collection
// pipeline, tagging every error with a retry.Kind so callers can classify
// failures without adapter-specific type assertions.
package errs

import (
	"fmt"

	"github.com/solairus/aviation-brief/internal/retry"
)

// Error wraps an underlying cause with a retry.Kind tag so that generic
// retry policies and source-status reporting can classify it without type
// assertions on adapter-specific error types.
type Error struct {
	Kind  retry.Kind
	Op    string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return e.Op
}

func (e *Error) Unwrap() error { return e.Cause }

// RetryKind implements retry.Classifiable.
func (e *Error) RetryKind() retry.Kind { return e.Kind }

func Transient(op string, cause error) error {
	return &Error{Kind: retry.KindTransient, Op: op, Cause: cause}
}

func Permanent(op string, cause error) error {
	return &Error{Kind: retry.KindPermanent, Op: op, Cause: cause}
}

func Unconfigured(op string) error {
	return &Error{Kind: retry.KindUnconfigured, Op: op}
}

func Parse(op string, cause error) error {
	return &Error{Kind: retry.KindParse, Op: op, Cause: cause}
}

func Validation(op string, cause error) error {
	return &Error{Kind: retry.KindValidation, Op: op, Cause: cause}
}

func Resource(op string, cause error) error {
	return &Error{Kind: retry.KindResource, Op: op, Cause: cause}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind retry.Kind) bool {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
