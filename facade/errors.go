package facade

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacentio/rescue/record"
)

// Error codes reported in GraphQL error extensions.
const (
	CodeCorruptRecord    = "CORRUPT_RECORD"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeNoNamespace      = "NO_NAMESPACE"
	CodeCancelled        = "CANCELLED"
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"
)

// ErrNoNamespace is returned when a request context carries no namespace.
var ErrNoNamespace = errors.New("rescue: no namespace bound to request")

// Error is a resolver failure as seen by GraphQL clients. graphql-go copies
// Extensions into the response error entry.
type Error struct {
	Code      string
	Operation string
	Message   string
	cause     error
}

func (e *Error) Error() string { return e.Message }

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error { return e.cause }

// Extensions implements the graphql-go extensions interface.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":      e.Code,
		"operation": e.Operation,
	}
}

// classify converts an error from the namespace or codec into an *Error.
// Store causes are not echoed to clients; callers log them.
func classify(operation string, err error) *Error {
	e := &Error{Operation: operation, cause: err}
	switch {
	case errors.Is(err, ErrNoNamespace):
		e.Code = CodeNoNamespace
		e.Message = "no record store bound to request"
	case errors.Is(err, record.ErrCorruptRecord):
		e.Code = CodeCorruptRecord
		e.Message = fmt.Sprintf("stored record is corrupt: %v", err)
	case errors.Is(err, context.Canceled):
		e.Code = CodeCancelled
		e.Message = "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		e.Code = CodeDeadlineExceeded
		e.Message = "request deadline exceeded"
	default:
		e.Code = CodeStoreUnavailable
		e.Message = "record store unavailable"
	}
	return e
}
