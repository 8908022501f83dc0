// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the gateway returns to a caller is an *E carrying a machine-readable
// Kind, a human-friendly message and, for transport failures, the low-level
// diagnostics (code, errno, syscall) of the underlying network error.
//
// The package supports wrapping underlying errors while maintaining error kind
// information, so transports can pick a status code from the Kind alone.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Validation indicates the descriptor or batch failed static checks.
	Validation Kind = "validation"
	// Timeout indicates the connect attempt did not finish within its bound.
	Timeout Kind = "timeout"
	// Transport indicates a refused connection, unknown host, TLS or setup failure.
	Transport Kind = "transport"
	// Auth indicates wrong credentials or missing authentication.
	Auth Kind = "auth"
	// Command indicates a single command failed; scoped to its outcome.
	Command Kind = "command"
	// Busy indicates the process-wide connection limit was reached.
	Busy Kind = "busy"
	// Unknown is the catch-all; the original message is preserved.
	Unknown Kind = "unknown"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error

	// Code is a short symbolic code such as ECONNREFUSED or WRONGPASS.
	Code string
	// Errno is the numeric errno of the underlying syscall error, if any.
	Errno int
	// Syscall names the failing system call (connect, read, getaddrinfo).
	Syscall string
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Message returns the human-friendly message of err. Errors that are not an *E
// fall back to their own text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
