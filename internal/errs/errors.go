// Package errs provides the error type shared by every erdv layer.
//
// The diagram core (codec, workspace, store, database import) wraps failures
// into *errs.Error so that callers, the CLI and the HTTP API can classify them
// without string matching:
//
//	d, err := codec.Load(data)
//	if errs.IsTooComplex(err) {
//	    // nesting guard tripped
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises an error at the core boundary.
type Kind int

const (
	KindUnknown         Kind = iota
	KindParse                // malformed JSON or structural mismatch
	KindTooComplex           // nesting deeper than the decoder allows
	KindLimitExceeded        // entity / relation ceilings
	KindTooLarge             // file larger than the size ceiling
	KindEmpty                // empty or whitespace-only file
	KindUnsupportedType      // wrong or missing file extension
	KindInvalidInput         // bad arguments from the caller
	KindNotFound             // missing file / object
	KindIO                   // storage or database failure
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindTooComplex:
		return "too_complex"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindTooLarge:
		return "too_large"
	case KindEmpty:
		return "empty"
	case KindUnsupportedType:
		return "unsupported_type"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across erdv.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error around an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func IsParse(err error) bool           { return KindOf(err) == KindParse }
func IsTooComplex(err error) bool      { return KindOf(err) == KindTooComplex }
func IsLimitExceeded(err error) bool   { return KindOf(err) == KindLimitExceeded }
func IsTooLarge(err error) bool        { return KindOf(err) == KindTooLarge }
func IsEmpty(err error) bool           { return KindOf(err) == KindEmpty }
func IsUnsupportedType(err error) bool { return KindOf(err) == KindUnsupportedType }
func IsInvalidInput(err error) bool    { return KindOf(err) == KindInvalidInput }
func IsNotFound(err error) bool        { return KindOf(err) == KindNotFound }
func IsIO(err error) bool              { return KindOf(err) == KindIO }

// KindOf extracts the Kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Process exit codes used by the CLI.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitInvalidInput  = 2
	ExitPanic         = 3
	ExitParseError    = 10
	ExitLimitExceeded = 11
	ExitFileRejected  = 12
	ExitNotFound      = 13
	ExitIOError       = 14
)

// ExitCode maps err to a process exit code. Nil maps to ExitSuccess and
// unclassified errors to ExitGeneralError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch KindOf(err) {
	case KindParse, KindTooComplex:
		return ExitParseError
	case KindLimitExceeded:
		return ExitLimitExceeded
	case KindTooLarge, KindEmpty, KindUnsupportedType:
		return ExitFileRejected
	case KindInvalidInput:
		return ExitInvalidInput
	case KindNotFound:
		return ExitNotFound
	case KindIO:
		return ExitIOError
	default:
		return ExitGeneralError
	}
}
