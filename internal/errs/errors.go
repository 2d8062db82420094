// Package errs is the error taxonomy shared by the shipment core, the HTTP
// client and the cache. Every failure carries the operation that produced it
// so observers can tell failures apart by action.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeCaller       = "CALLER_ERROR"
	CodePrecondition = "PRECONDITION_FAILED"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeServer       = "SERVER_ERROR"
	CodeTransport    = "TRANSPORT_ERROR"
	CodeProtocol     = "PROTOCOL_ERROR"
)

// Error is a classified failure.
type Error struct {
	Code    string
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Local reports whether the error was raised before any network call. An
// unauthorized error without a status comes from the client's own token check.
func (e *Error) Local() bool {
	switch e.Code {
	case CodeCaller, CodePrecondition:
		return true
	case CodeUnauthorized:
		return e.Status == 0
	}
	return false
}

// WithOp returns a copy of e tagged with op.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

// Caller is a programmer error: invalid attribute, illegal transition, mutating a
// non-created shipment's specimen list.
func Caller(err error) *Error {
	return &Error{Code: CodeCaller, Message: "caller error", Err: err}
}

// Precondition is a guard failure the UI should have prevented.
func Precondition(err error) *Error {
	return &Error{Code: CodePrecondition, Message: "precondition failed", Err: err}
}

// Unusable is a token the client refuses to send, such as an expired one.
func Unusable(op string, err error) *Error {
	return &Error{Code: CodeUnauthorized, Op: op, Message: "unusable token", Err: err}
}

// Protocol is a malformed reply from the server.
func Protocol(op, message string) *Error {
	return &Error{Code: CodeProtocol, Op: op, Message: message}
}

// Transport wraps a failure to reach the server.
func Transport(op string, err error) *Error {
	return &Error{Code: CodeTransport, Op: op, Message: "request failed", Err: err}
}

// FromStatus classifies a server reply by HTTP status.
func FromStatus(op string, status int, message string) *Error {
	code := CodeServer
	switch status {
	case http.StatusConflict:
		code = CodeConflict
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		code = CodeUnauthorized
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Code: code, Op: op, Message: message, Status: status}
}

// As returns the *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries code.
func IsCode(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// IsConflict reports whether err is a stale-version rejection.
func IsConflict(err error) bool { return IsCode(err, CodeConflict) }

// IsLocal reports whether err was raised before any network call.
func IsLocal(err error) bool {
	e, ok := As(err)
	return ok && e.Local()
}
