package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of error categories recognised at the
// adapter boundary.
type ErrorKind string

const (
	ErrorKindBadRequest     ErrorKind = "bad_request"
	ErrorKindInternalServer ErrorKind = "internal_server_error"
	ErrorKindHTTP           ErrorKind = "http_error"
	ErrorKindUnknown        ErrorKind = "unknown"
)

// unknownMessage is returned by MessageOf when no message can be extracted.
const unknownMessage = "unknown error"

// HTTPError is an error that carries the HTTP status the adapter should
// answer with. Message is only sent to the caller when Expose is set.
type HTTPError struct {
	Status  int
	Message string
	Expose  bool
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// Unwrap returns the underlying cause.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Kind reports the taxonomy bucket of the error.
func (e *HTTPError) Kind() ErrorKind {
	switch e.Status {
	case http.StatusBadRequest:
		return ErrorKindBadRequest
	case http.StatusInternalServerError:
		return ErrorKindInternalServer
	default:
		return ErrorKindHTTP
	}
}

// NewHTTPError creates an HTTPError. Messages of client errors (status < 500)
// are exposed; server error messages are not.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{
		Status:  status,
		Message: message,
		Expose:  status < http.StatusInternalServerError,
	}
}

// NewBadRequestError creates a 400 error whose message is sent to the caller.
func NewBadRequestError(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

// WrapBadRequest creates a 400 error with message "<message>: <cause>".
func WrapBadRequest(message string, cause error) *HTTPError {
	e := NewBadRequestError(message + ": " + MessageOf(cause))
	e.Err = cause
	return e
}

// NewInternalServerError creates a 500 error. The message is logged but
// never sent to the caller.
func NewInternalServerError(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message)
}

// WrapInternalServerError creates a 500 error wrapping cause.
func WrapInternalServerError(message string, cause error) *HTTPError {
	e := NewInternalServerError(message)
	e.Err = cause
	return e
}

// ErrorKindOf classifies err into the boundary taxonomy.
func ErrorKindOf(err error) ErrorKind {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Kind()
	}
	return ErrorKindUnknown
}

// Classify maps a failure to the status and body returned to the caller.
// Only HTTPErrors with Expose set reveal their message; everything else
// collapses to the generic phrase for its status.
func Classify(err error) (status int, body string) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && validStatus(httpErr.Status) {
		if httpErr.Expose {
			return httpErr.Status, httpErr.Message
		}
		return httpErr.Status, http.StatusText(httpErr.Status)
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// MessageOf extracts a human readable message from an arbitrary error value.
// It is meant for client errors, where exposing the message is safe.
func MessageOf(v any) string {
	switch m := v.(type) {
	case nil:
		return unknownMessage
	case string:
		return m
	case interface{ Message() string }:
		return m.Message()
	case error:
		return m.Error()
	case map[string]any:
		if s, ok := m["message"].(string); ok {
			return s
		}
	}
	return unknownMessage
}
