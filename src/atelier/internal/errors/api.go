package errors

import (
	stderr "errors"
	"fmt"
	"net/http"
)

// APIError is a failed Atelier API call, carrying the server's own explanation when one was returned.
type APIError struct {
	Code       int
	Message    string
	ServerText string
}

// Error is an implementation of the error interface.
func (e *APIError) Error() string {
	if e.ServerText == "" {
		return fmt.Sprintf("%s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%d): %s", e.Message, e.Code, e.ServerText)
}

// UnauthorizedError indicates that the server rejected the configured credentials.
type UnauthorizedError struct {
	Host       string
	ServerText string
}

// Error is an implementation of the error interface.
func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("not authorized by %s, check the username and password of the connection", e.Host)
}

// ConflictError indicates that the server refused a write because the document changed since it was read.
type ConflictError struct {
	Name       string
	ServerText string
}

// Error is an implementation of the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("document %q was modified on the server, reload it before saving again", e.Name)
}

// ProtocolError indicates that a response did not have the shape the endpoint promises.
type ProtocolError struct {
	Endpoint string
	Reason   string
	Err      error
}

// Error is an implementation of the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: %s: %s", e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// UnsupportedAPIError indicates that an operation needs a newer API version than the server negotiated.
type UnsupportedAPIError struct {
	Operation string
	Required  int
	Actual    int
}

// Error is an implementation of the error interface.
func (e *UnsupportedAPIError) Error() string {
	return fmt.Sprintf("%s requires API version %d, server supports %d", e.Operation, e.Required, e.Actual)
}

// IsUnauthorized reports whether an UnauthorizedError is part of the error chain.
func IsUnauthorized(e error) bool {
	var ue *UnauthorizedError
	return stderr.As(e, &ue)
}

// IsConflict reports whether a ConflictError is part of the error chain.
func IsConflict(e error) bool {
	var ce *ConflictError
	return stderr.As(e, &ce)
}

// IsNotFound reports whether the error chain describes a missing document or file.
func IsNotFound(e error) bool {
	var fe *FileNotFoundError
	if stderr.As(e, &fe) {
		return true
	}
	code, ok := StatusCode(e)
	return ok && code == http.StatusNotFound
}
