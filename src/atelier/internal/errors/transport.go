package errors

import (
	stderr "errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPError is returned by the transport when the server answers with a status outside of 2xx.
type HTTPError struct {
	StatusCode int
	StatusText string
	// Body holds the drained response body when the server returned JSON.
	Body []byte
}

// Error is an implementation of the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d %s", e.StatusCode, e.StatusText)
}

// NetworkError wraps a transport level failure such as a refused connection or a TLS error.
type NetworkError struct {
	Host string
	Err  error
}

// Error is an implementation of the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("connecting to %s: %s", e.Host, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates that a request did not complete within the configured deadline.
type TimeoutError struct {
	Host    string
	Timeout time.Duration
}

// Error is an implementation of the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.Host, e.Timeout)
}

// StatusCode returns the HTTP status code and true if an HTTPError or APIError is part of the error chain.
func StatusCode(e error) (_ int, ok bool) {
	var he *HTTPError
	if stderr.As(e, &he) {
		return he.StatusCode, true
	}
	var ae *APIError
	if stderr.As(e, &ae) {
		return ae.Code, true
	}
	var ue *UnauthorizedError
	if stderr.As(e, &ue) {
		return http.StatusUnauthorized, true
	}
	var ce *ConflictError
	if stderr.As(e, &ce) {
		return http.StatusConflict, true
	}
	return 0, false
}

// IsNetwork reports whether a NetworkError is part of the error chain.
func IsNetwork(e error) bool {
	var ne *NetworkError
	return stderr.As(e, &ne)
}

// IsTimeout reports whether a TimeoutError is part of the error chain.
func IsTimeout(e error) bool {
	var te *TimeoutError
	return stderr.As(e, &te)
}
