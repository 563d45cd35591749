package errors

import (
	stderr "errors"
	"fmt"
)

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// NoConnectionKeyError reports that the request did not name a connection.
	NoConnectionKeyError = New("connection key is required")
	// NoDocumentNameError reports that the request did not name a document.
	NoDocumentNameError = New("document name is required")
)

// IsBadRequest reports whether the error is a bad request from the caller.
func IsBadRequest(e error) bool {
	return stderr.Is(e, NoConnectionKeyError) || stderr.Is(e, NoDocumentNameError)
}

// ConfigError indicates that no usable connection configuration matches the requested key.
type ConfigError struct {
	Key    string
	Reason string
}

// Error is an implementation of the error interface.
func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("connection configuration: %s, check your settings", e.Reason)
	}
	return fmt.Sprintf("connection configuration for %q: %s, check your settings", e.Key, e.Reason)
}

// IsConfig reports whether a ConfigError is part of the error chain.
func IsConfig(e error) bool {
	var ce *ConfigError
	return stderr.As(e, &ce)
}

// NoEditorFoundError indicates that a request context does not identify an editor connection.
type NoEditorFoundError struct{}

// Error is an implementation of the error interface.
func (e *NoEditorFoundError) Error() string {
	return "no editor connection found in context"
}
