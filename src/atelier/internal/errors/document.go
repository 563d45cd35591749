package errors

import (
	stderr "errors"
	"fmt"
	"strings"
)

// ImportError indicates that the server rejected the content of a document during import.
type ImportError struct {
	Name string
	Err  error
}

// Error is an implementation of the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("importing %q: %s", e.Name, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// CompileError indicates that compilation reported errors. It is an expected outcome rather than a transport failure.
type CompileError struct {
	Name     string
	Messages []string
}

// Error is an implementation of the error interface.
func (e *CompileError) Error() string {
	switch len(e.Messages) {
	case 0:
		return fmt.Sprintf("compiling %q failed", e.Name)
	case 1:
		return fmt.Sprintf("compiling %q failed: %s", e.Name, e.Messages[0])
	default:
		return fmt.Sprintf("compiling %q failed with %d errors: %s", e.Name, len(e.Messages), strings.Join(e.Messages, "; "))
	}
}

// IsCompile reports whether a CompileError is part of the error chain.
func IsCompile(e error) bool {
	var ce *CompileError
	return stderr.As(e, &ce)
}

// FileNotFoundError is returned by the virtual filesystem when a document can't be fetched for any reason.
type FileNotFoundError struct {
	URI string
	Err error
}

// Error is an implementation of the error interface.
func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file %q not found", e.URI)
}

func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// ExportError records a single document that could not be exported during a batch export.
type ExportError struct {
	Name string
	Err  error
}

// Error is an implementation of the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting %q: %s", e.Name, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
