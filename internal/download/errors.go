package download

import "fmt"

// ConnectionError represents a failure to construct the HTTP connection for a
// download. Nothing was acquired yet, so there is nothing to release.
type ConnectionError struct {
	URL string // The URL the connection was being opened for
	Err error  // Underlying error, if any
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed for %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransportError represents failures of an established transport session,
// including session setup, an aborted poll step, and the session-level error
// flag raised after completion.
type TransportError struct {
	URL string // The URL being transferred
	Err error  // Underlying error, if any
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError represents a completed response whose status class is not 2xx.
type StatusError struct {
	URL  string // The URL being transferred
	Code int    // HTTP status code of the response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d for %s", e.Code, e.URL)
}

// EmptyBodyError represents a completed response that carried no payload.
// It applies regardless of status class, so a 204 still fails.
type EmptyBodyError struct {
	URL string // The URL being transferred
}

func (e *EmptyBodyError) Error() string {
	return fmt.Sprintf("no data received from %s", e.URL)
}

// FileSystemError represents a failure to persist the payload, including a
// write that stops short of the payload length.
type FileSystemError struct {
	Path     string // Destination path being written
	Written  int    // Bytes actually written
	Expected int    // Bytes that should have been written
	Err      error  // Underlying error, if any
}

func (e *FileSystemError) Error() string {
	if e.Expected > 0 && e.Written != e.Expected {
		return fmt.Sprintf("short write (%d/%d) to %s", e.Written, e.Expected, e.Path)
	}

	return fmt.Sprintf("filesystem error for %s: %v", e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}
