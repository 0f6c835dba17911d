package download

import (
	"context"
	"io"
	"os"
)

// Transport opens poll-driven GET transfers.
type Transport interface {
	Connect(ctx context.Context, url string) (Connection, error)
}

// Connection is a constructed but not yet active transfer.
type Connection interface {
	// Open wraps the connection in a live session. When Open fails the
	// connection does not release itself; the caller must still Close it.
	Open() (Session, error)

	// Done reports whether the transfer has run to completion.
	Done() bool

	// Close releases the connection on the path where no session exists.
	Close() error
}

// Session drives one request/response cycle to completion via repeated polling.
// Closing a session also releases the underlying connection.
type Session interface {
	// Advance performs one poll step and reports cumulative progress. Total is
	// 0 while the expected length is unknown.
	Advance() (written, total uint64, err error)

	// Err returns the session-level error flag, checked after the poll loop
	// completes.
	Err() error

	StatusCode() int

	// TakeBody transfers ownership of the buffered payload to the caller.
	// Subsequent calls return nil.
	TakeBody() []byte

	Close() error
}

// FileSystem is the slice of filesystem behavior the driver needs, split out
// so tests can fake open failures and short writes.
type FileSystem interface {
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	Create(path string) (io.WriteCloser, error)
}

type osFS struct{}

func (osFS) IsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func (osFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (osFS) Create(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
