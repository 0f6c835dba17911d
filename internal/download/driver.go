// Package download drives single-shot HTTP downloads to completion and
// persists the payload to disk. It is deliberately not a general-purpose
// client: no redirect following beyond the transport's defaults, no retries,
// and the whole body is buffered in memory since expected payloads are tiny.
package download

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/webosbrew/jailfetch/internal/download/progress"
	"github.com/webosbrew/jailfetch/internal/logctx"
)

const (
	dirPerm = 0755

	progressLogInterval = 64 * 1024
)

// ProgressFunc observes cumulative progress after each poll step.
type ProgressFunc func(written, total uint64)

// Driver downloads a URL into a destination file.
type Driver struct {
	transport  Transport
	fs         FileSystem
	onProgress ProgressFunc
}

type Option func(*Driver)

// WithFileSystem replaces the os-backed filesystem, mainly for tests.
func WithFileSystem(fs FileSystem) Option {
	return func(d *Driver) { d.fs = fs }
}

// WithProgress registers an observer invoked on every poll step.
func WithProgress(fn ProgressFunc) Option {
	return func(d *Driver) { d.onProgress = fn }
}

func New(t Transport, opts ...Option) *Driver {
	d := &Driver{
		transport: t,
		fs:        osFS{},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Fetch downloads url and writes the full response body to dst. It returns
// nil only when every byte of the payload reached the destination file. Every
// acquired handle is released exactly once on every exit path: the connection
// alone when session setup fails, the session (which owns the connection)
// everywhere past that point.
func (d *Driver) Fetch(ctx context.Context, url, dst string) error {
	logger := logctx.LoggerFromContext(ctx).With("url", url, "target", dst)

	logger.Info("starting download")

	// Best effort: a real problem surfaces at file creation time.
	d.ensureTargetDir(dst, logger)

	conn, err := d.transport.Connect(ctx, url)
	if err != nil {
		logger.Error("failed to open connection", "err", err)

		return &ConnectionError{URL: url, Err: err}
	}

	sess, err := conn.Open()
	if err != nil {
		logger.Error("failed to initialize transport session", "err", err)

		// the connection does not release itself when session setup fails
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to release connection", "err", closeErr)
		}

		return &TransportError{URL: url, Err: err}
	}

	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Error("failed to release session", "err", closeErr)
		}
	}()

	tracker := progress.NewTracker(progressLogInterval, func(written, total uint64) {
		if total > 0 {
			logger.Debug("download progress",
				"downloaded", humanize.Bytes(written),
				"total", humanize.Bytes(total))
		} else {
			logger.Debug("download progress", "downloaded", humanize.Bytes(written))
		}
	})

	for !conn.Done() {
		select {
		case <-ctx.Done():
			return &TransportError{URL: url, Err: ctx.Err()}
		default:
		}

		written, total, err := sess.Advance()
		if err != nil {
			logger.Error("transfer aborted", "err", err)

			return &TransportError{URL: url, Err: err}
		}

		tracker.Observe(written, total)

		if d.onProgress != nil {
			d.onProgress(written, total)
		}
	}

	if err := sess.Err(); err != nil {
		logger.Error("transport reported an error", "err", err)

		return &TransportError{URL: url, Err: err}
	}

	status := sess.StatusCode()

	logger.Debug("transfer complete", "status", status)

	if status/100 != 2 {
		logger.Error("non-2xx HTTP status", "status", status)

		return &StatusError{URL: url, Code: status}
	}

	body := sess.TakeBody()
	if len(body) == 0 {
		logger.Error("no data received")

		return &EmptyBodyError{URL: url}
	}

	if err := d.persist(body, dst, logger); err != nil {
		return err
	}

	logger.Info("downloaded and saved file", "bytes", humanize.Bytes(uint64(len(body))))

	return nil
}

func (d *Driver) persist(body []byte, dst string, logger *slog.Logger) error {
	out, err := d.fs.Create(dst)
	if err != nil {
		logger.Error("failed to open output file", "err", err)

		return &FileSystemError{Path: dst, Err: err}
	}

	n, err := out.Write(body)
	if err != nil || n != len(body) {
		logger.Error("failed to write output file", "written", n, "expected", len(body), "err", err)

		if closeErr := out.Close(); closeErr != nil {
			logger.Error("failed to close output file", "err", closeErr)
		}

		return &FileSystemError{Path: dst, Written: n, Expected: len(body), Err: err}
	}

	if err := out.Close(); err != nil {
		logger.Error("failed to close output file", "err", err)

		return &FileSystemError{Path: dst, Err: err}
	}

	return nil
}

// ensureTargetDir creates the destination's parent directory when missing.
// Failure is logged but never fatal; it also never tries to create the
// filesystem root.
func (d *Driver) ensureTargetDir(dst string, logger *slog.Logger) {
	dir := filepath.Dir(dst)
	if dir == "." || dir == string(filepath.Separator) {
		return
	}

	if d.fs.IsDir(dir) {
		return
	}

	if err := d.fs.MkdirAll(dir, dirPerm); err != nil {
		logger.Error("failed to create target directory", "dir", dir, "err", err)

		return
	}

	logger.Debug("created target directory", "dir", dir)
}
