// Package transport implements the poll-driven transfer capability on top of
// net/http. Construction and activation are split so the driver can classify
// failures of each phase separately: Connect builds the request, Open performs
// the round trip, and Advance incrementally buffers the body.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/webosbrew/jailfetch/internal/download"
)

const defaultChunkSize = 32 * 1024

// Dialer opens GET transfers with a shared http.Client.
type Dialer struct {
	client    *http.Client
	chunkSize int
}

func NewDialer(client *http.Client) *Dialer {
	if client == nil {
		client = http.DefaultClient
	}

	return &Dialer{
		client:    client,
		chunkSize: defaultChunkSize,
	}
}

// Connect builds the GET request for url. No network traffic happens until
// the connection is opened.
func (d *Dialer) Connect(ctx context.Context, url string) (download.Connection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	return &conn{
		client:    d.client,
		req:       req,
		chunkSize: d.chunkSize,
	}, nil
}

type conn struct {
	client    *http.Client
	req       *http.Request
	chunkSize int
	sess      *session
}

// Open performs the round trip and returns the live session. The response
// headers are available immediately; the body is consumed by polling.
func (c *conn) Open() (download.Session, error) {
	resp, err := c.client.Do(c.req)
	if err != nil {
		return nil, err
	}

	s := &session{
		resp:      resp,
		chunkSize: c.chunkSize,
	}

	if resp.ContentLength > 0 {
		s.total = uint64(resp.ContentLength)
	}

	c.sess = s

	return s, nil
}

func (c *conn) Done() bool {
	return c.sess != nil && c.sess.done
}

// Close releases the connection on the path where Open never produced a
// session. A request that never left carries no OS resources, so this only
// marks the connection unusable.
func (c *conn) Close() error {
	c.req = nil

	return nil
}

type session struct {
	resp      *http.Response
	chunkSize int
	buf       bytes.Buffer
	total     uint64
	done      bool
	readErr   error
	closed    bool
}

// Advance reads at most one chunk of the body into the in-memory buffer and
// reports cumulative progress.
func (s *session) Advance() (uint64, uint64, error) {
	if s.done {
		return uint64(s.buf.Len()), s.total, nil
	}

	_, err := io.CopyN(&s.buf, s.resp.Body, int64(s.chunkSize))
	if err == io.EOF {
		s.done = true
		err = nil
	}

	if err != nil {
		s.readErr = err

		return uint64(s.buf.Len()), s.total, err
	}

	return uint64(s.buf.Len()), s.total, nil
}

func (s *session) Err() error {
	return s.readErr
}

func (s *session) StatusCode() int {
	return s.resp.StatusCode
}

// TakeBody hands the buffered payload to the caller. The session keeps no
// reference, so a second call returns nil.
func (s *session) TakeBody() []byte {
	if s.buf.Len() == 0 {
		return nil
	}

	body := make([]byte, s.buf.Len())
	copy(body, s.buf.Bytes())
	s.buf.Reset()

	return body
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return s.resp.Body.Close()
}
