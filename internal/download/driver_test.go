package download

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchSample struct {
	written uint64
	total   uint64
}

type fakeTransport struct {
	conn       *fakeConn
	connectErr error
}

func (t *fakeTransport) Connect(_ context.Context, _ string) (Connection, error) {
	if t.connectErr != nil {
		return nil, t.connectErr
	}

	return t.conn, nil
}

type fakeConn struct {
	openErr error
	sess    *fakeSession
	closes  int
}

func (c *fakeConn) Open() (Session, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}

	return c.sess, nil
}

func (c *fakeConn) Done() bool {
	return c.sess != nil && c.sess.done
}

func (c *fakeConn) Close() error {
	c.closes++

	return nil
}

// fakeSession completes after a fixed number of polls, with optional scripted
// failures, and counts releases so tests can assert exactly-once disposal.
type fakeSession struct {
	body    []byte
	status  int
	polls   int   // Advance calls until the transfer completes
	failAt  int   // 1-based Advance call that fails; 0 never fails
	errFlag error // session-level error flag

	advanced int
	done     bool
	closes   int
}

func (s *fakeSession) Advance() (uint64, uint64, error) {
	s.advanced++

	if s.failAt > 0 && s.advanced >= s.failAt {
		return 0, 0, errors.New("poll step failed")
	}

	total := uint64(len(s.body))

	if s.advanced >= s.polls {
		s.done = true

		return total, total, nil
	}

	return total * uint64(s.advanced) / uint64(s.polls), total, nil
}

func (s *fakeSession) Err() error {
	return s.errFlag
}

func (s *fakeSession) StatusCode() int {
	return s.status
}

func (s *fakeSession) TakeBody() []byte {
	body := s.body
	s.body = nil

	return body
}

func (s *fakeSession) Close() error {
	s.closes++

	return nil
}

type fakeFS struct {
	files     map[string]*fakeFile
	dirs      map[string]bool
	createErr error
	mkdirErr  error
	shortBy   int
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		files: make(map[string]*fakeFile),
		dirs:  make(map[string]bool),
	}
}

func (f *fakeFS) IsDir(path string) bool {
	return f.dirs[path]
}

func (f *fakeFS) MkdirAll(path string, _ os.FileMode) error {
	if f.mkdirErr != nil {
		return f.mkdirErr
	}

	f.dirs[path] = true

	return nil
}

func (f *fakeFS) Create(path string) (io.WriteCloser, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	file := &fakeFile{shortBy: f.shortBy}
	f.files[path] = file

	return file, nil
}

// fakeFile optionally drops the tail of each write without reporting an
// error, the way a full disk can.
type fakeFile struct {
	data    []byte
	shortBy int
	closes  int
}

func (f *fakeFile) Write(p []byte) (int, error) {
	n := len(p) - f.shortBy
	if n < 0 {
		n = 0
	}

	f.data = append(f.data, p[:n]...)

	return n, nil
}

func (f *fakeFile) Close() error {
	f.closes++

	return nil
}

func TestFetch_Success(t *testing.T) {
	sess := &fakeSession{body: []byte("hello"), status: 200, polls: 3}
	conn := &fakeConn{sess: sess}
	fs := newFakeFS()

	var samples []fetchSample

	d := New(&fakeTransport{conn: conn},
		WithFileSystem(fs),
		WithProgress(func(written, total uint64) {
			samples = append(samples, fetchSample{written, total})
		}),
	)

	err := d.Fetch(context.Background(), "http://x/test", "/data/out.bin")
	require.NoError(t, err)

	file := fs.files["/data/out.bin"]
	require.NotNil(t, file)
	assert.Equal(t, []byte("hello"), file.data)
	assert.Equal(t, 1, file.closes)

	// session closed exactly once, connection owned by the session
	assert.Equal(t, 1, sess.closes)
	assert.Equal(t, 0, conn.closes)

	// progress observed every poll, non-decreasing, ending at (total, total)
	require.Len(t, samples, 3)

	var prev uint64

	for _, s := range samples {
		assert.GreaterOrEqual(t, s.written, prev)
		prev = s.written
	}

	assert.Equal(t, fetchSample{5, 5}, samples[len(samples)-1])
}

func TestFetch_EnsuresParentDir(t *testing.T) {
	sess := &fakeSession{body: []byte("hi"), status: 200, polls: 1}
	fs := newFakeFS()

	d := New(&fakeTransport{conn: &fakeConn{sess: sess}}, WithFileSystem(fs))

	require.NoError(t, d.Fetch(context.Background(), "http://x/test", "/data/sub/out.bin"))
	assert.True(t, fs.dirs["/data/sub"])
}

func TestFetch_DirCreateFailureIsNotFatal(t *testing.T) {
	sess := &fakeSession{body: []byte("hi"), status: 200, polls: 1}
	fs := newFakeFS()
	fs.mkdirErr = errors.New("read-only filesystem")

	d := New(&fakeTransport{conn: &fakeConn{sess: sess}}, WithFileSystem(fs))

	require.NoError(t, d.Fetch(context.Background(), "http://x/test", "/data/out.bin"))
}

func TestFetch_ConnectFailure(t *testing.T) {
	d := New(&fakeTransport{connectErr: errors.New("bad url")}, WithFileSystem(newFakeFS()))

	err := d.Fetch(context.Background(), "http://x/test", "/data/out.bin")
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "http://x/test", connErr.URL)
}

func TestFetch_OpenFailureReleasesConnection(t *testing.T) {
	conn := &fakeConn{openErr: errors.New("handshake failed")}

	d := New(&fakeTransport{conn: conn}, WithFileSystem(newFakeFS()))

	err := d.Fetch(context.Background(), "http://x/test", "/data/out.bin")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)

	// regression: the connection must be released exactly once on this path
	assert.Equal(t, 1, conn.closes)
}

func TestFetch_AdvanceFailureReleasesSessionOnce(t *testing.T) {
	sess := &fakeSession{body: []byte("hello"), status: 200, polls: 5, failAt: 2}
	conn := &fakeConn{sess: sess}

	d := New(&fakeTransport{conn: conn}, WithFileSystem(newFakeFS()))

	err := d.Fetch(context.Background(), "http://x/test", "/data/out.bin")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 1, sess.closes)
	assert.Equal(t, 0, conn.closes)
}

func TestFetch_SessionErrorFlag(t *testing.T) {
	sess := &fakeSession{body: []byte("hello"), status: 200, polls: 1, errFlag: errors.New("connection reset")}

	d := New(&fakeTransport{conn: &fakeConn{sess: sess}}, WithFileSystem(newFakeFS()))

	err := d.Fetch(context.Background(), "http://x/test", "/data/out.bin")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 1, sess.closes)
}

func TestFetch_StatusAndBodyClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      []byte
		wantErrAs func(err error) bool
	}{
		{
			name:   "404 with non-empty body",
			status: 404,
			body:   []byte("not found"),
			wantErrAs: func(err error) bool {
				var statusErr *StatusError

				return errors.As(err, &statusErr) && statusErr.Code == 404
			},
		},
		{
			name:   "200 with empty body",
			status: 200,
			body:   nil,
			wantErrAs: func(err error) bool {
				var emptyErr *EmptyBodyError

				return errors.As(err, &emptyErr)
			},
		},
		{
			name:   "204 with empty body",
			status: 204,
			body:   nil,
			wantErrAs: func(err error) bool {
				var emptyErr *EmptyBodyError

				return errors.As(err, &emptyErr)
			},
		},
		{
			name:      "201 with body succeeds",
			status:    201,
			body:      []byte("created"),
			wantErrAs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{body: tt.body, status: tt.status, polls: 1}

			d := New(&fakeTransport{conn: &fakeConn{sess: sess}}, WithFileSystem(newFakeFS()))

			err := d.Fetch(context.Background(), "http://x/test", "/data/out.bin")

			if tt.wantErrAs == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, tt.wantErrAs(err))
			}

			assert.Equal(t, 1, sess.closes)
		})
	}
}

func TestFetch_ShortWrite(t *testing.T) {
	sess := &fakeSession{body: []byte("hello"), status: 200, polls: 1}
	fs := newFakeFS()
	fs.shortBy = 2

	d := New(&fakeTransport{conn: &fakeConn{sess: sess}}, WithFileSystem(fs))

	err := d.Fetch(context.Background(), "http://x/test", "/data/out.bin")
	require.Error(t, err)

	var fsErr *FileSystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, 3, fsErr.Written)
	assert.Equal(t, 5, fsErr.Expected)

	// the file handle is still closed on the failure path
	assert.Equal(t, 1, fs.files["/data/out.bin"].closes)
	assert.Equal(t, 1, sess.closes)
}

func TestFetch_CreateFailure(t *testing.T) {
	sess := &fakeSession{body: []byte("hello"), status: 200, polls: 1}
	fs := newFakeFS()
	fs.createErr = errors.New("permission denied")

	d := New(&fakeTransport{conn: &fakeConn{sess: sess}}, WithFileSystem(fs))

	err := d.Fetch(context.Background(), "http://x/test", "/data/out.bin")
	require.Error(t, err)

	var fsErr *FileSystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, 1, sess.closes)
}

func TestFetch_ContextCancelled(t *testing.T) {
	sess := &fakeSession{body: []byte("hello"), status: 200, polls: 1000}

	d := New(&fakeTransport{conn: &fakeConn{sess: sess}}, WithFileSystem(newFakeFS()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Fetch(ctx, "http://x/test", "/data/out.bin")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sess.closes)
}
