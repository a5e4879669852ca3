package sandbox

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"runbox/pkg/container"
)

const testHandleID = "f00dfeedc0ffee42beef"

// mockHandle is a mock implementation of the container.Handle interface.
type mockHandle struct {
	*mock.Mock
}

func newMockHandle() *mockHandle {
	return &mockHandle{Mock: &mock.Mock{}}
}

func (m *mockHandle) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockHandle) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockHandle) Stop(ctx context.Context, force bool) error {
	args := m.Called(ctx, force)
	return args.Error(0)
}

func (m *mockHandle) Remove(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockHandle) Logs(ctx context.Context) (io.ReadCloser, error) {
	args := m.Called(ctx)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockHandle) Exec(ctx context.Context, cmd []string) (container.ExecSession, error) {
	args := m.Called(ctx, cmd)
	if session, ok := args.Get(0).(container.ExecSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockHandle) PutArchive(ctx context.Context, destPath string, content io.Reader) error {
	args := m.Called(ctx, destPath, content)
	return args.Error(0)
}

// fakeExecSession scripts one exec invocation.
type fakeExecSession struct {
	output     io.Reader
	exitCode   int
	inspectErr error
	closed     bool
	inspected  bool
}

func (f *fakeExecSession) Output() io.Reader {
	return f.output
}

func (f *fakeExecSession) ExitCode(ctx context.Context) (int, error) {
	f.inspected = true
	return f.exitCode, f.inspectErr
}

func (f *fakeExecSession) Close() error {
	f.closed = true
	return nil
}

// slowReader emits its chunks one Read at a time with a pause before
// each, then EOF or finalErr.
type slowReader struct {
	chunks   []string
	interval time.Duration
	finalErr error
	idx      int
}

func (r *slowReader) Read(p []byte) (int, error) {
	time.Sleep(r.interval)
	if r.idx >= len(r.chunks) {
		if r.finalErr != nil {
			return 0, r.finalErr
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.idx])
	r.idx++
	return n, nil
}

// blockingStream never produces data until Close releases it with EOF,
// mirroring a follow-mode log stream on an idle container.
type blockingStream struct {
	once    sync.Once
	unblock chan struct{}
}

func newBlockingStream() *blockingStream {
	return &blockingStream{unblock: make(chan struct{})}
}

func (s *blockingStream) Read(p []byte) (int, error) {
	<-s.unblock
	return 0, io.EOF
}

func (s *blockingStream) Close() error {
	s.once.Do(func() { close(s.unblock) })
	return nil
}

// recordingSink captures each chunk written to it.
type recordingSink struct {
	mu     sync.Mutex
	chunks []string
}

func (s *recordingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, string(p))
	return len(p), nil
}

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.chunks...)
}

func (s *recordingSink) String() string {
	return strings.Join(s.snapshot(), "")
}
