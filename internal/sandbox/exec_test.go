package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	rberrors "runbox/internal/errors"
)

func TestExecRunner_BlocksUntilStreamEnd(t *testing.T) {
	session := &fakeExecSession{
		output: &slowReader{
			chunks:   []string{"one\n", "two\n", "three\n"},
			interval: 30 * time.Millisecond,
		},
	}

	h := newMockHandle()
	h.On("ID").Return(testHandleID)
	h.On("Exec", mock.Anything, []string{"/bin/sh", "-c", "emit"}).Return(session, nil)

	sink := &recordingSink{}
	start := time.Now()
	code, err := NewExecRunner().Run(context.Background(), h, []string{"/bin/sh", "-c", "emit"}, sink)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, 0, code)
	// Three chunks at 30ms apiece: returning sooner means the runner did
	// not wait for the stream to end.
	require.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	require.Equal(t, []string{"one\n", "two\n", "three\n"}, sink.snapshot())
	require.True(t, session.closed)
}

func TestExecRunner_NonzeroExitIsData(t *testing.T) {
	session := &fakeExecSession{
		output:   &slowReader{chunks: []string{"failing step\n"}},
		exitCode: 3,
	}

	h := newMockHandle()
	h.On("ID").Return(testHandleID)
	h.On("Exec", mock.Anything, mock.Anything).Return(session, nil)

	code, err := NewExecRunner().Run(context.Background(), h, []string{"false"}, &recordingSink{})
	require.NoError(t, err)
	require.Equal(t, 3, code)
}

func TestExecRunner_ExecCreateFailure(t *testing.T) {
	daemonErr := errors.New("container not running")

	h := newMockHandle()
	h.On("ID").Return(testHandleID)
	h.On("Exec", mock.Anything, mock.Anything).Return(nil, daemonErr)

	_, err := NewExecRunner().Run(context.Background(), h, []string{"true"}, &recordingSink{})
	require.Error(t, err)
	require.ErrorIs(t, err, rberrors.ErrExecFailed)
	require.ErrorIs(t, err, daemonErr)
}

func TestExecRunner_StreamFailure(t *testing.T) {
	readErr := errors.New("connection reset")
	session := &fakeExecSession{
		output: &slowReader{chunks: []string{"partial\n"}, finalErr: readErr},
	}

	h := newMockHandle()
	h.On("ID").Return(testHandleID)
	h.On("Exec", mock.Anything, mock.Anything).Return(session, nil)

	sink := &recordingSink{}
	_, err := NewExecRunner().Run(context.Background(), h, []string{"true"}, sink)
	require.Error(t, err)
	require.ErrorIs(t, err, rberrors.ErrStreamFailed)
	require.ErrorIs(t, err, readErr)

	// Output delivered before the failure still reached the sink; the
	// exit code was never inspected.
	require.Equal(t, []string{"partial\n"}, sink.snapshot())
	require.False(t, session.inspected)
}

func TestExecRunner_ExitCodeInspectFailure(t *testing.T) {
	inspectErr := errors.New("exec record gone")
	session := &fakeExecSession{
		output:     &slowReader{chunks: []string{"done\n"}},
		inspectErr: inspectErr,
	}

	h := newMockHandle()
	h.On("ID").Return(testHandleID)
	h.On("Exec", mock.Anything, mock.Anything).Return(session, nil)

	_, err := NewExecRunner().Run(context.Background(), h, []string{"true"}, &recordingSink{})
	require.Error(t, err)
	require.ErrorIs(t, err, rberrors.ErrExecFailed)
	require.ErrorIs(t, err, inspectErr)
}

func TestExecRunner_HonorsContextDeadline(t *testing.T) {
	output := newBlockingStream()
	defer output.Close()
	session := &fakeExecSession{output: output}

	h := newMockHandle()
	h.On("ID").Return(testHandleID)
	h.On("Exec", mock.Anything, mock.Anything).Return(session, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewExecRunner().Run(ctx, h, []string{"sleep", "forever"}, &recordingSink{})
	require.Error(t, err)
	require.ErrorIs(t, err, rberrors.ErrStreamFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
