// Package sandbox drives one ephemeral container through its lifecycle
// and runs commands and file transfers against it.
package sandbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	rberrors "runbox/internal/errors"
	"runbox/internal/stream"
	"runbox/pkg/container"
)

// State tracks a sandbox container through its lifecycle.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateStopped
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// interruptStopTimeout bounds the forced stop issued by the interrupt
// watcher, which cannot inherit a caller context.
const interruptStopTimeout = 30 * time.Second

// Options configures a Controller.
type Options struct {
	// Signals the interrupt watcher listens for. Defaults to SIGINT and
	// SIGTERM.
	Signals []os.Signal

	// SignalC substitutes the watcher's channel and skips OS signal
	// registration. Tests inject interrupts through it.
	SignalC chan os.Signal
}

// Controller owns the lifecycle of one container: created, running,
// stopped, removed. State only ever moves forward. All transitions happen
// on the caller's goroutine except the interrupt path, which force-stops
// a running container from the watcher.
type Controller struct {
	handle container.Handle

	mu          sync.Mutex
	state       State
	logs        io.ReadCloser
	logDone     *stream.Completion
	interrupted bool

	sigC       chan os.Signal
	osSignals  bool
	quit       chan struct{}
	watcherWG  sync.WaitGroup
	disarmOnce sync.Once
}

// NewController wraps a freshly created container and arms the interrupt
// watcher immediately, before any start call. The watcher stays armed
// until the container is removed or Close is called, so back-to-back
// invocations never stack signal handlers.
func NewController(handle container.Handle, opts Options) *Controller {
	c := &Controller{
		handle: handle,
		state:  StateCreated,
		quit:   make(chan struct{}),
	}

	if opts.SignalC != nil {
		c.sigC = opts.SignalC
	} else {
		signals := opts.Signals
		if len(signals) == 0 {
			signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
		}
		c.sigC = make(chan os.Signal, 1)
		signal.Notify(c.sigC, signals...)
		c.osSignals = true
	}

	c.watcherWG.Add(1)
	go c.watch()

	return c
}

func (c *Controller) watch() {
	defer c.watcherWG.Done()
	for {
		select {
		case <-c.quit:
			return
		case sig, ok := <-c.sigC:
			if !ok {
				return
			}
			c.onInterrupt(sig)
		}
	}
}

// onInterrupt force-stops the container. For a container that never
// started the daemon treats the stop as a no-op, so firing early is safe.
func (c *Controller) onInterrupt(sig os.Signal) {
	slog.Warn("Interrupt received, stopping container",
		"signal", sig.String(), "containerID", shortID(c.handle.ID()))

	ctx, cancel := context.WithTimeout(context.Background(), interruptStopTimeout)
	defer cancel()

	err := c.handle.Stop(ctx, true)

	c.mu.Lock()
	c.interrupted = true
	if err == nil && c.state == StateRunning {
		c.state = StateStopped
	}
	c.mu.Unlock()

	if err != nil {
		slog.Error("Forced stop after interrupt failed",
			"containerID", shortID(c.handle.ID()), "error", err)
	}
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Interrupted reports whether the watcher has fired.
func (c *Controller) Interrupted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interrupted
}

// Start transitions the container to running, then opens the combined
// follow-mode log stream and pumps it into sink. The pump is the only
// concurrent piece of the lifecycle; its completion is exposed through
// LogDone.
func (c *Controller) Start(ctx context.Context, sink io.Writer) error {
	c.mu.Lock()
	if c.state != StateCreated {
		state := c.state
		c.mu.Unlock()
		return rberrors.NewStartError(
			fmt.Sprintf("Cannot start container %s", shortID(c.handle.ID())),
			fmt.Sprintf("container is %s, expected created", state),
			"Create a fresh container for each run.",
			nil,
		)
	}
	c.mu.Unlock()

	if err := c.handle.Start(ctx); err != nil {
		return rberrors.NewStartError(
			fmt.Sprintf("Failed to start container %s", shortID(c.handle.ID())),
			err.Error(),
			"Check the daemon logs; the image entrypoint may be invalid.",
			err,
		)
	}

	c.mu.Lock()
	c.state = StateRunning
	c.mu.Unlock()

	logs, err := c.handle.Logs(ctx)
	if err != nil {
		return rberrors.NewStreamError(
			fmt.Sprintf("Failed to open log stream for container %s", shortID(c.handle.ID())),
			err.Error(),
			"The container is running but its output cannot be followed.",
			err,
		)
	}

	c.mu.Lock()
	c.logs = logs
	c.logDone = stream.Copy(sink, logs)
	c.mu.Unlock()

	slog.Info("Container running", "containerID", shortID(c.handle.ID()))
	return nil
}

// LogDone returns the completion of the log pump. It is nil until Start
// succeeds. The pump resolves when the stream ends, which for a follow
// stream means the container stopped.
func (c *Controller) LogDone() *stream.Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logDone
}

// Stop halts the container. Stopping an already stopped or missing
// container succeeds.
func (c *Controller) Stop(ctx context.Context, force bool) error {
	if err := c.handle.Stop(ctx, force); err != nil {
		return fmt.Errorf("stop container %s: %w", shortID(c.handle.ID()), err)
	}

	c.mu.Lock()
	if c.state == StateRunning {
		c.state = StateStopped
	}
	c.mu.Unlock()

	slog.Info("Container stopped", "containerID", shortID(c.handle.ID()))
	return nil
}

// Remove deletes the container and disarms the interrupt watcher. A
// container unknown to the daemon counts as removed.
func (c *Controller) Remove(ctx context.Context) error {
	if err := c.handle.Remove(ctx); err != nil {
		return fmt.Errorf("remove container %s: %w", shortID(c.handle.ID()), err)
	}

	c.mu.Lock()
	c.state = StateRemoved
	c.mu.Unlock()
	c.disarm()

	slog.Info("Container removed", "containerID", shortID(c.handle.ID()))
	return nil
}

// Close is the best-effort teardown used on every exit path. It waits for
// an in-flight interrupt stop to settle, stops and removes the container
// if still present, then releases the log stream. Safe to call after a
// clean Remove.
func (c *Controller) Close(ctx context.Context) error {
	c.disarm()

	var firstErr error
	if c.State() != StateRemoved {
		if err := c.Stop(ctx, true); err != nil {
			firstErr = err
			slog.Warn("Teardown stop failed", "containerID", shortID(c.handle.ID()), "error", err)
		}
		if err := c.Remove(ctx); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			slog.Warn("Teardown remove failed", "containerID", shortID(c.handle.ID()), "error", err)
		}
	}

	c.mu.Lock()
	logs := c.logs
	logDone := c.logDone
	c.mu.Unlock()

	if logs != nil {
		_ = logs.Close()
	}
	if logDone != nil {
		_ = logDone.Wait(ctx)
	}
	return firstErr
}

// disarm stops signal delivery and shuts the watcher down, waiting for a
// handler run already in progress.
func (c *Controller) disarm() {
	c.disarmOnce.Do(func() {
		if c.osSignals {
			signal.Stop(c.sigC)
		}
		close(c.quit)
		c.watcherWG.Wait()
	})
}

// shortID truncates a container ID to the familiar 12-character form.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
