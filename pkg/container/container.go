package container

import (
	"context"
	"io"
)

// Spec defines the parameters for creating a container.
// It is immutable once handed to a Runtime.
type Spec struct {
	Image       string
	Env         []string // KEY=VALUE pairs, injected in order
	Interactive bool     // allocate a TTY and keep stdin open
	Entrypoint  []string // blocking command the container idles on
	Name        string   // optional; generated when empty
}

// ExecSession is one command invocation inside a running container with
// its combined output stream attached.
type ExecSession interface {
	// Output returns the combined stdout/stderr stream. It reaches EOF
	// once the command's output ends.
	Output() io.Reader

	// ExitCode reports the command's exit status. Only meaningful after
	// Output has been drained.
	ExitCode(ctx context.Context) (int, error)

	Close() error
}

// Handle is the capability set of one created container. A Handle is owned
// by the invocation that created it and must be stopped and removed before
// the process exits.
type Handle interface {
	ID() string

	Start(ctx context.Context) error

	// Stop halts the container. With force, the runtime skips the grace
	// period. Stopping an already-stopped or missing container succeeds.
	Stop(ctx context.Context, force bool) error

	// Remove deletes the container. Removing a missing container succeeds.
	Remove(ctx context.Context) error

	// Logs opens the combined stdout/stderr stream in follow mode. Chunks
	// arrive in emission order; the stream ends when the container stops.
	Logs(ctx context.Context) (io.ReadCloser, error)

	Exec(ctx context.Context, cmd []string) (ExecSession, error)

	// PutArchive extracts a tar stream into destPath inside the container.
	PutArchive(ctx context.Context, destPath string, content io.Reader) error
}

// Runtime defines the contract for container creation.
type Runtime interface {
	Create(ctx context.Context, spec Spec) (Handle, error)
	PullImage(ctx context.Context, image string) error
	Close() error
}
