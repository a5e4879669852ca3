// Package runtime adapts the Docker Engine API to the container contract.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"

	"runbox/pkg/container"
)

// DefaultEntrypoint keeps the container idling until it is stopped.
var DefaultEntrypoint = []string{"/bin/sh"}

// DockerRuntime implements the container.Runtime interface using the Docker client.
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime creates a new DockerRuntime instance using client.FromEnv.
func NewDockerRuntime() (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Check if Docker daemon is accessible
	ctx := context.Background()
	_, err = dockerClient.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &DockerRuntime{
		client: dockerClient,
	}, nil
}

// PullImage pulls a Docker image.
func (d *DockerRuntime) PullImage(ctx context.Context, imageName string) error {
	slog.Info("Pulling Docker image", "image", imageName)

	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	// Stream the pull output (but don't print it to avoid clutter)
	_, err = io.Copy(io.Discard, reader)
	if err != nil {
		return fmt.Errorf("failed to stream image pull output: %w", err)
	}

	slog.Info("Successfully pulled Docker image", "image", imageName)
	return nil
}

// Create creates a container from the spec without starting it. The image
// must already be present on the daemon.
func (d *DockerRuntime) Create(ctx context.Context, spec container.Spec) (container.Handle, error) {
	name := spec.Name
	if name == "" {
		name = generateName()
	}

	entrypoint := spec.Entrypoint
	if len(entrypoint) == 0 {
		entrypoint = DefaultEntrypoint
	}

	slog.Info("Creating container", "image", spec.Image, "name", name)

	config := &containertypes.Config{
		Image:     spec.Image,
		Env:       spec.Env,
		Tty:       spec.Interactive,
		OpenStdin: spec.Interactive,
		Cmd:       entrypoint,
	}

	resp, err := d.client.ContainerCreate(ctx, config, &containertypes.HostConfig{}, nil, nil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create container from image %s: %w", spec.Image, err)
	}

	slog.Info("Container created", "containerID", resp.ID, "name", name)

	return &dockerHandle{
		client: d.client,
		id:     resp.ID,
		name:   name,
		tty:    spec.Interactive,
	}, nil
}

// Close releases the underlying Docker client connection.
func (d *DockerRuntime) Close() error {
	return d.client.Close()
}

// generateName returns a fresh container name of the form runbox-1a2b3c4d.
func generateName() string {
	return "runbox-" + uuid.NewString()[:8]
}

// dockerHandle is the container.Handle for one created Docker container.
type dockerHandle struct {
	client *client.Client
	id     string
	name   string
	tty    bool
}

func (h *dockerHandle) ID() string {
	return h.id
}

func (h *dockerHandle) Start(ctx context.Context) error {
	if err := h.client.ContainerStart(ctx, h.id, containertypes.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", h.name, err)
	}
	return nil
}

// Stop halts the container. With force the grace period is skipped. The
// daemon answers 304 for an already stopped container, which the client
// reports as success, and a missing container is treated the same way.
func (h *dockerHandle) Stop(ctx context.Context, force bool) error {
	opts := containertypes.StopOptions{}
	if force {
		immediate := 0
		opts.Timeout = &immediate
	}

	if err := h.client.ContainerStop(ctx, h.id, opts); err != nil && !cerrdefs.IsNotFound(err) {
		return fmt.Errorf("failed to stop container %s: %w", h.name, err)
	}
	return nil
}

// Remove deletes the container. Removing a container the daemon no longer
// knows succeeds.
func (h *dockerHandle) Remove(ctx context.Context) error {
	err := h.client.ContainerRemove(ctx, h.id, containertypes.RemoveOptions{Force: true})
	if err != nil && !cerrdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove container %s: %w", h.name, err)
	}
	return nil
}

// Logs opens the combined stdout/stderr stream in follow mode. A TTY
// container emits one raw stream; a non-TTY container emits multiplexed
// frames that are folded back into arrival order here.
func (h *dockerHandle) Logs(ctx context.Context) (io.ReadCloser, error) {
	logs, err := h.client.ContainerLogs(ctx, h.id, containertypes.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get container logs: %w", err)
	}

	if h.tty {
		return logs, nil
	}
	return &demuxedStream{pipe: demux(logs), src: logs}, nil
}

// Exec starts a command inside the running container and attaches to its
// combined output. The session mirrors the container's TTY mode.
func (h *dockerHandle) Exec(ctx context.Context, cmd []string) (container.ExecSession, error) {
	exec, err := h.client.ContainerExecCreate(ctx, h.id, containertypes.ExecOptions{
		Cmd:          cmd,
		Tty:          h.tty,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec in container %s: %w", h.name, err)
	}

	hijack, err := h.client.ContainerExecAttach(ctx, exec.ID, containertypes.ExecStartOptions{Tty: h.tty})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec in container %s: %w", h.name, err)
	}

	session := &execSession{
		client: h.client,
		execID: exec.ID,
		hijack: hijack,
	}
	if h.tty {
		session.output = hijack.Reader
	} else {
		session.output = demux(hijack.Reader)
	}
	return session, nil
}

func (h *dockerHandle) PutArchive(ctx context.Context, destPath string, content io.Reader) error {
	err := h.client.CopyToContainer(ctx, h.id, destPath, content, containertypes.CopyToContainerOptions{})
	if err != nil {
		return fmt.Errorf("failed to copy archive into container %s: %w", h.name, err)
	}
	return nil
}

// execSession is one attached exec invocation.
type execSession struct {
	client *client.Client
	execID string
	hijack types.HijackedResponse
	output io.Reader
}

func (s *execSession) Output() io.Reader {
	return s.output
}

// ExitCode reports the command's exit status. It is only meaningful once
// the output stream has been drained.
func (s *execSession) ExitCode(ctx context.Context) (int, error) {
	inspect, err := s.client.ContainerExecInspect(ctx, s.execID)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect exec: %w", err)
	}
	return inspect.ExitCode, nil
}

func (s *execSession) Close() error {
	s.hijack.Close()
	return nil
}

// demux folds the daemon's multiplexed stdout/stderr framing into one
// byte stream, preserving arrival order.
func demux(src io.Reader) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, src)
		pw.CloseWithError(err)
	}()
	return pr
}

// demuxedStream pairs the demux pipe with the daemon stream feeding it.
type demuxedStream struct {
	pipe io.ReadCloser
	src  io.ReadCloser
}

func (s *demuxedStream) Read(p []byte) (int, error) {
	return s.pipe.Read(p)
}

// Close tears down the daemon stream first so the pump goroutine
// unblocks, then closes the pipe.
func (s *demuxedStream) Close() error {
	s.src.Close()
	return s.pipe.Close()
}
