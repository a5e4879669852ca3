package sandbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	rberrors "runbox/internal/errors"
	"runbox/internal/stream"
	"runbox/pkg/container"
)

// ExecRunner runs one command in a running container and streams its
// combined output until the stream ends.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd inside the container, pumps the session's combined
// output into sink and blocks until the stream resolves, then reports the
// command's exit code. The exit code is returned as data; a nonzero code
// is not an error. Run has no deadline unless ctx carries one.
func (r *ExecRunner) Run(ctx context.Context, handle container.Handle, cmd []string, sink io.Writer) (int, error) {
	slog.Info("Executing command in container",
		"containerID", shortID(handle.ID()), "command", cmd)

	session, err := handle.Exec(ctx, cmd)
	if err != nil {
		return 0, rberrors.NewExecError(
			fmt.Sprintf("Failed to execute command in container %s", shortID(handle.ID())),
			err.Error(),
			"Ensure the container is still running and the command exists in the image.",
			err,
		)
	}
	defer session.Close()

	if err := stream.Copy(sink, session.Output()).Wait(ctx); err != nil {
		return 0, rberrors.NewStreamError(
			fmt.Sprintf("Output stream for container %s ended abnormally", shortID(handle.ID())),
			err.Error(),
			"Check daemon connectivity; the container may have been torn down mid-command.",
			err,
		)
	}

	code, err := session.ExitCode(ctx)
	if err != nil {
		return 0, rberrors.NewExecError(
			fmt.Sprintf("Failed to read exit code from container %s", shortID(handle.ID())),
			err.Error(),
			"The command's output completed but its status is unknown.",
			err,
		)
	}

	slog.Info("Command completed",
		"containerID", shortID(handle.ID()), "exitCode", code)
	return code, nil
}
