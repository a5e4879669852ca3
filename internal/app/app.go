// Package app wires the manifest, runtime, and sandbox layers into the
// complete runbox workflow.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	rberrors "runbox/internal/errors"
	"runbox/internal/parser"
	"runbox/internal/runtime"
	"runbox/internal/sandbox"
	"runbox/internal/script"
	"runbox/internal/ui"
	"runbox/pkg/container"
)

// Options adjust a single run.
type Options struct {
	// Pull fetches the image before creating the container.
	Pull bool
}

// App executes manifests against an injected container runtime.
type App struct {
	runtime container.Runtime
	console *ui.Console
	out     io.Writer

	// newController is a seam for tests to inject interrupt channels.
	newController func(container.Handle, sandbox.Options) *sandbox.Controller
}

// New creates an App on top of an existing runtime. The App takes
// ownership of the runtime; Close releases it.
func New(rt container.Runtime) *App {
	return &App{
		runtime:       rt,
		console:       ui.NewConsole(),
		out:           os.Stdout,
		newController: sandbox.NewController,
	}
}

// NewDockerApp builds an App backed by the local Docker daemon.
func NewDockerApp() (*App, error) {
	rt, err := runtime.NewDockerRuntime()
	if err != nil {
		return nil, rberrors.NewRuntimeError(
			"Container runtime is not available",
			err.Error(),
			"Start the Docker daemon and ensure the current user can reach its socket.",
			err,
		)
	}
	return New(rt), nil
}

// Close releases the underlying runtime connection.
func (a *App) Close() error {
	return a.runtime.Close()
}

// Run executes the manifest at manifestPath: create the container, start
// it and follow its output, stage the run script and helper, run the
// setup commands and then the script, and tear the container down.
// Teardown is attempted on every exit path.
func (a *App) Run(ctx context.Context, manifestPath string, opts Options) error {
	runID := uuid.New().String()
	log := slog.With("runId", runID)

	log.Info("Starting runbox run", "manifestPath", manifestPath)

	m, err := parser.Parse(manifestPath)
	if err != nil {
		return rberrors.NewManifestError(
			fmt.Sprintf("Manifest %s is not usable", manifestPath),
			err.Error(),
			"Fix the manifest and try again.",
			err,
		)
	}
	log.Info("Manifest parsed", "name", m.Metadata.Name, "image", m.Spec.Container.Image)

	scriptPath, err := script.Resolve(manifestPath, m.Spec.Run.Script)
	if err != nil {
		return rberrors.NewManifestError(
			fmt.Sprintf("Run script %s declared by the manifest is not usable", m.Spec.Run.Script),
			err.Error(),
			"Point run.script at an existing file, relative to the manifest.",
			err,
		)
	}

	helperPath, cleanupHelper, err := script.MaterializeHelper()
	if err != nil {
		return rberrors.NewTransferError(
			"Cannot stage the helper script",
			err.Error(),
			"Check free space and permissions in the temp directory.",
			err,
		)
	}
	defer cleanupHelper()

	if opts.Pull {
		a.console.PrintInfo(fmt.Sprintf("⬇️  Pulling image %s", m.Spec.Container.Image))
		if err := a.runtime.PullImage(ctx, m.Spec.Container.Image); err != nil {
			return rberrors.NewCreateError(
				fmt.Sprintf("Failed to pull image %s", m.Spec.Container.Image),
				err.Error(),
				"Verify the image name and registry access.",
				err,
			)
		}
	}

	a.console.PrintInfo(fmt.Sprintf("📦 Creating container from %s", m.Spec.Container.Image))
	handle, err := a.runtime.Create(ctx, container.Spec{
		Image:       m.Spec.Container.Image,
		Env:         m.Spec.Container.Env,
		Interactive: m.Spec.Container.Interactive,
		Entrypoint:  m.Spec.Container.Entrypoint,
		Name:        m.Spec.Container.Name,
	})
	if err != nil {
		return rberrors.NewCreateError(
			fmt.Sprintf("Failed to create container from image %s", m.Spec.Container.Image),
			err.Error(),
			"Pull the image first or check the daemon's image store.",
			err,
		)
	}
	log.Info("Container created", "containerID", handle.ID())

	ctrl := a.newController(handle, sandbox.Options{})
	sink := a.console.StreamWriter(a.out, m.Metadata.Name)
	defer func() {
		if err := ctrl.Close(context.Background()); err != nil {
			log.Warn("Teardown left residue", "containerID", handle.ID(), "error", err)
		}
		sink.Flush()
		if ctrl.Interrupted() {
			a.console.PrintWarning("Run interrupted; container was force-stopped")
		}
	}()

	a.console.PrintInfo("🚀 Starting container")
	if err := ctrl.Start(ctx, sink); err != nil {
		return err
	}

	runner := sandbox.NewExecRunner()
	copier := sandbox.NewCopier()
	workdir := m.Spec.Container.Workdir

	// The working directory must exist before the scripts land in it.
	if err := a.execStep(ctx, runner, handle, sink,
		[]string{"mkdir", "-p", workdir},
		fmt.Sprintf("Failed to prepare working directory %s", workdir)); err != nil {
		return err
	}

	a.console.PrintInfo(fmt.Sprintf("📄 Copying %s into %s", filepath.Base(scriptPath), workdir))
	if err := copier.Copy(ctx, handle, scriptPath, workdir); err != nil {
		return err
	}
	if err := copier.Copy(ctx, handle, helperPath, workdir); err != nil {
		return err
	}

	for _, setup := range m.Spec.Run.Setup {
		a.console.PrintInfo(fmt.Sprintf("🔧 Setup: %s", setup))
		if err := a.execStep(ctx, runner, handle, sink,
			shellCommand(workdir, setup),
			fmt.Sprintf("Setup command failed: %s", setup)); err != nil {
			return err
		}
	}

	scriptName := filepath.Base(scriptPath)
	a.console.PrintInfo(fmt.Sprintf("▶️  Running %s", scriptName))
	if err := a.execStep(ctx, runner, handle, sink,
		shellCommand(workdir, "sh ./"+scriptName),
		fmt.Sprintf("Run script %s failed", scriptName)); err != nil {
		return err
	}

	if err := ctrl.Stop(ctx, false); err != nil {
		return err
	}

	// The follow stream ends once the container stops; wait for the pump
	// so no trailing output is lost before the final flush.
	if done := ctrl.LogDone(); done != nil {
		if err := done.Wait(ctx); err != nil {
			return rberrors.NewStreamError(
				"Container log stream ended abnormally",
				err.Error(),
				"Output may be incomplete.",
				err,
			)
		}
	}
	sink.Flush()

	if err := ctrl.Remove(ctx); err != nil {
		return err
	}

	a.console.PrintSuccess(fmt.Sprintf("🎉 Run '%s' completed successfully", m.Metadata.Name))
	log.Info("Run completed", "name", m.Metadata.Name)
	return nil
}

// execStep runs one command and treats a nonzero exit as a failure of
// the run, unlike ExecRunner which reports codes as data.
func (a *App) execStep(ctx context.Context, runner *sandbox.ExecRunner, handle container.Handle, sink io.Writer, cmd []string, what string) error {
	code, err := runner.Run(ctx, handle, cmd, sink)
	if err != nil {
		return err
	}
	if code != 0 {
		return rberrors.NewExecError(
			what,
			fmt.Sprintf("exit code %d", code),
			"Inspect the streamed output above for the failing step.",
			nil,
		)
	}
	return nil
}

// shellCommand wraps cmdline so it executes from the working directory.
func shellCommand(workdir, cmdline string) []string {
	return []string{"/bin/sh", "-c", fmt.Sprintf("cd %s && %s", workdir, cmdline)}
}

// CheckPrerequisites verifies the container runtime is reachable.
func CheckPrerequisites() error {
	slog.Info("Checking runbox prerequisites")

	rt, err := runtime.NewDockerRuntime()
	if err != nil {
		return rberrors.NewRuntimeError(
			"Container runtime is not available",
			err.Error(),
			"Start the Docker daemon and ensure the current user can reach its socket.",
			err,
		)
	}
	_ = rt.Close()

	slog.Info("All prerequisites satisfied")
	return nil
}
