package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"runbox/internal/app"
	rberrors "runbox/internal/errors"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "runbox",
	Short:   "Runbox - Run build scripts inside disposable containers",
	Version: version,
	Long: `Runbox creates a fresh container for a manifest, streams its output,
executes the declared setup commands and run script inside it, and tears
the container down again - one container per invocation, nothing left behind.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a manifest in a disposable container",
	Long: `Run parses a manifest YAML file, creates a container from the declared
image, copies the run script and helper into it, executes the setup
commands followed by the script, and removes the container when done.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		pull, _ := cmd.Flags().GetBool("pull")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		a, err := app.NewDockerApp()
		if err != nil {
			rberrors.HandleError(err)
			os.Exit(1)
		}

		runErr := a.Run(ctx, file, app.Options{Pull: pull})
		_ = a.Close()
		if runErr != nil {
			rberrors.HandleError(runErr)
			os.Exit(1)
		}
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the container runtime is reachable",
	Long: `Check validates that the Docker daemon is running and reachable before
any manifest is executed.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := app.CheckPrerequisites(); err != nil {
			rberrors.HandleError(err)
			os.Exit(1)
		}
		fmt.Println("Container runtime is reachable.")
	},
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "Path to the manifest YAML file (required)")
	runCmd.Flags().Bool("pull", false, "Pull the image before creating the container")
	runCmd.Flags().Duration("timeout", 0, "Abort the run after this duration (default: no deadline)")
	if err := runCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for run command", "error", err)
	}
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
