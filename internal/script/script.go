// Package script turns the manifest's run.script declaration and the
// embedded helper into plain local file paths ready for transfer into
// a container.
package script

import (
	"fmt"
	"os"
	"path/filepath"
)

// HelperName is the file name the helper keeps inside the container.
const HelperName = "helper.sh"

// Resolve returns the absolute path of the run script declared in the
// manifest. Relative paths resolve against the manifest's directory.
func Resolve(manifestPath, scriptPath string) (string, error) {
	resolved := scriptPath
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(manifestPath), resolved)
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("run script not found: %s", resolved)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat run script %s: %w", resolved, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("run script is a directory: %s", resolved)
	}

	return filepath.Abs(resolved)
}

// MaterializeHelper writes the embedded helper script into a fresh
// temporary directory and returns its path. The caller removes the
// directory through the returned cleanup function.
func MaterializeHelper() (string, func(), error) {
	dir, err := os.MkdirTemp("", "runbox-helper-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create helper directory: %w", err)
	}

	// The base name becomes the archive entry name, so it must stay
	// HelperName for scripts to find it next to themselves.
	path := filepath.Join(dir, HelperName)
	if err := os.WriteFile(path, helperScript, 0o755); err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("failed to write helper script: %w", err)
	}

	cleanup := func() { os.RemoveAll(dir) }
	return path, cleanup, nil
}
