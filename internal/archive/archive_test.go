package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFileSingleEntryRootedAtBaseName(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "build.sh")
	content := []byte("#!/bin/sh\necho hello\n")
	require.NoError(t, os.WriteFile(scriptPath, content, 0o755))

	rc, err := FromFile(scriptPath)
	require.NoError(t, err)
	defer rc.Close()

	// The stream must be a plain tar: readable without decompression.
	tr := tar.NewReader(rc)

	hdr, err := tr.Next()
	require.NoError(t, err)
	require.Equal(t, "build.sh", hdr.Name)
	require.Equal(t, byte(tar.TypeReg), hdr.Typeflag)

	data, err := io.ReadAll(tr)
	require.NoError(t, err)
	require.Equal(t, content, data)

	_, err = tr.Next()
	require.Equal(t, io.EOF, err)
}

func TestFromFileMissingPath(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.sh"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromFileRejectsDirectory(t *testing.T) {
	_, err := FromFile(t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "directory")
}
