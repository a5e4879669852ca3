package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	archive "github.com/moby/go-archive"
)

// FromFile packages the file at localPath into a single-entry, uncompressed
// tar stream whose entry name is the file's base name. Rooting at the base
// name keeps the payload portable: the destination directory inside the
// container is supplied separately by the caller.
//
// The returned reader streams lazily; the caller owns closing it.
func FromFile(localPath string) (io.ReadCloser, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("local file not accessible: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("local path is a directory, expected a file: %s", localPath)
	}

	rc, err := archive.TarWithOptions(filepath.Dir(localPath), &archive.TarOptions{
		Compression:  archive.Uncompressed,
		IncludeFiles: []string{filepath.Base(localPath)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build archive for %s: %w", localPath, err)
	}

	return rc, nil
}
