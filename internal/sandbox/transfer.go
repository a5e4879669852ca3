package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"runbox/internal/archive"
	rberrors "runbox/internal/errors"
	"runbox/pkg/container"
)

// Copier transfers single local files into a container.
type Copier struct{}

func NewCopier() *Copier {
	return &Copier{}
}

// Copy packages localPath into a single-entry tar archive and extracts it
// into destPath inside the container. The file lands as
// destPath/basename(localPath). A missing local file fails before any
// runtime call is made.
func (c *Copier) Copy(ctx context.Context, handle container.Handle, localPath, destPath string) error {
	slog.Info("Copying file into container",
		"containerID", shortID(handle.ID()), "localPath", localPath, "destPath", destPath)

	content, err := archive.FromFile(localPath)
	if err != nil {
		return rberrors.NewTransferError(
			fmt.Sprintf("Cannot read local file %s", localPath),
			err.Error(),
			"Verify the file exists and is readable.",
			err,
		)
	}
	defer content.Close()

	if err := handle.PutArchive(ctx, destPath, content); err != nil {
		return rberrors.NewTransferError(
			fmt.Sprintf("Failed to copy %s into container %s at %s",
				filepath.Base(localPath), shortID(handle.ID()), destPath),
			err.Error(),
			"Ensure the destination directory exists inside the container.",
			err,
		)
	}

	slog.Info("File copied into container",
		"containerID", shortID(handle.ID()), "file", filepath.Base(localPath), "destPath", destPath)
	return nil
}
