package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/IvanShishkin/treescout/pkg/models"
)

// writeOnce commits data to path without ever replacing an existing file.
//
// The content goes to a temp file in the same directory, is synced and made
// read-only, then hard-linked to the final name. link(2) fails when the name
// exists, unlike rename. The temp name is always removed, so a failed write
// leaves neither a partial snapshot nor a stray temp file.
func writeOnce(path string, data []byte) error {
	dir := filepath.Dir(path)

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", models.ErrSnapshotWrite, err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("%w: failed to write temp file: %v", models.ErrSnapshotWrite, err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("%w: failed to sync temp file: %v", models.ErrSnapshotWrite, err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %v", models.ErrSnapshotWrite, err)
	}

	if err := os.Chmod(tempPath, 0444); err != nil {
		return fmt.Errorf("%w: failed to set permissions: %v", models.ErrSnapshotWrite, err)
	}

	if err := os.Link(tempPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", models.ErrSnapshotExists, path)
		}
		return fmt.Errorf("%w: failed to commit %s: %v", models.ErrSnapshotWrite, path, err)
	}

	return nil
}
