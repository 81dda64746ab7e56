package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/IvanShishkin/treescout/internal/config"
	"github.com/IvanShishkin/treescout/pkg/models"
	"go.uber.org/zap"
)

// errStopWalk ends a walk early when an iterator consumer stops pulling.
var errStopWalk = errors.New("walk stopped")

// Walker enumerates every non-directory entry under a root. It only stats and
// lists; it never opens files for writing, renames or removes anything.
type Walker struct {
	config  *config.Config
	logger  *zap.Logger
	exclude *Matcher
}

// NewWalker creates a new filesystem walker
func NewWalker(cfg *config.Config, logger *zap.Logger) *Walker {
	return &Walker{
		config:  cfg,
		logger:  logger,
		exclude: NewMatcher(cfg.Exclude),
	}
}

// ExcludePath skips an absolute path, used for a snapshot directory that lives
// inside the scanned tree
func (w *Walker) ExcludePath(abs string) {
	w.exclude.AddAbsolute(abs)
}

// Walk recursively walks the directory tree, calling fn once per entry.
// Relative paths and link targets are passed through EscapeName; Path keeps
// the raw bytes for I/O. Symlinks are reported but never followed. Entries that cannot be read are
// reported with Err set instead of aborting the walk. The context is checked
// between entries.
func (w *Walker) Walk(ctx context.Context, root string, fn func(*models.FileInfo) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}
		relPath = EscapeName(filepath.ToSlash(relPath))

		if err != nil {
			if path == root {
				return &models.SetupError{Op: "read root", Path: root, Err: err}
			}
			w.logger.Warn("Error accessing path", zap.String("path", relPath), zap.Error(err))
			return fn(w.degraded(path, relPath, d, err))
		}

		if path == root {
			return nil
		}

		if w.exclude.Excluded(path, relPath) {
			if d.IsDir() {
				w.logger.Debug("Skipping excluded directory", zap.String("path", relPath))
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.logger.Warn("Error reading entry metadata", zap.String("path", relPath), zap.Error(err))
			return fn(w.degraded(path, relPath, d, err))
		}

		return fn(w.fileInfo(path, relPath, info))
	})
}

// Entries returns a lazy sequence over the same entries Walk reports. Each
// range over the sequence walks the tree again from the start. A fatal walk
// error is yielded once as the final element.
func (w *Walker) Entries(ctx context.Context, root string) iter.Seq2[*models.FileInfo, error] {
	return func(yield func(*models.FileInfo, error) bool) {
		err := w.Walk(ctx, root, func(fi *models.FileInfo) error {
			if !yield(fi, nil) {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			yield(nil, err)
		}
	}
}

// fileInfo converts Lstat metadata into a FileInfo
func (w *Walker) fileInfo(path, relPath string, info fs.FileInfo) *models.FileInfo {
	fi := &models.FileInfo{
		Path:         path,
		RelativePath: relPath,
		Name:         info.Name(),
		Size:         info.Size(),
		ModTime:      info.ModTime().UTC(),
		Mode:         info.Mode(),
		IsSymlink:    info.Mode()&fs.ModeSymlink != 0,
		IsHidden:     isHidden(info.Name()),
	}

	if fi.IsSymlink {
		target, err := os.Readlink(path)
		if err != nil {
			fi.Err = &models.EntryError{Path: relPath, Err: err}
			return fi
		}
		fi.LinkTarget = EscapeName(target)

		// Stat follows the link once to detect a dangling target; nothing
		// below the target is visited.
		if _, err := os.Stat(path); err != nil {
			fi.Err = &models.EntryError{Path: relPath, Err: fmt.Errorf("broken symlink target %s: %w", fi.LinkTarget, err)}
			w.logger.Warn("Broken symlink", zap.String("path", relPath), zap.String("target", fi.LinkTarget))
		}
	}

	return fi
}

// degraded records an entry that could not be stat'ed or listed
func (w *Walker) degraded(path, relPath string, d fs.DirEntry, err error) *models.FileInfo {
	fi := &models.FileInfo{
		Path:         path,
		RelativePath: relPath,
		Name:         filepath.Base(path),
		IsHidden:     isHidden(filepath.Base(path)),
		Err:          &models.EntryError{Path: relPath, Err: err},
	}
	if d != nil {
		fi.IsDir = d.IsDir()
		fi.IsSymlink = d.Type()&fs.ModeSymlink != 0
		fi.Mode = d.Type()
	}
	return fi
}

// isHidden checks if a file is hidden
func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// GetExtension returns the file extension without dot
func GetExtension(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
