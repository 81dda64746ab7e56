package models

import (
	"io/fs"
	"time"
)

// FileInfo is one filesystem object as reported by the walker, before
// classification. Directories are never reported unless their listing failed.
type FileInfo struct {
	Path         string      // Absolute path
	RelativePath string      // Slash-separated path relative to the scan root
	Name         string      // Base name
	Size         int64       // Size in bytes (Lstat)
	ModTime      time.Time   // Modification time, UTC
	Mode         fs.FileMode // Lstat mode bits
	IsDir        bool        // Set only for directories that could not be listed
	IsSymlink    bool        // Symbolic link, never traversed
	IsHidden     bool        // Name starts with a dot
	LinkTarget   string      // Raw symlink target
	Err          error       // Access error; non-nil marks a degraded entry
}

// IsRegular reports whether the entry is a plain file that may be opened
// for probing and hashing.
func (f *FileInfo) IsRegular() bool {
	return f.Err == nil && !f.IsDir && !f.IsSymlink && f.Mode.IsRegular()
}
