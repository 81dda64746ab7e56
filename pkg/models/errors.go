package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSetup marks fatal problems detected before traversal starts.
	ErrSetup = errors.New("setup error")

	// ErrEntryAccess marks a per-entry failure that is recorded, not fatal.
	ErrEntryAccess = errors.New("entry access error")

	// ErrDuplicatePath means two entries resolved to the same relative path.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrSnapshotWrite marks a failure to persist a snapshot.
	ErrSnapshotWrite = errors.New("snapshot write error")

	// ErrSnapshotExists is returned when a snapshot name is already taken.
	ErrSnapshotExists = errors.New("snapshot already exists")
)

// SetupError describes a bad root or an unusable snapshot directory.
type SetupError struct {
	Op   string
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap lets errors.Is match both ErrSetup and the underlying cause.
func (e *SetupError) Unwrap() []error {
	return []error{ErrSetup, e.Err}
}

// EntryError records why a single entry could not be read.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() []error {
	return []error{ErrEntryAccess, e.Err}
}
