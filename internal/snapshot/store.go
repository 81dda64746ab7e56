// Package snapshot freezes inventories into immutable, content-addressed JSON
// documents and diffs them against earlier runs. Snapshots are only ever
// added: nothing in this package overwrites, truncates or removes one.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const lockFileName = ".treescout.lock"

// Info describes one snapshot file on disk
type Info struct {
	Name      string
	Path      string
	ScannedAt time.Time
}

// FreezeResult is returned after a snapshot has been committed
type FreezeResult struct {
	Path      string
	PriorPath string
	Snapshot  *models.Snapshot
	Diff      *models.Diff
}

// Store manages the snapshot directory
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir
func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Dir returns the snapshot directory
func (s *Store) Dir() string {
	return s.dir
}

// Ensure creates the directory if needed and checks that it is writable
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &models.SetupError{Op: "create snapshot dir", Path: s.dir, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, ".write-check-*")
	if err != nil {
		return &models.SetupError{Op: "write snapshot dir", Path: s.dir, Err: err}
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)

	return nil
}

// List returns snapshots oldest first. A missing directory yields no
// snapshots rather than an error.
func (s *Store) List() ([]Info, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var infos []Info
	for _, d := range dirEntries {
		name := d.Name()
		if d.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ts, ok := scannedAt(name)
		if !ok {
			continue
		}
		infos = append(infos, Info{
			Name:      name,
			Path:      filepath.Join(s.dir, name),
			ScannedAt: ts,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Latest loads the newest readable snapshot taken of root. Snapshots of other
// roots sharing the directory are ignored. Unreadable snapshots are skipped
// with a warning so one damaged file does not block every later scan.
func (s *Store) Latest(root string) (*models.Snapshot, string, error) {
	infos, err := s.List()
	if err != nil {
		return nil, "", err
	}

	for i := len(infos) - 1; i >= 0; i-- {
		snap, err := Load(infos[i].Path)
		if err != nil {
			s.logger.Warn("Skipping unreadable snapshot",
				zap.String("path", infos[i].Path),
				zap.Error(err))
			continue
		}
		if snap.Header.Root != root {
			continue
		}
		return snap, infos[i].Path, nil
	}

	return nil, "", nil
}

// Load reads and verifies one snapshot file
func Load(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Prior resolves the snapshot to diff against: explicitPath when set,
// otherwise the newest snapshot in the store taken of the same root
func (s *Store) Prior(explicitPath, root string) (*models.Snapshot, string, error) {
	if explicitPath == "" {
		return s.Latest(root)
	}
	snap, err := Load(explicitPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load prior snapshot %s: %w", explicitPath, err)
	}
	return snap, explicitPath, nil
}

// Freeze serializes inv into a new snapshot file and diffs it against the
// prior snapshot. The store lock serializes concurrent freezes; the file is
// committed with a no-replace link so an existing snapshot is never touched.
func (s *Store) Freeze(inv *models.Inventory, priorPath string) (*FreezeResult, error) {
	lock := flock.New(filepath.Join(s.dir, lockFileName))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("%w: failed to lock %s: %v", models.ErrSnapshotWrite, s.dir, err)
	}
	defer lock.Unlock()

	prior, resolvedPrior, err := s.Prior(priorPath, inv.Root)
	if err != nil {
		return nil, err
	}

	snap, err := New(inv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSnapshotWrite, err)
	}

	data, err := Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode snapshot: %v", models.ErrSnapshotWrite, err)
	}

	path := filepath.Join(s.dir, FileName(snap))
	if err := writeOnce(path, data); err != nil {
		return nil, err
	}

	s.logger.Info("Snapshot frozen",
		zap.String("path", path),
		zap.String("digest", snap.Header.ContentDigest),
		zap.Int("entries", len(snap.Body.Entries)))

	diff := Diff(prior, snap)
	diff.Prior = resolvedPrior

	return &FreezeResult{
		Path:      path,
		PriorPath: resolvedPrior,
		Snapshot:  snap,
		Diff:      diff,
	}, nil
}

// Preview builds the snapshot and diff that Freeze would produce without
// writing anything
func (s *Store) Preview(inv *models.Inventory, priorPath string) (*FreezeResult, error) {
	prior, resolvedPrior, err := s.Prior(priorPath, inv.Root)
	if err != nil {
		return nil, err
	}

	snap, err := New(inv)
	if err != nil {
		return nil, err
	}

	diff := Diff(prior, snap)
	diff.Prior = resolvedPrior

	return &FreezeResult{
		PriorPath: resolvedPrior,
		Snapshot:  snap,
		Diff:      diff,
	}, nil
}
