package snapshot

import (
	"fmt"
	"sort"

	"github.com/IvanShishkin/treescout/pkg/models"
)

// Diff compares prior against next. A nil prior makes every entry an addition.
// An entry counts as changed when its category differs or, when both sides
// carry a hash, the hashes differ; without two hashes, size and mtime decide.
func Diff(prior, next *models.Snapshot) *models.Diff {
	d := &models.Diff{
		Added:   []string{},
		Removed: []string{},
		Changed: []models.ChangedEntry{},
	}

	var before map[string]*models.Entry
	if prior != nil {
		before = prior.Index()
	}

	seen := make(map[string]bool, len(next.Body.Entries))
	for _, e := range next.Body.Entries {
		seen[e.RelativePath] = true
		old, ok := before[e.RelativePath]
		if !ok {
			d.Added = append(d.Added, e.RelativePath)
			continue
		}
		if entryChanged(old, e) {
			d.Changed = append(d.Changed, models.ChangedEntry{
				Path:        e.RelativePath,
				OldCategory: old.Category,
				NewCategory: e.Category,
				OldHash:     old.Hash,
				NewHash:     e.Hash,
				OldSize:     old.Size,
				NewSize:     e.Size,
			})
			continue
		}
		d.Unchanged++
	}

	if prior != nil {
		for _, e := range prior.Body.Entries {
			if !seen[e.RelativePath] {
				d.Removed = append(d.Removed, e.RelativePath)
			}
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Slice(d.Changed, func(i, j int) bool { return d.Changed[i].Path < d.Changed[j].Path })

	return d
}

func entryChanged(old, cur *models.Entry) bool {
	if old.Category != cur.Category {
		return true
	}
	if old.Hash != nil && cur.Hash != nil {
		return *old.Hash != *cur.Hash
	}
	return old.Size != cur.Size || !old.ModTime.Equal(cur.ModTime)
}

// Compare loads two snapshot files and diffs them
func Compare(priorPath, nextPath string) (*models.Diff, error) {
	prior, err := Load(priorPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", priorPath, err)
	}
	next, err := Load(nextPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", nextPath, err)
	}

	d := Diff(prior, next)
	d.Prior = priorPath
	return d, nil
}
