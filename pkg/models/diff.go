package models

// ChangedEntry describes a path present in both snapshots whose category or
// content differs.
type ChangedEntry struct {
	Path        string   `json:"path"`
	OldCategory Category `json:"old_category"`
	NewCategory Category `json:"new_category"`
	OldHash     *string  `json:"old_hash"`
	NewHash     *string  `json:"new_hash"`
	OldSize     int64    `json:"old_size"`
	NewSize     int64    `json:"new_size"`
}

// Diff is the three-way comparison between a prior snapshot and a new one.
type Diff struct {
	Prior     string         `json:"prior,omitempty"`
	Added     []string       `json:"added"`
	Removed   []string       `json:"removed"`
	Changed   []ChangedEntry `json:"changed"`
	Unchanged int            `json:"unchanged"`
}

// IsEmpty reports whether nothing was added, removed or changed.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// ChangedPaths returns the relative paths of changed entries.
func (d *Diff) ChangedPaths() []string {
	paths := make([]string, len(d.Changed))
	for i, c := range d.Changed {
		paths[i] = c.Path
	}
	return paths
}
