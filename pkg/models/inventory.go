package models

import (
	"sort"
	"time"
)

const (
	// ToolVersion is the scanner version recorded in every snapshot.
	ToolVersion = "0.1.0"

	// SchemaVersion is the snapshot document schema version.
	SchemaVersion = 1
)

// InventoryMeta is the run metadata attached to an inventory.
type InventoryMeta struct {
	Root           string
	ScannedAt      time.Time
	ToolVersion    string
	RuleSetVersion string
}

// Inventory is the complete, ordered set of entries for one scan.
// Entries are sorted by relative path.
type Inventory struct {
	InventoryMeta
	Entries []*Entry
}

// Len returns the number of entries.
func (inv *Inventory) Len() int {
	return len(inv.Entries)
}

// Lookup finds an entry by relative path.
func (inv *Inventory) Lookup(rel string) (*Entry, bool) {
	i := sort.Search(len(inv.Entries), func(i int) bool {
		return inv.Entries[i].RelativePath >= rel
	})
	if i < len(inv.Entries) && inv.Entries[i].RelativePath == rel {
		return inv.Entries[i], true
	}
	return nil, false
}

// Paths returns the ordered relative paths.
func (inv *Inventory) Paths() []string {
	paths := make([]string, len(inv.Entries))
	for i, e := range inv.Entries {
		paths[i] = e.RelativePath
	}
	return paths
}

// Counts recomputes the per-category totals. Every category is present,
// including those with zero entries.
func (inv *Inventory) Counts() map[Category]int {
	return CountCategories(inv.Entries)
}

// CountCategories tallies entries per category.
func CountCategories(entries []*Entry) map[Category]int {
	counts := make(map[Category]int, len(AllCategories))
	for _, c := range AllCategories {
		counts[c] = 0
	}
	for _, e := range entries {
		counts[e.Category]++
	}
	return counts
}
