// Package inventory accumulates classified entries into a keyed, ordered
// inventory.
package inventory

import (
	"fmt"
	"sort"

	"github.com/IvanShishkin/treescout/pkg/models"
)

// Builder collects entries keyed by relative path. It is not safe for
// concurrent use; the scanner's collector goroutine is its only writer.
type Builder struct {
	entries map[string]*models.Entry
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]*models.Entry)}
}

// Add records one entry. A second entry for the same relative path means the
// walker reported a path twice, which is an internal consistency failure.
func (b *Builder) Add(e *models.Entry) error {
	if e == nil {
		return fmt.Errorf("nil entry")
	}
	if _, exists := b.entries[e.RelativePath]; exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicatePath, e.RelativePath)
	}
	b.entries[e.RelativePath] = e
	return nil
}

// Len returns the number of entries added so far
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build returns the inventory with entries sorted by relative path,
// independent of the order in which they were added
func (b *Builder) Build(meta models.InventoryMeta) *models.Inventory {
	entries := make([]*models.Entry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})

	return &models.Inventory{
		InventoryMeta: meta,
		Entries:       entries,
	}
}
