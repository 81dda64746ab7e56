package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/fatih/color"
)

const rule = "───────────────────────────────────────────────────────────────"

var (
	titleColor = color.New(color.FgYellow, color.Bold)
	labelColor = color.New(color.FgHiBlack)
	addColor   = color.New(color.FgGreen)
	delColor   = color.New(color.FgRed)
	modColor   = color.New(color.FgYellow)
	warnColor  = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen, color.Bold)
)

// printConsole prints results with colors
func (g *Generator) printConsole(result *models.ScanResult) {
	w := g.out
	label := labelColor.SprintFunc()

	fmt.Fprintln(w)
	if result.DryRun {
		titleColor.Fprintln(w, "SCAN COMPLETE (dry run)")
	} else {
		titleColor.Fprintln(w, "SCAN COMPLETE")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s      %s\n", label("Root:"), result.Root)
	fmt.Fprintf(w, "  %s   %d\n", label("Entries:"), entryCount(result))
	if result.Stats != nil {
		fmt.Fprintf(w, "  %s      %s\n", label("Size:"), FormatSize(result.Stats.TotalSize))
	}
	fmt.Fprintf(w, "  %s  %s\n", label("Duration:"), FormatDuration(result.Duration))
	if result.SnapshotPath != "" {
		fmt.Fprintf(w, "  %s  %s\n", label("Snapshot:"), result.SnapshotPath)
	}
	fmt.Fprintln(w)

	labelColor.Fprintln(w, rule)
	titleColor.Fprintln(w, "CATEGORIES")
	fmt.Fprintln(w)
	for _, cat := range models.AllCategories {
		n := result.Counts[cat]
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-10s %6d\n", cat, n)
	}
	fmt.Fprintln(w)

	if result.Stats != nil && result.Stats.ReadErrors > 0 {
		warnColor.Fprintf(w, "  ⚠ %d entries could not be read\n", result.Stats.ReadErrors)
		for _, p := range result.Stats.ErrorFiles {
			fmt.Fprintf(w, "      %s\n", p)
		}
		fmt.Fprintln(w)
	}

	labelColor.Fprintln(w, rule)
	printDiff(w, result.Diff)
	fmt.Fprintln(w)
}

// PrintDiff prints a snapshot diff with colors
func (g *Generator) PrintDiff(diff *models.Diff) {
	printDiff(g.out, diff)
}

func printDiff(w io.Writer, diff *models.Diff) {
	titleColor.Fprintln(w, "CHANGES")
	fmt.Fprintln(w)

	if diff == nil {
		return
	}
	if diff.Prior == "" {
		labelColor.Fprintln(w, "  No prior snapshot, every entry is new")
	} else {
		fmt.Fprintf(w, "  %s %s\n", labelColor.Sprint("Prior:"), diff.Prior)
	}

	if diff.IsEmpty() {
		okColor.Fprintln(w, "  ✓ No changes")
		return
	}

	fmt.Fprintf(w, "  %s  %s  %s  %d unchanged\n",
		addColor.Sprintf("+%d added", len(diff.Added)),
		delColor.Sprintf("-%d removed", len(diff.Removed)),
		modColor.Sprintf("~%d changed", len(diff.Changed)),
		diff.Unchanged)
	fmt.Fprintln(w)

	for _, p := range diff.Added {
		addColor.Fprintf(w, "  + %s\n", p)
	}
	for _, p := range diff.Removed {
		delColor.Fprintf(w, "  - %s\n", p)
	}
	for _, c := range diff.Changed {
		modColor.Fprintf(w, "  ~ %s", c.Path)
		if detail := changeDetail(c); detail != "" {
			labelColor.Fprintf(w, " (%s)", detail)
		}
		fmt.Fprintln(w)
	}
}

// changeDetail summarizes what differs for a changed entry
func changeDetail(c models.ChangedEntry) string {
	var parts []string
	if c.OldCategory != c.NewCategory {
		parts = append(parts, fmt.Sprintf("%s -> %s", c.OldCategory, c.NewCategory))
	}
	if c.OldSize != c.NewSize {
		parts = append(parts, fmt.Sprintf("%s -> %s", FormatSize(c.OldSize), FormatSize(c.NewSize)))
	} else if hashOf(c.OldHash) != hashOf(c.NewHash) {
		parts = append(parts, "content")
	}
	return strings.Join(parts, ", ")
}

func hashOf(h *string) string {
	if h == nil {
		return ""
	}
	return *h
}

func entryCount(result *models.ScanResult) int {
	if result.Inventory != nil {
		return result.Inventory.Len()
	}
	if result.Stats != nil {
		return result.Stats.TotalEntries
	}
	return 0
}
