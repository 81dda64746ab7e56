package report

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/treescout/pkg/models"
)

// renderText renders a plain text report
func renderText(result *models.ScanResult) []byte {
	var sb strings.Builder

	// Header
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString(fmt.Sprintf("  TREESCOUT WORKSPACE INVENTORY v%s\n", models.ToolVersion))
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	// Summary
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Root:             %s\n", result.Root))
	sb.WriteString(fmt.Sprintf("Start Time:       %s\n", result.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("End Time:         %s\n", result.EndTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(result.Duration)))
	sb.WriteString(fmt.Sprintf("Entries:          %d\n", entryCount(result)))
	if result.Inventory != nil {
		sb.WriteString(fmt.Sprintf("Rule Set:         %s\n", result.Inventory.RuleSetVersion))
	}
	if result.SnapshotPath != "" {
		sb.WriteString(fmt.Sprintf("Snapshot:         %s\n", result.SnapshotPath))
	} else if result.DryRun {
		sb.WriteString("Snapshot:         (dry run, not written)\n")
	}
	if s := result.Stats; s != nil {
		sb.WriteString(fmt.Sprintf("Total Size:       %s\n", FormatSize(s.TotalSize)))
		sb.WriteString(fmt.Sprintf("Hashed:           %d\n", s.Hashed))
		sb.WriteString(fmt.Sprintf("Probed:           %d\n", s.Probed))
		sb.WriteString(fmt.Sprintf("Symlinks:         %d\n", s.Symlinks))
		sb.WriteString(fmt.Sprintf("Low Confidence:   %d\n", s.LowConfidence))
		sb.WriteString(fmt.Sprintf("Read Errors:      %d\n", s.ReadErrors))
	}
	sb.WriteString("\n")

	// Categories
	sb.WriteString("ENTRIES BY CATEGORY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	for _, cat := range models.AllCategories {
		sb.WriteString(fmt.Sprintf("  %-10s: %d\n", cat, result.Counts[cat]))
	}
	sb.WriteString("\n")

	// Diff
	if d := result.Diff; d != nil {
		sb.WriteString("CHANGES SINCE PRIOR SNAPSHOT\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		if d.Prior == "" {
			sb.WriteString("Prior:            (none)\n")
		} else {
			sb.WriteString(fmt.Sprintf("Prior:            %s\n", d.Prior))
		}
		sb.WriteString(fmt.Sprintf("Added: %d  Removed: %d  Changed: %d  Unchanged: %d\n\n",
			len(d.Added), len(d.Removed), len(d.Changed), d.Unchanged))
		for _, p := range d.Added {
			sb.WriteString("  + " + p + "\n")
		}
		for _, p := range d.Removed {
			sb.WriteString("  - " + p + "\n")
		}
		for _, c := range d.Changed {
			sb.WriteString("  ~ " + c.Path)
			if detail := changeDetail(c); detail != "" {
				sb.WriteString(" (" + detail + ")")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	// Detailed entries
	if result.Inventory != nil && result.Inventory.Len() > 0 {
		sb.WriteString("ENTRIES\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		for _, e := range result.Inventory.Entries {
			sb.WriteString(fmt.Sprintf("%-8s %-40s %s", e.Category, e.RelativePath, e.Rationale.Rule))
			if e.Rationale.Confidence == models.ConfidenceLow {
				sb.WriteString(" (low)")
			}
			if e.Error != "" {
				sb.WriteString(" ! " + e.Error)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	return []byte(sb.String())
}
