package report

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/treescout/pkg/models"
)

// renderMarkdown renders a Markdown report
func renderMarkdown(result *models.ScanResult) []byte {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Treescout Workspace Inventory v%s\n\n", models.ToolVersion))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Root | `%s` |\n", result.Root))
	sb.WriteString(fmt.Sprintf("| Start Time | %s |\n", result.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", FormatDuration(result.Duration)))
	sb.WriteString(fmt.Sprintf("| Entries | %d |\n", entryCount(result)))
	if result.Inventory != nil {
		sb.WriteString(fmt.Sprintf("| Rule Set | `%s` |\n", result.Inventory.RuleSetVersion))
	}
	if result.SnapshotPath != "" {
		sb.WriteString(fmt.Sprintf("| Snapshot | `%s` |\n", result.SnapshotPath))
	}
	if s := result.Stats; s != nil {
		sb.WriteString(fmt.Sprintf("| Total Size | %s |\n", FormatSize(s.TotalSize)))
		sb.WriteString(fmt.Sprintf("| Low Confidence | %d |\n", s.LowConfidence))
		sb.WriteString(fmt.Sprintf("| Read Errors | %d |\n", s.ReadErrors))
	}
	sb.WriteString("\n")

	// Categories
	sb.WriteString("## Categories\n\n")
	sb.WriteString("| Category | Count |\n")
	sb.WriteString("|----------|-------|\n")
	for _, cat := range models.AllCategories {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", cat, result.Counts[cat]))
	}
	sb.WriteString("\n")

	// Changes
	if d := result.Diff; d != nil {
		sb.WriteString("## Changes\n\n")
		if d.IsEmpty() {
			sb.WriteString("> ✅ **No changes since the prior snapshot**\n\n")
		} else {
			for _, p := range d.Added {
				sb.WriteString(fmt.Sprintf("- ➕ `%s`\n", p))
			}
			for _, p := range d.Removed {
				sb.WriteString(fmt.Sprintf("- ➖ `%s`\n", p))
			}
			for _, c := range d.Changed {
				sb.WriteString(fmt.Sprintf("- ✏️ `%s` %s\n", c.Path, changeDetail(c)))
			}
			sb.WriteString("\n")
		}
	}

	// Entries
	if result.Inventory != nil && result.Inventory.Len() > 0 {
		sb.WriteString("## Entries\n\n")
		sb.WriteString("| Path | Category | Rule | Confidence | Size |\n")
		sb.WriteString("|------|----------|------|------------|------|\n")
		for _, e := range result.Inventory.Entries {
			marker := ""
			if e.Error != "" {
				marker = " ⚠"
			}
			sb.WriteString(fmt.Sprintf("| `%s`%s | %s | %s | %s | %s |\n",
				escapeCell(e.RelativePath), marker, e.Category, e.Rationale.Rule, e.Rationale.Confidence, FormatSize(e.Size)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Report generated by Treescout v%s*\n", models.ToolVersion))
	return []byte(sb.String())
}

// escapeCell keeps a path from breaking the table layout
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
