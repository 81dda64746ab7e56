package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IvanShishkin/treescout/internal/config"
	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	color.NoColor = true
}

func strPtr(s string) *string { return &s }

func sampleResult() *models.ScanResult {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	inv := &models.Inventory{
		InventoryMeta: models.InventoryMeta{
			Root:           "/work/project",
			ScannedAt:      start,
			ToolVersion:    models.ToolVersion,
			RuleSetVersion: "2026.10.1+00ff",
		},
		Entries: []*models.Entry{
			{RelativePath: "README.md", Category: models.CategoryDoc, Size: 12, Hash: strPtr("aa"),
				Rationale: models.Rationale{Rule: "doc-extension", Family: "extension", Confidence: models.ConfidenceHigh}},
			{RelativePath: "locked", Category: models.CategoryUnknown, Error: "permission denied",
				Rationale: models.Rationale{Rule: "access-error", Confidence: models.ConfidenceLow}},
			{RelativePath: "scanner.py", Category: models.CategoryScript, Size: 2048,
				Rationale: models.Rationale{Rule: "script-source", Family: "extension", Confidence: models.ConfidenceHigh}},
		},
	}
	stats := &models.ScanStatistics{}
	for _, e := range inv.Entries {
		stats.AddEntry(e)
	}
	return &models.ScanResult{
		StartTime:    start,
		EndTime:      start.Add(1500 * time.Millisecond),
		Duration:     1500 * time.Millisecond,
		Root:         "/work/project",
		SnapshotPath: "/work/project/.treescout/snapshots/snapshot-x.json",
		Inventory:    inv,
		Counts:       inv.Counts(),
		Diff: &models.Diff{
			Prior:   "/work/project/.treescout/snapshots/snapshot-w.json",
			Added:   []string{"scanner.py"},
			Removed: []string{"old.txt"},
			Changed: []models.ChangedEntry{{
				Path: "README.md", OldCategory: models.CategoryDoc, NewCategory: models.CategoryDoc,
				OldHash: strPtr("a0"), NewHash: strPtr("aa"), OldSize: 12, NewSize: 12,
			}},
			Unchanged: 1,
		},
		Stats: stats,
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Microsecond, "1.50ms"},
		{2500 * time.Millisecond, "2.50s"},
		{90 * time.Second, "1m30.00s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h2m3.00s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0B"},
		{1023, "1023B"},
		{1024, "1.0K"},
		{1536, "1.5K"},
		{5 * 1024 * 1024, "5.0M"},
		{3 << 30, "3.0G"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.in))
	}
}

func TestGenerate_Console(t *testing.T) {
	g := NewGenerator(&config.Config{}, zap.NewNop())
	var buf bytes.Buffer
	g.SetOutput(&buf)

	path, err := g.Generate(sampleResult())
	require.NoError(t, err)
	assert.Empty(t, path)

	out := buf.String()
	assert.Contains(t, out, "SCAN COMPLETE")
	assert.Contains(t, out, "/work/project")
	assert.Contains(t, out, "1 entries could not be read")
	assert.Contains(t, out, "+ scanner.py")
	assert.Contains(t, out, "- old.txt")
	assert.Contains(t, out, "~ README.md (content)")
	assert.NotContains(t, out, "agent", "empty categories are omitted")
}

func TestPrintDiff_NoChanges(t *testing.T) {
	g := NewGenerator(&config.Config{}, zap.NewNop())
	var buf bytes.Buffer
	g.SetOutput(&buf)

	g.PrintDiff(&models.Diff{Prior: "a.json", Unchanged: 4})
	assert.Contains(t, buf.String(), "No changes")
}

func TestGenerate_Files(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"json", []string{`"ruleset_version": "2026.10.1+00ff"`, `"relative_path": "scanner.py"`, `"added": [`}},
		{"text", []string{"TREESCOUT WORKSPACE INVENTORY", "Read Errors:      1", "  ~ README.md (content)", "locked"}},
		{"md", []string{"# Treescout Workspace Inventory", "| doc | 1 |", "- ➕ `scanner.py`", "`locked` ⚠"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "report."+tt.format)
			g := NewGenerator(&config.Config{ReportFormat: tt.format, OutputFile: out}, zap.NewNop())

			result := sampleResult()
			path, err := g.Generate(result)
			require.NoError(t, err)
			assert.Equal(t, out, path)
			assert.Equal(t, out, result.ReportPath)

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, string(data), want)
			}
		})
	}
}

func TestGenerate_JSONIsValid(t *testing.T) {
	out := filepath.Join(t.TempDir(), "r.json")
	g := NewGenerator(&config.Config{ReportFormat: "json", OutputFile: out}, zap.NewNop())
	_, err := g.Generate(sampleResult())
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded struct {
		Root    string           `json:"root"`
		Entries []map[string]any `json:"entries"`
		Counts  map[string]int   `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "/work/project", decoded.Root)
	assert.Len(t, decoded.Entries, 3)
	assert.Nil(t, decoded.Entries[2]["hash"])
	assert.Equal(t, 1, decoded.Counts["script"])
}

func TestGenerate_DefaultFileName(t *testing.T) {
	t.Chdir(t.TempDir())

	g := NewGenerator(&config.Config{ReportFormat: "markdown"}, zap.NewNop())
	path, err := g.Generate(sampleResult())
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "TREESCOUT-REPORT-"), base)
	assert.True(t, strings.HasSuffix(base, ".md"), base)
	assert.FileExists(t, path)
}

func TestGenerate_UnknownFormat(t *testing.T) {
	g := NewGenerator(&config.Config{ReportFormat: "xml", OutputFile: filepath.Join(t.TempDir(), "r")}, zap.NewNop())
	_, err := g.Generate(sampleResult())
	assert.Error(t, err)
}
