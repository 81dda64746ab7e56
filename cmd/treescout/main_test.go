package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IvanShishkin/treescout/internal/snapshot"
	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	color.NoColor = true
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Success", nil, exitOK},
		{"Setup", &models.SetupError{Op: "stat root", Path: "/x", Err: os.ErrNotExist}, exitSetup},
		{"Wrapped setup", fmt.Errorf("scan: %w", &models.SetupError{Op: "o", Path: "p", Err: errors.New("e")}), exitSetup},
		{"Snapshot write", fmt.Errorf("%w: disk full", models.ErrSnapshotWrite), exitError},
		{"Other", errors.New("boom"), exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestValidateFlags(t *testing.T) {
	assert.NoError(t, validateFlags("", "", 0))
	assert.NoError(t, validateFlags("json", "10M", 512))
	assert.Error(t, validateFlags("html", "", 0))
	assert.Error(t, validateFlags("", "lots", 0))
	assert.Error(t, validateFlags("", "", -1))
}

func workspace(t *testing.T) (root, snaps string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# hi\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scanner.py"), []byte("import os\n"), 0644))
	t.Chdir(t.TempDir())
	return root, filepath.Join(t.TempDir(), "snaps")
}

func TestRun_ScanExitCodes(t *testing.T) {
	root, snaps := workspace(t)

	assert.Equal(t, exitOK, run([]string{"scan", "-q", "--snapshot-dir", snaps, root}))
	assert.Equal(t, exitOK, run([]string{"scan", "-q", "--snapshot-dir", snaps, root}))

	infos, err := snapshot.NewStore(snaps, zap.NewNop()).List()
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	assert.Equal(t, exitSetup, run([]string{"scan", "-q", "--snapshot-dir", snaps, filepath.Join(root, "missing")}))
	assert.Equal(t, exitSetup, run([]string{"scan", "-q", "--snapshot-dir", snaps, filepath.Join(root, "README.md")}))
	assert.Equal(t, exitSetup, run([]string{"scan", "-q", "-r", "html", root}))
	assert.Equal(t, exitSetup, run([]string{"scan", "-q", "--snapshot-dir", snaps,
		"--prior", filepath.Join(snaps, "missing.json"), root}))

	infos, err = snapshot.NewStore(snaps, zap.NewNop()).List()
	require.NoError(t, err)
	assert.Len(t, infos, 2, "a bad prior stops the scan before anything is written")
}

func TestProgressPrinter(t *testing.T) {
	feed := func(cb func(string, int, int, string)) {
		cb("counting", 0, 0, "Counting entries...")
		cb("counting", 3, 3, "Found 3 entries")
		cb("scanning", 1, 3, "README.md")
		cb("scanning", 2, 3, "scanner.py")
		cb("scanning", 3, 3, "Scan complete")
		cb("freezing", 0, 0, "Freezing snapshot...")
	}

	var plain bytes.Buffer
	feed(progressPrinter(&plain, false))
	assert.NotContains(t, plain.String(), "\033[")
	assert.Equal(t, 1, strings.Count(plain.String(), "Scanning:"))
	assert.Contains(t, plain.String(), "(3/3)")
	assert.Contains(t, plain.String(), "Freezing snapshot...")

	var tty bytes.Buffer
	feed(progressPrinter(&tty, true))
	assert.Equal(t, 2, strings.Count(tty.String(), "\033[1A\033[K"))
	assert.Equal(t, 3, strings.Count(tty.String(), "Scanning:"))
}

func TestRun_ScanWritesReport(t *testing.T) {
	root, snaps := workspace(t)
	out := filepath.Join(t.TempDir(), "inventory.json")

	code := run([]string{"scan", "-q", "--snapshot-dir", snaps, "-r", "json", "-o", out, root})
	require.Equal(t, exitOK, code)
	assert.FileExists(t, out)
}

func TestRun_DryRunLeavesStoreEmpty(t *testing.T) {
	root, snaps := workspace(t)

	require.Equal(t, exitOK, run([]string{"scan", "-q", "--dry-run", "--snapshot-dir", snaps, root}))
	_, err := os.Stat(snaps)
	assert.True(t, os.IsNotExist(err))
}

func TestRulesList(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"rules", "list"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-directory")
	assert.Contains(t, buf.String(), "binary-blob")
}

func TestSnapshotsListAndDiff(t *testing.T) {
	root, snaps := workspace(t)
	require.Equal(t, exitOK, run([]string{"scan", "-q", "--snapshot-dir", snaps, root}))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tests"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tests", "new_test.py"), []byte("def test(): pass\n"), 0644))
	require.Equal(t, exitOK, run([]string{"scan", "-q", "--snapshot-dir", snaps, root}))

	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"snapshots", "list", "--snapshot-dir", snaps})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "2 entries")
	assert.Contains(t, buf.String(), "3 entries")

	infos, err := snapshot.NewStore(snaps, zap.NewNop()).List()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	cmd = newRootCmd()
	buf.Reset()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"diff", infos[0].Path, infos[1].Path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "+ tests/new_test.py")
}

func TestDiff_BadSnapshot(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	assert.Equal(t, exitError, run([]string{"diff", bad, bad}))
}
