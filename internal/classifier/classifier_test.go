package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDefault(t *testing.T) *Classifier {
	t.Helper()
	rs, err := NewLoader("").Load()
	require.NoError(t, err)
	return New(rs, zap.NewNop())
}

func TestClassify_DefaultRules(t *testing.T) {
	c := newDefault(t)

	tests := []struct {
		name       string
		rel        string
		head       string
		category   models.Category
		rule       string
		confidence string
	}{
		{"Markdown readme", "README.md", "# project", models.CategoryDoc, "doc-extension", models.ConfidenceHigh},
		{"Top-level python", "scanner.py", "import os", models.CategoryScript, "script-source", models.ConfidenceHigh},
		{"SQLite database", "data/index", "SQLite format 3\x00\x10\x00", models.CategoryCache, "sqlite-database", models.ConfidenceHigh},
		{"Cache file by name", "data/cache.bin", "\x00\x01\x02\x03cachedata", models.CategoryCache, "cache-file", models.ConfidenceHigh},
		{"Cache file text content", "build/cache.bin", "plain words", models.CategoryCache, "cache-file", models.ConfidenceHigh},
		{"Test dir beats extension", "tests/new_test.py", "def test_x(): pass", models.CategoryTest, "test-directory", models.ConfidenceHigh},
		{"Nested test dir", "pkg/testdata/fixture.json", "{}", models.CategoryTest, "test-directory", models.ConfidenceHigh},
		{"Go test file", "pkg/scan/walker_test.go", "", models.CategoryTest, "test-file", models.ConfidenceHigh},
		{"Library source", "src/lib/util.py", "", models.CategoryLib, "library-source", models.ConfidenceHigh},
		{"Agent directory", "agents/planner.py", "", models.CategoryAgent, "agent-directory", models.ConfidenceHigh},
		{"Agent file", "research_agent.py", "", models.CategoryAgent, "agent-file", models.ConfidenceHigh},
		{"Ambiguous path families", "tests/agents/helper.py", "", models.CategoryTest, "test-directory", models.ConfidenceLow},
		{"Env file", ".env", "KEY=1", models.CategoryConfig, "config-extension", models.ConfidenceHigh},
		{"Env variant", ".env.local", "KEY=1", models.CategoryConfig, "config-file", models.ConfidenceHigh},
		{"YAML config", "deploy/values.yaml", "", models.CategoryConfig, "config-extension", models.ConfidenceHigh},
		{"TSX component", "app/Button.tsx", "", models.CategoryUI, "ui-extension", models.ConfidenceHigh},
		{"Stylesheet", "site.css", "", models.CategoryUI, "ui-extension", models.ConfidenceHigh},
		{"Makefile", "Makefile", "all:", models.CategoryScript, "build-script", models.ConfidenceHigh},
		{"Shebang script", "bin/deploy", "#!/bin/sh\necho hi\n", models.CategoryScript, "shebang", models.ConfidenceHigh},
		{"Env shebang", "tool", "#!/usr/bin/env python3\n", models.CategoryScript, "shebang", models.ConfidenceHigh},
		{"Pickle", "state", "\x80\x04\x95", models.CategoryCache, "python-pickle", models.ConfidenceHigh},
		{"Pickle extension", "model.pkl", "", models.CategoryCache, "cache-extension", models.ConfidenceHigh},
		{"CSV data", "data/users.csv", "id,name", models.CategoryData, "data-extension", models.ConfidenceHigh},
		{"Binary blob", "blob", "\x01\x00\x02", models.CategoryCache, "binary-blob", models.ConfidenceLow},
		{"Nothing matches", "mystery", "plain words", models.CategoryUnknown, RuleDefault, models.ConfidenceLow},
		{"Uppercase extension", "NOTES.MD", "", models.CategoryDoc, "doc-extension", models.ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(&Metadata{RelativePath: tt.rel, Head: []byte(tt.head)})
			assert.Equal(t, tt.category, res.Category)
			assert.Equal(t, tt.rule, res.Rationale.Rule)
			assert.Equal(t, tt.confidence, res.Rationale.Confidence)
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	c := newDefault(t)
	meta := &Metadata{RelativePath: "tests/agents/helper.py", Size: 12}

	first := c.Classify(meta)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify(meta))
	}

	// A second classifier over the same table agrees
	assert.Equal(t, first, newDefault(t).Classify(meta))
}

func TestClassify_SymlinkIgnoresContent(t *testing.T) {
	c := newDefault(t)

	res := c.Classify(&Metadata{RelativePath: "docs/link.md", IsSymlink: true})
	assert.Equal(t, models.CategoryDoc, res.Category)

	res = c.Classify(&Metadata{RelativePath: "link", IsSymlink: true, Head: []byte("#!/bin/sh\n")})
	assert.Equal(t, models.CategoryUnknown, res.Category)
}

func TestClassify_AccessError(t *testing.T) {
	c := newDefault(t)
	res := c.Classify(&Metadata{
		RelativePath: "tests/secret.py",
		Err:          &models.EntryError{Path: "tests/secret.py", Err: os.ErrPermission},
	})
	assert.Equal(t, models.CategoryUnknown, res.Category)
	assert.Equal(t, RuleAccessError, res.Rationale.Rule)
}

func TestClassify_RuleOrderIsPrecedence(t *testing.T) {
	table := `
version: "1"
rules:
  - name: docs-dir
    family: path
    category: doc
    patterns: [docs]
  - name: python
    family: extension
    category: script
    patterns: [py]
`
	rs, err := Parse([]byte(table))
	require.NoError(t, err)
	c := New(rs, zap.NewNop())
	assert.Equal(t, models.CategoryDoc, c.Classify(&Metadata{RelativePath: "docs/conf.py"}).Category)

	swapped := `
version: "1"
rules:
  - name: python
    family: extension
    category: script
    patterns: [py]
  - name: docs-dir
    family: path
    category: doc
    patterns: [docs]
`
	rs, err = Parse([]byte(swapped))
	require.NoError(t, err)
	c = New(rs, zap.NewNop())
	assert.Equal(t, models.CategoryScript, c.Classify(&Metadata{RelativePath: "docs/conf.py"}).Category)
}

func TestNeedsContent(t *testing.T) {
	c := newDefault(t)

	assert.True(t, c.NeedsContent("data/index"))
	assert.False(t, c.NeedsContent("data/cache.bin"))
	assert.True(t, c.NeedsContent("bin/deploy"))
	assert.False(t, c.NeedsContent("README.md"))
	assert.False(t, c.NeedsContent("tests/blob"))
	assert.False(t, c.NeedsContent("Makefile"))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{"No version", "rules:\n  - {name: a, family: path, category: doc, patterns: [docs]}\n"},
		{"No rules", "version: \"1\"\n"},
		{"Unknown category", "version: \"1\"\nrules:\n  - {name: a, family: path, category: binary, patterns: [x]}\n"},
		{"Unknown family", "version: \"1\"\nrules:\n  - {name: a, family: size, category: doc, patterns: [x]}\n"},
		{"Missing patterns", "version: \"1\"\nrules:\n  - {name: a, family: extension, category: doc}\n"},
		{"Bad magic", "version: \"1\"\nrules:\n  - {name: a, family: magic, category: cache, patterns: [zz]}\n"},
		{"Bad confidence", "version: \"1\"\nrules:\n  - {name: a, family: binary, category: data, confidence: maybe}\n"},
		{"Duplicate name", "version: \"1\"\nrules:\n  - {name: a, family: binary, category: data}\n  - {name: a, family: shebang, category: script}\n"},
		{"Not YAML", "version: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.table))
			assert.Error(t, err)
		})
	}
}

func TestLoader_CustomFileAndID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	table := "version: \"7\"\nrules:\n  - {name: everything-is-data, family: extension, category: data, patterns: [txt]}\n"
	require.NoError(t, os.WriteFile(path, []byte(table), 0644))

	rs, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "7", rs.Version)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, []string{".txt"}, rs.Rules[0].Patterns)
	assert.Equal(t, models.ConfidenceHigh, rs.Rules[0].Confidence)

	again, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, rs.ID(), again.ID())
	assert.NotEqual(t, rs.ID(), Default().ID())

	_, err = NewLoader(filepath.Join(dir, "missing.yaml")).Load()
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
