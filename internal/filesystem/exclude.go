package filesystem

import (
	"path"
	"path/filepath"
	"strings"
)

// Matcher decides whether a path is excluded from a walk.
//
// A bare name ("node_modules") matches any path component with that name.
// A pattern containing "/" ("docs/build") is a root-relative prefix.
// A pattern containing glob metacharacters ("*.log", "tmp/*") is matched with
// path.Match against both the base name and the relative path.
type Matcher struct {
	names    map[string]bool
	prefixes []string
	globs    []string
	absolute []string
}

// NewMatcher builds a matcher from exclusion patterns
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{names: make(map[string]bool)}
	for _, p := range patterns {
		m.Add(p)
	}
	return m
}

// Add registers one exclusion pattern
func (m *Matcher) Add(pattern string) {
	p := strings.TrimSpace(filepath.ToSlash(pattern))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, "/")
	if p == "" || p == "." {
		return
	}

	switch {
	case strings.ContainsAny(p, "*?["):
		m.globs = append(m.globs, p)
	case strings.Contains(p, "/"):
		m.prefixes = append(m.prefixes, p)
	default:
		m.names[p] = true
	}
}

// AddAbsolute excludes an absolute filesystem path and everything below it
func (m *Matcher) AddAbsolute(abs string) {
	m.absolute = append(m.absolute, filepath.Clean(abs))
}

// Excluded reports whether the entry at rel (slash-separated, relative to the
// root) with absolute path abs should be skipped
func (m *Matcher) Excluded(abs, rel string) bool {
	name := path.Base(rel)
	if m.names[name] {
		return true
	}

	for _, p := range m.prefixes {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}

	for _, g := range m.globs {
		if ok, _ := path.Match(g, name); ok {
			return true
		}
		if ok, _ := path.Match(g, rel); ok {
			return true
		}
	}

	for _, a := range m.absolute {
		if abs == a || strings.HasPrefix(abs, a+string(filepath.Separator)) {
			return true
		}
	}

	return false
}
