package classifier

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/IvanShishkin/treescout/pkg/models"
)

// Family groups rules by the evidence they inspect.
type Family string

const (
	FamilyPath      Family = "path"
	FamilyName      Family = "name"
	FamilyExtension Family = "extension"
	FamilyShebang   Family = "shebang"
	FamilyMagic     Family = "magic"
	FamilyBinary    Family = "binary"
)

// needsContent reports whether the family inspects file bytes
func (f Family) needsContent() bool {
	return f == FamilyShebang || f == FamilyMagic || f == FamilyBinary
}

// Rule maps one predicate to a category
type Rule struct {
	Name       string          `yaml:"name" json:"name"`
	Family     Family          `yaml:"family" json:"family"`
	Category   models.Category `yaml:"category" json:"category"`
	Patterns   []string        `yaml:"patterns" json:"patterns"`
	Dirs       []string        `yaml:"dirs" json:"dirs,omitempty"`
	Confidence string          `yaml:"confidence" json:"confidence"`

	magic [][]byte
}

// compile validates the rule and prepares derived matching data
func (r *Rule) compile() error {
	if r.Name == "" {
		return fmt.Errorf("rule without name")
	}
	if !r.Category.IsValid() {
		return fmt.Errorf("rule %s: unknown category %q", r.Name, r.Category)
	}

	switch r.Confidence {
	case "":
		r.Confidence = models.ConfidenceHigh
	case models.ConfidenceHigh, models.ConfidenceLow:
	default:
		return fmt.Errorf("rule %s: unknown confidence %q", r.Name, r.Confidence)
	}

	switch r.Family {
	case FamilyPath, FamilyName, FamilyExtension:
		if len(r.Patterns) == 0 {
			return fmt.Errorf("rule %s: %s rules need patterns", r.Name, r.Family)
		}
	case FamilyShebang, FamilyBinary:
	case FamilyMagic:
		if len(r.Patterns) == 0 {
			return fmt.Errorf("rule %s: magic rules need patterns", r.Name)
		}
		r.magic = r.magic[:0]
		for _, p := range r.Patterns {
			b, err := hex.DecodeString(p)
			if err != nil || len(b) == 0 {
				return fmt.Errorf("rule %s: invalid magic %q", r.Name, p)
			}
			r.magic = append(r.magic, b)
		}
	default:
		return fmt.Errorf("rule %s: unknown family %q", r.Name, r.Family)
	}

	if r.Family == FamilyExtension {
		for i, p := range r.Patterns {
			p = strings.ToLower(p)
			if !strings.HasPrefix(p, ".") {
				p = "." + p
			}
			r.Patterns[i] = p
		}
	}

	return nil
}

// Match reports whether the rule applies to meta
func (r *Rule) Match(meta *Metadata) bool {
	switch r.Family {
	case FamilyPath:
		return r.matchPath(meta.RelativePath)
	case FamilyName:
		return r.matchName(path.Base(meta.RelativePath))
	case FamilyExtension:
		return r.matchExtension(meta.RelativePath)
	case FamilyShebang:
		return r.matchShebang(meta.Head)
	case FamilyMagic:
		for _, m := range r.magic {
			if bytes.HasPrefix(meta.Head, m) {
				return true
			}
		}
		return false
	case FamilyBinary:
		return looksBinary(meta.Head)
	}
	return false
}

// matchPath matches parent directory names, or root-relative prefixes for
// patterns containing a slash
func (r *Rule) matchPath(rel string) bool {
	parents := parentDirs(rel)
	for _, p := range r.Patterns {
		p = strings.Trim(p, "/")
		if strings.Contains(p, "/") {
			if strings.HasPrefix(rel, p+"/") {
				return true
			}
			continue
		}
		for _, dir := range parents {
			if strings.EqualFold(dir, p) {
				return true
			}
		}
	}
	return false
}

func (r *Rule) matchName(name string) bool {
	for _, p := range r.Patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (r *Rule) matchExtension(rel string) bool {
	ext := strings.ToLower(path.Ext(rel))
	if ext == "" {
		return false
	}

	found := false
	for _, p := range r.Patterns {
		if p == ext {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	if len(r.Dirs) == 0 {
		return true
	}
	for _, dir := range parentDirs(rel) {
		for _, hint := range r.Dirs {
			if strings.EqualFold(dir, hint) {
				return true
			}
		}
	}
	return false
}

// matchShebang checks the first line for "#!" and, when patterns are set,
// that the interpreter is one of them. "#!/usr/bin/env python3" resolves to
// "python3".
func (r *Rule) matchShebang(head []byte) bool {
	if !bytes.HasPrefix(head, []byte("#!")) {
		return false
	}
	if len(r.Patterns) == 0 {
		return true
	}

	line := head[2:]
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return false
	}
	interp := path.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = fields[1]
	}

	for _, p := range r.Patterns {
		if interp == p || strings.HasPrefix(interp, p) {
			return true
		}
	}
	return false
}

// parentDirs returns the directory components of a slash-separated path
func parentDirs(rel string) []string {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return nil
	}
	return strings.Split(dir, "/")
}
