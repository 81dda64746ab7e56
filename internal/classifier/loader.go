package classifier

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

//go:embed rules/default.yaml
var defaultRules []byte

// RuleSet is an ordered, validated rule table
type RuleSet struct {
	Version string  `yaml:"version"`
	Rules   []*Rule `yaml:"rules"`

	digest string
}

// ID identifies the rule table recorded in snapshots: the declared version
// plus a digest of the exact table contents
func (rs *RuleSet) ID() string {
	return rs.Version + "+" + rs.digest
}

// Loader loads rule tables from YAML
type Loader struct {
	rulesPath string
}

// NewLoader creates a loader; an empty path selects the built-in table
func NewLoader(rulesPath string) *Loader {
	return &Loader{rulesPath: rulesPath}
}

// Load reads and validates the rule table
func (l *Loader) Load() (*RuleSet, error) {
	if l.rulesPath == "" {
		return Parse(defaultRules)
	}

	data, err := os.ReadFile(l.rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules %s: %w", l.rulesPath, err)
	}

	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", l.rulesPath, err)
	}
	return rs, nil
}

// Default returns the built-in rule table
func Default() *RuleSet {
	rs, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("built-in rules are invalid: %v", err))
	}
	return rs
}

// Parse decodes a YAML rule table
func Parse(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, err
	}

	if rs.Version == "" {
		return nil, fmt.Errorf("rule table has no version")
	}
	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("rule table has no rules")
	}

	seen := make(map[string]bool, len(rs.Rules))
	for _, r := range rs.Rules {
		if err := r.compile(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule name %s", r.Name)
		}
		seen[r.Name] = true
	}

	rs.digest = fmt.Sprintf("%016x", xxh3.Hash(data))
	return &rs, nil
}
