// Package classifier maps entry metadata to exactly one category by walking an
// ordered rule table. The first matching rule wins.
package classifier

import (
	"github.com/IvanShishkin/treescout/pkg/models"
	"go.uber.org/zap"
)

// Rationale names for outcomes that no table rule produced
const (
	RuleAccessError = "access-error"
	RuleDefault     = "default"
)

// Metadata is everything a classification may look at
type Metadata struct {
	RelativePath string
	Size         int64
	IsSymlink    bool
	Head         []byte // at most probe_bytes from the start of the file
	Err          error  // access error recorded by the walker or prober
}

// Result is the outcome of one classification
type Result struct {
	Category  models.Category
	Rationale models.Rationale
}

// Classifier applies a rule set
type Classifier struct {
	rules  *RuleSet
	logger *zap.Logger
}

// New creates a classifier over rs
func New(rs *RuleSet, logger *zap.Logger) *Classifier {
	return &Classifier{rules: rs, logger: logger}
}

// RuleSet returns the table in use
func (c *Classifier) RuleSet() *RuleSet {
	return c.rules
}

// Classify returns the category for meta. The result depends only on the rule
// set and meta; repeated calls return identical results.
func (c *Classifier) Classify(meta *Metadata) Result {
	if meta.Err != nil {
		return Result{
			Category: models.CategoryUnknown,
			Rationale: models.Rationale{
				Rule:       RuleAccessError,
				Family:     "error",
				Confidence: models.ConfidenceHigh,
			},
		}
	}

	for i, r := range c.rules.Rules {
		if meta.IsSymlink && r.Family.needsContent() {
			continue
		}
		if !r.Match(meta) {
			continue
		}

		confidence := r.Confidence
		if rival := c.rival(i, meta); rival != nil {
			confidence = models.ConfidenceLow
			c.logger.Debug("Ambiguous classification",
				zap.String("path", meta.RelativePath),
				zap.String("rule", r.Name),
				zap.String("category", string(r.Category)),
				zap.String("rival", rival.Name),
				zap.String("rival_category", string(rival.Category)))
		}

		return Result{
			Category: r.Category,
			Rationale: models.Rationale{
				Rule:       r.Name,
				Family:     string(r.Family),
				Confidence: confidence,
			},
		}
	}

	return Result{
		Category: models.CategoryUnknown,
		Rationale: models.Rationale{
			Rule:       RuleDefault,
			Family:     "default",
			Confidence: models.ConfidenceLow,
		},
	}
}

// rival finds a later rule of the winner's family that also matches with a
// different category. A rule with a directory hint refines plain rules of the
// same family, so those pairs are not rivals.
func (c *Classifier) rival(winner int, meta *Metadata) *Rule {
	w := c.rules.Rules[winner]
	for _, r := range c.rules.Rules[winner+1:] {
		if r.Family != w.Family || r.Category == w.Category {
			continue
		}
		if len(w.Dirs) > 0 && len(r.Dirs) == 0 {
			continue
		}
		if r.Match(meta) {
			return r
		}
	}
	return nil
}

// NeedsContent reports whether classifying relPath depends on the file's
// leading bytes, that is, no path, name or extension rule matches it
func (c *Classifier) NeedsContent(relPath string) bool {
	meta := &Metadata{RelativePath: relPath}
	for _, r := range c.rules.Rules {
		if r.Family.needsContent() {
			continue
		}
		if r.Match(meta) {
			return false
		}
	}
	return true
}
