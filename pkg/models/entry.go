package models

import "time"

// Confidence levels attached to a classification rationale.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// Rationale explains which rule produced an entry's category.
type Rationale struct {
	Rule       string `json:"rule"`
	Family     string `json:"family"`
	Confidence string `json:"confidence"`
}

// Entry is one classified filesystem object. It is immutable once the
// classifier has produced it.
type Entry struct {
	Path         string    `json:"-"`
	RelativePath string    `json:"relative_path"`
	Category     Category  `json:"category"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"mtime"`
	Hash         *string   `json:"hash"`
	Rationale    Rationale `json:"rationale"`
	Symlink      bool      `json:"symlink,omitempty"`
	LinkTarget   string    `json:"link_target,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// HashValue returns the content hash or an empty string when none was computed.
func (e *Entry) HashValue() string {
	if e.Hash == nil {
		return ""
	}
	return *e.Hash
}

// IsDegraded reports whether the entry was recorded after an access error.
func (e *Entry) IsDegraded() bool {
	return e.Error != ""
}
