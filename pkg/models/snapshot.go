package models

import "time"

// SnapshotHeader carries run metadata. It sits outside the digested body so
// two scans of an unchanged tree differ only here.
type SnapshotHeader struct {
	SchemaVersion  int       `json:"schema_version"`
	ToolVersion    string    `json:"tool_version"`
	RuleSetVersion string    `json:"ruleset_version"`
	RunID          string    `json:"run_id"`
	Root           string    `json:"root"`
	ScannedAt      time.Time `json:"scanned_at"`
	ContentDigest  string    `json:"content_digest"`
}

// SnapshotBody is the content-addressed part of a snapshot.
type SnapshotBody struct {
	Entries []*Entry         `json:"entries"`
	Counts  map[Category]int `json:"counts"`
}

// Snapshot is the persisted, immutable serialization of one inventory.
type Snapshot struct {
	Header SnapshotHeader `json:"header"`
	Body   SnapshotBody   `json:"body"`
}

// Index maps relative paths to entries.
func (s *Snapshot) Index() map[string]*Entry {
	idx := make(map[string]*Entry, len(s.Body.Entries))
	for _, e := range s.Body.Entries {
		idx[e.RelativePath] = e
	}
	return idx
}
