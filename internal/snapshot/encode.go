package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// New builds the snapshot document for inv. The header carries everything
// run-specific; the body depends only on the scanned tree. Text that JSON
// cannot carry byte for byte is rejected, since the digest could not be
// verified after a reload.
func New(inv *models.Inventory) (*models.Snapshot, error) {
	if err := checkText(inv); err != nil {
		return nil, err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	entries := inv.Entries
	if entries == nil {
		entries = []*models.Entry{}
	}

	snap := &models.Snapshot{
		Header: models.SnapshotHeader{
			SchemaVersion:  models.SchemaVersion,
			ToolVersion:    inv.ToolVersion,
			RuleSetVersion: inv.RuleSetVersion,
			RunID:          runID.String(),
			Root:           inv.Root,
			ScannedAt:      inv.ScannedAt.UTC(),
		},
		Body: models.SnapshotBody{
			Entries: entries,
			Counts:  inv.Counts(),
		},
	}

	digest, err := Digest(&snap.Body)
	if err != nil {
		return nil, err
	}
	snap.Header.ContentDigest = digest

	return snap, nil
}

// checkText requires every stored string to be valid UTF-8
func checkText(inv *models.Inventory) error {
	if !utf8.ValidString(inv.Root) {
		return fmt.Errorf("snapshot root %q is not valid UTF-8", inv.Root)
	}
	for _, e := range inv.Entries {
		for _, text := range []string{e.RelativePath, e.LinkTarget, e.Error} {
			if !utf8.ValidString(text) {
				return fmt.Errorf("entry %q holds text that is not valid UTF-8", e.RelativePath)
			}
		}
	}
	return nil
}

// Digest returns the xxh3-128 digest of the canonical compact body encoding
func Digest(body *models.SnapshotBody) (string, error) {
	data, err := marshal(body, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot body: %w", err)
	}
	return fmt.Sprintf("%x", xxh3.Hash128(data).Bytes()), nil
}

// Encode renders the snapshot as indented JSON. Struct fields keep their
// declared order and map keys are sorted, so equal snapshots encode to equal
// bytes.
func Encode(snap *models.Snapshot) ([]byte, error) {
	return marshal(snap, true)
}

// Decode parses a snapshot and checks its content digest
func Decode(data []byte) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Header.SchemaVersion != models.SchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot schema %d", snap.Header.SchemaVersion)
	}
	if snap.Body.Entries == nil {
		snap.Body.Entries = []*models.Entry{}
	}

	digest, err := Digest(&snap.Body)
	if err != nil {
		return nil, err
	}
	if digest != snap.Header.ContentDigest {
		return nil, fmt.Errorf("snapshot digest mismatch: header %s, content %s", snap.Header.ContentDigest, digest)
	}

	return &snap, nil
}

// FileName derives the snapshot file name from scan time and content digest
func FileName(snap *models.Snapshot) string {
	digest := snap.Header.ContentDigest
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return fmt.Sprintf("%s%s-%s%s",
		filePrefix,
		snap.Header.ScannedAt.UTC().Format(timeLayout),
		digest,
		fileSuffix)
}

const (
	filePrefix = "snapshot-"
	fileSuffix = ".json"
	timeLayout = "20060102T150405.000000000Z"
)

func marshal(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scannedAt parses the timestamp embedded in a snapshot file name
func scannedAt(name string) (time.Time, bool) {
	if len(name) < len(filePrefix)+len(timeLayout) {
		return time.Time{}, false
	}
	ts := name[len(filePrefix) : len(filePrefix)+len(timeLayout)]
	t, err := time.Parse(timeLayout, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
