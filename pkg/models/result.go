package models

import "time"

// ScanResult is what one scan run hands back to its caller.
type ScanResult struct {
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	Root         string        `json:"root"`
	SnapshotPath string        `json:"snapshot_path,omitempty"`
	DryRun       bool          `json:"dry_run,omitempty"`

	Inventory *Inventory       `json:"-"`
	Counts    map[Category]int `json:"counts"`
	Diff      *Diff            `json:"diff"`
	Stats     *ScanStatistics  `json:"statistics"`

	ReportPath string `json:"report_path,omitempty"`
}

// ScanStatistics contains detailed scan statistics.
type ScanStatistics struct {
	TotalEntries  int      `json:"total_entries"`
	TotalSize     int64    `json:"total_size"`
	Hashed        int      `json:"hashed"`
	Probed        int      `json:"probed"`
	Symlinks      int      `json:"symlinks"`
	LowConfidence int      `json:"low_confidence"`
	ReadErrors    int      `json:"read_errors"`
	ErrorFiles    []string `json:"error_files,omitempty"`

	FilesPerSecond float64 `json:"files_per_second"`
	WorkersUsed    int     `json:"workers_used"`
}

// AddEntry folds one entry into the statistics.
func (s *ScanStatistics) AddEntry(e *Entry) {
	s.TotalEntries++
	s.TotalSize += e.Size
	if e.Hash != nil {
		s.Hashed++
	}
	if e.Symlink {
		s.Symlinks++
	}
	if e.Rationale.Confidence == ConfidenceLow {
		s.LowConfidence++
	}
	if e.IsDegraded() {
		s.ReadErrors++
		s.ErrorFiles = append(s.ErrorFiles, e.RelativePath)
	}
}
