package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/IvanShishkin/treescout/internal/classifier"
	"github.com/IvanShishkin/treescout/internal/config"
	"github.com/IvanShishkin/treescout/internal/filesystem"
	"github.com/IvanShishkin/treescout/internal/inventory"
	"github.com/IvanShishkin/treescout/internal/snapshot"
	"github.com/IvanShishkin/treescout/pkg/models"
	"go.uber.org/zap"
)

// ProgressCallback is called to report scan progress
type ProgressCallback func(phase string, current, total int, message string)

// Scanner runs one scan: walk, classify, build, freeze
type Scanner struct {
	config           *config.Config
	logger           *zap.Logger
	walker           *filesystem.Walker
	classifier       *classifier.Classifier
	store            *snapshot.Store
	progressCallback ProgressCallback
	now              func() time.Time
}

// NewScanner creates a new scanner instance
func NewScanner(cfg *config.Config, logger *zap.Logger) *Scanner {
	return &Scanner{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(cb ProgressCallback) {
	s.progressCallback = cb
}

// reportProgress calls the progress callback if set
func (s *Scanner) reportProgress(phase string, current, total int, message string) {
	if s.progressCallback != nil {
		s.progressCallback(phase, current, total, message)
	}
}

// Scan walks root, classifies every entry and freezes the inventory as a new
// snapshot. Setup problems are returned before anything is read; a cancelled
// or failed scan writes no snapshot.
func (s *Scanner) Scan(ctx context.Context, root string) (*models.ScanResult, error) {
	start := s.now()

	absRoot, err := s.prepare(root)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Starting scan",
		zap.String("root", absRoot),
		zap.String("ruleset", s.classifier.RuleSet().ID()),
		zap.String("snapshot_dir", s.store.Dir()))

	total := 0
	if s.progressCallback != nil {
		s.reportProgress("counting", 0, 0, "Counting entries...")
		total = s.countEntries(ctx, absRoot)
		s.reportProgress("counting", total, total, fmt.Sprintf("Found %d entries", total))
	}

	workers := s.config.GetWorkers()
	stats := &models.ScanStatistics{WorkersUsed: workers}

	builder, err := s.classifyTree(ctx, absRoot, workers, total, stats)
	if err != nil {
		return nil, err
	}

	inv := builder.Build(models.InventoryMeta{
		Root:           filesystem.EscapeName(absRoot),
		ScannedAt:      start.UTC(),
		ToolVersion:    models.ToolVersion,
		RuleSetVersion: s.classifier.RuleSet().ID(),
	})

	s.reportProgress("freezing", 0, 0, "Freezing snapshot...")
	var frozen *snapshot.FreezeResult
	if s.config.DryRun {
		frozen, err = s.store.Preview(inv, s.config.PriorPath)
	} else {
		frozen, err = s.store.Freeze(inv, s.config.PriorPath)
	}
	if err != nil {
		return nil, err
	}

	end := s.now()
	result := &models.ScanResult{
		StartTime:    start,
		EndTime:      end,
		Duration:     end.Sub(start),
		Root:         absRoot,
		SnapshotPath: frozen.Path,
		DryRun:       s.config.DryRun,
		Inventory:    inv,
		Counts:       inv.Counts(),
		Diff:         frozen.Diff,
		Stats:        stats,
	}
	if secs := result.Duration.Seconds(); secs > 0 {
		stats.FilesPerSecond = float64(stats.TotalEntries) / secs
	}

	s.logger.Info("Scan completed",
		zap.Duration("duration", result.Duration),
		zap.Int("entries", inv.Len()),
		zap.Int("added", len(frozen.Diff.Added)),
		zap.Int("removed", len(frozen.Diff.Removed)),
		zap.Int("changed", len(frozen.Diff.Changed)),
		zap.String("snapshot", frozen.Path))

	return result, nil
}

// prepare validates the root and snapshot directory and initializes the
// pipeline components
func (s *Scanner) prepare(root string) (string, error) {
	if err := s.config.Validate(); err != nil {
		return "", &models.SetupError{Op: "validate config", Path: root, Err: err}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &models.SetupError{Op: "resolve root", Path: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", &models.SetupError{Op: "stat root", Path: absRoot, Err: err}
	}
	if !info.IsDir() {
		return "", &models.SetupError{Op: "check root", Path: absRoot, Err: errors.New("not a directory")}
	}
	// The root itself may be a symlink; everything below it is not followed
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	rules, err := classifier.NewLoader(s.config.RulesFile).Load()
	if err != nil {
		return "", &models.SetupError{Op: "load rules", Path: s.config.RulesFile, Err: err}
	}
	s.classifier = classifier.New(rules, s.logger)

	snapDir, err := filepath.Abs(s.config.SnapshotDir)
	if err != nil {
		return "", &models.SetupError{Op: "resolve snapshot dir", Path: s.config.SnapshotDir, Err: err}
	}
	if resolved, err := resolveExisting(snapDir); err == nil {
		snapDir = resolved
	}
	s.store = snapshot.NewStore(snapDir, s.logger)
	if !s.config.DryRun {
		if err := s.store.Ensure(); err != nil {
			return "", err
		}
	}
	if s.config.PriorPath != "" {
		if _, err := snapshot.Load(s.config.PriorPath); err != nil {
			return "", &models.SetupError{Op: "load prior snapshot", Path: s.config.PriorPath, Err: err}
		}
	}

	s.walker = filesystem.NewWalker(s.config, s.logger)
	if isWithin(absRoot, snapDir) {
		s.logger.Debug("Snapshot directory is inside the root, excluding it",
			zap.String("snapshot_dir", snapDir))
		s.walker.ExcludePath(snapDir)
	}

	return absRoot, nil
}

// countEntries walks the tree once to size the progress bar
func (s *Scanner) countEntries(ctx context.Context, root string) int {
	count := 0
	for _, err := range s.walker.Entries(ctx, root) {
		if err != nil {
			break
		}
		count++
	}
	return count
}

// classifyTree feeds walker entries to a worker pool and collects classified
// entries into a builder. The collector goroutine is the builder's only
// writer; ordering is restored by the builder, not by the workers.
func (s *Scanner) classifyTree(ctx context.Context, root string, workers, total int, stats *models.ScanStatistics) (*inventory.Builder, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fileChan := make(chan *models.FileInfo, workers*2)
	resultsChan := make(chan *entryResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, fileChan, resultsChan)
	}

	builder := inventory.NewBuilder()
	var collectErr error
	var collectWg sync.WaitGroup
	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		collectErr = s.collectResults(builder, resultsChan, total, stats)
		if collectErr != nil {
			cancel()
		}
	}()

	walkErr := s.walker.Walk(ctx, root, func(fi *models.FileInfo) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fileChan <- fi:
			return nil
		}
	})

	close(fileChan)
	wg.Wait()
	close(resultsChan)
	collectWg.Wait()

	if collectErr != nil {
		return nil, collectErr
	}
	if walkErr != nil {
		return nil, walkErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return builder, nil
}

// entryResult is the result of classifying a single entry
type entryResult struct {
	entry  *models.Entry
	probed bool
}

// worker processes entries from the channel
func (s *Scanner) worker(ctx context.Context, wg *sync.WaitGroup, fileChan <-chan *models.FileInfo, resultsChan chan<- *entryResult) {
	defer wg.Done()

	for fi := range fileChan {
		if ctx.Err() != nil {
			continue // drain so the walker never blocks
		}
		resultsChan <- s.classifyEntry(ctx, fi)
	}
}

// classifyEntry probes, hashes and classifies one entry. Any read failure
// turns the entry into a degraded unknown entry rather than an error.
func (s *Scanner) classifyEntry(ctx context.Context, fi *models.FileInfo) *entryResult {
	meta := &classifier.Metadata{
		RelativePath: fi.RelativePath,
		Size:         fi.Size,
		IsSymlink:    fi.IsSymlink,
		Err:          fi.Err,
	}
	res := &entryResult{}

	var hash *string
	if fi.IsRegular() {
		timeout := s.config.ProbeDeadline()

		if s.config.ProbeBytes > 0 && s.classifier.NeedsContent(fi.RelativePath) {
			head, err := filesystem.WithTimeout(ctx, timeout, func() ([]byte, error) {
				return filesystem.ProbeHead(fi.Path, s.config.ProbeBytes)
			})
			if err != nil {
				meta.Err = &models.EntryError{Path: fi.RelativePath, Err: err}
			} else {
				meta.Head = head
				res.probed = true
			}
		}

		if limit := s.config.HashLimit(); meta.Err == nil && limit >= 0 && fi.Size <= limit {
			sum, err := filesystem.WithTimeout(ctx, timeout, func() (string, error) {
				return filesystem.HashFile(fi.Path)
			})
			if err != nil {
				meta.Err = &models.EntryError{Path: fi.RelativePath, Err: err}
			} else {
				hash = &sum
			}
		}
	}

	if meta.Err != nil {
		s.logger.Warn("Recording degraded entry",
			zap.String("path", fi.RelativePath),
			zap.Error(meta.Err))
		hash = nil
	}

	cls := s.classifier.Classify(meta)
	s.logger.Debug("Classified",
		zap.String("path", fi.RelativePath),
		zap.String("category", string(cls.Category)),
		zap.String("rule", cls.Rationale.Rule))

	entry := &models.Entry{
		Path:         fi.Path,
		RelativePath: fi.RelativePath,
		Category:     cls.Category,
		Size:         fi.Size,
		ModTime:      fi.ModTime,
		Hash:         hash,
		Rationale:    cls.Rationale,
		Symlink:      fi.IsSymlink,
		LinkTarget:   fi.LinkTarget,
	}
	if meta.Err != nil {
		entry.Error = entryErrorText(meta.Err)
	}

	res.entry = entry
	return res
}

// collectResults adds worker output to the builder and reports progress
func (s *Scanner) collectResults(builder *inventory.Builder, resultsChan <-chan *entryResult, total int, stats *models.ScanStatistics) error {
	var firstErr error
	processed := 0
	lastReport := time.Now()

	for result := range resultsChan {
		if firstErr != nil {
			continue
		}

		if err := builder.Add(result.entry); err != nil {
			s.logger.Error("Inventory consistency violation", zap.Error(err))
			firstErr = err
			continue
		}

		stats.AddEntry(result.entry)
		if result.probed {
			stats.Probed++
		}
		processed++

		if time.Since(lastReport) > 100*time.Millisecond || processed%100 == 0 {
			s.reportProgress("scanning", processed, total, result.entry.RelativePath)
			lastReport = time.Now()
		}
	}

	sort.Strings(stats.ErrorFiles)
	s.reportProgress("scanning", processed, total, "Scan complete")
	return firstErr
}

// entryErrorText strips the path prefix EntryError adds, since the entry
// already carries its path. OS errors may quote raw name bytes, so invalid
// UTF-8 is replaced to keep the text storable.
func entryErrorText(err error) string {
	var entryErr *models.EntryError
	if errors.As(err, &entryErr) {
		err = entryErr.Err
	}
	return strings.ToValidUTF8(err.Error(), "\uFFFD")
}

// resolveExisting resolves symlinks in the longest existing prefix of path
func resolveExisting(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// isWithin reports whether path is root or lies below it
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
