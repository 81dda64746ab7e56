package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/IvanShishkin/treescout/internal/config"
	"github.com/IvanShishkin/treescout/internal/core"
	"github.com/IvanShishkin/treescout/internal/report"
	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCmd creates the scan command
func scanCmd() *cobra.Command {
	var (
		workers      int
		exclude      []string
		hashMaxSize  string
		noHash       bool
		probeBytes   int
		rulesFile    string
		snapshotDir  string
		prior        string
		dryRun       bool
		reportFormat string
		outputFile   string
		quiet        bool
	)

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Inventory a workspace and freeze a snapshot",
		Long: `Recursively walk a directory, classify every entry and write a new immutable
snapshot, reporting what was added, removed or changed since the prior one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate flags before doing anything
			if err := validateFlags(reportFormat, hashMaxSize, probeBytes); err != nil {
				fmt.Printf("\n  %s %s\n\n", red.Sprint("✗ Invalid parameter:"), err.Error())
				return &models.SetupError{Op: "parse flags", Path: cmd.Name(), Err: err}
			}

			// Load configuration
			cfg, err := config.LoadConfig()
			if err != nil {
				logger.Error("Failed to load config", zap.Error(err))
				return &models.SetupError{Op: "load config", Path: "treescout.yaml", Err: err}
			}

			// Override config with CLI flags
			flags := cmd.Flags()
			if len(args) > 0 {
				cfg.Path = args[0]
			}
			if cfg.Path == "" {
				cfg.Path = "."
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("exclude") {
				cfg.Exclude = exclude
			}
			if flags.Changed("hash-max-size") {
				cfg.HashMaxSize = hashMaxSize
			}
			if flags.Changed("no-hash") {
				cfg.NoHash = noHash
			}
			if flags.Changed("probe-bytes") {
				cfg.ProbeBytes = probeBytes
			}
			if flags.Changed("rules") {
				cfg.RulesFile = rulesFile
			}
			if flags.Changed("snapshot-dir") {
				cfg.SnapshotDir = snapshotDir
			}
			if flags.Changed("prior") {
				cfg.PriorPath = prior
			}
			if flags.Changed("dry-run") {
				cfg.DryRun = dryRun
			}
			if flags.Changed("report") {
				cfg.ReportFormat = reportFormat
			}
			if flags.Changed("output") {
				cfg.OutputFile = outputFile
			}

			if !quiet {
				printBanner(cfg.Path, cfg)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Create scanner
			scanner := core.NewScanner(cfg, logger)
			if !quiet {
				interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
				scanner.SetProgressCallback(progressPrinter(os.Stdout, interactive))
			}

			// Run scan
			result, err := scanner.Scan(ctx, cfg.Path)
			if err != nil {
				logger.Error("Scan failed", zap.Error(err))
				return err
			}

			generator := report.NewGenerator(cfg, logger)
			reportPath, err := generator.Generate(result)
			if err != nil {
				return err
			}

			// Print report path if generated
			if reportPath != "" {
				fmt.Printf("  %s    %s\n", gray.Sprint("Report:"), accent.Sprint(reportPath))
				fmt.Println()
			}
			return nil
		},
	}

	// Flags
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of worker goroutines (default: CPU cores * 2)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Names, root-relative prefixes or globs to skip (comma-separated, replaces defaults)")
	cmd.Flags().StringVar(&hashMaxSize, "hash-max-size", "", "Only hash files up to this size (default: 1M)")
	cmd.Flags().BoolVar(&noHash, "no-hash", false, "Disable content hashing")
	cmd.Flags().IntVar(&probeBytes, "probe-bytes", 0, "Bytes read for content signatures (default: 512)")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rule table replacing the built-in rules")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Snapshot directory (default: .treescout/snapshots)")
	cmd.Flags().StringVar(&prior, "prior", "", "Snapshot to diff against (default: newest in the snapshot directory)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify and diff without writing a snapshot")
	cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Report format: text, json, md (default: console output)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress banner and progress output")

	return cmd
}

// progressPrinter renders scan progress to w. On an interactive terminal the
// scanning bar redraws in place; otherwise only the final bar is written so
// redirected output carries no cursor escapes.
func progressPrinter(w io.Writer, interactive bool) core.ProgressCallback {
	lastPhase := ""
	return func(phase string, current, total int, message string) {
		// Clear previous line if same phase
		if interactive && lastPhase == phase && phase == "scanning" {
			fmt.Fprint(w, "\033[1A\033[K")
		}
		lastPhase = phase

		switch phase {
		case "counting":
			if current == 0 && total == 0 {
				fmt.Fprintln(w, "  Starting scan...")
			} else {
				fmt.Fprintf(w, "  %s   %s\n", gray.Sprint("Entries:"), message)
			}
		case "scanning":
			if total <= 0 || (!interactive && current < total) {
				return
			}
			pct := float64(current) / float64(total) * 100
			barWidth := 30
			filled := barWidth * current / total
			if filled > barWidth {
				filled = barWidth
			}
			bar := repeat("█", filled) + repeat("░", barWidth-filled)
			fmt.Fprintf(w, "  %s  [%s] %s (%d/%d)\n",
				gray.Sprint("Scanning:"), accent.Sprint(bar), accent.Sprintf("%.1f%%", pct), current, total)
		case "freezing":
			fmt.Fprintf(w, "  %s\n", gray.Sprint(message))
		}
	}
}
