package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/IvanShishkin/treescout/internal/config"
	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Process exit codes
const (
	exitOK    = 0
	exitError = 1
	exitSetup = 2
)

var (
	version = models.ToolVersion
	logger  = zap.NewNop()
	verbose bool
)

var (
	accent = color.New(color.FgGreen, color.Bold)
	gray   = color.New(color.FgHiBlack)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and maps the outcome to an exit code
func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// exitCode is 0 on success, 2 when the scan could not start and 1 otherwise
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, models.ErrSetup):
		return exitSetup
	default:
		return exitError
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treescout",
		Short: "Treescout - workspace inventory and snapshot tool",
		Long: `Walk a workspace, classify every file into a fixed set of categories and
freeze the result as an append-only, content-addressed JSON snapshot.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		Run: func(cmd *cobra.Command, args []string) {
			printMainBanner()
			cmd.Help()
		},
	}

	// Global verbose flag
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Disable built-in help command
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Add commands
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(snapshotsCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(helpCmd())

	return rootCmd
}

// initLogger builds a development logger when verbose, otherwise an
// errors-only JSON logger on stderr
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Encoding:         "json",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// printMainBanner prints the main banner
func printMainBanner() {
	fmt.Println()
	accent.Println("▀█▀ █▀█ █▀▀ █▀▀ █▀▀ █▀▀ █▀█ █ █ ▀█▀")
	accent.Println(" █  █▀▄ ██▄ ██▄ ▄▄█ █▄▄ █▄█ █▄█  █ ")
	fmt.Println()
	gray.Printf("Workspace Inventory v%s\n", version)
	fmt.Println()
}

// printBanner prints the startup banner for a scan
func printBanner(path string, cfg *config.Config) {
	printMainBanner()
	fmt.Printf("  %s  %s\n", gray.Sprint("Scanning:"), path)
	fmt.Printf("  %s  %s\n", gray.Sprint("Snapshot:"), cfg.SnapshotDir)
	if cfg.DryRun {
		fmt.Printf("  %s      %s\n", gray.Sprint("Mode:"), "dry run")
	}
	fmt.Println()
}

// validateFlags validates CLI flag values
func validateFlags(reportFormat, hashMaxSize string, probeBytes int) error {
	if !config.IsValidReportFormat(reportFormat) {
		return fmt.Errorf("--report must be one of: %s (got: %s)", strings.Join(config.ReportFormats, ", "), reportFormat)
	}
	if hashMaxSize != "" {
		if _, err := config.ParseSize(hashMaxSize); err != nil {
			return fmt.Errorf("--hash-max-size: %w", err)
		}
	}
	if probeBytes < 0 {
		return fmt.Errorf("--probe-bytes must not be negative (got: %d)", probeBytes)
	}
	return nil
}

// repeat returns s repeated n times, or "" for n <= 0
func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}
