package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/IvanShishkin/treescout/internal/classifier"
	"github.com/IvanShishkin/treescout/internal/config"
	"github.com/IvanShishkin/treescout/internal/report"
	"github.com/IvanShishkin/treescout/internal/snapshot"
	"github.com/IvanShishkin/treescout/pkg/models"
	"github.com/spf13/cobra"
)

// rulesCmd creates the rules command
func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the classification rule table",
	}

	var rulesFile string
	list := &cobra.Command{
		Use:   "list",
		Short: "List classification rules in evaluation order",
		Long:  `Display the ordered rule table. The first matching rule decides an entry's category.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := classifier.NewLoader(rulesFile).Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "RULE SET %s (%d rules)\n\n", bold.Sprint(rs.ID()), len(rs.Rules))
			for i, r := range rs.Rules {
				patterns := strings.Join(r.Patterns, " ")
				if len(r.Dirs) > 0 {
					patterns += gray.Sprintf("  in %s/", strings.Join(r.Dirs, "/, "))
				}
				conf := ""
				if r.Confidence != models.ConfidenceHigh {
					conf = gray.Sprintf(" (%s)", r.Confidence)
				}
				fmt.Fprintf(out, "  %2d. %-18s %-10s %-8s%s %s\n",
					i+1, r.Name, r.Family, r.Category, conf, patterns)
			}
			return nil
		},
	}
	list.Flags().StringVar(&rulesFile, "rules", "", "YAML rule table to show instead of the built-in rules")

	cmd.AddCommand(list)
	return cmd
}

// snapshotsCmd creates the snapshots command
func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect frozen snapshots",
	}

	var snapshotDir string
	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := snapshotDir
			if dir == "" {
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				dir = cfg.SnapshotDir
			}

			infos, err := snapshot.NewStore(dir, logger).List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintf(out, "No snapshots in %s\n", dir)
				return nil
			}
			for _, info := range infos {
				snap, err := snapshot.Load(info.Path)
				if err != nil {
					fmt.Fprintf(out, "  %s  %s\n", info.Name, red.Sprint("(unreadable)"))
					continue
				}
				fmt.Fprintf(out, "  %s  %s  %6d entries  %s\n",
					info.Name,
					snap.Header.ScannedAt.Format("2006-01-02 15:04:05"),
					len(snap.Body.Entries),
					gray.Sprint(snap.Header.RuleSetVersion))
			}
			return nil
		},
	}
	list.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Snapshot directory (default: .treescout/snapshots)")

	cmd.AddCommand(list)
	return cmd
}

// diffCmd creates the diff command
func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two snapshot files",
		Long:  `Report entries added, removed or changed between two frozen snapshots.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			diff, err := snapshot.Compare(args[0], args[1])
			if err != nil {
				return err
			}

			g := report.NewGenerator(&config.Config{}, logger)
			g.SetOutput(cmd.OutOrStdout())
			g.PrintDiff(diff)
			return nil
		},
	}
}

// helpCmd creates a detailed help command
func helpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: "Show detailed help and documentation",
		Long:  `Display complete documentation including all commands, flags, and examples.`,
		Run: func(cmd *cobra.Command, args []string) {
			printMainBanner()
			section := func(title string) { accent.Printf("\n%s\n\n", title) }
			flag := func(name, desc string) { fmt.Printf("  %-28s %s\n", bold.Sprint(name), desc) }

			section("ABOUT")
			fmt.Println("  Treescout walks a workspace without modifying it, classifies every")
			fmt.Println("  file with an ordered rule table and freezes the inventory as an")
			fmt.Println("  immutable JSON snapshot. Each run is diffed against the previous one.")

			section("COMMANDS")
			flag("scan [path]", "Inventory a directory and freeze a snapshot")
			flag("rules list", "Show the classification rules in evaluation order")
			flag("snapshots list", "Show frozen snapshots, oldest first")
			flag("diff <old> <new>", "Compare two snapshot files")

			section("SCAN FLAGS")
			flag("--exclude", "Names, prefixes or globs to skip (replaces defaults)")
			flag("--hash-max-size <size>", "Only hash files up to this size (default: 1M)")
			flag("--no-hash", "Disable content hashing")
			flag("--probe-bytes <n>", "Bytes read for content signatures (default: 512)")
			flag("--rules <file>", "YAML rule table replacing the built-in rules")
			flag("--snapshot-dir <dir>", "Snapshot directory (default: .treescout/snapshots)")
			flag("--prior <file>", "Snapshot to diff against (default: newest)")
			flag("--dry-run", "Classify and diff without writing a snapshot")
			flag("--workers <n>", "Number of parallel workers (default: CPU cores × 2)")
			flag("-r, --report <fmt>", "Report format: text, json, md")
			flag("-o, --output <file>", "Output file path")
			flag("-q, --quiet", "Suppress banner and progress output")

			section("CONFIGURATION")
			fmt.Println("  Settings are read from ./treescout.yaml when present; flags win.")
			fmt.Println("  TREESCOUT_PATH and TREESCOUT_SNAPSHOT_DIR override locations.")

			section("EXIT CODES")
			fmt.Println("  0  scan completed")
			fmt.Println("  1  scan failed after it started, or a snapshot could not be written")
			fmt.Println("  2  bad root, unusable snapshot directory or invalid settings")

			section("EXAMPLES")
			gray.Println("  # Inventory the current directory")
			fmt.Println("  treescout scan .")
			fmt.Println()
			gray.Println("  # Preview changes without freezing")
			fmt.Println("  treescout scan --dry-run ~/work/agent-stack")
			fmt.Println()
			gray.Println("  # JSON report next to a custom snapshot store")
			fmt.Printf("  treescout scan --snapshot-dir %s -r json -o inventory.json .\n", filepath.Join(os.TempDir(), "snaps"))
			fmt.Println()
		},
	}
}
