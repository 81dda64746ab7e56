package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/IvanShishkin/treescout/internal/config"
	"github.com/IvanShishkin/treescout/pkg/models"
	"go.uber.org/zap"
)

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		// Milliseconds
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		// Seconds
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		// Minutes and seconds
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	// Hours, minutes and seconds
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}

// FormatSize formats a byte count with a binary unit suffix
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

// Generator generates scan reports in various formats
type Generator struct {
	config *config.Config
	logger *zap.Logger
	out    io.Writer
}

// NewGenerator creates a new report generator
func NewGenerator(cfg *config.Config, logger *zap.Logger) *Generator {
	return &Generator{
		config: cfg,
		logger: logger,
		out:    os.Stdout,
	}
}

// SetOutput redirects console output
func (g *Generator) SetOutput(w io.Writer) {
	g.out = w
}

// Generate writes a report for result and returns the report file path, or
// an empty path for console output
func (g *Generator) Generate(result *models.ScanResult) (string, error) {
	format := g.config.ReportFormat
	outputFile := g.config.OutputFile

	// If no format specified, print to console
	if format == "" || format == "console" {
		g.printConsole(result)
		return "", nil
	}

	// Generate default filename if not specified
	if outputFile == "" {
		name, err := defaultFileName(format, time.Now())
		if err != nil {
			return "", err
		}
		outputFile = name
	}

	g.logger.Info("Generating report",
		zap.String("format", format),
		zap.String("output", outputFile))

	var data []byte
	var err error
	switch format {
	case "json":
		data, err = renderJSON(result)
	case "txt", "text":
		data = renderText(result)
	case "md", "markdown":
		data = renderMarkdown(result)
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
	if err == nil {
		err = os.WriteFile(outputFile, data, 0644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	// Get absolute path
	absPath, _ := filepath.Abs(outputFile)
	result.ReportPath = absPath
	return absPath, nil
}

// defaultFileName names a report file after the format and the current time
func defaultFileName(format string, now time.Time) (string, error) {
	timestamp := now.Format("20060102-150405")
	var ext string
	switch format {
	case "json":
		ext = "json"
	case "txt", "text":
		ext = "txt"
	case "md", "markdown":
		ext = "md"
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
	return fmt.Sprintf("TREESCOUT-REPORT-%s.%s", timestamp, ext), nil
}
