package report

import (
	"encoding/json"

	"github.com/IvanShishkin/treescout/pkg/models"
)

// JSONReport combines scan results with the full entry list for JSON output
type JSONReport struct {
	*models.ScanResult
	RuleSetVersion string          `json:"ruleset_version,omitempty"`
	Entries        []*models.Entry `json:"entries"`
}

// renderJSON renders a JSON report
func renderJSON(result *models.ScanResult) ([]byte, error) {
	report := &JSONReport{ScanResult: result, Entries: []*models.Entry{}}
	if result.Inventory != nil {
		report.RuleSetVersion = result.Inventory.RuleSetVersion
		report.Entries = result.Inventory.Entries
	}
	return json.MarshalIndent(report, "", "  ")
}
