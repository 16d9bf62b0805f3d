package output

import (
	"encoding/json"
	"io"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// JSONLFormatter writes a benchmark report as newline-delimited JSON.
// The first line is a header with the run, target and summary; every following
// line is one control outcome tagged with its category.
type JSONLFormatter struct{}

// Write renders the report as JSONL: header line + one line per outcome.
func (f *JSONLFormatter) Write(w io.Writer, report *types.BenchmarkReport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	header := struct {
		Type      string             `json:"type"`
		Version   string             `json:"version"`
		RunID     string             `json:"run_id"`
		StartedAt string             `json:"started_at"`
		Target    types.OSDescriptor `json:"target"`
		Supported bool               `json:"supported"`
		Summary   types.Summary      `json:"summary"`
	}{
		Type:      "header",
		Version:   report.Version,
		RunID:     report.RunID,
		StartedAt: report.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		Target:    report.Target,
		Supported: report.Supported,
		Summary:   report.Summary,
	}
	if err := enc.Encode(header); err != nil {
		return err
	}

	for _, cat := range report.Categories {
		for _, o := range cat.Outcomes {
			line := struct {
				Type     string             `json:"type"`
				Category string             `json:"category"`
				Outcome  types.CheckOutcome `json:"outcome"`
			}{
				Type:     "outcome",
				Category: cat.Title,
				Outcome:  o,
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
	}

	return nil
}
