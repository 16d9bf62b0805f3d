package types

import "time"

// BenchmarkReport is the top-level structure for a complete benchmark run.
// It is serialized directly to JSON for the --json and --format=json outputs.
type BenchmarkReport struct {
	// Version is the cisbench version that produced this report.
	Version string `json:"version"`

	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// Target describes the host the benchmark ran against.
	Target OSDescriptor `json:"target"`

	// Supported is false when the compatibility gate rejected the host.
	Supported bool `json:"supported"`

	// Interrupted is set when the run was cancelled before every selected
	// control was evaluated.
	Interrupted bool `json:"interrupted,omitempty"`

	// Categories are the category reports in execution order.
	Categories []CategoryReport `json:"categories"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`
}

// CategoryReport holds the outcomes of one benchmark section.
type CategoryReport struct {
	// Title is the section title (e.g., "1.1 Filesystem Configuration").
	Title string `json:"title"`

	// Outcomes are the control verdicts in registry order.
	Outcomes []CheckOutcome `json:"outcomes"`
}

// Summary aggregates outcome counts for a run.
type Summary struct {
	// Total is the number of controls evaluated.
	Total int `json:"total"`

	// Scored is the number of scored controls evaluated.
	Scored int `json:"scored"`

	// NotScored is the number of not-scored controls evaluated.
	NotScored int `json:"not_scored"`

	// Passed is the number of controls that passed.
	Passed int `json:"passed"`

	// Failed is the number of controls that failed.
	Failed int `json:"failed"`

	// Indeterminate is the number of controls without a verdict.
	Indeterminate int `json:"indeterminate"`

	// DurationMS is the total run duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// Add folds a single outcome into the summary.
func (s *Summary) Add(o CheckOutcome) {
	s.Total++
	if o.Scored {
		s.Scored++
	} else {
		s.NotScored++
	}
	switch o.Status {
	case StatusPass:
		s.Passed++
	case StatusFail:
		s.Failed++
	default:
		s.Indeterminate++
	}
}
