package output

import (
	"time"

	"github.com/fatih/color"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

func init() {
	color.NoColor = true
}

// testTimestamp is a fixed time for deterministic test output.
var testTimestamp = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func passOutcome() types.CheckOutcome {
	return types.CheckOutcome{
		ControlID: "1.1.1.1",
		Title:     "Ensure mounting of cramfs filesystems is disabled",
		Scored:    true,
		Status:    types.StatusPass,
		Evidence: []types.ProbeResult{
			{Label: "modprobe", Command: "modprobe -n -v cramfs", Stdout: "install /bin/true \n"},
			{Label: "lsmod", Command: "lsmod | grep -w cramfs", ExitCode: 1},
		},
		GeneratedAt: testTimestamp,
	}
}

func failOutcome() types.CheckOutcome {
	return types.CheckOutcome{
		ControlID: "1.2.2",
		Title:     "Ensure GPG keys are configured",
		Scored:    false,
		Status:    types.StatusFail,
		Evidence: []types.ProbeResult{
			{Label: "rpm", Command: "rpm -q gpg-pubkey", Stderr: "/bin/sh: 1: rpm: not found\n", ExitCode: 127},
			{Label: "apt", Command: "apt-key list", Stdout: ""},
		},
		GeneratedAt: testTimestamp,
	}
}

// newTestReport builds a representative BenchmarkReport for testing.
func newTestReport() *types.BenchmarkReport {
	return &types.BenchmarkReport{
		Version:   "1.0.0",
		RunID:     "3f1c1d2e-0000-4000-8000-000000000001",
		StartedAt: testTimestamp,
		Target: types.OSDescriptor{
			ID:       "ubuntu",
			Version:  "22.04",
			Codename: "jammy",
			Kernel:   "5.15.0-91-generic",
			Hostname: "test-host",
		},
		Supported: true,
		Categories: []types.CategoryReport{
			{Title: "1.1 Filesystem Configuration", Outcomes: []types.CheckOutcome{passOutcome()}},
			{Title: "1.2 Package Manager Configuration", Outcomes: []types.CheckOutcome{failOutcome()}},
		},
		Summary: types.Summary{
			Total:      2,
			Scored:     1,
			NotScored:  1,
			Passed:     1,
			Failed:     1,
			DurationMS: 42,
		},
	}
}

// newEmptyReport builds a report for a host the gate rejected.
func newEmptyReport() *types.BenchmarkReport {
	return &types.BenchmarkReport{
		Version:    "1.0.0",
		RunID:      "3f1c1d2e-0000-4000-8000-000000000002",
		StartedAt:  testTimestamp,
		Target:     types.OSDescriptor{ID: "fedora", Version: "39"},
		Categories: []types.CategoryReport{},
	}
}
