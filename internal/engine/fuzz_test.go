package engine_test

import (
	"testing"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/engine"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// FuzzEvaluate exercises every leaf rule with random probe output to ensure
// Evaluate never panics and always returns one of the three statuses.
func FuzzEvaluate(f *testing.F) {
	f.Add("", "", 0, "install /bin/true")
	f.Add("module_x 16384 0\n", "", 1, "nodev")
	f.Add("\x00\xff", "grep: error", 127, "(")
	f.Add("tmpfs on /home type tmpfs", "", 0, "")

	valid := map[types.CheckStatus]bool{
		types.StatusPass:          true,
		types.StatusFail:          true,
		types.StatusIndeterminate: true,
	}

	f.Fuzz(func(t *testing.T, stdout, stderr string, exit int, param string) {
		res := []types.ProbeResult{{Stdout: stdout, Stderr: stderr, ExitCode: exit}}
		for _, kind := range types.RuleKinds {
			rule := types.Rule{
				Kind:       kind,
				Expected:   param,
				References: []string{param},
				Token:      param,
				Pattern:    param,
				Rules:      []types.Rule{{Kind: types.RuleOutput}},
			}
			if got := engine.Evaluate(rule, res); !valid[got] {
				t.Fatalf("kind %s returned invalid status %q", kind, got)
			}
		}
	})
}
