package types

import "time"

// CheckStatus represents the verdict of evaluating a control.
type CheckStatus string

const (
	// StatusPass means the control's expected condition was met.
	StatusPass CheckStatus = "PASS"
	// StatusFail means the control's expected condition was not met.
	StatusFail CheckStatus = "FAIL"
	// StatusIndeterminate means the evidence was insufficient or malformed for the rule.
	StatusIndeterminate CheckStatus = "INDETERMINATE"
)

// ProbeResult holds the captured output of one probe invocation.
// A non-zero ExitCode or non-empty Stderr is ordinary evidence, not an error.
type ProbeResult struct {
	// Label is copied from the Probe that produced this result.
	Label string `json:"label"`

	// Command is the shell command that was run.
	Command string `json:"command"`

	// Stdout is the captured standard output.
	Stdout string `json:"stdout"`

	// Stderr is the captured standard error.
	Stderr string `json:"stderr,omitempty"`

	// ExitCode is the process exit status; -1 when the shell could not start or timed out.
	ExitCode int `json:"exit_code"`

	// Duration is how long the probe took (not serialized to JSON).
	Duration time.Duration `json:"-"`
}

// Completed reports whether the probe ran to completion. A probe that could not
// start, was killed, timed out or was cancelled says nothing about the host.
func (r ProbeResult) Completed() bool {
	return r.ExitCode != -1
}

// CheckOutcome is the recorded verdict for one control in one run.
type CheckOutcome struct {
	// ControlID is the benchmark identifier of the evaluated control.
	ControlID string `json:"id"`

	// Title is the control title.
	Title string `json:"title"`

	// Scored mirrors the control's scoring class.
	Scored bool `json:"scored"`

	// Status is the evaluated verdict.
	Status CheckStatus `json:"status"`

	// Evidence holds each probe's command and captured output, in declaration order.
	Evidence []ProbeResult `json:"evidence"`

	// GeneratedAt is when the outcome was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// Heading returns the display heading for the outcome's control.
func (o CheckOutcome) Heading() string {
	class := "Not Scored"
	if o.Scored {
		class = "Scored"
	}
	return o.ControlID + " " + o.Title + " (" + class + ")"
}
