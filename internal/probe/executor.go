// Package probe runs diagnostic shell commands and guards the catalogue
// against commands that could change host state.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/log"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// DefaultShell is the interpreter used to run probe commands.
const DefaultShell = "/bin/sh"

// waitDelay bounds how long Run waits for output pipes once a probe is killed.
const waitDelay = 500 * time.Millisecond

// Executor runs one probe command and captures its output.
// Implementations must never fail: anomalies are recorded in the ProbeResult.
type Executor interface {
	Run(ctx context.Context, p types.Probe) types.ProbeResult
}

// ShellExecutor runs probes through the host shell.
type ShellExecutor struct {
	// Shell is the interpreter path; DefaultShell when empty.
	Shell string

	// Timeout bounds each probe. Zero means no deadline.
	Timeout time.Duration
}

// NewShellExecutor creates a ShellExecutor with the given per-probe timeout (0 = none).
func NewShellExecutor(timeout time.Duration) *ShellExecutor {
	return &ShellExecutor{Shell: DefaultShell, Timeout: timeout}
}

// Run executes p.Command via "<shell> -c" and returns its stdout, stderr, and exit code.
// A non-zero exit is ordinary evidence. If the shell cannot be started, ExitCode is -1
// and the start error is appended to Stderr.
func (e *ShellExecutor) Run(ctx context.Context, p types.Probe) types.ProbeResult {
	start := time.Now()
	result := types.ProbeResult{Label: p.Label, Command: p.Command}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	shell := e.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.CommandContext(ctx, shell, "-c", p.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren of the shell can hold the output pipes open after a kill.
	cmd.WaitDelay = waitDelay

	err := cmd.Run()

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.ExitCode = exitCode(err)
	result.Duration = time.Since(start)

	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
		result.Stderr = appendLine(result.Stderr, fmt.Sprintf("probe timed out after %v", e.Timeout))
	case errors.Is(ctx.Err(), context.Canceled):
		result.ExitCode = -1
		result.Stderr = appendLine(result.Stderr, "probe cancelled")
	case result.ExitCode == -1:
		result.Stderr = appendLine(result.Stderr, err.Error())
	}

	log.Logger().Debug().
		Str("label", p.Label).
		Str("command", p.Command).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("probe finished")

	return result
}

// exitCode extracts the process exit status from a Run error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func appendLine(s, line string) string {
	if s != "" && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s + line + "\n"
}
