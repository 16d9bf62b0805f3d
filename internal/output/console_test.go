package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

func TestConsole_RunStarted(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "1.0.0")

	c.RunStarted(newTestReport())

	out := buf.String()
	assert.Contains(t, out, "CIS BENCHMARKING CHECKLIST v1.0.0\n=================================\n")
	assert.Contains(t, out, "Starting @ 2026-01-15 10:30:00\n")
	assert.Contains(t, out, "Running Benchmark For: Ubuntu (jammy) 22.04\n"+strings.Repeat("=", 43)+"\n")
}

func TestConsole_UnsupportedIsOneLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "1.0.0")

	c.Unsupported(types.OSDescriptor{ID: "fedora", Version: "39"})

	assert.Equal(t, "fedora is currently not supported.\n", buf.String())
}

func TestConsole_BeginCategory(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "")

	require.NoError(t, c.BeginCategory("1.4 Boot Settings"))

	assert.Equal(t, "===================\n[1.4] Boot Settings\n===================\n\n", buf.String())
}

func TestConsole_Record(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "")

	require.NoError(t, c.Record(failOutcome()))

	out := buf.String()
	assert.Contains(t, out, "[1.2.2] Ensure GPG keys are configured (Not Scored)\n")
	assert.Contains(t, out, "Running command: rpm -q gpg-pubkey\n")
	assert.Contains(t, out, "Error:\n/bin/sh: 1: rpm: not found\n"+strings.Repeat("-", len("/bin/sh: 1: rpm: not found"))+"\n")
	assert.Contains(t, out, "Running command: apt-key list\n")
	assert.True(t, strings.HasSuffix(out, "Status: FAIL\n\n"))
}

func TestConsole_RecordStdout(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "")

	require.NoError(t, c.Record(passOutcome()))

	out := buf.String()
	assert.Contains(t, out, "Running command: modprobe -n -v cramfs\ninstall /bin/true \n")
	assert.NotContains(t, out, "Error:")
	assert.Contains(t, out, "Status: PASS\n")
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "")

	c.Summary(newTestReport(), "benchmark_output.txt")

	out := buf.String()
	assert.Contains(t, out, "2 control(s): 1 passed, 1 failed, 0 indeterminate")
	assert.Contains(t, out, "Report written to benchmark_output.txt")
}

func TestConsole_Interrupted(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "")

	c.Interrupted(newTestReport())

	assert.Equal(t, "⚠ run interrupted after 2 control(s); the report is incomplete.\n", buf.String())
}
