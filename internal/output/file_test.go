package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

func startedSink(t *testing.T, mode TruncateMode) (*FileSink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "benchmark_output.txt")
	s := NewFileSink(path, mode)
	s.RunStarted(newTestReport())
	return s, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFormatBlock(t *testing.T) {
	got := string(FormatBlock(passOutcome()))

	want := "Control: 1.1.1.1 Ensure mounting of cramfs filesystems is disabled (Scored)\n" +
		"Status: PASS\n" +
		"Check: modprobe\n" +
		"Command Run: modprobe -n -v cramfs\n" +
		"install /bin/true \n" +
		"Check: lsmod\n" +
		"Command Run: lsmod | grep -w cramfs\n" +
		"===============================\n\n"
	assert.Equal(t, want, got)
}

func TestFormatBlock_ErrorEvidence(t *testing.T) {
	got := string(FormatBlock(failOutcome()))

	assert.Contains(t, got, "Control: 1.2.2 Ensure GPG keys are configured (Not Scored)\n")
	assert.Contains(t, got, "Status: FAIL\n")
	assert.Contains(t, got, "Command Run: rpm -q gpg-pubkey\nError:\n/bin/sh: 1: rpm: not found\nCheck: apt\n")
	assert.True(t, strings.HasSuffix(got, blockSeparator+"\n\n"))
	assert.Len(t, blockSeparator, 31)
}

func TestFileSink_RunHeaderAndCategory(t *testing.T) {
	s, path := startedSink(t, TruncateRun)

	require.NoError(t, s.BeginCategory("1.1 Filesystem Configuration"))

	want := "CIS BENCHMARKING CHECKLIST\n" +
		"==========================\n" +
		"Run ID: 3f1c1d2e-0000-4000-8000-000000000001\n" +
		"Starting @ 2026-01-15 10:30:00\n\n" +
		"[1.1] Filesystem Configuration\n" +
		"------------------------------\n\n"
	assert.Equal(t, want, readFile(t, path))
}

func TestFileSink_BlocksInOrder(t *testing.T) {
	s, path := startedSink(t, TruncateRun)

	require.NoError(t, s.BeginCategory("1.1 Filesystem Configuration"))
	for _, id := range []string{"1.1.1.1", "1.1.1.2", "1.1.1.3"} {
		o := passOutcome()
		o.ControlID = id
		require.NoError(t, s.Record(o))
	}

	content := readFile(t, path)
	assert.Equal(t, 3, strings.Count(content, blockSeparator+"\n\n"))

	first := strings.Index(content, "Control: 1.1.1.1 ")
	second := strings.Index(content, "Control: 1.1.1.2 ")
	third := strings.Index(content, "Control: 1.1.1.3 ")
	assert.True(t, first >= 0 && first < second && second < third)
}

func TestFileSink_TruncateRunKeepsEveryCategory(t *testing.T) {
	s, path := startedSink(t, TruncateRun)

	require.NoError(t, os.WriteFile(path, []byte("stale content from a previous run\n"), 0o600))

	require.NoError(t, s.BeginCategory("1.1 Filesystem Configuration"))
	require.NoError(t, s.Record(passOutcome()))
	require.NoError(t, s.BeginCategory("1.2 Package Manager Configuration"))
	require.NoError(t, s.Record(failOutcome()))

	content := readFile(t, path)
	assert.NotContains(t, content, "stale content")
	assert.Equal(t, 1, strings.Count(content, reportTitle+"\n"))
	assert.Contains(t, content, "[1.1] Filesystem Configuration")
	assert.Contains(t, content, "[1.2] Package Manager Configuration")
	assert.Equal(t, 2, strings.Count(content, blockSeparator))
}

func TestFileSink_TruncateCategoryKeepsLastCategory(t *testing.T) {
	s, path := startedSink(t, TruncateCategory)

	require.NoError(t, s.BeginCategory("1.1 Filesystem Configuration"))
	require.NoError(t, s.Record(passOutcome()))
	require.NoError(t, s.BeginCategory("1.2 Package Manager Configuration"))
	require.NoError(t, s.Record(failOutcome()))

	content := readFile(t, path)
	assert.True(t, strings.HasPrefix(content, reportTitle+"\n"))
	assert.NotContains(t, content, "[1.1] Filesystem Configuration")
	assert.Contains(t, content, "[1.2] Package Manager Configuration")
	assert.Equal(t, 1, strings.Count(content, blockSeparator))
}

func TestFileSink_WriteError(t *testing.T) {
	s := NewFileSink(filepath.Join(t.TempDir(), "missing", "report.txt"), TruncateRun)

	err := s.BeginCategory("1.1 Filesystem Configuration")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening report file")

	err = s.Record(passOutcome())
	require.Error(t, err)
}

func TestFileSink_FailedFirstCategoryStillTruncates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path := filepath.Join(dir, "report.txt")
	s := NewFileSink(path, TruncateRun)
	s.RunStarted(newTestReport())

	require.Error(t, s.BeginCategory("1.1 Filesystem Configuration"))

	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, os.WriteFile(path, []byte("stale content from an earlier run\n"), 0o600))

	require.NoError(t, s.BeginCategory("1.2 Package Manager Configuration"))
	content := readFile(t, path)
	assert.NotContains(t, content, "stale content")
	assert.True(t, strings.HasPrefix(content, reportTitle+"\n"))
}

func TestFileSink_Interrupted(t *testing.T) {
	s, path := startedSink(t, TruncateRun)
	require.NoError(t, s.BeginCategory("1.1 Filesystem Configuration"))
	require.NoError(t, s.Record(passOutcome()))

	report := newTestReport()
	report.Summary.Total = 1
	s.Interrupted(report)

	assert.True(t, strings.HasSuffix(readFile(t, path), "Run interrupted after 1 control(s); this report is incomplete.\n"))
}

func TestFileSink_InterruptedBeforeAnyCategoryWritesNothing(t *testing.T) {
	s, path := startedSink(t, TruncateRun)

	s.Interrupted(newTestReport())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileSink_UnsupportedWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	s := NewFileSink(path, TruncateRun)

	s.Unsupported(types.OSDescriptor{ID: "fedora"})

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCategoryHeading(t *testing.T) {
	assert.Equal(t, "[1.1] Filesystem Configuration", categoryHeading("1.1 Filesystem Configuration"))
	assert.Equal(t, "[1.4] Boot Settings", categoryHeading("1.4 Boot Settings"))
	assert.Equal(t, "[Custom]", categoryHeading("Custom"))
}
