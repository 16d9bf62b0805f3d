package output

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/log"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

const (
	reportTitle = "CIS BENCHMARKING CHECKLIST"

	// blockSeparator terminates every control block in the report file.
	blockSeparator = "==============================="

	timestampLayout = "2006-01-02 15:04:05"
)

// FileSink appends the plain-text report to a file. Every block is formatted
// into memory and written with a single Write on an O_APPEND descriptor, so a
// block is either fully on disk or absent.
type FileSink struct {
	path string
	mode TruncateMode

	runID     string
	startedAt time.Time
	begun     bool
}

// NewFileSink creates a sink that writes the report to path.
func NewFileSink(path string, mode TruncateMode) *FileSink {
	if mode == "" {
		mode = TruncateRun
	}
	return &FileSink{path: path, mode: mode, startedAt: time.Now()}
}

// Path returns the report file location.
func (s *FileSink) Path() string { return s.path }

// RunStarted captures the run identity written into the file header.
func (s *FileSink) RunStarted(report *types.BenchmarkReport) {
	s.runID = report.RunID
	s.startedAt = report.StartedAt
}

// Unsupported leaves the report file untouched.
func (s *FileSink) Unsupported(types.OSDescriptor) {}

// Interrupted appends a trailer marking the report as incomplete. A file the
// run never wrote to is left untouched.
func (s *FileSink) Interrupted(report *types.BenchmarkReport) {
	if !s.begun {
		return
	}
	trailer := fmt.Sprintf("Run interrupted after %d control(s); this report is incomplete.\n", report.Summary.Total)
	if err := s.write([]byte(trailer), false); err != nil {
		log.ErrorWithErr(err, "failed to mark report interrupted")
	}
}

// BeginCategory writes the category header. The first category of a run, and
// every category in TruncateCategory mode, truncates the file and starts it
// with the run header.
func (s *FileSink) BeginCategory(title string) error {
	truncate := !s.begun || s.mode == TruncateCategory

	var buf bytes.Buffer
	if truncate {
		writeRunHeader(&buf, s.runID, s.startedAt)
	}
	heading := categoryHeading(title)
	fmt.Fprintf(&buf, "%s\n%s\n\n", heading, strings.Repeat("-", visibleLen(heading)))

	if err := s.write(buf.Bytes(), truncate); err != nil {
		return err
	}
	s.begun = true
	return nil
}

// Record appends one control block.
func (s *FileSink) Record(outcome types.CheckOutcome) error {
	return s.write(FormatBlock(outcome), false)
}

func (s *FileSink) write(data []byte, truncate bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(s.path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("opening report file: %w", err)
	}

	n, err := f.Write(data)
	if err == nil && n < len(data) {
		err = fmt.Errorf("short write (%d of %d bytes)", n, len(data))
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing report file %s: %w", s.path, err)
	}
	return nil
}

func writeRunHeader(buf *bytes.Buffer, runID string, startedAt time.Time) {
	fmt.Fprintf(buf, "%s\n%s\n", reportTitle, strings.Repeat("=", len(reportTitle)))
	if runID != "" {
		fmt.Fprintf(buf, "Run ID: %s\n", runID)
	}
	fmt.Fprintf(buf, "Starting @ %s\n\n", startedAt.Format(timestampLayout))
}

// FormatBlock renders the report-file block for one control outcome.
func FormatBlock(o types.CheckOutcome) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Control: %s\n", o.Heading())
	fmt.Fprintf(&buf, "Status: %s\n", o.Status)
	for _, res := range o.Evidence {
		fmt.Fprintf(&buf, "Check: %s\n", res.Label)
		fmt.Fprintf(&buf, "Command Run: %s\n", res.Command)
		if strings.TrimSpace(res.Stderr) != "" {
			fmt.Fprintf(&buf, "Error:\n%s\n", strings.TrimRight(res.Stderr, "\n"))
			continue
		}
		if res.Stdout != "" {
			buf.WriteString(res.Stdout)
			if !strings.HasSuffix(res.Stdout, "\n") {
				buf.WriteByte('\n')
			}
		}
	}
	buf.WriteString(blockSeparator + "\n\n")

	return buf.Bytes()
}

// categoryHeading turns "1.1 Filesystem Configuration" into "[1.1] Filesystem Configuration".
func categoryHeading(title string) string {
	cat := types.Category{Title: title}
	if cat.Number() == title {
		return "[" + title + "]"
	}
	return "[" + cat.Number() + "] " + cat.Name()
}
