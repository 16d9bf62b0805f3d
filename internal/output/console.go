package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// Color helpers; each returns a sprint function.
var (
	cBold = color.New(color.Bold).SprintFunc()
	cDim  = color.New(color.Faint).SprintFunc()

	cRedBold    = color.New(color.FgRed, color.Bold).SprintFunc()
	cYellowBold = color.New(color.FgYellow, color.Bold).SprintFunc()
	cGreenBold  = color.New(color.FgGreen, color.Bold).SprintFunc()
	cCyanBold   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Console mirrors the run to a terminal as it happens. It implements Sink for
// category and control output, and the run-level announcements of the driver.
type Console struct {
	w       io.Writer
	version string
}

// NewConsole creates a console mirror writing to w.
func NewConsole(w io.Writer, version string) *Console {
	return &Console{w: w, version: version}
}

// RunStarted prints the run banner naming the target host.
func (c *Console) RunStarted(r *types.BenchmarkReport) {
	title := reportTitle
	if c.version != "" {
		title += " v" + c.version
	}
	c.underlined(cBold(title), title, "=")
	fmt.Fprintf(c.w, "%s %s\n", cDim("Starting @"), r.StartedAt.Format(timestampLayout))
	if r.RunID != "" {
		fmt.Fprintf(c.w, "%s %s\n", cDim("Run ID:"), r.RunID)
	}
	fmt.Fprintln(c.w)

	target := "Running Benchmark For: " + r.Target.DisplayName()
	c.underlined(cCyanBold(target), target, "=")
	fmt.Fprintln(c.w)
}

// Unsupported prints the single-line notice for a rejected host.
func (c *Console) Unsupported(host types.OSDescriptor) {
	id := host.ID
	if id == "" {
		id = "unknown"
	}
	fmt.Fprintf(c.w, "%s is currently not supported.\n", id)
}

// Interrupted warns that the run stopped before every control was evaluated.
func (c *Console) Interrupted(r *types.BenchmarkReport) {
	fmt.Fprintf(c.w, "%s run interrupted after %d control(s); the report is incomplete.\n",
		cYellowBold("⚠"), r.Summary.Total)
}

// BeginCategory prints the category title framed above and below.
func (c *Console) BeginCategory(title string) error {
	heading := categoryHeading(title)
	rule := strings.Repeat("=", visibleLen(heading))
	fmt.Fprintln(c.w, rule)
	c.underlined(cBold(heading), heading, "=")
	fmt.Fprintln(c.w)
	return nil
}

// Record prints each probe's command and output, then the verdict.
func (c *Console) Record(o types.CheckOutcome) error {
	heading := "[" + o.ControlID + "] " + o.Title + " (" + scoringClass(o.Scored) + ")"
	c.underlined(heading, heading, "=")
	fmt.Fprintln(c.w)

	for _, res := range o.Evidence {
		fmt.Fprintf(c.w, "%s %s\n", cDim("Running command:"), res.Command)
		if out := strings.TrimRight(res.Stdout, "\n"); out != "" {
			fmt.Fprintln(c.w, out)
		}
		if errOut := strings.TrimSpace(res.Stderr); errOut != "" {
			fmt.Fprintln(c.w, cRedBold("Error:"))
			fmt.Fprintln(c.w, errOut)
			fmt.Fprintln(c.w, strings.Repeat("-", visibleLen(lastLine(errOut))))
		}
	}

	fmt.Fprintf(c.w, "Status: %s\n\n", statusBadge(o.Status))
	return nil
}

// underlined prints text followed by an underline matching plain's width.
func (c *Console) underlined(text, plain, mark string) {
	fmt.Fprintln(c.w, text)
	fmt.Fprintln(c.w, strings.Repeat(mark, visibleLen(lastLine(plain))))
}

func statusBadge(s types.CheckStatus) string {
	switch s {
	case types.StatusPass:
		return cGreenBold(string(s))
	case types.StatusFail:
		return cRedBold(string(s))
	default:
		return cYellowBold(string(s))
	}
}

func scoringClass(scored bool) string {
	if scored {
		return "Scored"
	}
	return "Not Scored"
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Summary prints the aggregate verdict counts and where the report was written.
func (c *Console) Summary(r *types.BenchmarkReport, reportPath string) {
	s := r.Summary
	fmt.Fprintf(c.w, "%s %d control(s): %s passed, %s failed, %s indeterminate %s\n",
		cBold("▸ Summary"),
		s.Total,
		cGreenBold(fmt.Sprint(s.Passed)),
		cRedBold(fmt.Sprint(s.Failed)),
		cYellowBold(fmt.Sprint(s.Indeterminate)),
		cDim(fmt.Sprintf("(%d scored, %d not scored, %dms)", s.Scored, s.NotScored, s.DurationMS)),
	)
	if reportPath != "" {
		fmt.Fprintf(c.w, "  %s %s\n", cDim("Report written to"), reportPath)
	}
}
