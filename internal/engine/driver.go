package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/log"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// Gate decides whether the benchmark may run on a host.
type Gate interface {
	Check(id, version, codename string) (supported bool, displayCodename string)
}

// Notifier receives run-level announcements for the console.
type Notifier interface {
	// RunStarted is called once the gate has accepted the host.
	RunStarted(report *types.BenchmarkReport)

	// Unsupported is called once when the gate rejects the host.
	Unsupported(host types.OSDescriptor)

	// Interrupted is called once when the run stops early because its context
	// was cancelled.
	Interrupted(report *types.BenchmarkReport)
}

// Driver consults the compatibility gate once and then runs every category in order.
type Driver struct {
	gate       Gate
	runner     *Runner
	categories []types.Category
	notifiers  []Notifier

	// Version is stamped into the report.
	Version string

	now   func() time.Time
	runID func() string
}

// NewDriver creates a Driver for the given categories, which run in slice order.
// Every notifier receives the run-level announcements in argument order.
func NewDriver(gate Gate, runner *Runner, categories []types.Category, notifiers ...Notifier) *Driver {
	return &Driver{
		gate:       gate,
		runner:     runner,
		categories: categories,
		notifiers:  notifiers,
		now:        time.Now,
		runID:      uuid.NewString,
	}
}

// Run executes the benchmark against host and reports whether the host was supported.
// When the gate rejects the host, each notifier is told once and no category runs.
// When ctx is cancelled mid-run, the report keeps the outcomes recorded so far and
// is marked Interrupted. The aggregated summary is carried in the returned report;
// nothing is kept globally.
func (d *Driver) Run(ctx context.Context, host types.OSDescriptor) (*types.BenchmarkReport, bool) {
	start := d.now()
	report := &types.BenchmarkReport{
		Version:    d.Version,
		RunID:      d.runID(),
		StartedAt:  start,
		Target:     host,
		Categories: []types.CategoryReport{},
	}

	supported, codename := d.gate.Check(host.ID, host.Version, host.Codename)
	if !supported {
		log.Infof("host %s %s rejected by compatibility gate", host.ID, host.Version)
		for _, n := range d.notifiers {
			n.Unsupported(host)
		}
		return report, false
	}
	report.Supported = true
	report.Target.Codename = codename
	log.Infof("running %d categories against %s", len(d.categories), report.Target.DisplayName())

	for _, n := range d.notifiers {
		n.RunStarted(report)
	}

	for _, cat := range d.categories {
		if ctx.Err() != nil {
			break
		}
		catReport := d.runner.RunCategory(ctx, cat)
		for _, o := range catReport.Outcomes {
			report.Summary.Add(o)
		}
		report.Categories = append(report.Categories, catReport)
	}

	report.Summary.DurationMS = d.now().Sub(start).Milliseconds()
	if err := ctx.Err(); err != nil {
		report.Interrupted = true
		log.Warnf("run interrupted after %d control(s): %v", report.Summary.Total, err)
		for _, n := range d.notifiers {
			n.Interrupted(report)
		}
	}
	return report, true
}
