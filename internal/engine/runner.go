package engine

import (
	"context"
	"time"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/log"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/output"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/probe"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// Runner executes the controls of a category through a probe.Executor and
// reports each outcome to an output.Sink.
type Runner struct {
	executor probe.Executor
	sink     output.Sink

	// now is the clock used to stamp outcomes; replaced in tests.
	now func() time.Time
}

// NewRunner creates a Runner with the given executor and sink.
func NewRunner(executor probe.Executor, sink output.Sink) *Runner {
	return &Runner{
		executor: executor,
		sink:     sink,
		now:      time.Now,
	}
}

// RunControl executes every probe of c in declaration order, then evaluates the rule.
// Probe anomalies are carried as evidence; RunControl never fails. Once ctx is
// done the remaining probes are not started and are recorded as incomplete.
func (r *Runner) RunControl(ctx context.Context, c types.Control) types.CheckOutcome {
	logger := log.Logger().With().Str("control", c.ID).Logger()

	results := make([]types.ProbeResult, 0, len(c.Probes))
	for i, p := range c.Probes {
		if err := ctx.Err(); err != nil {
			results = append(results, types.ProbeResult{
				Label:    p.Label,
				Command:  p.Command,
				Stderr:   "probe not run: " + err.Error(),
				ExitCode: -1,
			})
			continue
		}
		logger.Debug().Int("probe", i+1).Int("of", len(c.Probes)).Str("command", p.Command).Msg("executing")
		results = append(results, r.executor.Run(ctx, p))
	}

	status := Evaluate(c.Rule, results)
	logger.Debug().Str("status", string(status)).Msg("evaluated")

	return types.CheckOutcome{
		ControlID:   c.ID,
		Title:       c.Title,
		Scored:      c.Scored,
		Status:      status,
		Evidence:    results,
		GeneratedAt: r.now(),
	}
}

// RunCategory writes the category header, then runs and records each control in order.
// No control outcome or sink failure stops the remaining controls; a done ctx does,
// leaving the report with the outcomes recorded so far.
func (r *Runner) RunCategory(ctx context.Context, cat types.Category) types.CategoryReport {
	report := types.CategoryReport{Title: cat.Title}

	if err := r.sink.BeginCategory(cat.Title); err != nil {
		log.ErrorWithErr(err, "failed to begin category "+cat.Title)
	}

	for _, c := range cat.Controls {
		if ctx.Err() != nil {
			log.Warnf("category %s interrupted before control %s", cat.Title, c.ID)
			break
		}
		outcome := r.RunControl(ctx, c)
		if err := r.sink.Record(outcome); err != nil {
			log.ErrorWithErr(err, "failed to record control "+c.ID)
		} else {
			log.Logger().Debug().Str("control", c.ID).Msg("reported")
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report
}
