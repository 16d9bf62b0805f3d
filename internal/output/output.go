// Package output renders benchmark results: the append-only report file, the
// colored console mirror, and structured JSON formats of the final report.
package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// Formatter writes a finished benchmark report to the given writer.
type Formatter interface {
	Write(w io.Writer, report *types.BenchmarkReport) error
}

// Sink receives category headers and control outcomes as they are produced.
type Sink interface {
	// BeginCategory writes the section header for a category.
	BeginCategory(title string) error

	// Record writes one complete control block.
	Record(outcome types.CheckOutcome) error
}

// TruncateMode selects when the report file is truncated.
type TruncateMode string

const (
	// TruncateRun truncates the file once, at the first category of a run.
	TruncateRun TruncateMode = "run"

	// TruncateCategory truncates the file at every category, keeping only the last one.
	TruncateCategory TruncateMode = "category"
)

// ParseTruncateMode validates a mode name. An empty name selects TruncateRun.
func ParseTruncateMode(s string) (TruncateMode, error) {
	switch TruncateMode(s) {
	case "", TruncateRun:
		return TruncateRun, nil
	case TruncateCategory:
		return TruncateCategory, nil
	}
	return "", fmt.Errorf("unknown truncate mode %q (valid: run, category)", s)
}

// MultiSink fans each call out to every sink in order. All sinks are called even
// when one fails; the failures are joined.
type MultiSink []Sink

// BeginCategory implements Sink.
func (m MultiSink) BeginCategory(title string) error {
	var errs []error
	for _, s := range m {
		if err := s.BeginCategory(title); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Record implements Sink.
func (m MultiSink) Record(outcome types.CheckOutcome) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
