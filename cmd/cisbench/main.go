// Package main is the entry point for cisbench, a read-only CIS benchmark
// checklist runner for Linux hosts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/config"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/probe"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/sysdetect"
)

// version is set at build time via -ldflags.
var version = "0.3.0"

var (
	// errReported marks an error whose message was already printed.
	errReported = errors.New("reported")

	// errInterrupted marks a run cancelled by a signal; the notifiers have
	// already told the user the report is incomplete.
	errInterrupted = errors.New("interrupted")
)

// exitInterrupted is the conventional exit code after SIGINT.
const exitInterrupted = 130

// Options holds all parsed CLI flag values.
type Options struct {
	ReportFile   string
	ConfigPath   string
	JSONFile     string
	Format       string
	Truncate     string
	ProbeTimeout time.Duration
	Categories   []string
	ControlID    string
	NoColor      bool
	NoEnv        bool
	Debug        bool
}

// app carries the process-level dependencies so tests can substitute them.
type app struct {
	stdout io.Writer
	stderr io.Writer

	newDetector func() sysdetect.Detector
	newExecutor func(timeout time.Duration) probe.Executor
	isTerminal  func() bool

	// envFile is where the host identity is written.
	envFile string
}

func newApp() *app {
	return &app{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		newDetector: sysdetect.NewDetector,
		newExecutor: func(timeout time.Duration) probe.Executor { return probe.NewShellExecutor(timeout) },
		isTerminal:  func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
		envFile:     sysdetect.DefaultEnvFile,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newApp(), os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code:
// 0 when the benchmark completed (including an unsupported host), 1 for usage
// or configuration errors, 130 when the run was interrupted.
func execute(ctx context.Context, a *app, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errInterrupted) {
			return exitInterrupted
		}
		if !errors.Is(err, errReported) {
			fmt.Fprintf(a.stderr, "  ✗ %v\n", err)
		}
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   "cisbench",
		Short: "Audit a Linux host against the CIS benchmark checklist",
		Long: `cisbench runs read-only diagnostic commands for each benchmark control,
evaluates their output and writes a pass/fail report. It never changes the host.

Example usage:
  cisbench                                   Run every category
  cisbench -o /var/tmp/cis.txt --json cis.json
  cisbench --category 1.1 --category boot    Run a subset of categories
  cisbench --id 1.1.1.1                      Run a single control
  cisbench --format jsonl > cis.jsonl        Machine-readable report on stdout
  cisbench list                              Show the catalogue
  cisbench validate cisbench.yaml            Check a config without running`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBenchmark(cmd, opts)
		},
	}

	addRunFlags(root, opts)

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBenchmark(cmd, opts)
		},
	}
	addRunFlags(run, opts)

	root.AddCommand(run, a.listCmd(), a.validateCmd(), a.envCmd())
	return root
}

func addRunFlags(cmd *cobra.Command, opts *Options) {
	f := cmd.Flags()
	f.StringVarP(&opts.ReportFile, "output", "o", config.DefaultReportFile, "Plain-text report file")
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	f.StringVar(&opts.JSONFile, "json", "", "Also write the report as JSON to this file")
	f.StringVarP(&opts.Format, "format", "f", "text", "Console format: text, json, jsonl")
	f.StringVar(&opts.Truncate, "truncate", "", "When to truncate the report file: run, category (default run)")
	f.DurationVar(&opts.ProbeTimeout, "probe-timeout", 0, "Deadline for each probe command (0 = none)")
	f.StringArrayVar(&opts.Categories, "category", nil, "Run only matching categories: number, title or name prefix (repeatable)")
	f.StringVar(&opts.ControlID, "id", "", "Run a single control by its ID")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.BoolVar(&opts.NoEnv, "no-env", false, "Do not write the host identity to .env")
	f.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
}
