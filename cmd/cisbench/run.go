package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/catalog"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/config"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/engine"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/log"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/output"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/sysdetect"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// runBenchmark detects the host, builds the catalogue and drives one full pass.
func (a *app) runBenchmark(cmd *cobra.Command, opts *Options) error {
	if err := validateFlags(opts); err != nil {
		return err
	}
	a.setupOutput(opts)

	host := a.detectHost()
	if !opts.NoEnv {
		if err := sysdetect.WriteEnvFile(a.envFile, host); err != nil {
			a.warn(err.Error())
		}
	}

	cfg, err := a.loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	mergeFlags(cfg, opts, cmd.Flags())

	for _, path := range []string{cfg.ReportFileOrDefault(), opts.JSONFile} {
		if err := validateOutputPath(path); err != nil {
			return fmt.Errorf("Unsafe output path: %w", err)
		}
	}

	registry, err := buildCatalog(cfg, host.Kernel)
	if err != nil {
		return err
	}
	categories, err := a.selectCategories(registry, opts)
	if err != nil {
		return err
	}

	mode, err := output.ParseTruncateMode(cfg.Truncate)
	if err != nil {
		return err
	}
	file := output.NewFileSink(cfg.ReportFileOrDefault(), mode)

	var sink output.Sink = file
	notifiers := []engine.Notifier{noticeOnly{output.NewConsole(a.stderr, version)}, file}
	var console *output.Console
	if opts.Format == "text" {
		console = output.NewConsole(a.stdout, version)
		sink = output.MultiSink{console, file}
		notifiers = []engine.Notifier{console, file}
	}

	runner := engine.NewRunner(a.newExecutor(cfg.ProbeTimeout), sink)
	driver := engine.NewDriver(gateFor(cfg), runner, categories, notifiers...)
	driver.Version = version

	report, supported := driver.Run(cmd.Context(), host)

	if opts.JSONFile != "" {
		if err := writeJSONFile(opts.JSONFile, report); err != nil {
			return err
		}
	}

	switch opts.Format {
	case "json":
		err = (&output.JSONFormatter{}).Write(a.stdout, report)
	case "jsonl":
		err = (&output.JSONLFormatter{}).Write(a.stdout, report)
	default:
		if supported {
			console.Summary(report, file.Path())
		}
	}
	if err != nil {
		return fmt.Errorf("Failed to write output: %w", err)
	}
	if report.Interrupted {
		return errInterrupted
	}
	return nil
}

// validateFlags checks enumerated flag values before anything touches the host.
func validateFlags(opts *Options) error {
	switch opts.Format {
	case "text", "json", "jsonl":
	default:
		return fmt.Errorf("Invalid --format value %q (must be text, json, or jsonl)", opts.Format)
	}
	if opts.Truncate != "" {
		if _, err := output.ParseTruncateMode(opts.Truncate); err != nil {
			return fmt.Errorf("Invalid --truncate value: %w", err)
		}
	}
	if opts.ProbeTimeout < 0 {
		return fmt.Errorf("Invalid --probe-timeout %s (must not be negative)", opts.ProbeTimeout)
	}
	if opts.ControlID != "" && len(opts.Categories) > 0 {
		return fmt.Errorf("--id and --category cannot be combined")
	}
	return nil
}

// setupOutput configures color and log verbosity.
func (a *app) setupOutput(opts *Options) {
	if opts.NoColor || opts.Format != "text" || !a.isTerminal() {
		color.NoColor = true
	}
	if opts.Debug {
		log.SetLevel(zerolog.DebugLevel)
	}
}

// detectHost identifies the host. A host that cannot be identified is reported
// with an empty descriptor, which the compatibility gate rejects.
func (a *app) detectHost() types.OSDescriptor {
	host, warnings, err := sysdetect.Detect(a.newDetector())
	if err != nil {
		log.ErrorWithErr(err, "host detection failed")
		a.warn(err.Error())
		return types.OSDescriptor{}
	}
	for _, w := range warnings {
		a.warn(w)
	}
	return host
}

// loadConfig returns the defaults when path is empty.
func (a *app) loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, warnings, err := config.Load(path)
	for _, w := range warnings {
		a.warn(w)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags lets explicitly set flags override config values.
func mergeFlags(cfg *config.Config, opts *Options, flags *pflag.FlagSet) {
	if flags.Changed("output") || cfg.ReportFile == "" {
		cfg.ReportFile = opts.ReportFile
	}
	if opts.Truncate != "" {
		cfg.Truncate = opts.Truncate
	}
	if flags.Changed("probe-timeout") {
		cfg.ProbeTimeout = opts.ProbeTimeout
	}
}

func gateFor(cfg *config.Config) sysdetect.Gate {
	gate := sysdetect.NewGate()
	if cfg.Target.ID != "" {
		gate.TargetID = cfg.Target.ID
		gate.TargetVersion = cfg.Target.Version
	}
	return gate
}

// buildCatalog builds the built-in catalogue for the running kernel and appends
// the controls declared in cfg.
func buildCatalog(cfg *config.Config, kernel string) (*catalog.Registry, error) {
	registry, err := catalog.Builtin(cfg.Patterns(kernel))
	if err != nil {
		return nil, fmt.Errorf("building catalogue: %w", err)
	}
	if err := cfg.Apply(registry); err != nil {
		return nil, err
	}
	log.Debugf("catalogue holds %d control(s), %d declared by config", len(registry.All()), len(cfg.Controls))
	return registry, nil
}

// selectCategories applies --id and --category.
func (a *app) selectCategories(registry *catalog.Registry, opts *Options) ([]types.Category, error) {
	if opts.ControlID != "" {
		cats, ok := registry.Only(opts.ControlID)
		if ok {
			return cats, nil
		}
		fmt.Fprintf(a.stderr, "  ✗ No control found with ID %q\n", opts.ControlID)
		if suggestions := suggestIDs(opts.ControlID, registry.IDs()); len(suggestions) > 0 {
			fmt.Fprintf(a.stderr, "\n  Did you mean:\n")
			for _, s := range suggestions {
				fmt.Fprintf(a.stderr, "    • %s\n", s)
			}
		}
		fmt.Fprintf(a.stderr, "\n  Use `cisbench list` to see all control IDs.\n")
		return nil, errReported
	}

	cats := registry.Select(opts.Categories...)
	if len(cats) == 0 {
		return nil, fmt.Errorf("No category matches --category %s", strings.Join(opts.Categories, ", "))
	}
	return cats, nil
}

// noticeOnly keeps the unsupported-host notice on stderr when stdout carries a
// structured report.
type noticeOnly struct{ *output.Console }

func (noticeOnly) RunStarted(*types.BenchmarkReport) {}

func (a *app) warn(msg string) {
	fmt.Fprintf(a.stderr, "  ⚠ %s\n", msg)
}

// writeJSONFile writes the report as JSON, readable only by the owner.
func writeJSONFile(path string, report *types.BenchmarkReport) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("Failed to create JSON report: %w", err)
	}
	if err := writeReport(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeReport(w io.Writer, report *types.BenchmarkReport) error {
	if err := (&output.JSONFormatter{}).Write(w, report); err != nil {
		return fmt.Errorf("Failed to write JSON report: %w", err)
	}
	return nil
}

// unsafeOutputPrefixes are path prefixes where report files are never written.
// The benchmark usually runs as root.
var unsafeOutputPrefixes = []string{"/etc/", "/proc/", "/sys/", "/dev/", "/boot/", "/sbin/", "/bin/", "/usr/"}

// validateOutputPath checks that a report path is safe to write to.
func validateOutputPath(path string) error {
	if path == "" {
		return nil
	}
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		for _, prefix := range unsafeOutputPrefixes {
			if strings.HasPrefix(cleaned, prefix) {
				return fmt.Errorf("refusing to write to system path %q", cleaned)
			}
		}
	}
	return nil
}
