// Package config reads and validates the cisbench YAML configuration: report
// settings, host-specific catalogue patterns, and operator-declared controls.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/catalog"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/engine"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/log"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/probe"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// DefaultReportFile is the report written when neither flag nor config names one.
const DefaultReportFile = "benchmark_output.txt"

// ErrInvalidConfig is returned when a configuration file fails to parse or validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top-level configuration document.
type Config struct {
	// ReportFile is the plain-text report path.
	ReportFile string `yaml:"report_file" json:"report_file" validate:"omitempty,max=4096"`

	// Truncate selects when the report file is truncated: "run" or "category".
	Truncate string `yaml:"truncate" json:"truncate" validate:"omitempty,oneof=run category"`

	// ProbeTimeout bounds each probe; zero means no deadline.
	ProbeTimeout time.Duration `yaml:"probe_timeout" json:"probe_timeout" validate:"min=0"`

	// Target overrides the distribution accepted by the compatibility gate.
	Target Target `yaml:"target" json:"target"`

	// ModulePatterns maps kernel modules to the fragment their dry-run load must print.
	ModulePatterns map[string]string `yaml:"module_patterns" json:"module_patterns,omitempty" validate:"omitempty,dive,required"`

	// Partitions maps mount points to the accepted mount lines for their
	// partition. Each reference is a complete mount output line, options included.
	Partitions map[string][]string `yaml:"partitions" json:"partitions,omitempty" validate:"omitempty,dive,min=1,dive,required"`

	// Controls are extra controls appended to the catalogue.
	Controls []DeclaredControl `yaml:"controls" json:"controls,omitempty" validate:"omitempty,dive"`
}

// Target names the distribution and version the gate accepts.
type Target struct {
	ID      string `yaml:"id" json:"id" validate:"required_with=Version"`
	Version string `yaml:"version" json:"version" validate:"required_with=ID"`
}

// DeclaredControl is a control declared in configuration together with the
// category it is appended to.
type DeclaredControl struct {
	Category      string `yaml:"category" json:"category" validate:"required,min=3,max=120"`
	types.Control `yaml:",inline"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ReportFile: DefaultReportFile,
		Truncate:   "run",
	}
}

// Load reads, parses and validates a configuration file. Unset fields keep their
// defaults. The returned warnings flag unsafe file permissions.
func Load(path string) (*Config, []string, error) {
	data, err := readFileLimited(path)
	if err != nil {
		return nil, nil, err
	}
	warnings := CheckPermissions(path)

	cfg, err := Parse(data)
	if err != nil {
		return nil, warnings, fmt.Errorf("%s: %w", path, err)
	}

	log.Logger().Info().
		Str("path", path).
		Int("controls", len(cfg.Controls)).
		Int("module_patterns", len(cfg.ModulePatterns)).
		Int("partitions", len(cfg.Partitions)).
		Msg("config loaded")

	return cfg, warnings, nil
}

// Parse decodes and validates a configuration document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs schema validation (struct tags) and the checks tags cannot
// express: mount point and module names, profile levels, rules, read-only
// probes, and duplicate control IDs.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, formatValidationErrors(err))
	}

	for _, module := range sortedKeys(c.ModulePatterns) {
		if err := catalog.ValidateModuleName(module); err != nil {
			return fmt.Errorf("%w: module_patterns: %v", ErrInvalidConfig, err)
		}
	}
	for _, mp := range sortedKeys(c.Partitions) {
		if err := catalog.ValidateMountPoint(mp); err != nil {
			return fmt.Errorf("%w: partitions: %v", ErrInvalidConfig, err)
		}
	}

	guard := probe.NewGuard()
	seen := make(map[string]int, len(c.Controls))
	for i, dc := range c.Controls {
		if prev, dup := seen[dc.ID]; dup {
			return fmt.Errorf("%w: controls[%d]: duplicate control ID %q (first declared at controls[%d])", ErrInvalidConfig, i, dc.ID, prev)
		}
		seen[dc.ID] = i

		if err := validateDeclared(guard, dc); err != nil {
			return fmt.Errorf("%w: controls[%d] (%s): %v", ErrInvalidConfig, i, dc.ID, err)
		}
	}

	return nil
}

func validateDeclared(guard *probe.Guard, dc DeclaredControl) error {
	for _, level := range dc.Levels {
		if !types.ValidLevels[level] {
			return fmt.Errorf("levels: invalid level %q (must be one of: %s)", level, validLevelList())
		}
	}
	for i, p := range dc.Probes {
		if err := guard.Check(p.Command); err != nil {
			return fmt.Errorf("probes[%d]: %w", i, err)
		}
	}
	if err := engine.ValidateRule(dc.Rule, len(dc.Probes)); err != nil {
		return fmt.Errorf("rule: %w", err)
	}
	return nil
}

// Patterns returns the catalogue parameters carried by the configuration.
func (c *Config) Patterns(kernel string) catalog.Patterns {
	return catalog.Patterns{
		ModulePatterns: c.ModulePatterns,
		Partitions:     c.Partitions,
		Kernel:         kernel,
	}
}

// Apply appends every declared control to the registry, in declaration order.
func (c *Config) Apply(r *catalog.Registry) error {
	for _, dc := range c.Controls {
		if err := r.Append(dc.Category, dc.Control); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// newValidator creates a validator with the custom control_id tag registered.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("control_id", func(fl validator.FieldLevel) bool {
		return catalog.ControlIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// formatValidationErrors converts validator errors into user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var messages []string
	for _, fe := range validationErrors {
		messages = append(messages, formatFieldError(fe))
	}

	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// formatFieldError converts a single field validation error to a human-readable message.
func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", field, fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		if fe.Kind().String() == "int64" {
			return fmt.Sprintf("%s must not be negative", field)
		}
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "control_id":
		return fmt.Sprintf("%s must be dotted numbers like 1.1.1.1", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func validLevelList() string {
	return strings.Join(sortedKeys(types.ValidLevels), ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReportFileOrDefault returns the configured report path or DefaultReportFile.
func (c *Config) ReportFileOrDefault() string {
	if c.ReportFile == "" {
		return DefaultReportFile
	}
	return c.ReportFile
}
