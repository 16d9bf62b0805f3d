// Package types defines shared type definitions used across all cisbench packages.
package types

// Control represents a single numbered hardening check from the benchmark catalogue.
// Controls are declared statically (or loaded from config) and never mutated during a run.
type Control struct {
	// ID is the dotted numeric benchmark identifier (e.g., "1.1.1.1").
	ID string `yaml:"id" json:"id" validate:"required,control_id"`

	// Title is the human-readable recommendation text.
	Title string `yaml:"title" json:"title" validate:"required,min=3,max=160"`

	// Scored reports whether a failure counts against the compliance score.
	Scored bool `yaml:"scored" json:"scored"`

	// Levels lists the applicability profiles (e.g., "Level 1 - Server").
	// Values are checked against ValidLevels by the config loader.
	Levels []string `yaml:"levels,omitempty" json:"levels,omitempty" validate:"omitempty,dive,required"`

	// Description explains what the control verifies.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Probes are the diagnostic commands executed, in order, to gather evidence.
	Probes []Probe `yaml:"probes" json:"probes" validate:"required,min=1,dive"`

	// Rule converts the probe results into a CheckStatus.
	Rule Rule `yaml:"rule" json:"rule"`
}

// ScoringClass returns the benchmark's label for the control's scoring class.
func (c Control) ScoringClass() string {
	if c.Scored {
		return "Scored"
	}
	return "Not Scored"
}

// Heading returns the display heading used in the console and report file,
// e.g. "1.2.1 Ensure package manager repositories are configured (Not Scored)".
func (c Control) Heading() string {
	return c.ID + " " + c.Title + " (" + c.ScoringClass() + ")"
}

// ValidLevels is the set of applicability profiles a control may declare.
var ValidLevels = map[string]bool{
	"Level 1 - Server":      true,
	"Level 1 - Workstation": true,
	"Level 2 - Server":      true,
	"Level 2 - Workstation": true,
}

// Probe is one external diagnostic command executed for a control.
type Probe struct {
	// Label is a short tag naming what the probe looks at (e.g., "lsmod", "apt").
	Label string `yaml:"label" json:"label" validate:"required,max=40"`

	// Command is passed verbatim to the host shell.
	Command string `yaml:"command" json:"command" validate:"required"`
}

// RuleKind names an evaluation rule family.
type RuleKind string

const (
	// RuleEmpty passes when the probe's stdout is empty.
	RuleEmpty RuleKind = "empty"
	// RuleContains passes when stdout contains Expected, or is entirely empty.
	RuleContains RuleKind = "contains"
	// RuleMember passes when trimmed stdout is a substring of one of References.
	RuleMember RuleKind = "member"
	// RuleUniform passes when every non-blank stdout line contains Token.
	RuleUniform RuleKind = "uniform"
	// RuleExitZero passes when the probe exited with status 0.
	RuleExitZero RuleKind = "exit-zero"
	// RuleOutput passes when the probe produced any stdout.
	RuleOutput RuleKind = "output"
	// RuleMatch passes when stdout matches Pattern (or does not, with Negate).
	RuleMatch RuleKind = "match"
	// RuleAll passes when every sub-rule passes.
	RuleAll RuleKind = "all"
	// RuleAny passes when at least one sub-rule passes.
	RuleAny RuleKind = "any"
)

// RuleKinds lists every known rule kind, in documentation order.
var RuleKinds = []RuleKind{
	RuleEmpty, RuleContains, RuleMember, RuleUniform,
	RuleExitZero, RuleOutput, RuleMatch, RuleAll, RuleAny,
}

// Rule is a declarative evaluation rule. Only the fields relevant to Kind are read.
type Rule struct {
	// Kind selects the rule family.
	Kind RuleKind `yaml:"kind" json:"kind" validate:"required"`

	// Probe selects a single probe result by index. Nil applies the rule to every result.
	Probe *int `yaml:"probe,omitempty" json:"probe,omitempty" validate:"omitempty,min=0"`

	// Expected is the literal fragment for RuleContains.
	Expected string `yaml:"expected,omitempty" json:"expected,omitempty"`

	// References are the accepted strings for RuleMember.
	References []string `yaml:"references,omitempty" json:"references,omitempty"`

	// Token is the required per-line token for RuleUniform.
	Token string `yaml:"token,omitempty" json:"token,omitempty"`

	// Pattern is the regular expression for RuleMatch.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// Negate inverts RuleMatch.
	Negate bool `yaml:"negate,omitempty" json:"negate,omitempty"`

	// Rules are the children of RuleAll and RuleAny.
	Rules []Rule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// On returns a copy of the rule bound to a single probe index.
func (r Rule) On(index int) Rule {
	r.Probe = &index
	return r
}

// Category is one benchmark section: a title and its controls in declaration order.
type Category struct {
	// Title is the section title, e.g. "1.1 Filesystem Configuration".
	Title string `json:"title"`

	// Controls are executed and reported in this order.
	Controls []Control `json:"controls"`
}

// Number returns the leading section number of the title, e.g. "1.1".
func (c Category) Number() string {
	for i := 0; i < len(c.Title); i++ {
		if c.Title[i] == ' ' {
			return c.Title[:i]
		}
	}
	return c.Title
}

// Name returns the title without its section number.
func (c Category) Name() string {
	n := c.Number()
	if len(n) == len(c.Title) {
		return c.Title
	}
	return c.Title[len(n)+1:]
}
