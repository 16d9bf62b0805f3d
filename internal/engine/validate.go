package engine

import (
	"errors"
	"fmt"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

var (
	errEmptyPattern   = errors.New("pattern must not be empty")
	errPatternTooLong = fmt.Errorf("pattern too long (max: %d)", MaxPatternLength)
)

// ValidateRule checks that a rule is evaluable against a control with probeCount probes:
// the kind is known, its parameters are present, any probe index is in range, and
// patterns compile. The catalogue and config loader call it at load time.
func ValidateRule(rule types.Rule, probeCount int) error {
	if !KnownRuleKind(rule.Kind) {
		return fmt.Errorf("unknown rule kind %q (known kinds: %s)", rule.Kind, knownKindList())
	}

	if rule.Probe != nil && (*rule.Probe < 0 || *rule.Probe >= probeCount) {
		return fmt.Errorf("rule %q selects probe %d but the control declares %d probe(s)", rule.Kind, *rule.Probe, probeCount)
	}

	switch rule.Kind {
	case types.RuleAll, types.RuleAny:
		if len(rule.Rules) == 0 {
			return fmt.Errorf("rule %q needs at least one sub-rule", rule.Kind)
		}
		for i, child := range rule.Rules {
			if err := ValidateRule(child, probeCount); err != nil {
				return fmt.Errorf("%s[%d]: %w", rule.Kind, i, err)
			}
		}
	case types.RuleContains:
		if rule.Expected == "" {
			return fmt.Errorf("rule %q requires expected", rule.Kind)
		}
	case types.RuleMember:
		if len(rule.References) == 0 {
			return fmt.Errorf("rule %q requires at least one reference", rule.Kind)
		}
	case types.RuleUniform:
		if rule.Token == "" {
			return fmt.Errorf("rule %q requires token", rule.Kind)
		}
	case types.RuleMatch:
		if _, err := compilePattern(rule.Pattern); err != nil {
			return fmt.Errorf("rule %q: invalid pattern %q: %w", rule.Kind, rule.Pattern, err)
		}
	}

	return nil
}

func knownKindList() string {
	s := ""
	for i, k := range types.RuleKinds {
		if i > 0 {
			s += ", "
		}
		s += string(k)
	}
	return s
}
