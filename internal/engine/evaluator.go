// Package engine contains the benchmark execution engine: rule evaluation,
// per-category control execution, and run orchestration.
package engine

import (
	"regexp"
	"strings"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// leafRule evaluates one probe result.
type leafRule func(rule types.Rule, res types.ProbeResult) types.CheckStatus

// leafRules maps each leaf kind to its evaluator.
var leafRules = map[types.RuleKind]leafRule{
	types.RuleEmpty:    evalEmpty,
	types.RuleContains: evalContains,
	types.RuleMember:   evalMember,
	types.RuleUniform:  evalUniform,
	types.RuleExitZero: evalExitZero,
	types.RuleOutput:   evalOutput,
	types.RuleMatch:    evalMatch,
}

// alternativeKinds combine unselected results with "any" semantics: each probe
// is an alternative location or package manager for the same evidence.
var alternativeKinds = map[types.RuleKind]bool{
	types.RuleExitZero: true,
	types.RuleOutput:   true,
	types.RuleMatch:    true,
}

// KnownRuleKind reports whether kind is evaluable.
func KnownRuleKind(kind types.RuleKind) bool {
	if kind == types.RuleAll || kind == types.RuleAny {
		return true
	}
	_, ok := leafRules[kind]
	return ok
}

// Evaluate applies rule to the probe results of one control and returns its verdict.
// It is pure: identical inputs always yield the identical status. A rule that needs a
// probe result that was not supplied or did not complete, or an unknown rule kind,
// yields Indeterminate.
func Evaluate(rule types.Rule, results []types.ProbeResult) types.CheckStatus {
	switch rule.Kind {
	case types.RuleAll:
		return combineAll(rule.Rules, results)
	case types.RuleAny:
		return combineAny(rule.Rules, results)
	}

	leaf, ok := leafRules[rule.Kind]
	if !ok {
		return types.StatusIndeterminate
	}

	if rule.Probe != nil {
		idx := *rule.Probe
		if idx < 0 || idx >= len(results) {
			return types.StatusIndeterminate
		}
		return evalLeaf(leaf, rule, results[idx])
	}

	if len(results) == 0 {
		return types.StatusIndeterminate
	}

	statuses := make([]types.CheckStatus, len(results))
	for i, res := range results {
		statuses[i] = evalLeaf(leaf, rule, res)
	}
	if alternativeKinds[rule.Kind] {
		return anyOf(statuses)
	}
	return allOf(statuses)
}

// evalLeaf applies leaf to one result. Empty output from a probe that timed out
// or was cancelled is not evidence of compliance.
func evalLeaf(leaf leafRule, rule types.Rule, res types.ProbeResult) types.CheckStatus {
	if !res.Completed() {
		return types.StatusIndeterminate
	}
	return leaf(rule, res)
}

func combineAll(rules []types.Rule, results []types.ProbeResult) types.CheckStatus {
	if len(rules) == 0 {
		return types.StatusIndeterminate
	}
	statuses := make([]types.CheckStatus, len(rules))
	for i, r := range rules {
		statuses[i] = Evaluate(r, results)
	}
	return allOf(statuses)
}

func combineAny(rules []types.Rule, results []types.ProbeResult) types.CheckStatus {
	if len(rules) == 0 {
		return types.StatusIndeterminate
	}
	statuses := make([]types.CheckStatus, len(rules))
	for i, r := range rules {
		statuses[i] = Evaluate(r, results)
	}
	return anyOf(statuses)
}

// allOf fails on any failure, then is indeterminate on any indeterminate, else passes.
func allOf(statuses []types.CheckStatus) types.CheckStatus {
	indeterminate := false
	for _, s := range statuses {
		switch s {
		case types.StatusFail:
			return types.StatusFail
		case types.StatusIndeterminate:
			indeterminate = true
		}
	}
	if indeterminate {
		return types.StatusIndeterminate
	}
	return types.StatusPass
}

// anyOf passes on any pass, then is indeterminate on any indeterminate, else fails.
func anyOf(statuses []types.CheckStatus) types.CheckStatus {
	indeterminate := false
	for _, s := range statuses {
		switch s {
		case types.StatusPass:
			return types.StatusPass
		case types.StatusIndeterminate:
			indeterminate = true
		}
	}
	if indeterminate {
		return types.StatusIndeterminate
	}
	return types.StatusFail
}

func verdict(ok bool) types.CheckStatus {
	if ok {
		return types.StatusPass
	}
	return types.StatusFail
}

// evalEmpty passes when the filtering probe printed nothing. Empty stdout with
// stderr means the filter itself failed to run, which proves nothing.
func evalEmpty(_ types.Rule, res types.ProbeResult) types.CheckStatus {
	if strings.TrimSpace(res.Stdout) != "" {
		return types.StatusFail
	}
	if strings.TrimSpace(res.Stderr) != "" {
		return types.StatusIndeterminate
	}
	return types.StatusPass
}

// evalContains passes when stdout carries the expected fragment. Entirely empty
// stdout (module unknown to the kernel) is also compliant.
func evalContains(rule types.Rule, res types.ProbeResult) types.CheckStatus {
	if rule.Expected == "" {
		return types.StatusIndeterminate
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return types.StatusPass
	}
	return verdict(strings.Contains(out, rule.Expected))
}

// evalMember passes when the trimmed stdout is a substring of an accepted reference.
func evalMember(rule types.Rule, res types.ProbeResult) types.CheckStatus {
	if len(rule.References) == 0 {
		return types.StatusIndeterminate
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return types.StatusFail
	}
	for _, ref := range rule.References {
		if strings.Contains(ref, out) {
			return types.StatusPass
		}
	}
	return types.StatusFail
}

// evalUniform passes when every non-blank line carries the token.
func evalUniform(rule types.Rule, res types.ProbeResult) types.CheckStatus {
	if rule.Token == "" {
		return types.StatusIndeterminate
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.Contains(line, rule.Token) {
			return types.StatusFail
		}
	}
	return types.StatusPass
}

func evalExitZero(_ types.Rule, res types.ProbeResult) types.CheckStatus {
	return verdict(res.ExitCode == 0)
}

func evalOutput(_ types.Rule, res types.ProbeResult) types.CheckStatus {
	return verdict(strings.TrimSpace(res.Stdout) != "")
}

func evalMatch(rule types.Rule, res types.ProbeResult) types.CheckStatus {
	re, err := compilePattern(rule.Pattern)
	if err != nil {
		return types.StatusIndeterminate
	}
	return verdict(re.MatchString(res.Stdout) != rule.Negate)
}

// MaxPatternLength is the maximum allowed length for rule regex patterns.
const MaxPatternLength = 1024

// compilePattern compiles a rule regex with a length cap.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errEmptyPattern
	}
	if len(pattern) > MaxPatternLength {
		return nil, errPatternTooLong
	}
	return regexp.Compile(pattern)
}
