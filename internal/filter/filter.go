// Package filter decides which statement lines are noise rather than
// transactions, using the stored filter rules plus optional predicates.
package filter

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// RuleSource provides filter rules and receives match counts.
// *rules.Store satisfies it.
type RuleSource interface {
	FilterRules(bank string) []model.FilterRule
	RecordUsage(ruleID string)
}

// Predicate is an extra skip check evaluated after the stored rules.
type Predicate struct {
	Match func(line, bank string) bool
	Name  string
}

// Decision explains why a line was skipped. Rule is set when a stored rule
// matched, Predicate when a predicate did.
type Decision struct {
	Rule      *model.FilterRule
	Predicate string
	Skip      bool
}

// Engine evaluates filter rules. It is not safe for concurrent use.
type Engine struct {
	source     RuleSource
	regexes    map[string]*regexp.Regexp
	predicates []Predicate
}

// New returns an engine reading rules from source.
func New(source RuleSource, predicates ...Predicate) *Engine {
	return &Engine{
		source:     source,
		regexes:    make(map[string]*regexp.Regexp),
		predicates: predicates,
	}
}

// ShouldSkip reports whether line must be discarded for the given bank.
// Global rules are checked first, then the bank's own rules; the first
// active match wins.
func (e *Engine) ShouldSkip(line, bank string) Decision {
	if e == nil {
		return Decision{}
	}

	folded := strings.TrimSpace(common.Fold(line))
	if e.source != nil {
		for _, rule := range e.source.FilterRules(bank) {
			if !rule.Active || !e.matches(rule, line, folded) {
				continue
			}
			e.source.RecordUsage(rule.ID)
			slog.Debug("Line filtered", "rule", rule.ID, "pattern", rule.Pattern, "bank", bank)
			matched := rule
			return Decision{Skip: true, Rule: &matched}
		}
	}

	for _, p := range e.predicates {
		if p.Match != nil && p.Match(line, bank) {
			slog.Debug("Line filtered", "predicate", p.Name, "bank", bank)
			return Decision{Skip: true, Predicate: p.Name}
		}
	}
	return Decision{}
}

func (e *Engine) matches(rule model.FilterRule, line, folded string) bool {
	if rule.MatchType == model.MatchRegex {
		re := e.compile(rule)
		return re != nil && re.MatchString(line)
	}

	pattern := strings.TrimSpace(common.Fold(rule.Pattern))
	if pattern == "" {
		return false
	}
	switch rule.MatchType {
	case model.MatchContains:
		return strings.Contains(folded, pattern)
	case model.MatchStarts:
		return strings.HasPrefix(folded, pattern)
	case model.MatchEnds:
		return strings.HasSuffix(folded, pattern)
	case model.MatchExact:
		return folded == pattern
	default:
		return false
	}
}

// compile caches regexes by pattern. Invalid patterns are cached as nil so
// the warning is logged once.
func (e *Engine) compile(rule model.FilterRule) *regexp.Regexp {
	if re, ok := e.regexes[rule.Pattern]; ok {
		return re
	}
	re, err := common.CompileInsensitive(rule.Pattern)
	if err != nil {
		slog.Warn("Ignoring filter rule with invalid regex",
			"rule", rule.ID,
			"pattern", rule.Pattern,
			"error", err)
		re = nil
	}
	e.regexes[rule.Pattern] = re
	return re
}

// MinLength skips lines shorter than n runes after trimming.
func MinLength(n int) Predicate {
	return Predicate{
		Name: "min-length",
		Match: func(line, _ string) bool {
			return len([]rune(strings.TrimSpace(line))) < n
		},
	}
}

// RequireLetterAndDigit skips lines that cannot hold both a description
// and an amount.
func RequireLetterAndDigit() Predicate {
	return Predicate{
		Name: "letter-and-digit",
		Match: func(line, _ string) bool {
			var letter, digit bool
			for _, r := range line {
				letter = letter || unicode.IsLetter(r)
				digit = digit || unicode.IsDigit(r)
			}
			return !letter || !digit
		},
	}
}
