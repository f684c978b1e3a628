// Package correction rewrites extracted descriptions with the stored
// correction rules and suggests fixes for common extraction artifacts.
package correction

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// RuleSource provides correction rules. *rules.Store satisfies it.
type RuleSource interface {
	CorrectionRules(bank string) []model.CorrectionRule
}

// Result is the corrected description and the ids of the rules that changed it,
// in application order.
type Result struct {
	Corrected string
	Applied   []string
}

// Corrector applies correction rules. It is not safe for concurrent use.
type Corrector struct {
	source  RuleSource
	regexes map[string]*regexp.Regexp
}

// New returns a corrector reading rules from source.
func New(source RuleSource) *Corrector {
	return &Corrector{
		source:  source,
		regexes: make(map[string]*regexp.Regexp),
	}
}

// Apply runs the active global corrections and then the bank's corrections,
// each on the output of the previous one.
func (c *Corrector) Apply(description, bank string) Result {
	result := Result{Corrected: description}
	if c == nil || c.source == nil {
		return result
	}

	for _, rule := range c.source.CorrectionRules(bank) {
		if !rule.Active {
			continue
		}
		next := c.apply(rule, result.Corrected)
		if next != result.Corrected {
			slog.Debug("Correction applied", "rule", rule.ID, "from", result.Corrected, "to", next)
			result.Corrected = next
			result.Applied = append(result.Applied, rule.ID)
		}
	}
	return result
}

func (c *Corrector) apply(rule model.CorrectionRule, s string) string {
	switch rule.MatchType {
	case model.CorrectCleanup:
		return Cleanup(s)
	case model.CorrectWord:
		re := c.compile(rule, wordPattern(rule.Pattern))
		if re == nil {
			return s
		}
		return re.ReplaceAllString(s, "${1}"+escapeReplacement(rule.Replacement)+"${2}")
	case model.CorrectExact:
		if !rule.CaseInsensitive {
			return strings.ReplaceAll(s, rule.Pattern, rule.Replacement)
		}
		re := c.compile(rule, regexp.QuoteMeta(rule.Pattern))
		if re == nil {
			return s
		}
		return re.ReplaceAllLiteralString(s, rule.Replacement)
	case model.CorrectRegex:
		re := c.compile(rule, rule.Pattern)
		if re == nil {
			return s
		}
		return re.ReplaceAllString(s, rule.Replacement)
	default:
		return s
	}
}

// wordPattern matches pattern as a whole word. Letters include accented ones,
// which \b does not handle.
func wordPattern(pattern string) string {
	return `(^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(pattern) + `([^\p{L}\p{N}_]|$)`
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// compile caches expressions per rule. Invalid ones are cached as nil and
// logged once.
func (c *Corrector) compile(rule model.CorrectionRule, expr string) *regexp.Regexp {
	key := string(rule.MatchType) + "\x00" + boolKey(rule.CaseInsensitive) + expr
	if re, ok := c.regexes[key]; ok {
		return re
	}

	var (
		re  *regexp.Regexp
		err error
	)
	if rule.CaseInsensitive {
		re, err = common.CompileInsensitive(expr)
	} else {
		re, err = regexp.Compile(expr)
	}
	if err != nil {
		slog.Warn("Ignoring correction rule with invalid regex",
			"rule", rule.ID,
			"pattern", rule.Pattern,
			"error", err)
		re = nil
	}
	c.regexes[key] = re
	return re
}

func boolKey(b bool) string {
	if b {
		return "i"
	}
	return "s"
}
