package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/cartola/internal/common"
)

const amountThreshold = 60

// AmountHeuristic assigns a category from the amount and a vocabulary.
type AmountHeuristic struct {
	// Accepts reports whether the signed amount is in range.
	Accepts    func(amount int64) bool
	Name       string
	Category   string
	Vocabulary string // regex over the folded description; empty matches all
	Confidence int
}

type compiledHeuristic struct {
	vocabulary *regexp.Regexp
	AmountHeuristic
}

// DefaultAmountHeuristics are evaluated in order; the first match wins.
var DefaultAmountHeuristics = []AmountHeuristic{
	{
		Name:       "income-vocabulary",
		Category:   "Ingresos",
		Vocabulary: `abono|sueldo|remuneraci|devoluci|reembolso|reintegro|deposito|transferencia de|honorario`,
		Accepts:    func(a int64) bool { return a > 0 },
		Confidence: 75,
	},
	{
		Name:       "large-income",
		Category:   "Ingresos",
		Accepts:    func(a int64) bool { return a > 500_000 },
		Confidence: 40,
	},
	{
		Name:       "fuel",
		Category:   "Transporte",
		Vocabulary: `copec|shell|petrobras|aramco|enex|combustible|bencina|gasolin`,
		Accepts:    between(-150_000, -1_000),
		Confidence: 60,
	},
	{
		Name:       "utilities",
		Category:   "Servicios Básicos",
		Vocabulary: `enel|aguas|metrogas|essbio|esval|chilquinta|electricidad|lipigas|abastible|gasco|\bluz\b|\bgas\b`,
		Accepts:    between(-300_000, -5_000),
		Confidence: 50,
	},
}

func between(lo, hi int64) func(int64) bool {
	return func(a int64) bool { return a >= lo && a <= hi }
}

func compileHeuristics(heuristics []AmountHeuristic) ([]compiledHeuristic, error) {
	compiled := make([]compiledHeuristic, 0, len(heuristics))
	for _, h := range heuristics {
		c := compiledHeuristic{AmountHeuristic: h}
		if h.Vocabulary != "" {
			re, err := common.CompileInsensitive(h.Vocabulary)
			if err != nil {
				return nil, fmt.Errorf("failed to compile heuristic %s: %w", h.Name, err)
			}
			c.vocabulary = re
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

// match returns the first heuristic accepting desc and amount.
func matchHeuristic(heuristics []compiledHeuristic, desc string, amount int64) (compiledHeuristic, bool) {
	for _, h := range heuristics {
		if h.Accepts != nil && !h.Accepts(amount) {
			continue
		}
		if h.vocabulary != nil && !h.vocabulary.MatchString(desc) {
			continue
		}
		return h, true
	}
	return compiledHeuristic{}, false
}

func (h compiledHeuristic) reason(amount int64) string {
	return fmt.Sprintf("amount heuristic %s (%s)", strings.ReplaceAll(h.Name, "-", " "), common.FormatThousands(amount))
}
