package parser

import (
	"regexp"
	"strings"

	"github.com/Veraticus/cartola/internal/common"
)

// signal is one weighted piece of evidence that a document has a layout.
// Phrases are compared against the folded document text; negative weights
// count against the layout.
type signal struct {
	pattern *regexp.Regexp
	phrase  string
	weight  int
}

func phrase(p string, weight int) signal {
	return signal{phrase: common.Fold(p), weight: weight}
}

func pattern(expr string, weight int) signal {
	return signal{pattern: regexp.MustCompile(expr), weight: weight}
}

// score sums the weights of the signals present in text, clamped to 0-100.
func score(text string, signals []signal) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	folded := common.Fold(text)
	total := 0
	for _, s := range signals {
		switch {
		case s.pattern != nil:
			if s.pattern.MatchString(text) {
				total += s.weight
			}
		case s.phrase != "" && strings.Contains(folded, s.phrase):
			total += s.weight
		}
	}
	return max(0, min(total, 100))
}
