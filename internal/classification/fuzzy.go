package classification

import (
	"math"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

const (
	fuzzySimilarity = 0.6
	fuzzyWeight     = 50
	fuzzyThreshold  = 30
)

type fuzzyMatch struct {
	category   string
	example    string
	similarity float64
}

// similarity is the normalized edit similarity (maxLen-distance)/maxLen.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1
	}
	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptionsWithSub)
	return float64(maxLen-distance) / float64(maxLen)
}

// firstFuzzyMatch walks categories and examples in taxonomy order and
// returns the first pair at or above the similarity floor, not the best.
func firstFuzzyMatch(desc string, taxonomy *Taxonomy) (fuzzyMatch, bool) {
	for _, category := range taxonomy.categories {
		if category.Name == model.OtherCategory {
			continue
		}
		for _, example := range category.Examples {
			sim := similarity(desc, common.Fold(example))
			if sim >= fuzzySimilarity {
				return fuzzyMatch{category: category.Name, example: example, similarity: sim}, true
			}
		}
	}
	return fuzzyMatch{}, false
}

func (m fuzzyMatch) confidence() int {
	return int(math.Round(m.similarity * fuzzyWeight))
}
