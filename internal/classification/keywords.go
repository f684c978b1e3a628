package classification

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// Keyword scoring weights.
const (
	keywordLengthWeight = 5
	keywordLengthCap    = 50
	keywordEqualBonus   = 30
	keywordPrefixBonus  = 25
	keywordWordBonus    = 15
	keywordThreshold    = 60
)

// keywordException adds a bonus for keywords that are too short to reach
// the threshold on their own but are unambiguous in a given position.
type keywordException struct {
	applies func(desc, keyword string) bool
	keyword string
	bonus   int
}

var keywordExceptions = []keywordException{
	{keyword: "transf", bonus: 10, applies: opensDescription},
}

func opensDescription(desc, keyword string) bool {
	return strings.HasPrefix(desc, keyword)
}

// keywordScore is the accumulated score of one category.
type keywordScore struct {
	category string
	matched  []string
	total    int
}

// scoreKeyword scores one folded keyword against a folded description.
// Zero means the keyword does not occur.
func scoreKeyword(desc, keyword string) int {
	pos := strings.Index(desc, keyword)
	if keyword == "" || pos < 0 {
		return 0
	}

	score := min(len([]rune(keyword))*keywordLengthWeight, keywordLengthCap)
	if desc == keyword {
		score += keywordEqualBonus
	}
	if pos == 0 {
		score += keywordPrefixBonus
	}
	if containsWord(desc, keyword) {
		score += keywordWordBonus
	}
	for _, exc := range keywordExceptions {
		if exc.keyword == keyword && exc.applies(desc, keyword) {
			score += exc.bonus
		}
	}
	return score
}

// containsWord reports whether keyword occurs delimited by non-alphanumerics.
func containsWord(desc, keyword string) bool {
	for start := 0; start < len(desc); {
		i := strings.Index(desc[start:], keyword)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(keyword)
		if boundaryBefore(desc, i) && boundaryAfter(desc, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := []rune(s[:i])
	return !isWordRune(r[len(r)-1])
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	for _, r := range s[i:] {
		return !isWordRune(r)
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// bestKeywordCategory scores every non-reserved category and returns the
// highest total. Ties keep taxonomy order.
func bestKeywordCategory(desc string, taxonomy *Taxonomy) (keywordScore, bool) {
	var best keywordScore
	found := false
	for _, category := range taxonomy.categories {
		if category.Name == model.OtherCategory {
			continue
		}
		score := keywordScore{category: category.Name}
		for _, kw := range category.Keywords {
			kw = common.Fold(strings.TrimSpace(kw))
			if s := scoreKeyword(desc, kw); s > 0 {
				score.total += s
				score.matched = append(score.matched, kw)
			}
		}
		if score.total > 0 && (!found || score.total > best.total) {
			best = score
			found = true
		}
	}
	return best, found
}

func (s keywordScore) reason() string {
	quoted := make([]string, len(s.matched))
	for i, kw := range s.matched {
		quoted[i] = fmt.Sprintf("%q", kw)
	}
	return "keyword match " + strings.Join(quoted, ", ")
}
