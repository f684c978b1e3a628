package correction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Veraticus/cartola/internal/common"
)

// SuggestionKind names the artifact a suggestion fixes.
type SuggestionKind string

// Suggestion kinds, in detection priority order.
const (
	KindRepeatedNumber   SuggestionKind = "repeated-number"
	KindDuplicatedPhrase SuggestionKind = "duplicated-phrase"
	KindBrandCodeDate    SuggestionKind = "brand-code-date"
	KindLeadingDateCode  SuggestionKind = "leading-date-code"
)

// Suggestion is a proposed rewrite of a description.
type Suggestion struct {
	Original   string         `json:"original"`
	Suggested  string         `json:"suggested"`
	Kind       SuggestionKind `json:"kind"`
	Reason     string         `json:"reason"`
	Confidence int            `json:"confidence"`
}

var (
	brandCodeDateRe   = regexp.MustCompile(`\s+[A-Z]{2,5}\s+(\d{1,2}/\d{1,2}\s+)?[A-Za-z]{3}-\d{2,4}\s*$`)
	leadingDateCodeRe = regexp.MustCompile(`^\s*\d{1,2}/\d{1,2}(/\d{2,4})?\s+\d{3,}\s+`)
	numericTokenRe    = regexp.MustCompile(`^\$?\d[\d.,]*$`)
)

type detector struct {
	detect     func(string) (string, string, bool)
	kind       SuggestionKind
	confidence int
}

var detectors = []detector{
	{detect: detectRepeatedNumber, kind: KindRepeatedNumber, confidence: 90},
	{detect: detectDuplicatedPhrase, kind: KindDuplicatedPhrase, confidence: 85},
	{detect: detectBrandCodeDate, kind: KindBrandCodeDate, confidence: 95},
	{detect: detectLeadingDateCode, kind: KindLeadingDateCode, confidence: 88},
}

// Suggest returns a rewrite for the first artifact found in description, or
// nil when it looks clean. Suggestions for all-caps text are title cased.
func Suggest(description string) *Suggestion {
	for _, d := range detectors {
		suggested, reason, ok := d.detect(description)
		if !ok {
			continue
		}
		suggested = Cleanup(suggested)
		if suggested == "" || !strings.ContainsFunc(suggested, unicode.IsLetter) {
			continue
		}
		if !strings.ContainsFunc(suggested, unicode.IsLower) {
			suggested = cases.Title(language.Spanish).String(strings.ToLower(suggested))
		}
		return &Suggestion{
			Original:   description,
			Suggested:  suggested,
			Kind:       d.kind,
			Reason:     reason,
			Confidence: d.confidence,
		}
	}
	return nil
}

// detectRepeatedNumber finds a numeric token repeated at least three times at
// the end of the description.
func detectRepeatedNumber(s string) (string, string, bool) {
	fields := strings.Fields(s)
	if len(fields) < 4 {
		return "", "", false
	}
	last := fields[len(fields)-1]
	if !numericTokenRe.MatchString(last) {
		return "", "", false
	}
	n := 0
	for i := len(fields) - 1; i >= 0 && fields[i] == last; i-- {
		n++
	}
	if n < 3 {
		return "", "", false
	}
	return strings.Join(fields[:len(fields)-n], " "),
		fmt.Sprintf("trailing number %s repeated %d times", last, n), true
}

// detectDuplicatedPhrase finds the same leading phrase written twice in a row.
func detectDuplicatedPhrase(s string) (string, string, bool) {
	fields := strings.Fields(s)
	for k := len(fields) / 2; k >= 1; k-- {
		if !sameWords(fields[:k], fields[k:2*k]) {
			continue
		}
		// A single repeated short word is more likely real text.
		if k == 1 && len([]rune(fields[0])) < 4 {
			continue
		}
		phrase := strings.Join(fields[:k], " ")
		return strings.Join(append(fields[:k:k], fields[2*k:]...), " "),
			fmt.Sprintf("leading phrase %q is duplicated", phrase), true
	}
	return "", "", false
}

func detectBrandCodeDate(s string) (string, string, bool) {
	loc := brandCodeDateRe.FindStringIndex(s)
	if loc == nil || loc[0] == 0 {
		return "", "", false
	}
	return s[:loc[0]], fmt.Sprintf("trailing code and date %q", strings.TrimSpace(s[loc[0]:])), true
}

func detectLeadingDateCode(s string) (string, string, bool) {
	loc := leadingDateCodeRe.FindStringIndex(s)
	if loc == nil || loc[1] == len(s) {
		return "", "", false
	}
	return s[loc[1]:], fmt.Sprintf("leading date and code %q", strings.TrimSpace(s[:loc[1]])), true
}

func sameWords(a, b []string) bool {
	for i := range a {
		if common.Fold(a[i]) != common.Fold(b[i]) {
			return false
		}
	}
	return true
}
