package extractor

import (
	"regexp"
	"strings"
)

// MinCandidateLength is the shortest line that can hold a transaction.
const MinCandidateLength = 8

var (
	dateLike   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?\b`)
	amountLike = regexp.MustCompile(`\d{1,3}(\.\d{3})+|\$\s*\d|\b\d{4,}\b`)
)

// CandidateLines splits text into trimmed lines and keeps those long
// enough to be a transaction and carrying a date-like or amount-like token.
func CandidateLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) < MinCandidateLength {
			continue
		}
		if dateLike.MatchString(line) || amountLike.MatchString(line) {
			lines = append(lines, line)
		}
	}
	return lines
}
