package correction

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	processDateRe  = regexp.MustCompile(`(?i)\s+(\d{1,2}/\d{1,2}\s+)?(ene|feb|mar|abr|may|jun|jul|ago|sep|set|oct|nov|dic)-\d{2,4}$`)
	trailingCodeRe = regexp.MustCompile(`\s+([A-Z]{1,3})$`)
)

// Cleanup collapses whitespace, strips trailing process-date suffixes such
// as "01/01 sep-2025" and strips a trailing 1-3 letter uppercase code when
// the rest of the description is not itself upper case. It repeats until
// nothing changes, so Cleanup(Cleanup(s)) == Cleanup(s).
func Cleanup(s string) string {
	// Every pass either shortens s or leaves it unchanged.
	for {
		next := cleanupPass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanupPass(s string) string {
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))

	if loc := processDateRe.FindStringIndex(s); loc != nil && loc[0] > 0 {
		s = strings.TrimSpace(s[:loc[0]])
	}

	if loc := trailingCodeRe.FindStringIndex(s); loc != nil {
		if rest := s[:loc[0]]; strings.ContainsFunc(rest, unicode.IsLower) {
			s = strings.TrimSpace(rest)
		}
	}
	return s
}
