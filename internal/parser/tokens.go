package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/cartola/internal/common"
)

type tokenKind int

const (
	kindWord tokenKind = iota
	kindDate
	kindDateFragment
	kindMonthYear
	kindAmount
	kindNumber
)

// token is one whitespace-separated field of a statement line.
type token struct {
	date     time.Time
	text     string
	kind     tokenKind
	value    int64
	negative bool
}

var (
	currencyRe     = regexp.MustCompile(`\$\s*(\d)`)
	dateFragmentRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}$`)
	monthYearRe    = regexp.MustCompile(`(?i)^(ene|feb|mar|abr|may|jun|jul|ago|sep|set|oct|nov|dic)-\d{2,4}$`)
	formattedRe    = regexp.MustCompile(`^(-)?(\d{1,3}(?:\.\d{3})+)$`)
	plainNumberRe  = regexp.MustCompile(`^(-)?(\d+)$`)
)

// Tokens that locate a purchase rather than describe it. They only count
// when they open the line.
var locationTokens = map[string]bool{
	"s/i": true,
	"s/n": true,
	"n/a": true,
}

// Single-column codes statements print next to the amount, such as the
// cardholder marker (T titular, A adicional).
var typeCodes = map[string]bool{
	"T":  true,
	"A":  true,
	"C":  true,
	"D":  true,
	"R":  true,
	"TC": true,
}

// dateGrammar parses a format's full date token.
type dateGrammar func(text string) (time.Time, bool)

// layoutDate accepts tokens in the given time layout.
func layoutDate(layout string) dateGrammar {
	return func(text string) (time.Time, bool) {
		if len(text) != len(layout) {
			return time.Time{}, false
		}
		t, err := time.Parse(layout, text)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

// dayMonthDate accepts bare DD/MM tokens in the year reported by now.
func dayMonthDate(now func() time.Time) dateGrammar {
	return func(text string) (time.Time, bool) {
		if !dateFragmentRe.MatchString(text) {
			return time.Time{}, false
		}
		day, month, _ := strings.Cut(text, "/")
		d, errD := strconv.Atoi(day)
		m, errM := strconv.Atoi(month)
		if errD != nil || errM != nil || m < 1 || m > 12 || d < 1 {
			return time.Time{}, false
		}
		t := time.Date(now().Year(), time.Month(m), d, 0, 0, 0, 0, time.UTC)
		if t.Day() != d {
			return time.Time{}, false
		}
		return t, true
	}
}

// anyDate tries each grammar in order.
func anyDate(grammars ...dateGrammar) dateGrammar {
	return func(text string) (time.Time, bool) {
		for _, g := range grammars {
			if t, ok := g(text); ok {
				return t, true
			}
		}
		return time.Time{}, false
	}
}

// normalizeLine cleans up common PDF extraction artifacts and glues
// currency signs to their amounts.
func normalizeLine(line string) string {
	line = strings.ReplaceAll(line, "\u00A0", " ")
	line = strings.ReplaceAll(line, "\u200B", "")
	line = currencyRe.ReplaceAllString(line, "$1")
	line = strings.ReplaceAll(line, "-$", "-")
	return strings.TrimSpace(line)
}

// tokenize classifies every field of line.
func tokenize(line string, dates dateGrammar) []token {
	fields := strings.Fields(normalizeLine(line))
	tokens := make([]token, 0, len(fields))
	for _, field := range fields {
		tokens = append(tokens, classify(field, dates))
	}
	return tokens
}

func classify(field string, dates dateGrammar) token {
	tok := token{text: field, kind: kindWord}
	if t, ok := dates(field); ok {
		tok.kind = kindDate
		tok.date = t
		return tok
	}
	if dateFragmentRe.MatchString(field) {
		tok.kind = kindDateFragment
		return tok
	}
	if monthYearRe.MatchString(field) {
		tok.kind = kindMonthYear
		return tok
	}
	if m := formattedRe.FindStringSubmatch(field); m != nil {
		if v, err := strconv.ParseInt(strings.ReplaceAll(m[2], ".", ""), 10, 64); err == nil {
			tok.kind = kindAmount
			tok.value = v
			tok.negative = m[1] != ""
		}
		return tok
	}
	if m := plainNumberRe.FindStringSubmatch(field); m != nil {
		if v, err := strconv.ParseInt(m[2], 10, 64); err == nil {
			tok.kind = kindNumber
			tok.value = v
			tok.negative = m[1] != ""
		}
	}
	return tok
}

// amountRules tune amount candidate selection per layout.
type amountRules struct {
	// documentDigits marks plain numbers with at least this many digits as
	// document numbers rather than amounts. Zero disables the check.
	documentDigits int
	// dropBalance discards the last candidate, a running balance column,
	// when the line holds at least two distinct amounts.
	dropBalance bool
}

func (r amountRules) isDocumentNumber(tok token) bool {
	return r.documentDigits > 0 && tok.kind == kindNumber && !tok.negative &&
		len(strings.TrimLeft(tok.text, "-")) >= r.documentDigits
}

// candidates returns the amount tokens of a line. Formatted amounts win
// over plain numbers; plain numbers of one or two digits up to 12 are day
// or month fragments.
func (r amountRules) candidates(tokens []token) []token {
	var formatted, plain []token
	for _, tok := range tokens {
		switch tok.kind {
		case kindAmount:
			formatted = append(formatted, tok)
		case kindNumber:
			digits := strings.TrimLeft(tok.text, "-")
			if len(digits) <= 2 && tok.value <= 12 {
				continue
			}
			if r.isDocumentNumber(tok) {
				continue
			}
			plain = append(plain, tok)
		}
	}
	cands := formatted
	if len(cands) == 0 {
		cands = plain
	}
	if r.dropBalance && distinctValues(cands) >= 2 {
		cands = cands[:len(cands)-1]
	}
	return cands
}

func distinctValues(tokens []token) int {
	seen := make(map[int64]bool)
	for _, tok := range tokens {
		seen[tok.value] = true
	}
	return len(seen)
}

// selection is the chosen amount of a line.
type selection struct {
	value int64
	// minus is set when any occurrence of the value carries a minus sign.
	minus bool
	// repeats counts occurrences of the value among the candidates.
	repeats int
}

// selectAmount picks the largest candidate.
func selectAmount(cands []token) (selection, bool) {
	var sel selection
	for _, tok := range cands {
		if tok.value > sel.value {
			sel = selection{value: tok.value}
		}
	}
	if sel.value == 0 {
		return selection{}, false
	}
	for _, tok := range cands {
		if tok.value == sel.value {
			sel.repeats++
			sel.minus = sel.minus || tok.negative
		}
	}
	return sel, true
}

// describe rebuilds the description from the tokens that are not columns:
// leading location, dates, process-date suffixes, amounts, document numbers
// and trailing type codes are dropped.
func describe(tokens []token, sel selection, rules amountRules) string {
	words := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		switch tok.kind {
		case kindDate, kindDateFragment, kindMonthYear, kindAmount:
			continue
		case kindNumber:
			if tok.value == sel.value || rules.isDocumentNumber(tok) {
				continue
			}
		case kindWord:
			if i == 0 && locationTokens[strings.ToLower(tok.text)] {
				continue
			}
		}
		words = append(words, tok.text)
	}
	for len(words) > 0 && typeCodes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// firstDate returns the first full date token.
func firstDate(tokens []token) (time.Time, bool) {
	for _, tok := range tokens {
		if tok.kind == kindDate {
			return tok.date, true
		}
	}
	return time.Time{}, false
}

// usableDescription rejects residues that are empty, hold no letters or
// are only a code or location marker.
func usableDescription(description string) bool {
	description = strings.TrimSpace(description)
	if description == "" || !strings.ContainsFunc(description, unicode.IsLetter) {
		return false
	}
	if typeCodes[description] || locationTokens[strings.ToLower(description)] {
		return false
	}
	return true
}

// containsAny reports whether the folded text holds any folded term.
func containsAny(text string, terms []string) bool {
	folded := common.Fold(text)
	for _, term := range terms {
		if strings.Contains(folded, term) {
			return true
		}
	}
	return false
}
