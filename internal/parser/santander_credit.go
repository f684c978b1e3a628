package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

const (
	santanderDate   = `(\d{2}/\d{2}/\d{2})`
	santanderAmount = `(-?\d{1,3}(?:\.\d{3})+|-?\d+)`
)

// grammar is one line shape of the Santander credit-card statement.
type grammar struct {
	re   *regexp.Regexp
	name string
	// date, description and amount are submatch indexes.
	date, description, amount int
}

// Santander credit-card line shapes, tried in this order. The first that
// matches wins and the generic token parse runs when none do.
var santanderCreditGrammars = []grammar{
	{
		name:        "location-date",
		re:          regexp.MustCompile(`^([A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ .]*?)\s+` + santanderDate + `\s+(.+?)\s+` + santanderAmount + `$`),
		date:        2,
		description: 3,
		amount:      4,
	},
	{
		name:        "date-date",
		re:          regexp.MustCompile(`^` + santanderDate + `\s+` + santanderDate + `\s+(.+?)\s+` + santanderAmount + `$`),
		date:        1,
		description: 3,
		amount:      4,
	},
	{
		name:        "installments",
		re:          regexp.MustCompile(`^` + santanderDate + `\s+(.+?)\s+` + santanderAmount + `\s+(\d{1,2}/\d{1,2})$`),
		date:        1,
		description: 2,
		amount:      3,
	},
	{
		name:        "date-amount",
		re:          regexp.MustCompile(`^` + santanderDate + `\s+(.+?)\s+` + santanderAmount + `$`),
		date:        1,
		description: 2,
		amount:      3,
	},
}

// SantanderCredit reads Santander credit-card statements: DD/MM/YY dates,
// amounts printed as positive charges and payments marked with a minus.
type SantanderCredit struct {
	base
	dates  dateGrammar
	amount amountRules
}

// NewSantanderCredit returns the Santander credit-card parser.
func NewSantanderCredit(skipper Skipper, corrector Corrector) *SantanderCredit {
	return &SantanderCredit{
		base: base{
			skipper:   skipper,
			corrector: corrector,
			info: FormatInfo{
				Name:          "santander-credit",
				Bank:          rules.BankSantander,
				Product:       ProductCreditCard,
				DateLayout:    "02/01/06",
				MinConfidence: 40,
			},
			signals: []signal{
				phrase("santander", 25),
				phrase("tarjeta de crédito", 20),
				phrase("estado de cuenta", 10),
				phrase("monto facturado", 10),
				phrase("período facturado", 10),
				phrase("cupo", 5),
				pattern(`\b\d{2}/\d{2}/\d{2}\b`, 15),
				phrase("cuenta corriente", -20),
			},
		},
		dates: layoutDate("02/01/06"),
	}
}

// ParseLine implements Parser. Amounts keep their printed sign: charges are
// positive and payments negative.
func (p *SantanderCredit) ParseLine(line string) (model.Transaction, bool) {
	if p.skip(line) {
		return model.Transaction{}, false
	}

	normalized := normalizeLine(line)
	for i, g := range santanderCreditGrammars {
		m := g.re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		txn, ok := p.fromGrammar(line, m, g, 95-5*i)
		if ok {
			return txn, true
		}
	}
	return p.parseTokens(line)
}

func (p *SantanderCredit) fromGrammar(line string, m []string, g grammar, confidence int) (model.Transaction, bool) {
	date, ok := p.dates(m[g.date])
	if !ok {
		return model.Transaction{}, false
	}
	sel, ok := selectAmount(p.amount.candidates([]token{classify(m[g.amount], p.dates)}))
	if !ok {
		return model.Transaction{}, false
	}

	tokens := tokenize(m[g.description], p.dates)
	for _, tok := range tokens {
		if tok.value == sel.value && (tok.kind == kindAmount || tok.kind == kindNumber) {
			sel.repeats++
		}
	}
	description := describe(tokens, sel, p.amount)
	return p.signed(line, date, description, sel, confidence)
}

// parseTokens is the generic fallback for lines no grammar recognizes.
func (p *SantanderCredit) parseTokens(line string) (model.Transaction, bool) {
	tokens := tokenize(line, p.dates)
	date, ok := firstDate(tokens)
	if !ok {
		return model.Transaction{}, false
	}
	sel, ok := selectAmount(p.amount.candidates(tokens))
	if !ok {
		return model.Transaction{}, false
	}
	return p.signed(line, date, describe(tokens, sel, p.amount), sel, lineConfidence(tokens, sel)-10)
}

func (p *SantanderCredit) signed(line string, date time.Time, description string, sel selection, confidence int) (model.Transaction, bool) {
	if sel.minus {
		return p.finish(line, date, description, -sel.value, model.TypePayment, confidence)
	}
	txType := model.TypePurchase
	if containsAny(description, creditChargeTerms) {
		txType = model.TypeCharge
	}
	return p.finish(line, date, strings.TrimSpace(description), sel.value, txType, confidence)
}
