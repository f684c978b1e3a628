package parser

import (
	"time"

	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

// SantanderChecking reads Santander checking-account statements (cartolas).
// Dates are printed as DD/MM in the statement year, lines may carry a
// document number and a trailing balance column, and the sign comes from
// the description vocabulary.
type SantanderChecking struct {
	base
	dates  dateGrammar
	amount amountRules
}

// NewSantanderChecking returns the Santander checking-account parser. now
// supplies the year for DD/MM dates.
func NewSantanderChecking(skipper Skipper, corrector Corrector, now func() time.Time) *SantanderChecking {
	return &SantanderChecking{
		base: base{
			skipper:   skipper,
			corrector: corrector,
			info: FormatInfo{
				Name:          "santander-checking",
				Bank:          rules.BankSantander,
				Product:       ProductChecking,
				DateLayout:    "02/01",
				MinConfidence: 40,
			},
			signals: []signal{
				phrase("santander", 25),
				phrase("cuenta corriente", 25),
				phrase("cartola", 20),
				phrase("saldo disponible", 10),
				phrase("giros", 5),
				phrase("depósitos", 5),
				phrase("tarjeta de crédito", -20),
				phrase("falabella", -20),
			},
		},
		dates:  dayMonthDate(now),
		amount: amountRules{documentDigits: 6, dropBalance: true},
	}
}

// ParseLine implements Parser.
func (p *SantanderChecking) ParseLine(line string) (model.Transaction, bool) {
	if p.skip(line) {
		return model.Transaction{}, false
	}

	tokens := tokenize(line, p.dates)
	date, ok := firstDate(tokens)
	if !ok {
		return model.Transaction{}, false
	}
	sel, ok := selectAmount(p.amount.candidates(tokens))
	if !ok {
		return model.Transaction{}, false
	}
	description := describe(tokens, sel, p.amount)

	txType := checkingType(description)
	return p.finish(line, date, description, checkingSign(sel.value, txType), txType, lineConfidence(tokens, sel))
}
