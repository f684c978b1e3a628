package parser

import (
	"time"

	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

// FalabellaChecking reads Banco Falabella checking-account statements.
// Dates are DD/MM/YYYY or DD/MM in the statement year. A minus-marked
// amount is always a debit; otherwise the description vocabulary decides.
type FalabellaChecking struct {
	base
	dates  dateGrammar
	amount amountRules
}

// NewFalabellaChecking returns the Banco Falabella checking-account parser.
func NewFalabellaChecking(skipper Skipper, corrector Corrector, now func() time.Time) *FalabellaChecking {
	return &FalabellaChecking{
		base: base{
			skipper:   skipper,
			corrector: corrector,
			info: FormatInfo{
				Name:          "falabella-checking",
				Bank:          rules.BankFalabella,
				Product:       ProductChecking,
				DateLayout:    "02/01/2006",
				MinConfidence: 40,
			},
			signals: []signal{
				phrase("banco falabella", 30),
				phrase("cuenta corriente", 20),
				phrase("cuenta vista", 15),
				phrase("cartola", 15),
				phrase("cmr", -15),
				phrase("tarjeta de crédito", -20),
				phrase("santander", -20),
			},
		},
		dates:  anyDate(layoutDate("02/01/2006"), dayMonthDate(now)),
		amount: amountRules{documentDigits: 6, dropBalance: true},
	}
}

// ParseLine implements Parser.
func (p *FalabellaChecking) ParseLine(line string) (model.Transaction, bool) {
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
	amount := checkingSign(sel.value, txType)
	if sel.minus {
		amount = -sel.value
		if txType == model.TypeDeposit {
			txType = model.TypePayment
		}
	}
	return p.finish(line, date, description, amount, txType, lineConfidence(tokens, sel))
}
