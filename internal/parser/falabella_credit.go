package parser

import (
	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

// Reversal vocabulary. A reversal is always an expense on a CMR statement,
// whatever sign the amount carries.
var reversalTerms = []string{"anulacion", "reversa", "reverso", "devolucion", "cancelacion"}

// Fee vocabulary on credit-card statements.
var creditChargeTerms = []string{"comision", "intereses", "impuesto", "seguro", "cargo por", "mantencion"}

// FalabellaCredit reads CMR Falabella credit-card statements.
//
// Lines look like
//
//	S/I 27/07/2025 Compra falabella plaza vespucio T 37.905 37.905 01/01 sep-2025 37.905
//
// with an optional location, a DD/MM/YYYY date, the description, the
// cardholder code and the amount printed once per column.
type FalabellaCredit struct {
	base
	dates  dateGrammar
	amount amountRules
}

// NewFalabellaCredit returns the CMR credit-card parser.
func NewFalabellaCredit(skipper Skipper, corrector Corrector) *FalabellaCredit {
	return &FalabellaCredit{
		base: base{
			skipper:   skipper,
			corrector: corrector,
			info: FormatInfo{
				Name:          "falabella-credit",
				Bank:          rules.BankFalabella,
				Product:       ProductCreditCard,
				DateLayout:    "02/01/2006",
				MinConfidence: 40,
			},
			signals: []signal{
				phrase("cmr", 25),
				phrase("falabella", 20),
				phrase("estado de cuenta", 15),
				phrase("tarjeta de crédito", 15),
				phrase("cmr puntos", 10),
				phrase("costo monetario prepago", 15),
				pattern(`\b\d{2}/\d{2}/\d{4}\b`, 10),
				phrase("cuenta corriente", -15),
			},
		},
		dates: layoutDate("02/01/2006"),
	}
}

// ParseLine implements Parser. Unmarked amounts are purchases (negative),
// minus-marked amounts are payments or credits (positive) and reversals
// are always negative.
func (p *FalabellaCredit) ParseLine(line string) (model.Transaction, bool) {
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

	amount := -sel.value
	txType := model.TypePurchase
	switch {
	case containsAny(description, reversalTerms):
	case sel.minus:
		amount = sel.value
		txType = model.TypePayment
	case containsAny(description, creditChargeTerms):
		txType = model.TypeCharge
	}

	return p.finish(line, date, description, amount, txType, lineConfidence(tokens, sel))
}

// lineConfidence rates how well a line fits the columnar layout.
func lineConfidence(tokens []token, sel selection) int {
	confidence := 70
	if len(tokens) > 0 && tokens[0].kind == kindDate {
		confidence += 10
	} else if len(tokens) > 1 && tokens[1].kind == kindDate {
		confidence += 5
	}
	if sel.repeats >= 2 {
		confidence += 15
	}
	return confidence
}
