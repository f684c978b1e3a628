package parser

import (
	"strings"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
)

// typeRule maps description vocabulary to a transaction type. Rules are
// checked in order; deposit vocabulary comes first so that "transferencia
// de" is not read as an outgoing transfer.
type typeRule struct {
	txType model.TransactionType
	terms  []string
}

var checkingTypeRules = []typeRule{
	{txType: model.TypeDeposit, terms: []string{
		"abono", "deposito", "transferencia de", "transf de", "transf. de",
		"traspaso de", "remuneracion", "sueldo", "recibida", "devolucion", "reembolso",
	}},
	{txType: model.TypeCharge, terms: []string{
		"comision", "impuesto", "intereses", "mantencion", "seguro", "cargo por",
	}},
	{txType: model.TypePayment, terms: []string{
		"transferencia a", "transf a", "transf. a", "traspaso a", "pago", "giro", "cheque",
	}},
	{txType: model.TypePurchase, terms: []string{
		"compra", "redcompra", "pos ", "webpay",
	}},
}

// checkingType classifies a checking-account description. Unknown
// vocabulary is a purchase.
func checkingType(description string) model.TransactionType {
	folded := " " + common.Fold(description) + " "
	for _, rule := range checkingTypeRules {
		for _, term := range rule.terms {
			if strings.Contains(folded, wordTerm(term)) {
				return rule.txType
			}
		}
	}
	return model.TypePurchase
}

// wordTerm pads a term so it only matches at word starts.
func wordTerm(term string) string {
	return " " + term
}

// checkingSign returns the signed amount for a checking-account type.
func checkingSign(value int64, txType model.TransactionType) int64 {
	if txType == model.TypeDeposit {
		return value
	}
	return -value
}
