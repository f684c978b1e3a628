package rules

import (
	"time"

	"github.com/Veraticus/cartola/internal/model"
)

// Bank scopes used by the built-in statement formats.
const (
	BankFalabella = "falabella"
	BankSantander = "santander"
)

type filterSeed struct {
	matchType   model.FilterMatchType
	pattern     string
	description string
}

type correctionSeed struct {
	matchType       model.CorrectionMatchType
	pattern         string
	replacement     string
	description     string
	caseInsensitive bool
}

var defaultGlobalFilters = []filterSeed{
	{model.MatchContains, "página", "Page markers"},
	{model.MatchStarts, "total ", "Section totals"},
	{model.MatchContains, "saldo anterior", "Opening balance"},
	{model.MatchContains, "saldo inicial", "Opening balance"},
	{model.MatchContains, "saldo final", "Closing balance"},
	{model.MatchContains, "monto facturado", "Billed amount summary"},
	{model.MatchContains, "periodo facturado", "Billing period header"},
	{model.MatchContains, "cupo disponible", "Credit line summary"},
	{model.MatchContains, "tasa de interés", "Interest rate disclosure"},
	{model.MatchRegex, `^\s*fecha\s+(de\s+)?(operaci[oó]n|descripci[oó]n|movimiento)`, "Table headers"},
}

var defaultBankFilters = map[string][]filterSeed{
	BankFalabella: {
		{model.MatchContains, "costo monetario prepago", "Prepayment cost disclosure"},
		{model.MatchStarts, "cmr puntos", "Loyalty points summary"},
	},
	BankSantander: {
		{model.MatchContains, "resumen de comisiones", "Fee summary block"},
		{model.MatchContains, "saldo disponible", "Available balance footer"},
	},
}

var defaultCorrections = map[string][]correctionSeed{
	model.GlobalScope: {
		{matchType: model.CorrectCleanup, description: "Collapse whitespace and strip trailing codes"},
	},
	BankSantander: {
		{model.CorrectWord, "merpago", "Mercadopago", "Expand Mercadopago prefix", true},
	},
}

// DefaultDocument returns the seed rule set for a new organization.
func DefaultDocument(organizationID string, now time.Time, newID func() string) *model.RuleDocument {
	doc := model.NewRuleDocument(organizationID, now)

	filter := func(scope string, seed filterSeed) model.FilterRule {
		return model.FilterRule{
			ID:          newID(),
			Scope:       scope,
			MatchType:   seed.matchType,
			Pattern:     seed.pattern,
			Description: seed.description,
			Active:      true,
			CreatedAt:   now,
		}
	}

	for _, seed := range defaultGlobalFilters {
		doc.GlobalRules = append(doc.GlobalRules, filter(model.GlobalScope, seed))
	}
	for _, bank := range []string{BankFalabella, BankSantander} {
		for _, seed := range defaultBankFilters[bank] {
			doc.BankSpecificRules[bank] = append(doc.BankSpecificRules[bank], filter(bank, seed))
		}
	}

	for _, scope := range []string{model.GlobalScope, BankSantander} {
		for _, seed := range defaultCorrections[scope] {
			doc.DescriptionCorrections[scope] = append(doc.DescriptionCorrections[scope], model.CorrectionRule{
				ID:              newID(),
				Scope:           scope,
				Pattern:         seed.pattern,
				Replacement:     seed.replacement,
				MatchType:       seed.matchType,
				Description:     seed.description,
				CaseInsensitive: seed.caseInsensitive,
				Active:          true,
				CreatedAt:       now,
			})
		}
	}
	return doc
}
