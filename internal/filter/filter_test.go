package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

func newStore(t *testing.T) *rules.Store {
	t.Helper()
	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("f-%d", seq)
	}
	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	return rules.NewStore(rules.DefaultDocument("org", now, newID), nil, rules.WithIDGenerator(newID))
}

// fakeSource serves a fixed rule list.
type fakeSource struct {
	used  map[string]int
	rules []model.FilterRule
}

func (f *fakeSource) FilterRules(string) []model.FilterRule { return f.rules }
func (f *fakeSource) RecordUsage(id string)                 { f.used[id]++ }

func TestShouldSkip_PageMarkerUnderEveryScope(t *testing.T) {
	engine := New(newStore(t))
	for _, bank := range []string{"", "global", rules.BankFalabella, rules.BankSantander, "banco estado"} {
		t.Run(bank, func(t *testing.T) {
			for _, line := range []string{"Página 1 de 3", "PAGINA 2", "resumen página 4 de 4"} {
				decision := engine.ShouldSkip(line, bank)
				require.True(t, decision.Skip, line)
				require.NotNil(t, decision.Rule)
				assert.Equal(t, model.GlobalScope, decision.Rule.Scope)
			}
		})
	}
}

func TestShouldSkip_MatchTypes(t *testing.T) {
	source := &fakeSource{used: map[string]int{}, rules: []model.FilterRule{
		{ID: "contains", MatchType: model.MatchContains, Pattern: "Intereses", Active: true},
		{ID: "starts", MatchType: model.MatchStarts, Pattern: "total", Active: true},
		{ID: "ends", MatchType: model.MatchEnds, Pattern: "cmr", Active: true},
		{ID: "exact", MatchType: model.MatchExact, Pattern: "Detalle de movimientos", Active: true},
		{ID: "regex", MatchType: model.MatchRegex, Pattern: `^\d+ de \d+$`, Active: true},
		{ID: "inactive", MatchType: model.MatchContains, Pattern: "compra", Active: false},
	}}
	engine := New(source)

	tests := []struct {
		line   string
		wantID string
	}{
		{line: "Cargo por INTERÉSES rotativos", wantID: "contains"},
		{line: "  TOTAL OPERACIONES 123.456", wantID: "starts"},
		{line: "Pago recibido CMR", wantID: "ends"},
		{line: "detalle de movimientos", wantID: "exact"},
		{line: "3 DE 10", wantID: "regex"},
		{line: "27/07/2025 Compra falabella 37.905", wantID: ""},
		{line: "detalle de movimientos del mes", wantID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			decision := engine.ShouldSkip(tt.line, "falabella")
			if tt.wantID == "" {
				assert.False(t, decision.Skip)
				assert.Nil(t, decision.Rule)
				return
			}
			require.True(t, decision.Skip)
			assert.Equal(t, tt.wantID, decision.Rule.ID)
		})
	}
	assert.Equal(t, 1, source.used["contains"])
	assert.Zero(t, source.used["inactive"])
}

func TestShouldSkip_FirstMatchWins(t *testing.T) {
	source := &fakeSource{used: map[string]int{}, rules: []model.FilterRule{
		{ID: "first", MatchType: model.MatchContains, Pattern: "saldo", Active: true},
		{ID: "second", MatchType: model.MatchStarts, Pattern: "saldo", Active: true},
	}}
	decision := New(source).ShouldSkip("saldo anterior 10.000", "santander")
	require.True(t, decision.Skip)
	assert.Equal(t, "first", decision.Rule.ID)
	assert.Zero(t, source.used["second"])
}

func TestShouldSkip_InvalidRegexNeverMatches(t *testing.T) {
	source := &fakeSource{used: map[string]int{}, rules: []model.FilterRule{
		{ID: "broken", MatchType: model.MatchRegex, Pattern: `([a-z`, Active: true},
		{ID: "ok", MatchType: model.MatchContains, Pattern: "seguro", Active: true},
	}}
	engine := New(source)

	for i := 0; i < 3; i++ {
		decision := engine.ShouldSkip("([a-z seguro", "")
		require.True(t, decision.Skip)
		assert.Equal(t, "ok", decision.Rule.ID)
	}
	assert.Contains(t, engine.regexes, `([a-z`)
	assert.Nil(t, engine.regexes[`([a-z`])
}

func TestShouldSkip_BankRulesDoNotLeak(t *testing.T) {
	store := newStore(t)
	engine := New(store)

	assert.True(t, engine.ShouldSkip("Costo monetario prepago 1.234", rules.BankFalabella).Skip)
	assert.False(t, engine.ShouldSkip("Costo monetario prepago 1.234", rules.BankSantander).Skip)

	usage := store.Usage()
	assert.Len(t, usage, 1)
}

func TestShouldSkip_Predicates(t *testing.T) {
	engine := New(nil, MinLength(8), RequireLetterAndDigit())

	decision := engine.ShouldSkip("abc", "")
	assert.True(t, decision.Skip)
	assert.Equal(t, "min-length", decision.Predicate)

	decision = engine.ShouldSkip("solo texto sin cifras", "")
	assert.True(t, decision.Skip)
	assert.Equal(t, "letter-and-digit", decision.Predicate)

	assert.False(t, engine.ShouldSkip("01/08 Compra 1.000", "").Skip)

	var nilEngine *Engine
	assert.False(t, nilEngine.ShouldSkip("Página 1", "").Skip)
}
