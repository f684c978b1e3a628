package classification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

var testNow = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *rules.Store {
	t.Helper()
	return rules.NewStore(model.NewRuleDocument("org-test", testNow), nil,
		rules.WithClock(func() time.Time { return testNow }))
}

func amountPtr(v int64) *int64 { return &v }

func TestClassify_Cascade(t *testing.T) {
	c := New(newTestStore(t), DefaultTaxonomy())

	tests := []struct {
		amount         *int64
		name           string
		description    string
		wantCategory   string
		wantStage      model.ClassificationStage
		wantConfidence int
	}{
		{
			name:           "keyword prefix and word",
			description:    "Colmena golden cross",
			wantCategory:   "Salud y Médicos",
			wantStage:      model.StageKeyword,
			wantConfidence: 75,
		},
		{
			name:           "nothing accepts",
			description:    "Mercadopago *sociedad",
			wantCategory:   model.OtherCategory,
			wantStage:      model.StageDefault,
			wantConfidence: DefaultConfidence,
		},
		{
			name:           "exact keyword is capped",
			description:    "NETFLIX",
			wantCategory:   "Entretenimiento",
			wantStage:      model.StageKeyword,
			wantConfidence: 100,
		},
		{
			name:           "accent insensitive keyword",
			description:    "Clínica Santa María",
			wantCategory:   "Salud y Médicos",
			wantStage:      model.StageKeyword,
			wantConfidence: 75,
		},
		{
			name:           "store name alone reaches threshold",
			description:    "Compra falabella plaza vespucio",
			wantCategory:   "Compras",
			wantStage:      model.StageKeyword,
			wantConfidence: 60,
		},
		{
			name:           "income vocabulary with positive amount",
			description:    "Reintegro seguro",
			amount:         amountPtr(12_000),
			wantCategory:   "Ingresos",
			wantStage:      model.StageAmount,
			wantConfidence: 75,
		},
		{
			name:           "fuel station in range",
			description:    "Estacion Aramco Los Leones",
			amount:         amountPtr(-35_000),
			wantCategory:   "Transporte",
			wantStage:      model.StageAmount,
			wantConfidence: 60,
		},
		{
			name:           "fuel station without amount",
			description:    "Estacion Aramco Los Leones",
			wantCategory:   model.OtherCategory,
			wantStage:      model.StageDefault,
			wantConfidence: DefaultConfidence,
		},
		{
			name:           "fuel station out of range",
			description:    "Estacion Aramco Los Leones",
			amount:         amountPtr(-500),
			wantCategory:   model.OtherCategory,
			wantStage:      model.StageDefault,
			wantConfidence: DefaultConfidence,
		},
		{
			name:           "utility heuristic below threshold falls to default",
			description:    "Pago Essbio Concepcion",
			amount:         amountPtr(-25_000),
			wantCategory:   model.OtherCategory,
			wantStage:      model.StageDefault,
			wantConfidence: DefaultConfidence,
		},
		{
			name:           "large income below threshold falls to default",
			description:    "Pago cliente Acme",
			amount:         amountPtr(800_000),
			wantCategory:   model.OtherCategory,
			wantStage:      model.StageDefault,
			wantConfidence: DefaultConfidence,
		},
		{
			name:           "large unknown deposit",
			description:    "Mercadopago *sociedad",
			amount:         amountPtr(600_000),
			wantCategory:   model.OtherCategory,
			wantStage:      model.StageDefault,
			wantConfidence: DefaultConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.description, tt.amount)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantStage, got.Stage)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestClassify_DefaultReason(t *testing.T) {
	c := New(nil, nil)
	got := c.Classify("Mercadopago *sociedad", nil)
	assert.Equal(t, "no specific pattern found", got.Reason)
}

func TestClassify_AmountReason(t *testing.T) {
	c := New(nil, nil)
	got := c.Classify("Estacion Aramco Los Leones", amountPtr(-35_000))
	assert.Equal(t, "amount heuristic fuel (-35.000)", got.Reason)
}

func TestClassify_TransferException(t *testing.T) {
	c := New(nil, DefaultTaxonomy())
	got := c.Classify("Transf a Juan Perez", nil)
	assert.Equal(t, "Transferencias", got.Category)
	assert.Equal(t, model.StageKeyword, got.Stage)
	assert.Equal(t, 80, got.Confidence)
}

func TestClassify_LearnedPatternWins(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := New(store, DefaultTaxonomy())

	_, err := c.Learn(ctx, "Mercadopago", "Compras")
	require.NoError(t, err)

	got := c.Classify("MERCADOPAGO *SOCIEDAD", nil)
	assert.Equal(t, "Compras", got.Category)
	assert.Equal(t, LearnedConfidence, got.Confidence)
	assert.Equal(t, model.StageLearned, got.Stage)

	// Learned patterns are checked before keywords.
	_, err = c.Learn(ctx, "colmena", "Otros")
	require.NoError(t, err)
	assert.Equal(t, model.OtherCategory, c.Classify("Colmena golden cross", nil).Category)
}

func TestClassify_LearnedInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := New(store, DefaultTaxonomy())

	_, err := c.Learn(ctx, "uber", "Transporte")
	require.NoError(t, err)
	_, err = c.Learn(ctx, "uber eats", "Alimentación")
	require.NoError(t, err)

	assert.Equal(t, "Transporte", c.Classify("Uber Eats Pedido", nil).Category)
}

func TestLearn_UnknownCategory(t *testing.T) {
	store := newTestStore(t)
	c := New(store, DefaultTaxonomy())

	_, err := c.Learn(context.Background(), "viaje", "Viajes")
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
	assert.Empty(t, store.LearnedPatterns())
}

func TestLearn_Overwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := New(store, DefaultTaxonomy())

	_, err := c.Learn(ctx, "jumbo", "Compras")
	require.NoError(t, err)
	learned, err := c.Learn(ctx, "JUMBO", "Alimentación")
	require.NoError(t, err)

	assert.Equal(t, "jumbo", learned.Pattern)
	assert.Equal(t, LearnSource, learned.Source)
	patterns := store.LearnedPatterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, "Alimentación", patterns[0].Category)
}

func TestClassify_FuzzyFirstMatch(t *testing.T) {
	taxonomy, err := NewTaxonomy(
		model.CategoryDefinition{Name: "Barrio Sur", Examples: []string{"tienda sur"}},
		model.CategoryDefinition{Name: "Barrio Norte", Examples: []string{"tienda norte"}},
		model.CategoryDefinition{Name: "Mascotas", Examples: []string{"veterinaria san francisco"}},
	)
	require.NoError(t, err)
	c := New(nil, taxonomy)

	got := c.Classify("tienda norte", nil)
	assert.Equal(t, "Barrio Sur", got.Category, "first example over the floor wins, not the closest")
	assert.Equal(t, model.StageFuzzy, got.Stage)
	assert.Equal(t, 33, got.Confidence)

	got = c.Classify("Veterinario San Fransisco", nil)
	assert.Equal(t, "Mascotas", got.Category)
	assert.Equal(t, 46, got.Confidence)
	assert.Contains(t, got.Reason, "veterinaria san francisco")
}

func TestClassify_KeywordTieKeepsTaxonomyOrder(t *testing.T) {
	taxonomy, err := NewTaxonomy(
		model.CategoryDefinition{Name: "Primero", Keywords: []string{"cafe"}},
		model.CategoryDefinition{Name: "Segundo", Keywords: []string{"café"}},
		model.CategoryDefinition{Name: model.OtherCategory, Keywords: []string{"cafe", "cafeteria"}},
	)
	require.NoError(t, err)
	c := New(nil, taxonomy)

	got := c.Classify("Cafe", nil)
	assert.Equal(t, "Primero", got.Category)

	// Primero scores 45 here, below the threshold; a scored Otros would win.
	got = c.Classify("Cafeteria", nil)
	assert.Equal(t, model.OtherCategory, got.Category)
	assert.Equal(t, model.StageDefault, got.Stage, "the reserved category is never keyword scored")
}

func TestClassifyBatch(t *testing.T) {
	taxonomy, err := NewTaxonomy(
		model.CategoryDefinition{Name: "Salud", Keywords: []string{"farmacia"}, Color: "#F44336", Icon: "🏥"},
		model.CategoryDefinition{Name: "Sin Color", Keywords: []string{"kiosko"}},
	)
	require.NoError(t, err)
	c := New(nil, taxonomy)

	date := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	input := []model.Transaction{
		{Date: date, Description: "Farmacia del barrio", Amount: -5_000, Type: model.TypePurchase},
		{Date: date, Description: "Kiosko", Amount: -1_200, Type: model.TypePurchase},
		{Date: date, Description: "Mercadopago *sociedad", Amount: -9_990, Type: model.TypePurchase},
	}

	out := c.ClassifyBatch(input)
	require.Len(t, out, 3)

	assert.Equal(t, "Salud", out[0].Category)
	assert.Equal(t, "#F44336", out[0].CategoryColor)
	assert.Equal(t, "🏥", out[0].CategoryIcon)

	assert.Equal(t, "Sin Color", out[1].Category)
	assert.Equal(t, model.DefaultCategoryColor, out[1].CategoryColor)
	assert.Equal(t, model.DefaultCategoryIcon, out[1].CategoryIcon)

	assert.Equal(t, model.OtherCategory, out[2].Category)
	assert.Equal(t, DefaultConfidence, out[2].CategoryConfidence)

	assert.Empty(t, input[0].Category, "input transactions are not modified")
}

func TestScoreKeyword(t *testing.T) {
	tests := []struct {
		desc    string
		keyword string
		want    int
	}{
		{"colmena golden cross", "colmena", 75},
		{"netflix", "netflix", 105},
		{"compra falabella", "falabella", 60},
		{"transferencia a maria", "transf", 65},
		{"pago transf", "transf", 45},
		{"superjumbo", "jumbo", 25},
		{"pago luz", "agua", 0},
		{"farmacia", "", 0},
		{"servicio integral de aseo completo", "servicio integral de aseo", 90},
	}

	for _, tt := range tests {
		t.Run(tt.desc+"/"+tt.keyword, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreKeyword(tt.desc, tt.keyword))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("abc", "abc"), 1e-9)
	assert.InDelta(t, 1.0, similarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, similarity("abc", ""), 1e-9)
	assert.InDelta(t, 2.0/3.0, similarity("abc", "abd"), 1e-9)
}
