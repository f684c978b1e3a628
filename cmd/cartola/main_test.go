package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cartola/internal/cli"
	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/config"
	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
	"github.com/Veraticus/cartola/internal/storage"
)

var falabellaStatement = strings.Join([]string{
	"CMR Falabella",
	"Estado de Cuenta Tarjeta de Crédito",
	"S/I 27/07/2025 Compra falabella plaza vespucio T 37.905 37.905 01/01 sep-2025 37.905",
	"06/08/2025 Anulacion pago automatico abono T 17.040 -17.040 01/01 sep-2025 -17.040",
	"CMR Puntos acumulados 1.200",
}, "\n")

var ruleIDRe = regexp.MustCompile(`rule ([0-9a-f-]{36})`)

// testEnv points the CLI at a file rule store inside a temporary home.
type testEnv struct {
	t         *testing.T
	dir       string
	rulesFile string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set(config.KeyStoreBackend, config.BackendFile)
	viper.Set(config.KeyStoreFile, filepath.Join(dir, "rules.json"))
	viper.Set(config.KeyLogLevel, "error")

	return &testEnv{t: t, dir: dir, rulesFile: filepath.Join(dir, "rules.json")}
}

func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *testEnv) document() *model.RuleDocument {
	e.t.Helper()
	doc, err := rules.NewFilePersister(e.rulesFile).LoadDocument(context.Background(), "default")
	require.NoError(e.t, err)
	return doc
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("", "version")
	require.NoError(t, err)
	assert.Equal(t, "cartola dev\n", out)
}

func TestParseCommand_JSON(t *testing.T) {
	env := newTestEnv(t)
	statement := env.writeFile("statement.txt", falabellaStatement)

	out, err := env.run("", "parse", "--json", statement)
	require.NoError(t, err)

	var result struct {
		Format struct {
			Name string `json:"name"`
		} `json:"format"`
		Transactions []struct {
			Description string `json:"description"`
			Category    string `json:"category"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "falabella-credit", result.Format.Name)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "Compras", result.Transactions[0].Category)

	// The default rule set is seeded on first use.
	assert.FileExists(t, env.rulesFile)
}

func TestParseCommand_Table(t *testing.T) {
	env := newTestEnv(t)
	statement := env.writeFile("statement.txt", falabellaStatement)

	out, err := env.run("", "parse", "--no-progress", statement)
	require.NoError(t, err)
	assert.Contains(t, out, "falabella-credit")
	assert.Contains(t, out, "Compra falabella plaza vespucio")
	assert.Contains(t, out, "-$37.905")
	assert.Contains(t, out, "CATEGORY")
}

func TestParseCommand_UnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)
	statement := env.writeFile("notes.txt", "lista de compras\nleche pan huevos\n")

	_, err := env.run("", "parse", "--json", statement)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFormatNotRecognized)
	assert.Equal(t, "unsupported statement format", common.UserMessage(err))
}

func TestDetectCommand(t *testing.T) {
	env := newTestEnv(t)
	statement := env.writeFile("statement.txt", falabellaStatement)

	out, err := env.run("", "detect", statement)
	require.NoError(t, err)
	assert.Contains(t, out, "santander-checking")
	assert.Contains(t, out, "Selected falabella-credit")
}

func TestRulesCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("", "rules", "add-filter", "--scope", "Santander", "--match", "starts", "SALDO ANTERIOR")
	require.NoError(t, err)
	m := ruleIDRe.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	rule := findFilter(t, env.document(), id)
	assert.Equal(t, "santander", rule.Scope)
	assert.Equal(t, model.MatchStarts, rule.MatchType)
	assert.True(t, rule.Active)

	_, err = env.run("", "rules", "disable", id[:8])
	require.NoError(t, err)
	assert.False(t, findFilter(t, env.document(), id).Active)

	out, err = env.run("", "rules", "list", "--scope", "santander")
	require.NoError(t, err)
	assert.Contains(t, out, "SALDO ANTERIOR")
	assert.NotContains(t, out, "página", "global rules are not listed")

	_, err = env.run("", "rules", "delete", id)
	require.NoError(t, err)
	_, err = env.run("", "rules", "delete", id)
	assert.ErrorIs(t, err, common.ErrRuleNotFound)
}

func TestRulesCommands_InvalidRegex(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "rules", "add-filter", "--match", "regex", "([unclosed")
	assert.ErrorIs(t, err, common.ErrInvalidRuleDefinition)
}

func TestRulesCommands_CorrectionUpdate(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("", "rules", "add-correction", "--replacement", "Mercado Pago", "MERPAGO")
	require.NoError(t, err)
	m := ruleIDRe.FindStringSubmatch(out)
	require.Len(t, m, 2, out)

	_, err = env.run("", "rules", "update", m[1], "--replacement", "MercadoPago")
	require.NoError(t, err)

	var found bool
	for _, r := range env.document().DescriptionCorrections[model.GlobalScope] {
		if r.ID == m[1] {
			found = true
			assert.Equal(t, "MercadoPago", r.Replacement)
			assert.Equal(t, "MERPAGO", r.Pattern)
		}
	}
	assert.True(t, found)

	out, err = env.run("", "classify", "--bank", "falabella", "--json", "MERPAGO", "Jumbo")
	require.NoError(t, err)
	assert.Contains(t, out, `"description": "MercadoPago Jumbo"`)
}

func TestRulesExportImport(t *testing.T) {
	env := newTestEnv(t)

	exported := filepath.Join(env.dir, "export.json")
	_, err := env.run("", "rules", "export", "-o", exported)
	require.NoError(t, err)
	assert.FileExists(t, exported)

	_, err = env.run("", "rules", "import", exported)
	require.NoError(t, err)

	before := env.document().RuleCount()
	broken := env.writeFile("broken.json", `{"globalRules": []}`)
	_, err = env.run("", "rules", "import", broken)
	assert.ErrorIs(t, err, common.ErrMalformedRuleDocument)
	assert.Equal(t, before, env.document().RuleCount())
}

func TestRulesUsage_FileBackend(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "rules", "usage")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestRulesFile_OtherOrganization(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "rules", "list")
	require.NoError(t, err)
	before, err := os.ReadFile(env.rulesFile)
	require.NoError(t, err)

	_, err = env.run("", "--org", "acme", "rules", "list")
	require.ErrorIs(t, err, common.ErrOrganizationMismatch)
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	after, err := os.ReadFile(env.rulesFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPatternsAndClassify(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("", "classify", "--json", "Mercadopago *sociedad")
	require.NoError(t, err)
	assert.Equal(t, model.OtherCategory, classifiedCategory(t, out))

	_, err = env.run("", "patterns", "learn", "Mercadopago", "Compras")
	require.NoError(t, err)

	out, err = env.run("", "classify", "--json", "MERCADOPAGO *SOCIEDAD")
	require.NoError(t, err)
	assert.Equal(t, "Compras", classifiedCategory(t, out))

	out, err = env.run("", "patterns", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "mercadopago")

	_, err = env.run("", "patterns", "learn", "latam", "Viajes")
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
}

func TestClassifyCommand_Amount(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("", "classify", "--json", "--amount", "-35000", "Estacion Aramco Los Leones")
	require.NoError(t, err)
	assert.Equal(t, "Transporte", classifiedCategory(t, out))
}

func TestReviewCommand(t *testing.T) {
	env := newTestEnv(t)
	statement := env.writeFile("statement.txt", falabellaStatement)

	// Only the reversal is below the threshold. Choose the first category
	// and accept the proposed pattern.
	out, err := env.run("1\n\n", "review", statement)
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 transactions to review")
	assert.Contains(t, out, "Learned:  1")

	learned := env.document().LearnedPatterns
	require.Len(t, learned, 1)
	assert.Equal(t, "anulacion pago", learned[0].Pattern)
	assert.Equal(t, "Alimentación", learned[0].Category)
}

// cancelAfterReader serves input once, then cancels the command's context
// and blocks like a terminal waiting for the next keystroke.
type cancelAfterReader struct {
	input  *strings.Reader
	cancel context.CancelFunc
	block  chan struct{}
}

func (r *cancelAfterReader) Read(p []byte) (int, error) {
	if r.input.Len() > 0 {
		return r.input.Read(p)
	}
	r.cancel()
	<-r.block
	return 0, io.EOF
}

func TestReviewCommand_InterruptKeepsDecisions(t *testing.T) {
	env := newTestEnv(t)
	dbPath := filepath.Join(env.dir, "cartola.db")
	viper.Set(config.KeyStoreBackend, config.BackendSQLite)
	viper.Set(config.KeyDatabasePath, dbPath)
	statement := env.writeFile("statement.txt", falabellaStatement)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stdin := &cancelAfterReader{input: strings.NewReader("1\n\n"), cancel: cancel, block: make(chan struct{})}
	t.Cleanup(func() { close(stdin.block) })

	// The first transaction is decided, the interrupt arrives while the
	// second one waits for input.
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(stdin)
	cmd.SetArgs([]string{"review", "--all", statement})
	err := cmd.ExecuteContext(ctx)
	require.ErrorIs(t, err, cli.ErrInputCancelled)
	assert.Contains(t, out.String(), "Learned:  1")

	db, err := storage.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()
	doc, err := db.LoadDocument(context.Background(), "default")
	require.NoError(t, err)
	require.Len(t, doc.LearnedPatterns, 1)
	assert.Equal(t, "compra falabella", doc.LearnedPatterns[0].Pattern)
	assert.Equal(t, "Alimentación", doc.LearnedPatterns[0].Category)
}

func TestSuggestCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("", "suggest", "Netflix Netflix")
	require.NoError(t, err)
	assert.Contains(t, out, "Suggested correction")

	out, err = env.run("", "suggest", "Farmacia Ahumada")
	require.NoError(t, err)
	assert.Contains(t, out, "No correction suggested")
}

func TestCategoriesCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("", "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Salud y Médicos")
	assert.Contains(t, out, model.OtherCategory)

	out, err = env.run("", "categories", "show", "Salud y Médicos")
	require.NoError(t, err)
	assert.Contains(t, out, "colmena")

	_, err = env.run("", "categories", "show", "Viajes")
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
}

func TestCategoriesFromFile(t *testing.T) {
	env := newTestEnv(t)
	viper.Set(config.KeyCategoriesFile, env.writeFile("categories.yaml", "Viajes:\n  keywords: [latam]\n"))

	out, err := env.run("", "classify", "--json", "LATAM")
	require.NoError(t, err)
	assert.Equal(t, "Viajes", classifiedCategory(t, out))
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t)
	viper.Set(config.KeyStoreBackend, config.BackendSQLite)
	viper.Set(config.KeyDatabasePath, filepath.Join(env.dir, "cartola.db"))

	out, err := env.run("", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations pending")

	_, err = env.run("", "migrate")
	require.NoError(t, err)

	out, err = env.run("", "migrate", "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Migrations pending")

	_, err = env.run("", "rules", "usage")
	require.NoError(t, err)
}

func findFilter(t *testing.T, doc *model.RuleDocument, id string) model.FilterRule {
	t.Helper()
	for _, list := range doc.BankSpecificRules {
		for _, r := range list {
			if r.ID == id {
				return r
			}
		}
	}
	for _, r := range doc.GlobalRules {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("filter rule %s not found", id)
	return model.FilterRule{}
}

func classifiedCategory(t *testing.T, out string) string {
	t.Helper()
	var payload struct {
		Classification model.Classification `json:"classification"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	return payload.Classification.Category
}

func TestEnvFile(t *testing.T) {
	env := newTestEnv(t)
	t.Cleanup(func() { _ = os.Unsetenv("CARTOLA_STORE_ORGANIZATION") })
	envFile := env.writeFile("cartola.env", "CARTOLA_STORE_ORGANIZATION=acme\n")

	out, err := env.run("", "--env-file", envFile, "rules", "export")
	require.NoError(t, err)
	assert.Contains(t, out, `"organizationId": "acme"`)

	_, err = env.run("", "--env-file", filepath.Join(env.dir, "missing.env"), "version")
	assert.Error(t, err)
}
