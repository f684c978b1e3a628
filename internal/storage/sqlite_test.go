package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cartola/internal/common"
	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

// createTestStorage opens a migrated database in a temp directory.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDocument(org string) *model.RuleDocument {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	return rules.DefaultDocument(org, now, func() string {
		seq++
		return org + "-" + string(rune('a'+seq))
	})
}

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var tables int
	err = store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name IN ('rule_documents', 'rule_usage')
	`).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 2, tables)
}

func TestNewSQLiteStorage_RejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestLoadDocument_NotFound(t *testing.T) {
	store := createTestStorage(t)
	_, err := store.LoadDocument(context.Background(), "missing-org")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveDocument_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	doc := testDocument("acme")

	require.NoError(t, store.SaveDocument(ctx, doc))
	loaded, err := store.LoadDocument(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	doc.LearnedPatterns = append(doc.LearnedPatterns, model.LearnedPattern{
		Pattern:   "colmena",
		Category:  "Salud y Médicos",
		Source:    "user",
		Timestamp: doc.Metadata.CreatedAt,
	})
	require.NoError(t, store.SaveDocument(ctx, doc))

	loaded, err = store.LoadDocument(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, loaded.LearnedPatterns, 1)
	assert.Equal(t, "colmena", loaded.LearnedPatterns[0].Pattern)
}

func TestSaveDocument_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveDocument(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, store.SaveDocument(ctx, model.NewRuleDocument("", time.Now())), ErrEmptyString)
}

func TestRecordRuleUsage_Accumulates(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRuleUsage(ctx, "acme", map[string]int{"r1": 2, "r2": 1}))
	require.NoError(t, store.RecordRuleUsage(ctx, "acme", map[string]int{"r2": 5, "r3": 0}))
	require.NoError(t, store.RecordRuleUsage(ctx, "other", map[string]int{"r1": 9}))
	require.NoError(t, store.RecordRuleUsage(ctx, "acme", nil))

	usage, err := store.RuleUsage(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "r2", usage[0].RuleID)
	assert.Equal(t, 6, usage[0].Count)
	assert.Equal(t, "r1", usage[1].RuleID)
	assert.Equal(t, 2, usage[1].Count)
	assert.False(t, usage[0].LastMatchedAt.IsZero())
}

func TestStoreIntegration_FlushesUsageOnSave(t *testing.T) {
	db := createTestStorage(t)
	ctx := context.Background()

	clock := rules.WithClock(func() time.Time { return time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC) })
	store, err := rules.Load(ctx, db, "acme", clock)
	require.NoError(t, err)

	id := store.FilterRules("")[0].ID
	store.RecordUsage(id)
	store.RecordUsage(id)
	require.NoError(t, store.Save(ctx))
	assert.Empty(t, store.Usage())

	usage, err := db.RuleUsage(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, id, usage[0].RuleID)
	assert.Equal(t, 2, usage[0].Count)

	reloaded, err := rules.Load(ctx, db, "acme", clock)
	require.NoError(t, err)
	assert.Equal(t, store.FilterRules(rules.BankFalabella), reloaded.FilterRules(rules.BankFalabella))
}
