package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func buildTable(t *testing.T, population int) *strategy.Table {
	t.Helper()
	b, err := strategy.NewBuilder(population, strategy.WithWorkers(2))
	require.NoError(t, err)
	table, err := b.Build(context.Background())
	require.NoError(t, err)
	return table
}

// #region store-tests
func TestLoadActive_Empty(t *testing.T) {
	s := tempDB(t)

	_, _, err := s.LoadActive()
	assert.ErrorIs(t, err, ErrMissingTable)
}

func TestSaveAndLoadActive(t *testing.T) {
	s := tempDB(t)
	want := buildTable(t, 4)

	rec, err := s.SaveTable(want)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.TableID)
	assert.Equal(t, 4, rec.Population)
	assert.Equal(t, want.Len(), rec.Signatures)
	assert.Equal(t, want.LayoutCount(), rec.Layouts)

	got, active, err := s.LoadActive()
	require.NoError(t, err)
	assert.Equal(t, rec.TableID, active.TableID)
	assert.True(t, active.Active)

	if diff := cmp.Diff(want.Document(), got.Document()); diff != "" {
		t.Errorf("loaded table mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveTable_NewVersionBecomesActive(t *testing.T) {
	s := tempDB(t)

	v1, err := s.SaveTable(buildTable(t, 3))
	require.NoError(t, err)
	v2, err := s.SaveTable(buildTable(t, 5))
	require.NoError(t, err)
	assert.NotEqual(t, v1.TableID, v2.TableID)

	_, active, err := s.LoadActive()
	require.NoError(t, err)
	assert.Equal(t, v2.TableID, active.TableID)
	assert.Equal(t, 5, active.Population)

	old, err := s.LoadTable(v1.TableID)
	require.NoError(t, err)
	assert.Equal(t, 3, old.Population)
}

func TestActivate(t *testing.T) {
	s := tempDB(t)

	v1, err := s.SaveTable(buildTable(t, 3))
	require.NoError(t, err)
	_, err = s.SaveTable(buildTable(t, 4))
	require.NoError(t, err)

	require.NoError(t, s.Activate(v1.TableID))
	id, err := s.ActiveID()
	require.NoError(t, err)
	assert.Equal(t, v1.TableID, id)

	err = s.Activate("no-such-version")
	assert.ErrorIs(t, err, ErrMissingTable)
	id, err = s.ActiveID()
	require.NoError(t, err)
	assert.Equal(t, v1.TableID, id, "failed activation must not move the pointer")
}

func TestLoadTable_Unknown(t *testing.T) {
	s := tempDB(t)

	_, err := s.LoadTable("missing")
	assert.ErrorIs(t, err, ErrMissingTable)
}

func TestListTables(t *testing.T) {
	s := tempDB(t)

	v1, err := s.SaveTable(buildTable(t, 3))
	require.NoError(t, err)
	v2, err := s.SaveTable(buildTable(t, 4))
	require.NoError(t, err)

	records, err := s.ListTables(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{v2.TableID, v1.TableID}, []string{records[0].TableID, records[1].TableID},
		"newest version first")
	for _, r := range records {
		assert.Equal(t, r.TableID == v2.TableID, r.Active, "version %s", r.TableID)
	}

	limited, err := s.ListTables(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, v2.TableID, limited[0].TableID)
}

func TestListTables_SubsecondOrder(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)

	// Inserted newest first so insertion order cannot mask the timestamp order.
	rows := []struct {
		id string
		at time.Time
	}{
		{"later", base.Add(120 * time.Millisecond)},
		{"earlier", base.Add(100 * time.Millisecond)},
		{"earliest", base},
	}
	for _, r := range rows {
		_, err := s.DB().Exec(
			`INSERT INTO strategy_tables (table_id, population, signatures, layouts, created_at) VALUES (?, 3, 0, 0, ?)`,
			r.id, r.at.Format(timeLayout),
		)
		require.NoError(t, err)
	}

	records, err := s.ListTables(10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "later", records[0].TableID)
	assert.Equal(t, "earlier", records[1].TableID)
	assert.Equal(t, "earliest", records[2].TableID)
	assert.True(t, records[0].CreatedAt.Equal(base.Add(120*time.Millisecond)))
}

func TestDB_SharesRunLog(t *testing.T) {
	s := tempDB(t)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM run_log").Scan(&count))
	assert.Zero(t, count)
}

// #endregion store-tests

// #region file-tests
func TestExportImportJSON(t *testing.T) {
	want := buildTable(t, 5)
	path := filepath.Join(t.TempDir(), "nested", "table.json")

	require.NoError(t, ExportJSON(path, want))

	got, err := ImportJSON(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want.Document(), got.Document()); diff != "" {
		t.Errorf("imported table mismatch (-want +got):\n%s", diff)
	}

	best, err := got.Best(got.StartSignature())
	require.NoError(t, err)
	assert.True(t, best.Informative())
}

func TestImportJSON_Missing(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrMissingTable)
}

func TestImportJSON_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := ImportJSON(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingTable)
}

func TestImportJSON_UnknownState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	doc := `{"population": 3, "signatures": {"UNRESOLVED-3": [{"group_a": ["PURPLE"], "group_b": ["UNRESOLVED"], "worst_case_steps": 2}]}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := ImportJSON(path)
	assert.Error(t, err)
}

// #endregion file-tests
