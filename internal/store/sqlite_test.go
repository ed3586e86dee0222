package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestNewSQLite_InvalidDSN(t *testing.T) {
	_, err := NewSQLite(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestNewSQLite_CloseAndReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	run, err := st.CreateRun(ctx, testDoc("Persisted"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st2, err := NewSQLite(dbPath)
	require.NoError(t, err)
	defer st2.Close() //nolint:errcheck

	got, err := st2.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Document.Company)
}

type fakeResult struct {
	rowsAffected int64
	err          error
}

func (f *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (f *fakeResult) RowsAffected() (int64, error) { return f.rowsAffected, f.err }

func TestCheckRowsAffected(t *testing.T) {
	err := checkRowsAffected(&fakeResult{rowsAffected: 0}, "run", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found: abc")

	err = checkRowsAffected(&fakeResult{err: errors.New("driver gone")}, "run", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows affected")

	assert.NoError(t, checkRowsAffected(&fakeResult{rowsAffected: 1}, "run", "abc"))
}

func TestScanRun_CorruptDocumentJSON(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.db.ExecContext(ctx,
		`INSERT INTO runs (id, document, status) VALUES ('bad', '{not json', 'queued')`)
	require.NoError(t, err)

	_, err = st.GetRun(ctx, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal document")
}

func TestClose_OperationsAfterClose(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, st.Close())

	_, err := st.CreateRun(ctx, testDoc("Closed"))
	assert.Error(t, err)

	_, err = st.GetCachedExtraction(ctx, "k")
	assert.Error(t, err)
}
