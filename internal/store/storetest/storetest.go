// Package storetest builds settings stores on disk for tests.
package storetest

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type Row struct {
	Key   string
	Value string
}

// Create writes a store at path with an ItemTable holding rows, using the
// same schema editors create.
func Create(t testing.TB, path string, rows ...Row) {
	t.Helper()

	Exec(t, path, `CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`)
	for _, r := range rows {
		Exec(t, path, `INSERT INTO ItemTable (key, value) VALUES (?, ?)`, r.Key, r.Value)
	}
}

// Exec runs a single statement against the database at path, creating it
// and its parent directories if needed.
func Exec(t testing.TB, path string, statement string, args ...any) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(statement, args...)
	require.NoError(t, err)
}

// Rows returns the content of ItemTable ordered by key.
func Rows(t testing.TB, path string) []Row {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rs, err := db.Query(`SELECT key, CAST(value AS TEXT) FROM ItemTable ORDER BY key`)
	require.NoError(t, err)
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var r Row
		require.NoError(t, rs.Scan(&r.Key, &r.Value))
		rows = append(rows, r)
	}
	require.NoError(t, rs.Err())

	return rows
}
