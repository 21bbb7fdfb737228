// Package store gives access to an editor's global settings store, an SQLite
// database holding a single key/value table.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Table is the key/value table editors keep their global state in.
const Table = "ItemTable"

var ErrMissingTable = errors.New("missing table " + Table)

const (
	tableExistsQuery = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	countAllQuery    = `SELECT COUNT(*) FROM ItemTable`
	countQuery       = `SELECT COUNT(*) FROM ItemTable WHERE key LIKE ? ESCAPE '\'`
	deleteStatement  = `DELETE FROM ItemTable WHERE key LIKE ? ESCAPE '\'`
)

type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the existing store at path. Write transactions are started
// as IMMEDIATE so that a lock held by another process is detected when the
// transaction begins; waiting for it is capped by lockTimeout. LIKE matches
// case-sensitively on this connection.
func Open(ctx context.Context, path string, lockTimeout time.Duration) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve %v: %w", path, err)
	}

	db, err := sql.Open("sqlite", dataSource(abs, lockTimeout))
	if err != nil {
		return nil, fmt.Errorf("unable to open %v: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to connect to %v: %w", path, err)
	}

	return &Store{db: db, path: path}, nil
}

// dataSource turns an absolute path into a file: URI, so that characters such
// as '?' or '%' in a directory name are escaped instead of being read as
// query parameters. mode=rw keeps SQLite from creating a missing store.
func dataSource(path string, lockTimeout time.Duration) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	params := url.Values{}
	params.Add("mode", "rw")
	params.Add("_txlock", "immediate")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", lockTimeout.Milliseconds()))
	params.Add("_pragma", "case_sensitive_like(1)")

	u := url.URL{Scheme: "file", Path: p, RawQuery: params.Encode()}
	return u.String()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Stats returns the total number of rows and the number of rows whose key
// contains pattern.
func (s *Store) Stats(ctx context.Context, pattern string) (total int64, matching int64, err error) {
	if err := checkTable(ctx, s.db); err != nil {
		return 0, 0, err
	}

	if err := s.db.QueryRowContext(ctx, countAllQuery).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("unable to count rows: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, countQuery, contains(pattern)).Scan(&matching); err != nil {
		return 0, 0, fmt.Errorf("unable to count matching rows: %w", err)
	}

	return total, matching, nil
}

// DeleteMatching removes every row whose key contains pattern, in a single
// transaction. Nothing is written unless the transaction commits.
func (s *Store) DeleteMatching(ctx context.Context, pattern string) (matched int64, deleted int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		_ = tx.Rollback()
	}()

	if err := checkTable(ctx, tx); err != nil {
		return 0, 0, err
	}

	if err := tx.QueryRowContext(ctx, countQuery, contains(pattern)).Scan(&matched); err != nil {
		return 0, 0, fmt.Errorf("unable to count matching rows: %w", err)
	}

	res, err := tx.ExecContext(ctx, deleteStatement, contains(pattern))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to delete rows: %w", err)
	}

	deleted, err = res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("unable to count deleted rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("unable to commit: %w", err)
	}

	return matched, deleted, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func checkTable(ctx context.Context, q queryer) error {
	var n int
	if err := q.QueryRowContext(ctx, tableExistsQuery, Table).Scan(&n); err != nil {
		return fmt.Errorf("unable to inspect schema: %w", err)
	}
	if n == 0 {
		return ErrMissingTable
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains turns a literal substring into a LIKE pattern.
func contains(pattern string) string {
	return "%" + likeEscaper.Replace(pattern) + "%"
}
