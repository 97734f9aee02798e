// Package sqlite backs the store with an embedded database for local runs
// and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bryanwahyu/automaton-diag/internal/infra/db/sqlstore"
)

// Dialect is the SQLite flavour of the generic store.
var Dialect = sqlstore.Dialect{
	Name: "sqlite",
	Bind: sqlstore.QuestionBind,
	Like: "LIKE",
	IsDuplicate: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// extended result codes off
			return strings.Contains(se.Error(), "UNIQUE constraint failed")
		}
		return false
	},
}

// Connect opens path (":memory:" for a throwaway database). A single
// connection is used so an in-memory database is shared by every query.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
  vin           TEXT     PRIMARY KEY,
  plate         TEXT     NOT NULL,
  make          TEXT     NOT NULL,
  model         TEXT     NOT NULL DEFAULT '',
  model_year    INTEGER  NOT NULL DEFAULT 0,
  mileage       INTEGER  NOT NULL DEFAULT 0,
  owner         TEXT     NOT NULL DEFAULT '',
  registered_at DATETIME NULL,
  active        BOOLEAN  NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS diagnostic_scans (
  id             TEXT     PRIMARY KEY,
  vin            TEXT     NOT NULL,
  scanned_at     DATETIME NOT NULL,
  workshop       TEXT     NOT NULL DEFAULT '',
  mileage        INTEGER  NOT NULL DEFAULT 0,
  status         TEXT     NOT NULL,
  critical       INTEGER  NOT NULL DEFAULT 0,
  high           INTEGER  NOT NULL DEFAULT 0,
  medium         INTEGER  NOT NULL DEFAULT 0,
  low            INTEGER  NOT NULL DEFAULT 0,
  findings_total INTEGER  NOT NULL DEFAULT 0,
  findings       TEXT     NOT NULL DEFAULT '[]',
  source         TEXT     NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_vin_time ON diagnostic_scans (vin, scanned_at)`,
	`CREATE TABLE IF NOT EXISTS fault_codes (
  code           TEXT PRIMARY KEY,
  description    TEXT NOT NULL,
  vehicle_system TEXT NOT NULL,
  severity       TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS import_batches (
  id             TEXT     PRIMARY KEY,
  resource       TEXT     NOT NULL,
  operator       TEXT     NOT NULL,
  filename       TEXT     NOT NULL DEFAULT '',
  total_rows     INTEGER  NOT NULL DEFAULT 0,
  imported_rows  INTEGER  NOT NULL DEFAULT 0,
  duplicate_rows INTEGER  NOT NULL DEFAULT 0,
  invalid_rows   INTEGER  NOT NULL DEFAULT 0,
  archive_url    TEXT     NOT NULL DEFAULT '',
  created_at     DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_import_batches_time ON import_batches (created_at)`,
}

// EnsureSchema creates the tables when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}
