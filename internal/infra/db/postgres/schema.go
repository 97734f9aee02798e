package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
  vin           CHAR(17)     PRIMARY KEY,
  plate         VARCHAR(16)  NOT NULL,
  make          VARCHAR(64)  NOT NULL,
  model         VARCHAR(64)  NOT NULL DEFAULT '',
  model_year    INTEGER      NOT NULL DEFAULT 0,
  mileage       INTEGER      NOT NULL DEFAULT 0,
  owner         VARCHAR(128) NOT NULL DEFAULT '',
  registered_at TIMESTAMPTZ  NULL,
  active        BOOLEAN      NOT NULL DEFAULT FALSE
)`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_plate ON vehicles (plate)`,
	`CREATE TABLE IF NOT EXISTS diagnostic_scans (
  id             VARCHAR(64)  PRIMARY KEY,
  vin            CHAR(17)     NOT NULL,
  scanned_at     TIMESTAMPTZ  NOT NULL,
  workshop       VARCHAR(128) NOT NULL DEFAULT '',
  mileage        INTEGER      NOT NULL DEFAULT 0,
  status         VARCHAR(16)  NOT NULL,
  critical       INTEGER      NOT NULL DEFAULT 0,
  high           INTEGER      NOT NULL DEFAULT 0,
  medium         INTEGER      NOT NULL DEFAULT 0,
  low            INTEGER      NOT NULL DEFAULT 0,
  findings_total INTEGER      NOT NULL DEFAULT 0,
  findings       TEXT         NOT NULL DEFAULT '[]',
  source         VARCHAR(16)  NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_vin_time ON diagnostic_scans (vin, scanned_at)`,
	`CREATE TABLE IF NOT EXISTS fault_codes (
  code           CHAR(5)      PRIMARY KEY,
  description    VARCHAR(255) NOT NULL,
  vehicle_system VARCHAR(16)  NOT NULL,
  severity       VARCHAR(16)  NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS import_batches (
  id             CHAR(36)     PRIMARY KEY,
  resource       VARCHAR(32)  NOT NULL,
  operator       VARCHAR(128) NOT NULL,
  filename       VARCHAR(255) NOT NULL DEFAULT '',
  total_rows     INTEGER      NOT NULL DEFAULT 0,
  imported_rows  INTEGER      NOT NULL DEFAULT 0,
  duplicate_rows INTEGER      NOT NULL DEFAULT 0,
  invalid_rows   INTEGER      NOT NULL DEFAULT 0,
  archive_url    TEXT         NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ  NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_import_batches_time ON import_batches (created_at)`,
}

// EnsureSchema creates the tables when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}
