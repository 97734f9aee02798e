package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
  vin           CHAR(17)     NOT NULL PRIMARY KEY,
  plate         VARCHAR(16)  NOT NULL,
  make          VARCHAR(64)  NOT NULL,
  model         VARCHAR(64)  NOT NULL DEFAULT '',
  model_year    INT          NOT NULL DEFAULT 0,
  mileage       INT          NOT NULL DEFAULT 0,
  owner         VARCHAR(128) NOT NULL DEFAULT '',
  registered_at DATETIME     NULL,
  active        TINYINT(1)   NOT NULL DEFAULT 0,
  KEY idx_vehicles_plate (plate)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS diagnostic_scans (
  id             VARCHAR(64)  NOT NULL PRIMARY KEY,
  vin            CHAR(17)     NOT NULL,
  scanned_at     DATETIME     NOT NULL,
  workshop       VARCHAR(128) NOT NULL DEFAULT '',
  mileage        INT          NOT NULL DEFAULT 0,
  status         VARCHAR(16)  NOT NULL,
  critical       INT          NOT NULL DEFAULT 0,
  high           INT          NOT NULL DEFAULT 0,
  medium         INT          NOT NULL DEFAULT 0,
  low            INT          NOT NULL DEFAULT 0,
  findings_total INT          NOT NULL DEFAULT 0,
  findings       JSON         NOT NULL,
  source         VARCHAR(16)  NOT NULL DEFAULT '',
  KEY idx_scans_vin_time (vin, scanned_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS fault_codes (
  code           CHAR(5)      NOT NULL PRIMARY KEY,
  description    VARCHAR(255) NOT NULL,
  vehicle_system VARCHAR(16)  NOT NULL,
  severity       VARCHAR(16)  NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS import_batches (
  id             CHAR(36)     NOT NULL PRIMARY KEY,
  resource       VARCHAR(32)  NOT NULL,
  operator       VARCHAR(128) NOT NULL,
  filename       VARCHAR(255) NOT NULL DEFAULT '',
  total_rows     INT          NOT NULL DEFAULT 0,
  imported_rows  INT          NOT NULL DEFAULT 0,
  duplicate_rows INT          NOT NULL DEFAULT 0,
  invalid_rows   INT          NOT NULL DEFAULT 0,
  archive_url    TEXT         NOT NULL,
  created_at     DATETIME     NOT NULL,
  KEY idx_import_batches_time (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql schema: %w", err)
		}
	}
	return nil
}
