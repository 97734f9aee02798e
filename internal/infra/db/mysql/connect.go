package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/bryanwahyu/automaton-diag/internal/infra/db/sqlstore"
)

// Dialect is the MySQL flavour of the generic store.
var Dialect = sqlstore.Dialect{
	Name: "mysql",
	Bind: sqlstore.QuestionBind,
	Like: "LIKE",
	IsDuplicate: func(err error) bool {
		var me *driver.MySQLError
		return errors.As(err, &me) && me.Number == 1062
	},
}

// Connect opens a pool. DATETIME columns are always parsed into time.Time in UTC.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := driver.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
