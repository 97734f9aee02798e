package main

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-diag/internal/config"
	"github.com/bryanwahyu/automaton-diag/internal/infra/db/sqlite"
)

func TestWithSchemaClosesOnFailure(t *testing.T) {
	ctx := context.Background()
	var opened *sql.DB
	connect := func(ctx context.Context, dsn string) (*sql.DB, error) {
		db, err := sqlite.Connect(ctx, dsn)
		opened = db
		return db, err
	}
	boom := errors.New("schema locked")

	db, err := withSchema(ctx, ":memory:", connect, func(context.Context, *sql.DB) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, db)
	require.NotNil(t, opened)
	assert.ErrorContains(t, opened.PingContext(ctx), "database is closed")

	db, err = withSchema(ctx, ":memory:", connect, sqlite.EnsureSchema)
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.PingContext(ctx))
}

func TestOpenDatabaseSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	db, dialect, err := openDatabase(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, "sqlite", dialect.Name)
}

func TestRouterDepsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Development = true
	cfg.Server.CORSOrigins = []string{"http://localhost:5173"}
	cfg.Auth.APIKeys = map[string]string{"ops": "k"}

	d := routerDeps(cfg)
	assert.True(t, d.Development)
	assert.Equal(t, cfg.Server.CORSOrigins, d.CORSOrigins)
	assert.Equal(t, cfg.Auth.APIKeys, d.APIKeys)
	assert.Equal(t, cfg.Server.MaxUploadBytes, d.MaxUploadBytes)
	assert.Equal(t, cfg.Server.ImportsPerMinute, d.ImportsPerMinute)

	cfg.Server.Development = false
	assert.False(t, routerDeps(cfg).Development)
}
