package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10000, cfg.Export.MaxRows)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  readTimeout: 5s
database:
  driver: mysql
  host: db
  port: 3306
  user: diag
  password: pw
  name: diag
auth:
  apiKeys:
    alice: key-a
`)
	t.Setenv("DIAG_SERVER_MAX_LIMIT", "50")
	t.Setenv("DIAG_DIAGNOSTICS_BASE_URL", "https://diag.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 50, cfg.Server.MaxLimit)
	assert.Equal(t, "https://diag.example.com", cfg.Diagnostics.BaseURL)
	assert.Equal(t, map[string]string{"alice": "key-a"}, cfg.Auth.APIKeys)
	assert.Equal(t, "diag:pw@tcp(db:3306)/diag?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoadRejectsBadDriver(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: oracle\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "oracle")
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Host = "pg"
	cfg.Database.Port = 5432
	cfg.Database.User = "diag"
	cfg.Database.Password = "p@ss"
	cfg.Database.Name = "diag"
	assert.Equal(t, "postgres://diag:p%40ss@pg:5432/diag?sslmode=disable", cfg.PostgresDSN())
}

func TestLoadDevelopmentFromEnv(t *testing.T) {
	path := writeConfig(t, "server:\n  development: false\n")
	t.Setenv(EnvPrefix+"_SERVER_DEVELOPMENT", "true")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Server.Development)
}
