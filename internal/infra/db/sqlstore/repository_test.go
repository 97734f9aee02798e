package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/domain/scans"
	"github.com/bryanwahyu/automaton-diag/internal/domain/vehicles"
	"github.com/bryanwahyu/automaton-diag/internal/infra/db/sqlite"
	"github.com/bryanwahyu/automaton-diag/internal/infra/db/sqlstore"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Connect(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.EnsureSchema(ctx, db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedVehicles(t *testing.T, repo *sqlstore.Repository[vehicles.Vehicle], n int) {
	t.Helper()
	rows := make([]vehicles.Vehicle, n)
	for i := range rows {
		rows[i] = vehicles.Vehicle{
			VIN:    fmt.Sprintf("VIN%014d", i),
			Plate:  fmt.Sprintf("B %d XY", i),
			Make:   []string{"Honda", "Toyota", "Suzuki"}[i%3],
			Active: i%2 == 0,
		}
	}
	inserted, err := repo.InsertBatch(context.Background(), rows)
	require.NoError(t, err)
	require.Equal(t, n, inserted)
}

func TestPaginateReturnsPageAndTotal(t *testing.T) {
	repo := sqlstore.New(setupTestDB(t), sqlite.Dialect, sqlstore.Vehicles)
	seedVehicles(t, repo, 45)

	page, err := repo.Paginate(context.Background(), records.PageRequest{Page: 2, Limit: 30})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 15)
	assert.EqualValues(t, 45, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "VIN00000000000030", page.Rows[0].VIN)
}

func TestPaginateFilters(t *testing.T) {
	repo := sqlstore.New(setupTestDB(t), sqlite.Dialect, sqlstore.Vehicles)
	seedVehicles(t, repo, 9)
	ctx := context.Background()

	page, err := repo.Paginate(ctx, records.PageRequest{Page: 1, Limit: 50, Filters: records.Filters{"make": "Honda"}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = repo.Paginate(ctx, records.PageRequest{Page: 1, Limit: 50, Filters: records.Filters{"make": "Honda", "active": "yes"}})
	require.NoError(t, err)
	// VIN 0 and 6 are active Hondas.
	assert.EqualValues(t, 2, page.Total)

	// Wildcards in user input are literal.
	page, err = repo.Paginate(ctx, records.PageRequest{Page: 1, Limit: 50, Filters: records.Filters{"plate": "%"}})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Rows)

	// Unknown keys are ignored.
	page, err = repo.Paginate(ctx, records.PageRequest{Page: 1, Limit: 50, Filters: records.Filters{"colour": "red"}})
	require.NoError(t, err)
	assert.EqualValues(t, 9, page.Total)

	_, err = repo.Paginate(ctx, records.PageRequest{Filters: records.Filters{"active": "maybe"}})
	assert.ErrorIs(t, err, records.ErrInvalidFilter)
}

func TestPaginateAllIsCapped(t *testing.T) {
	repo := sqlstore.New(setupTestDB(t), sqlite.Dialect, sqlstore.Vehicles, sqlstore.WithMaxExport(10))
	seedVehicles(t, repo, 12)

	page, err := repo.Paginate(context.Background(), records.PageRequest{All: true})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 10)
	assert.EqualValues(t, 12, page.Total)
}

func TestExistingKeysAndConflict(t *testing.T) {
	repo := sqlstore.New(setupTestDB(t), sqlite.Dialect, sqlstore.FaultCodes)
	ctx := context.Background()

	_, err := repo.InsertBatch(ctx, []dtc.Definition{
		{Code: "P0301", Description: "Cylinder 1 misfire", System: dtc.SystemPowertrain, Severity: dtc.SeverityHigh},
	})
	require.NoError(t, err)

	found, err := repo.ExistingKeys(ctx, []string{"P0301", "P0420"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"P0301": true}, found)

	_, err = repo.InsertBatch(ctx, []dtc.Definition{
		{Code: "P0420", Description: "Catalyst efficiency", System: dtc.SystemPowertrain, Severity: dtc.SeverityMedium},
		{Code: "P0301", Description: "again", System: dtc.SystemPowertrain, Severity: dtc.SeverityHigh},
	})
	assert.ErrorIs(t, err, records.ErrConflict)

	// The failed batch left nothing behind.
	total, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestScansStoreFindings(t *testing.T) {
	repo := sqlstore.New(setupTestDB(t), sqlite.Dialect, sqlstore.Scans)
	ctx := context.Background()
	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	s := scans.Scan{
		ID:        "scan-1",
		VIN:       "1HGCM82633A004352",
		ScannedAt: at,
		Findings:  []scans.Finding{{Code: "P0301", Severity: dtc.SeverityHigh, Description: "misfire"}},
		Source:    scans.SourceImport,
	}
	s.Summarize()
	_, err := repo.InsertBatch(ctx, []scans.Scan{s})
	require.NoError(t, err)

	page, err := repo.Paginate(ctx, records.PageRequest{Page: 1, Limit: 10, Filters: records.Filters{"status": "attention"}})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	got := page.Rows[0]
	assert.Equal(t, s.Findings, got.Findings)
	assert.Equal(t, 1, got.Counts.High)
	assert.True(t, at.Equal(got.ScannedAt))
}
