package imports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

func TestNewBatch(t *testing.T) {
	r := Result{
		TotalRows:    6,
		ImportedRows: 3,
		Duplicates:   Duplicates{InFile: 1, InDatabase: 1},
		// two messages for the same row count once
		Errors:  []RowError{{Row: 4, Field: "vin"}, {Row: 4, Field: "make"}},
		BatchID: "b-1",
	}
	at := time.Date(2024, 2, 3, 4, 5, 0, 0, time.FixedZone("WIB", 7*3600))
	b := NewBatch("vehicles", "", "fleet.csv", r, at)

	assert.Equal(t, "b-1", b.Key())
	assert.Equal(t, Anonymous, b.Operator)
	assert.Equal(t, 2, b.DuplicateRows)
	assert.Equal(t, 1, b.InvalidRows)
	assert.Equal(t, time.UTC, b.CreatedAt.Location())
}

func TestBatchSheet(t *testing.T) {
	b := Batch{ID: "b-1", Resource: "scans", Operator: "ops", Filename: "scans.csv", TotalRows: 1200, ImportedRows: 1100,
		CreatedAt: time.Date(2024, 2, 3, 4, 5, 0, 0, time.UTC)}
	recs, err := tabular.Records[Batch](BatchSheet, []Batch{b})
	require.NoError(t, err)
	assert.Equal(t, []string{"b-1", "03 Feb 2024 04:05", "scans", "ops", "scans.csv", "1,200", "1,100", "0", "0", "-"}, recs[1])

	back, err := batchFromSheet(batchToSheet(b))
	require.NoError(t, err)
	assert.Equal(t, b, back)
}
