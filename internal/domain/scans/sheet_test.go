package scans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
)

func TestFindingsRoundTrip(t *testing.T) {
	in := []Finding{
		{Code: "P0301", Severity: dtc.SeverityHigh, Description: "Cylinder 1 misfire"},
		{Code: "U0100", Severity: dtc.SeverityCritical},
	}
	text := FormatFindings(in)
	assert.Equal(t, "P0301 (high): Cylinder 1 misfire | U0100 (critical)", text)

	out, err := ParseFindings(text)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseFindingsBareCode(t *testing.T) {
	out, err := ParseFindings("p0420")
	require.NoError(t, err)
	assert.Equal(t, []Finding{{Code: "P0420", Severity: dtc.SeverityInfo}}, out)

	_, err = ParseFindings("not-a-code")
	assert.Error(t, err)

	out, err = ParseFindings("-")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestFromSheetRecomputesStatus(t *testing.T) {
	s, err := fromSheet(SheetRow{
		ID:         "scan-1",
		VIN:        "1hgcm82633a004352",
		ScannedAt:  "09 Mar 2024 14:05",
		Mileage:    "10,000",
		Status:     "passed",
		Critical:   "0",
		FaultCodes: "U0100 (critical)",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, 1, s.Counts.Critical)
	assert.Equal(t, "1HGCM82633A004352", s.VIN)
	assert.Equal(t, time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC), s.ScannedAt)
	assert.Equal(t, SourceImport, s.Source)
}

func TestStatusFromCounts(t *testing.T) {
	assert.Equal(t, StatusPassed, StatusFromCounts(SeverityCounts{Low: 3, Total: 3}))
	assert.Equal(t, StatusAttention, StatusFromCounts(SeverityCounts{Medium: 1, Total: 1}))
	assert.Equal(t, StatusFailed, StatusFromCounts(SeverityCounts{Critical: 1, High: 2, Total: 3}))
}
