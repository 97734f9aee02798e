package diagapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/domain/scans"
)

const vin = "1HGCM82633A004352"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/vehicles/"+vin+"/live", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vin":"` + vin + `","timestamp":"2024-03-09T14:05:00Z","odometer_km":48213,
"battery_voltage":12.6,"engine_running":true,"dtcs":[{"code":"p0301","severity":"major","description":"Misfire"}]}`))
	})
	mux.HandleFunc("/vehicles/"+vin+"/scans", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"scans":[
{"id":"ws-1","vin":"` + vin + `","performed_at":"2024-03-01T08:00:00Z","workshop":"Main St","odometer_km":47000,"dtcs":[]},
{"id":"ws-2","performed_at":"2024-03-05T08:00:00Z","dtcs":[{"code":"U0100","severity":"critical"}]}]}`))
	})
	mux.HandleFunc("/vehicles/BROKEN/live", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLiveReport(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", "secret", time.Second, 5)

	rep, err := c.LiveReport(context.Background(), vin)
	require.NoError(t, err)
	assert.Equal(t, 48213, rep.Mileage)
	assert.True(t, rep.EngineRunning)
	assert.Equal(t, time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC), rep.ReadAt)
	assert.Equal(t, []scans.Finding{{Code: "P0301", Severity: dtc.SeverityHigh, Description: "Misfire"}}, rep.Findings)
}

func TestRecentScansSummarizes(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "secret", time.Second, 5)

	got, err := c.RecentScans(context.Background(), vin)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, scans.StatusPassed, got[0].Status)
	assert.Equal(t, vin, got[1].VIN)
	assert.Equal(t, scans.StatusFailed, got[1].Status)
	assert.Equal(t, scans.SourceDiagnostics, got[1].Source)
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "secret", time.Second, 5)

	_, err := c.LiveReport(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, records.ErrNotFound)

	_, err = c.LiveReport(context.Background(), "BROKEN")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "502")
}
