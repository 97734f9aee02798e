package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-diag/internal/client/screens"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/domain/vehicles"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	fleet := []vehicles.Vehicle{
		{VIN: "1HGCM82633A004352", Plate: "B 1", Make: "Honda"},
		{VIN: "JTDKB20U793123456", Plate: "D 2", Make: "Toyota"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			var rows []vehicles.Vehicle
			for _, v := range fleet {
				if m := r.URL.Query().Get("make"); m == "" || m == v.Make {
					rows = append(rows, v)
				}
			}
			json.NewEncoder(w).Encode(records.NewPage(rows, int64(len(rows)), 1, 30))
		case http.MethodPost:
			io.WriteString(w, `{"success":true,"message":"Imported 1 of 1 rows.","totalRows":1,"importedRows":1,"duplicates":{"inFile":0,"inDatabase":0}}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList(t *testing.T) {
	srv := fakeAPI(t)
	out, err := run(t, "list", "vehicles", "--base-url", srv.URL, "--token", "tok")
	require.NoError(t, err)
	assert.Contains(t, out, "1HGCM82633A004352")
	assert.Contains(t, out, "JTDKB20U793123456")
	assert.Contains(t, out, "Page 1 of 1 (2 rows)")
}

func TestListFromEnv(t *testing.T) {
	srv := fakeAPI(t)
	t.Setenv(EnvBaseURL, srv.URL)
	t.Setenv(EnvToken, "tok")

	out, err := run(t, "list", "vehicles", "-f", "make=Toyota")
	require.NoError(t, err)
	assert.Contains(t, out, "JTDKB20U793123456")
	assert.NotContains(t, out, "1HGCM82633A004352")

	out, err = run(t, "list", "vehicles", "-f", "make=Lada")
	require.NoError(t, err)
	assert.Contains(t, out, "No data matches the selected criteria.")
}

func TestListErrors(t *testing.T) {
	srv := fakeAPI(t)
	t.Setenv(EnvBaseURL, "")

	_, err := run(t, "list", "vehicles")
	assert.ErrorContains(t, err, EnvBaseURL)

	_, err = run(t, "list", "trucks", "--base-url", srv.URL)
	assert.ErrorContains(t, err, "unknown screen")

	_, err = run(t, "list", "vehicles", "--base-url", srv.URL, "-f", "make")
	assert.ErrorContains(t, err, "key=value")

	// wrong token
	_, err = run(t, "list", "vehicles", "--base-url", srv.URL, "--token", "nope")
	assert.ErrorContains(t, err, "401")
}

func TestExport(t *testing.T) {
	srv := fakeAPI(t)
	dir := t.TempDir()

	out, err := run(t, "export", "vehicles", "--base-url", srv.URL, "--token", "tok", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved ")

	matches, err := filepath.Glob(filepath.Join(dir, "Vehicles_All_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestImport(t *testing.T) {
	srv := fakeAPI(t)
	path := filepath.Join(t.TempDir(), "fleet.csv")
	require.NoError(t, os.WriteFile(path, []byte("VIN,Plate,Make\r\n1HGCM82633A004352,B 1,Honda\r\n"), 0o644))

	out, err := run(t, "import", "vehicles", path, "--base-url", srv.URL, "--token", "tok")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 of 1 rows.")
	assert.Contains(t, out, "Imported: 1 of 1")

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = run(t, "import", "vehicles", txt, "--base-url", srv.URL)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Invalid file type"))
}

func TestImportIntoHistoryScreen(t *testing.T) {
	srv := fakeAPI(t)
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte("Batch ID,Resource\r\nx,vehicles\r\n"), 0o644))

	_, err := run(t, "import", "imports", path, "--base-url", srv.URL, "--token", "tok")
	assert.EqualError(t, err, "This screen does not support imports.")
}

func TestListOffersEveryScreen(t *testing.T) {
	root := NewRootCmd(io.Discard)
	list, _, err := root.Find([]string{"list"})
	require.NoError(t, err)
	assert.Equal(t, screens.Names, list.ValidArgs)
	assert.Contains(t, list.ValidArgs, "imports")
}
