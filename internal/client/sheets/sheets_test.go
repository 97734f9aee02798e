package sheets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-diag/internal/client"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/domain/vehicles"
	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC) }

func vehicleExporter(format tabular.Format) Exporter[vehicles.Vehicle] {
	return Exporter[vehicles.Vehicle]{Resource: "Vehicles", Format: format, Mapper: vehicles.Sheet, Now: fixedNow}
}

func TestExportEmptyProducesNoFile(t *testing.T) {
	_, err := vehicleExporter(tabular.XLSX).Export(nil, "All")
	assert.Same(t, ErrNoData, err)
	assert.Equal(t, "No data available to download.", client.UserMessage(err))
}

func TestExportFilename(t *testing.T) {
	rows := []vehicles.Vehicle{{VIN: "1HGCM82633A004352", Plate: "B 1", Make: "Honda"}}

	a, err := vehicleExporter(tabular.XLSX).Export(rows, FilenameHint(records.Filters{"make": "Honda", "model": "Civic Type/R"}))
	require.NoError(t, err)
	assert.Equal(t, "Vehicles_Honda_Civic-Type-R_2024-03-09.xlsx", a.Filename)
	assert.Equal(t, tabular.XLSX.ContentType(), a.ContentType)

	a, err = vehicleExporter(tabular.CSV).Export(rows, FilenameHint(nil))
	require.NoError(t, err)
	assert.Equal(t, "Vehicles_All_2024-03-09.csv", a.Filename)
	assert.True(t, strings.HasPrefix(string(a.Data), "VIN,Plate,Make"))
}

func TestExportRoundTripsThroughImportRules(t *testing.T) {
	registered := time.Date(2022, 1, 5, 18, 45, 0, 0, time.UTC)
	rows := []vehicles.Vehicle{{VIN: "1HGCM82633A004352", Plate: "B 1", Make: "Honda", Mileage: 98765, RegisteredAt: &registered, Active: true}}

	a, err := vehicleExporter(tabular.XLSX).Export(rows, "All")
	require.NoError(t, err)

	out, err := tabular.Decode[vehicles.Vehicle](bytes.NewReader(a.Data), tabular.XLSX, vehicles.Sheet)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NoError(t, out[0].Err)
	got := out[0].Value
	assert.Equal(t, rows[0].VIN, got.VIN)
	assert.Equal(t, rows[0].Mileage, got.Mileage)
	assert.True(t, got.Active)
	// time of day is not kept
	assert.Equal(t, "2022-01-05", got.RegisteredAt.Format("2006-01-02"))
}

func TestDirDownloader(t *testing.T) {
	dir := t.TempDir()
	path, err := DirDownloader{Dir: filepath.Join(dir, "out")}.Save(Artifact{Filename: "Vehicles_All_2024-03-09.csv", Data: []byte("x")})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func quiet() client.Option { return client.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))) }

func csvFile(body string) File {
	return BytesFile("fleet.csv", []byte(body))
}

type countingServer struct {
	*httptest.Server
	requests atomic.Int32
}

func newServer(t *testing.T, h http.HandlerFunc) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.requests.Add(1)
		h(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func jsonReply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

var defaultCfg = UploadConfig{Endpoints: []string{"/v1/vehicles"}, Accept: []string{".xlsx", ".xls", ".csv"}, MaxBytes: 1 << 20}

func TestUploadValidationMakesNoRequest(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) { jsonReply(w, 200, `{}`) })
	u := NewUploader(srv.URL, defaultCfg, quiet())

	_, err := u.Upload(context.Background(), BytesFile("fleet.pdf", []byte("0123456789")))
	assert.True(t, client.IsKind(err, client.KindValidation))
	assert.Contains(t, client.UserMessage(err), "Invalid file type")

	_, err = u.Upload(context.Background(), File{Name: "fleet.csv", Size: 2 << 20, Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("")), nil }})
	assert.True(t, client.IsKind(err, client.KindValidation))
	assert.Equal(t, "File is too large. Maximum size is 1 MB.", client.UserMessage(err))

	// size understated by the caller
	big := BytesFile("fleet.csv", []byte(strings.Repeat("x", 2<<20)))
	big.Size = 1
	_, err = u.Upload(context.Background(), big)
	assert.True(t, client.IsKind(err, client.KindValidation))
	assert.Equal(t, "File is too large. Maximum size is 1 MB.", client.UserMessage(err))

	// shrank after selection
	short := BytesFile("fleet.csv", []byte("abc"))
	short.Size = 10
	_, err = u.Upload(context.Background(), short)
	assert.True(t, client.IsKind(err, client.KindValidation))
	assert.Contains(t, client.UserMessage(err), "changed after it was selected")

	_, err = u.Upload(context.Background(), File{Name: "fleet.csv", Size: 3})
	assert.Equal(t, "The file could not be read.", client.UserMessage(err))

	assert.Zero(t, srv.requests.Load())
}

func TestUploadSuccess(t *testing.T) {
	var gotAuth, gotName, gotBody string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		f, hdr, err := r.FormFile(FieldName)
		if err == nil {
			gotName = hdr.Filename
			b, _ := io.ReadAll(f)
			gotBody = string(b)
		}
		jsonReply(w, http.StatusOK, `{"success":true,"message":"Imported 2 of 3 rows.","totalRows":3,"importedRows":2,"duplicates":{"inFile":0,"inDatabase":1}}`)
	})
	u := NewUploader(srv.URL, defaultCfg, quiet(), client.WithTokens(client.StaticToken("tok")))

	res, err := u.Upload(context.Background(), csvFile("VIN,Plate,Make\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "fleet.csv", gotName)
	assert.Equal(t, "VIN,Plate,Make\r\n", gotBody)
	assert.Equal(t, 2, res.ImportedRows)
	assert.Equal(t, 1, res.Duplicates.InDatabase)
	assert.False(t, u.Busy())
}

func TestUploadProbesEndpoints(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/vehicles/import" {
			http.NotFound(w, r)
			return
		}
		jsonReply(w, http.StatusOK, `{"success":true,"totalRows":1,"importedRows":1}`)
	})
	cfg := defaultCfg
	cfg.Endpoints = []string{"/v1/vehicles", "/api/vehicles/import"}
	u := NewUploader(srv.URL, cfg, quiet())

	res, err := u.Upload(context.Background(), csvFile("a"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedRows)
	assert.EqualValues(t, 2, srv.requests.Load())

	cfg.Endpoints = []string{"/a", "/b"}
	u = NewUploader(srv.URL, cfg, quiet())
	_, err = u.Upload(context.Background(), csvFile("a"))
	assert.True(t, client.IsKind(err, client.KindEndpoint), "got %v", err)
}

func TestUploadResponseErrors(t *testing.T) {
	tests := []struct {
		name    string
		reply   func(http.ResponseWriter)
		kind    client.Kind
		message string
	}{
		{
			name: "html error page",
			reply: func(w http.ResponseWriter) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusBadGateway)
				io.WriteString(w, "<h1>Bad Gateway</h1>")
			},
			kind: client.KindServerConfig,
		},
		{
			name:    "server message",
			reply:   func(w http.ResponseWriter) { jsonReply(w, 400, `{"message":"missing columns: VIN"}`) },
			kind:    client.KindImport,
			message: "missing columns: VIN",
		},
		{
			name:    "no message",
			reply:   func(w http.ResponseWriter) { jsonReply(w, 500, `{}`) },
			kind:    client.KindImport,
			message: "The server failed to process the file. Please try again later.",
		},
		{
			name:    "json error without body",
			reply:   func(w http.ResponseWriter) { jsonReply(w, http.StatusBadGateway, "") },
			kind:    client.KindImport,
			message: "The server failed to process the file. Please try again later.",
		},
		{
			name:    "json error with broken body",
			reply:   func(w http.ResponseWriter) { jsonReply(w, http.StatusBadRequest, `{"message":`) },
			kind:    client.KindImport,
			message: client.StatusMessage(http.StatusBadRequest),
		},
		{
			name:  "broken success body",
			reply: func(w http.ResponseWriter) { jsonReply(w, http.StatusOK, `{"success":`) },
			kind:  client.KindFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) { tt.reply(w) })
			u := NewUploader(srv.URL, defaultCfg, quiet())
			_, err := u.Upload(context.Background(), csvFile("a"))
			require.Error(t, err)
			assert.True(t, client.IsKind(err, tt.kind), "got %v", err)
			if tt.message != "" {
				assert.Equal(t, tt.message, client.UserMessage(err))
			}
			assert.NotContains(t, client.UserMessage(err), "Bad Gateway")
		})
	}
}

func TestUploadKeepsResultOnRejectedFile(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		jsonReply(w, http.StatusUnprocessableEntity, `{"success":false,"message":"No rows imported: 1 rows failed validation.","totalRows":1,"errors":[{"row":2,"field":"vin","message":"vin must be 17 characters"}]}`)
	})
	u := NewUploader(srv.URL, defaultCfg, quiet())
	res, err := u.Upload(context.Background(), csvFile("a"))
	assert.True(t, client.IsKind(err, client.KindImport))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
}

func TestUploadOneAtATime(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		jsonReply(w, http.StatusOK, `{"success":true}`)
	})
	u := NewUploader(srv.URL, defaultCfg, quiet())

	done := make(chan error, 1)
	go func() {
		_, err := u.Upload(context.Background(), csvFile("a"))
		done <- err
	}()
	<-arrived

	assert.True(t, u.Busy())
	_, err := u.Upload(context.Background(), csvFile("b"))
	assert.True(t, errors.Is(err, ErrUploadInFlight))

	close(release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, srv.requests.Load())
}

func TestUploadReopensFileOnRetry(t *testing.T) {
	var sizes []int
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile(FieldName)
		if err == nil {
			b, _ := io.ReadAll(f)
			sizes = append(sizes, len(b))
		}
		if len(sizes) == 1 {
			jsonReply(w, http.StatusInternalServerError, `{"message":"database unavailable"}`)
			return
		}
		jsonReply(w, http.StatusOK, `{"success":true,"totalRows":1,"importedRows":1}`)
	})
	path := filepath.Join(t.TempDir(), "fleet.csv")
	require.NoError(t, os.WriteFile(path, []byte("VIN,Plate,Make\r\n"), 0o644))
	f, err := OpenFile(path)
	require.NoError(t, err)
	u := NewUploader(srv.URL, defaultCfg, quiet())

	_, err = u.Upload(context.Background(), f)
	assert.True(t, client.IsKind(err, client.KindImport))
	res, err := u.Upload(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedRows)
	assert.Equal(t, []int{16, 16}, sizes)
}
