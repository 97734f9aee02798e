package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	appimports "github.com/bryanwahyu/automaton-diag/internal/application/imports"
	appscans "github.com/bryanwahyu/automaton-diag/internal/application/scans"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/domain/vehicles"
	"github.com/bryanwahyu/automaton-diag/internal/infra/diagapi"
	"github.com/bryanwahyu/automaton-diag/internal/middleware"
)

// Deps are the collaborators of the API router.
type Deps struct {
	Resources   []Resource
	Diagnostics *appscans.Service
	Health      map[string]middleware.HealthChecker
	// OptionalChecks degrade instead of failing /health.
	OptionalChecks []string
	Metrics        *middleware.Metrics
	Logger         *slog.Logger

	APIKeys          map[string]string
	CORSOrigins      []string
	MaxUploadBytes   int64
	ImportsPerMinute int
	Development      bool
}

type Router struct {
	deps   Deps
	logger *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 50 << 20
	}
	r := &Router{deps: d, logger: d.Logger}
	mux := chi.NewRouter()

	mux.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.Logging(d.Logger),
		d.Metrics.Middleware,
		chimw.Recoverer,
		middleware.SecureHeaders(d.Development),
		middleware.CORS(d.CORSOrigins),
		middleware.APIKeyAuth(d.APIKeys),
	)

	mux.Get("/health", middleware.HealthHandler(d.Health, d.OptionalChecks...))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Handle("/metrics", d.Metrics.Handler())

	limit := middleware.RateLimit(d.ImportsPerMinute, time.Minute)
	mux.Route("/v1", func(rt chi.Router) {
		for _, res := range d.Resources {
			rt.Get("/"+res.Name(), r.wrap(r.handleList(res)))
			if res.Importable() {
				rt.With(limit).Post("/"+res.Name(), r.wrap(r.handleImport(res)))
			}
		}
		if d.Diagnostics != nil {
			rt.Get("/diagnostics/vehicles/{vin}/live", r.wrap(r.handleLive))
			rt.With(limit).Post("/diagnostics/vehicles/{vin}/sync", r.wrap(r.handleSync))
		}
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

var errNoFile = errors.New(`expected a multipart form with a "file" field`)

// wrap maps handler errors to status codes.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "the file exceeds the upload limit")
		case errors.Is(err, records.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, records.ErrInvalidFilter),
			errors.Is(err, middleware.ErrBadParam),
			errors.Is(err, appimports.ErrInvalidFile),
			errors.Is(err, errNoFile):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, records.ErrConflict):
			writeError(w, http.StatusConflict, "some rows were inserted concurrently by another upload, retry the import")
		case errors.Is(err, diagapi.ErrUpstream):
			r.logger.Warn("diagnostics service failed", "path", req.URL.Path, "error", err)
			writeError(w, http.StatusBadGateway, "the diagnostics service is unavailable")
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, "the request timed out")
		case errors.Is(err, context.Canceled):
			// client went away
		default:
			r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// GET /v1/{resource}?page=&limit=&<filter>=
func (r *Router) handleList(res Resource) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		page, limit, all, err := middleware.PageParams(req)
		if err != nil {
			return err
		}
		filters := records.FromQuery(req.URL.Query(), res.FilterKeys())
		for k, v := range filters {
			filters[k] = middleware.SanitizeString(v)
		}
		out, err := res.List(req.Context(), records.PageRequest{Page: page, Limit: limit, Filters: filters, All: all})
		if err != nil {
			return err
		}
		return writeJSON(w, http.StatusOK, out)
	}
}

// POST /v1/{resource} multipart "file"
func (r *Router) handleImport(res Resource) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		req.Body = http.MaxBytesReader(w, req.Body, r.deps.MaxUploadBytes)
		if err := req.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return err
			}
			return errNoFile
		}
		defer req.MultipartForm.RemoveAll() //nolint:errcheck

		file, hdr, err := req.FormFile("file")
		if err != nil {
			return errNoFile
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return err
		}

		result, err := res.Import(req.Context(), appimports.Upload{
			Operator: middleware.OperatorFromContext(req.Context()),
			Filename: hdr.Filename,
			Data:     data,
		})
		if err != nil {
			return err
		}
		r.deps.Metrics.ObserveImport(res.Name(), result.ImportedRows,
			result.Duplicates.InFile+result.Duplicates.InDatabase, len(result.Errors))

		status := http.StatusOK
		if !result.Success {
			status = http.StatusUnprocessableEntity
		}
		return writeJSON(w, status, result)
	}
}

// GET /v1/diagnostics/vehicles/{vin}/live
func (r *Router) handleLive(w http.ResponseWriter, req *http.Request) error {
	vin, err := vinParam(req)
	if err != nil {
		return err
	}
	rep, err := r.deps.Diagnostics.LiveReport(req.Context(), vin)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// POST /v1/diagnostics/vehicles/{vin}/sync
func (r *Router) handleSync(w http.ResponseWriter, req *http.Request) error {
	vin, err := vinParam(req)
	if err != nil {
		return err
	}
	result, err := r.deps.Diagnostics.Sync(req.Context(), vin)
	if err != nil {
		return err
	}
	r.deps.Metrics.ObserveImport("scans", result.ImportedRows, result.Duplicates.InFile+result.Duplicates.InDatabase, 0)
	return writeJSON(w, http.StatusOK, result)
}

func vinParam(req *http.Request) (string, error) {
	vin := vehicles.NormalizeVIN(chi.URLParam(req, "vin"))
	return vin, middleware.ValidateVIN(vin)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"message": msg})
}
