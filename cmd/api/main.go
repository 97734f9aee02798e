package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bryanwahyu/automaton-diag/internal/application"
	appimports "github.com/bryanwahyu/automaton-diag/internal/application/imports"
	"github.com/bryanwahyu/automaton-diag/internal/application/listing"
	appscans "github.com/bryanwahyu/automaton-diag/internal/application/scans"
	"github.com/bryanwahyu/automaton-diag/internal/config"
	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
	domainimports "github.com/bryanwahyu/automaton-diag/internal/domain/imports"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/domain/scans"
	"github.com/bryanwahyu/automaton-diag/internal/domain/vehicles"
	mysqlp "github.com/bryanwahyu/automaton-diag/internal/infra/db/mysql"
	"github.com/bryanwahyu/automaton-diag/internal/infra/db/postgres"
	"github.com/bryanwahyu/automaton-diag/internal/infra/db/sqlite"
	"github.com/bryanwahyu/automaton-diag/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/automaton-diag/internal/infra/diagapi"
	"github.com/bryanwahyu/automaton-diag/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/automaton-diag/internal/infra/storage"
	"github.com/bryanwahyu/automaton-diag/internal/middleware"
	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, sqlstore.Dialect, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := withSchema(ctx, cfg.MySQLDSN(), mysqlp.Connect, mysqlp.EnsureSchema)
		return db, mysqlp.Dialect, err
	case "postgres":
		db, err := withSchema(ctx, cfg.PostgresDSN(), postgres.Connect, postgres.EnsureSchema)
		return db, postgres.Dialect, err
	case "sqlite":
		db, err := withSchema(ctx, cfg.Database.Path, sqlite.Connect, sqlite.EnsureSchema)
		return db, sqlite.Dialect, err
	}
	return nil, sqlstore.Dialect{}, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// withSchema connects and ensures the schema. The connection is closed when
// the schema step fails.
func withSchema(
	ctx context.Context,
	dsn string,
	connect func(context.Context, string) (*sql.DB, error),
	ensure func(context.Context, *sql.DB) error,
) (*sql.DB, error) {
	db, err := connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := ensure(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// routerDeps fills the router settings that come from configuration.
func routerDeps(cfg *config.Config) httpserver.Deps {
	return httpserver.Deps{
		APIKeys:          cfg.Auth.APIKeys,
		CORSOrigins:      cfg.Server.CORSOrigins,
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
		ImportsPerMinute: cfg.Server.ImportsPerMinute,
		Development:      cfg.Server.Development,
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, dialect, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	defer db.Close()
	logger.Info("database ready", "driver", dialect.Name)

	health := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	var optional []string

	// init minio (optional)
	var archive domainimports.ArchiveStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
			LinkTTL:   cfg.Minio.LinkTTL,
		})
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		archive = store
		health["archive"] = middleware.CheckFunc(store.Ping)
		optional = append(optional, "archive")
	}

	clock := application.SystemClock{}
	validate := appimports.NewValidator()
	exportCap := sqlstore.WithMaxExport(cfg.Export.MaxRows)

	vehicleRepo := sqlstore.New(db, dialect, sqlstore.Vehicles, exportCap)
	scanRepo := sqlstore.New(db, dialect, sqlstore.Scans, exportCap)
	codeRepo := sqlstore.New(db, dialect, sqlstore.FaultCodes, exportCap)
	history := sqlstore.New(db, dialect, sqlstore.ImportBatches, exportCap)

	w := wiring{maxLimit: cfg.Server.MaxLimit, validate: validate, archive: archive, history: history, clock: clock, logger: logger}
	resources := []httpserver.Resource{
		resource[vehicles.Vehicle](w, "vehicles", vehicleRepo, vehicles.FilterKeys, vehicles.Sheet),
		resource[scans.Scan](w, "scans", scanRepo, scans.FilterKeys, scans.Sheet),
		resource[dtc.Definition](w, "fault-codes", codeRepo, dtc.FilterKeys, dtc.Sheet),
		// read-only
		httpserver.NewResource[domainimports.Batch]("imports",
			listing.New[domainimports.Batch](history, domainimports.BatchFilterKeys, cfg.Server.MaxLimit), nil),
	}

	var diagSvc *appscans.Service
	if cfg.Diagnostics.BaseURL != "" {
		client := diagapi.NewClient(cfg.Diagnostics.BaseURL, cfg.Diagnostics.APIKey, cfg.Diagnostics.Timeout, cfg.Diagnostics.ScanLimit)
		diagSvc = &appscans.Service{Source: client, Repo: scanRepo, History: history, Clock: clock, Logger: logger}
		health["diagnostics"] = middleware.CheckFunc(client.Ping)
		optional = append(optional, "diagnostics")
	} else {
		logger.Warn("diagnostics.baseURL not set, diagnostics routes disabled")
	}

	deps := routerDeps(cfg)
	deps.Resources = resources
	deps.Diagnostics = diagSvc
	deps.Health = health
	deps.OptionalChecks = optional
	deps.Metrics = middleware.NewMetrics()
	deps.Logger = logger
	handler := httpserver.NewRouter(deps)
	if len(cfg.Auth.APIKeys) == 0 {
		logger.Warn("auth.apiKeys is empty, API is unauthenticated")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx2)
}

// wiring is what every importable resource shares.
type wiring struct {
	maxLimit int
	validate *validator.Validate
	archive  domainimports.ArchiveStore
	history  domainimports.History
	clock    application.Clock
	logger   *slog.Logger
}

func resource[R records.Keyed](w wiring, name string, repo records.Repository[R], filterKeys []string, mapper tabular.Mapper[R]) httpserver.Resource {
	return httpserver.NewResource[R](name,
		listing.New[R](repo, filterKeys, w.maxLimit),
		&appimports.Service[R]{
			Resource: name,
			Repo:     repo,
			Mapper:   mapper,
			Validate: w.validate,
			Archive:  w.archive,
			History:  w.history,
			Clock:    w.clock,
			Logger:   w.logger.With("resource", name),
		},
	)
}
