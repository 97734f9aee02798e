package scans

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-diag/internal/application"
	"github.com/bryanwahyu/automaton-diag/internal/domain/imports"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	domain "github.com/bryanwahyu/automaton-diag/internal/domain/scans"
	"github.com/bryanwahyu/automaton-diag/internal/domain/vehicles"
)

// Service implements the diagnostics use cases. It is safe for concurrent use.
type Service struct {
	Source domain.DiagnosticsSource
	Repo   records.Repository[domain.Scan]
	// History is optional, see the bulk import service.
	History imports.History
	Clock   application.Clock
	Logger  *slog.Logger
}

// SyncOperator is the history operator of diagnostics syncs.
const SyncOperator = "diagnostics-sync"

// LiveReport proxies the diagnostics service read-out for a vehicle.
func (s *Service) LiveReport(ctx context.Context, vin string) (domain.LiveReport, error) {
	return s.Source.LiveReport(ctx, vehicles.NormalizeVIN(vin))
}

// Sync pulls the recent scans of a vehicle and stores the ones not seen before.
func (s *Service) Sync(ctx context.Context, vin string) (imports.Result, error) {
	vin = vehicles.NormalizeVIN(vin)
	remote, err := s.Source.RecentScans(ctx, vin)
	if err != nil {
		return imports.Result{}, fmt.Errorf("fetching scans for %s: %w", vin, err)
	}
	res := imports.Result{TotalRows: len(remote)}
	if len(remote) == 0 {
		res.Success = true
		res.Message = "The diagnostics service has no scans for this vehicle."
		return res, nil
	}

	now := s.Clock.Now()
	seen := make(map[string]bool, len(remote))
	keys := make([]string, 0, len(remote))
	var fresh []domain.Scan
	for i, sc := range remote {
		if sc.ID == "" {
			// jaga-jaga kalau upstream tidak kasih ID
			sc.ID = uuid.NewString()
		}
		if sc.ScannedAt.IsZero() {
			sc.ScannedAt = now
		}
		if seen[sc.ID] {
			res.Duplicates.InFile++
			res.Duplicates.Details = append(res.Duplicates.Details, imports.DuplicateDetail{Row: i + 1, Key: sc.ID, Source: imports.SourceFile})
			continue
		}
		seen[sc.ID] = true
		keys = append(keys, sc.ID)
		fresh = append(fresh, sc)
	}

	existing, err := s.Repo.ExistingKeys(ctx, keys)
	if err != nil {
		return imports.Result{}, err
	}
	rows := fresh[:0]
	for i, sc := range fresh {
		if existing[sc.ID] {
			res.Duplicates.InDatabase++
			res.Duplicates.Details = append(res.Duplicates.Details, imports.DuplicateDetail{Row: i + 1, Key: sc.ID, Source: imports.SourceDatabase})
			continue
		}
		rows = append(rows, sc)
	}

	if len(rows) > 0 {
		n, err := s.Repo.InsertBatch(ctx, rows)
		if err != nil {
			return imports.Result{}, fmt.Errorf("storing scans for %s: %w", vin, err)
		}
		res.ImportedRows = n
		res.BatchID = uuid.NewString()
	}
	res.Success = true
	res.Message = fmt.Sprintf("Synced %d new scans, %d already known.", res.ImportedRows, res.Duplicates.InFile+res.Duplicates.InDatabase)
	if res.BatchID != "" && s.History != nil {
		batch := imports.NewBatch("scans", SyncOperator, vin, res, now)
		if _, err := s.History.InsertBatch(ctx, []imports.Batch{batch}); err != nil {
			s.logger().Warn("recording sync batch failed", "vin", vin, "error", err)
		}
	}
	s.logger().Info("diagnostics sync", "vin", vin, "fetched", len(remote), "stored", res.ImportedRows)
	return res, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
