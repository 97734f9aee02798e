package sqlstore

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
	"github.com/bryanwahyu/automaton-diag/internal/domain/imports"
	"github.com/bryanwahyu/automaton-diag/internal/domain/scans"
	"github.com/bryanwahyu/automaton-diag/internal/domain/vehicles"
)

// Vehicles is the vehicles table.
var Vehicles = Table[vehicles.Vehicle]{
	Name:    "vehicles",
	Key:     "vin",
	Columns: []string{"vin", "plate", "make", "model", "model_year", "mileage", "owner", "registered_at", "active"},
	Filters: map[string]FilterSpec{
		"vin":    {Column: "vin", Kind: Prefix},
		"plate":  {Column: "plate", Kind: Contains},
		"make":   {Column: "make", Kind: Exact},
		"model":  {Column: "model", Kind: Contains},
		"owner":  {Column: "owner", Kind: Contains},
		"active": {Column: "active", Kind: Bool},
	},
	OrderBy: "vin",
	Scan: func(s Scanner) (vehicles.Vehicle, error) {
		var (
			v          vehicles.Vehicle
			registered sql.NullTime
		)
		if err := s.Scan(&v.VIN, &v.Plate, &v.Make, &v.Model, &v.Year, &v.Mileage, &v.Owner, &registered, &v.Active); err != nil {
			return v, err
		}
		if registered.Valid {
			t := registered.Time.UTC()
			v.RegisteredAt = &t
		}
		return v, nil
	},
	Values: func(v vehicles.Vehicle) ([]any, error) {
		var registered sql.NullTime
		if v.RegisteredAt != nil {
			registered = sql.NullTime{Time: v.RegisteredAt.UTC(), Valid: true}
		}
		return []any{v.VIN, v.Plate, v.Make, v.Model, v.Year, v.Mileage, v.Owner, registered, v.Active}, nil
	},
}

// Scans is the diagnostic scans table. Findings are stored as a JSON document.
var Scans = Table[scans.Scan]{
	Name: "diagnostic_scans",
	Key:  "id",
	Columns: []string{"id", "vin", "scanned_at", "workshop", "mileage", "status",
		"critical", "high", "medium", "low", "findings_total", "findings", "source"},
	Filters: map[string]FilterSpec{
		"vin":      {Column: "vin", Kind: Exact},
		"workshop": {Column: "workshop", Kind: Contains},
		"status":   {Column: "status", Kind: Exact},
	},
	OrderBy: "scanned_at DESC, id DESC",
	Scan: func(s Scanner) (scans.Scan, error) {
		var (
			sc       scans.Scan
			findings string
		)
		if err := s.Scan(&sc.ID, &sc.VIN, &sc.ScannedAt, &sc.Workshop, &sc.Mileage, &sc.Status,
			&sc.Counts.Critical, &sc.Counts.High, &sc.Counts.Medium, &sc.Counts.Low, &sc.Counts.Total,
			&findings, &sc.Source); err != nil {
			return sc, err
		}
		sc.ScannedAt = sc.ScannedAt.UTC()
		if findings != "" {
			if err := json.Unmarshal([]byte(findings), &sc.Findings); err != nil {
				return sc, err
			}
		}
		return sc, nil
	},
	Values: func(sc scans.Scan) ([]any, error) {
		findings, err := json.Marshal(sc.Findings)
		if err != nil {
			return nil, err
		}
		scanned := sc.ScannedAt
		if scanned.IsZero() {
			scanned = time.Now()
		}
		return []any{sc.ID, sc.VIN, scanned.UTC(), sc.Workshop, sc.Mileage, string(sc.Status),
			sc.Counts.Critical, sc.Counts.High, sc.Counts.Medium, sc.Counts.Low, sc.Counts.Total,
			string(findings), sc.Source}, nil
	},
}

// FaultCodes is the trouble code catalog.
var FaultCodes = Table[dtc.Definition]{
	Name:    "fault_codes",
	Key:     "code",
	Columns: []string{"code", "description", "vehicle_system", "severity"},
	Filters: map[string]FilterSpec{
		"code":     {Column: "code", Kind: Prefix},
		"system":   {Column: "vehicle_system", Kind: Exact},
		"severity": {Column: "severity", Kind: Exact},
		"q":        {Column: "description", Kind: Contains},
	},
	OrderBy: "code",
	Scan: func(s Scanner) (dtc.Definition, error) {
		var d dtc.Definition
		err := s.Scan(&d.Code, &d.Description, &d.System, &d.Severity)
		return d, err
	},
	Values: func(d dtc.Definition) ([]any, error) {
		return []any{d.Code, d.Description, string(d.System), string(d.Severity)}, nil
	},
}

// ImportBatches is the import history.
var ImportBatches = Table[imports.Batch]{
	Name: "import_batches",
	Key:  "id",
	Columns: []string{"id", "resource", "operator", "filename", "total_rows", "imported_rows",
		"duplicate_rows", "invalid_rows", "archive_url", "created_at"},
	Filters: map[string]FilterSpec{
		"resource": {Column: "resource", Kind: Exact},
		"operator": {Column: "operator", Kind: Exact},
	},
	OrderBy: "created_at DESC, id DESC",
	Scan: func(s Scanner) (imports.Batch, error) {
		var b imports.Batch
		err := s.Scan(&b.ID, &b.Resource, &b.Operator, &b.Filename, &b.TotalRows, &b.ImportedRows,
			&b.DuplicateRows, &b.InvalidRows, &b.ArchiveURL, &b.CreatedAt)
		b.CreatedAt = b.CreatedAt.UTC()
		return b, err
	},
	Values: func(b imports.Batch) ([]any, error) {
		created := b.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		return []any{b.ID, b.Resource, b.Operator, b.Filename, b.TotalRows, b.ImportedRows,
			b.DuplicateRows, b.InvalidRows, b.ArchiveURL, created.UTC()}, nil
	},
}
