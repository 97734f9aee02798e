// Package screens configures the dashboard's resource screens.
package screens

import (
	"github.com/bryanwahyu/automaton-diag/internal/client/screen"
	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
	"github.com/bryanwahyu/automaton-diag/internal/domain/imports"
	"github.com/bryanwahyu/automaton-diag/internal/domain/scans"
	"github.com/bryanwahyu/automaton-diag/internal/domain/vehicles"
	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

const (
	// PageSize is the row count of every list screen.
	PageSize = 30

	mb = 1 << 20
)

var spreadsheets = []string{".xlsx", ".xls", ".csv"}

// Vehicles exports the loaded page.
var Vehicles = screen.Config[vehicles.Vehicle]{
	Resource:   "Vehicles",
	Path:       "/v1/vehicles",
	Limit:      PageSize,
	FilterKeys: vehicles.FilterKeys,
	Mapper:     vehicles.Sheet,
	Export:     screen.ExportConfig{Format: tabular.XLSX},
	Import: &screen.ImportConfig{
		Endpoints: []string{"/v1/vehicles"},
		Accept:    spreadsheets,
		MaxBytes:  10 * mb,
	},
}

// Scans exports every matching scan as CSV; scan uploads from workshop tools
// can be large.
var Scans = screen.Config[scans.Scan]{
	Resource:   "Scans",
	Path:       "/v1/scans",
	Limit:      PageSize,
	FilterKeys: scans.FilterKeys,
	Mapper:     scans.Sheet,
	Export:     screen.ExportConfig{Format: tabular.CSV, AllMatching: true},
	Import: &screen.ImportConfig{
		Endpoints: []string{"/v1/scans"},
		Accept:    spreadsheets,
		MaxBytes:  50 * mb,
	},
}

// FaultCodes exports the whole matching catalog.
var FaultCodes = screen.Config[dtc.Definition]{
	Resource:   "FaultCodes",
	Path:       "/v1/fault-codes",
	Limit:      PageSize,
	FilterKeys: dtc.FilterKeys,
	Mapper:     dtc.Sheet,
	Export:     screen.ExportConfig{Format: tabular.XLSX, AllMatching: true},
	Import: &screen.ImportConfig{
		Endpoints: []string{"/v1/fault-codes"},
		Accept:    spreadsheets,
		MaxBytes:  10 * mb,
	},
}

// Imports is the read-only import history.
var Imports = screen.Config[imports.Batch]{
	Resource:   "Imports",
	Path:       "/v1/imports",
	Limit:      PageSize,
	FilterKeys: imports.BatchFilterKeys,
	Mapper:     imports.BatchSheet,
	Export:     screen.ExportConfig{Format: tabular.CSV, AllMatching: true},
}

// Names lists the screens in menu order.
var Names = []string{"vehicles", "scans", "fault-codes", "imports"}
