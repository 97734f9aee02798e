package scans

import (
	"time"

	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
)

// Status enum
type Status string

const (
	StatusPassed    Status = "passed"
	StatusAttention Status = "attention"
	StatusFailed    Status = "failed"
)

// Source records where a scan entered the system.
const (
	SourceImport      = "import"
	SourceDiagnostics = "diagnostics"
)

// FilterKeys are the list filters recognised for scans.
var FilterKeys = []string{"vin", "workshop", "status"}

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// Finding is one fault code read during a scan.
type Finding struct {
	Code        string       `json:"code" validate:"required,len=5"`
	Severity    dtc.Severity `json:"severity"`
	Description string       `json:"description,omitempty"`
}

// Scan is the result of one diagnostic read-out of a vehicle.
type Scan struct {
	ID        string         `json:"id" validate:"required,max=64"`
	VIN       string         `json:"vin" validate:"required,len=17,alphanum"`
	ScannedAt time.Time      `json:"scannedAt" validate:"required"`
	Workshop  string         `json:"workshop,omitempty" validate:"max=128"`
	Mileage   int            `json:"mileage" validate:"gte=0"`
	Status    Status         `json:"status"`
	Counts    SeverityCounts `json:"counts"`
	Findings  []Finding      `json:"findings" validate:"dive"`
	Source    string         `json:"source,omitempty"`
}

func (s Scan) Key() string { return s.ID }

// Summarize recomputes counts and status from the findings.
func (s *Scan) Summarize() {
	s.Counts = CountFindings(s.Findings)
	s.Status = StatusFromCounts(s.Counts)
}
