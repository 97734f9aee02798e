package scans

import (
	"context"
	"time"
)

// LiveReport is a real-time read-out from the diagnostics service.
type LiveReport struct {
	VIN            string    `json:"vin"`
	ReadAt         time.Time `json:"readAt"`
	Mileage        int       `json:"mileage"`
	BatteryVoltage float64   `json:"batteryVoltage"`
	EngineRunning  bool      `json:"engineRunning"`
	Findings       []Finding `json:"findings"`
}

// DiagnosticsSource is the port to the third-party diagnostics service.
type DiagnosticsSource interface {
	LiveReport(ctx context.Context, vin string) (LiveReport, error)
	RecentScans(ctx context.Context, vin string) ([]Scan, error)
}
