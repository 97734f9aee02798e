// Package diagapi talks to the third-party vehicle diagnostics service.
package diagapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/domain/scans"
)

// ErrUpstream wraps failures reported by the diagnostics service.
var ErrUpstream = errors.New("diagnostics service error")

// Client wraps interactions with the diagnostics API.
type Client struct {
	baseURL    string
	apiKey     string
	scanLimit  int
	httpClient *http.Client
}

// NewClient constructs a new client. scanLimit bounds RecentScans.
func NewClient(baseURL, apiKey string, timeout time.Duration, scanLimit int) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if scanLimit <= 0 {
		scanLimit = 50
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		scanLimit:  scanLimit,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type wireFinding struct {
	Code        string `json:"code"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type wireLive struct {
	VIN            string        `json:"vin"`
	Timestamp      time.Time     `json:"timestamp"`
	OdometerKM     int           `json:"odometer_km"`
	BatteryVoltage float64       `json:"battery_voltage"`
	EngineRunning  bool          `json:"engine_running"`
	DTCs           []wireFinding `json:"dtcs"`
}

type wireScan struct {
	ID          string        `json:"id"`
	VIN         string        `json:"vin"`
	PerformedAt time.Time     `json:"performed_at"`
	Workshop    string        `json:"workshop"`
	OdometerKM  int           `json:"odometer_km"`
	DTCs        []wireFinding `json:"dtcs"`
}

// LiveReport reads the current state of a connected vehicle.
func (c *Client) LiveReport(ctx context.Context, vin string) (scans.LiveReport, error) {
	var w wireLive
	if err := c.get(ctx, "/vehicles/"+url.PathEscape(vin)+"/live", nil, &w); err != nil {
		return scans.LiveReport{}, err
	}
	at := w.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	return scans.LiveReport{
		VIN:            vin,
		ReadAt:         at.UTC(),
		Mileage:        w.OdometerKM,
		BatteryVoltage: w.BatteryVoltage,
		EngineRunning:  w.EngineRunning,
		Findings:       toFindings(w.DTCs),
	}, nil
}

// RecentScans lists the latest workshop scans recorded for a vehicle.
func (c *Client) RecentScans(ctx context.Context, vin string) ([]scans.Scan, error) {
	var body struct {
		Scans []wireScan `json:"scans"`
	}
	q := url.Values{"limit": {strconv.Itoa(c.scanLimit)}}
	if err := c.get(ctx, "/vehicles/"+url.PathEscape(vin)+"/scans", q, &body); err != nil {
		return nil, err
	}
	out := make([]scans.Scan, 0, len(body.Scans))
	for _, w := range body.Scans {
		s := scans.Scan{
			ID:        w.ID,
			VIN:       strings.ToUpper(w.VIN),
			ScannedAt: w.PerformedAt.UTC(),
			Workshop:  w.Workshop,
			Mileage:   w.OdometerKM,
			Findings:  toFindings(w.DTCs),
			Source:    scans.SourceDiagnostics,
		}
		if s.VIN == "" {
			s.VIN = vin
		}
		s.Summarize()
		out = append(out, s)
	}
	return out, nil
}

// Ping checks that the service answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return records.ErrNotFound
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUpstream, path, err)
	}
	return nil
}

func toFindings(in []wireFinding) []scans.Finding {
	out := make([]scans.Finding, 0, len(in))
	for _, f := range in {
		out = append(out, scans.Finding{
			Code:        dtc.NormalizeCode(f.Code),
			Severity:    dtc.ParseSeverity(f.Severity),
			Description: strings.TrimSpace(f.Description),
		})
	}
	return out
}
