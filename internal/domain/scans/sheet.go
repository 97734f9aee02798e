package scans

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanwahyu/automaton-diag/internal/domain/dtc"
	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

// SheetRow is the spreadsheet layout of a scan. The count and status columns
// are informational; import recomputes them from the fault codes.
type SheetRow struct {
	ID         string `csv:"Scan ID"`
	VIN        string `csv:"VIN"`
	ScannedAt  string `csv:"Scanned At"`
	Workshop   string `csv:"Workshop"`
	Mileage    string `csv:"Mileage (km)"`
	Status     string `csv:"Status"`
	Critical   string `csv:"Critical"`
	High       string `csv:"High"`
	Medium     string `csv:"Medium"`
	Low        string `csv:"Low"`
	FaultCodes string `csv:"Fault Codes"`
}

// Sheet maps scans to and from spreadsheets.
var Sheet = tabular.Layout[Scan, SheetRow]{
	To:              toSheet,
	From:            fromSheet,
	RequiredColumns: []string{"Scan ID", "VIN", "Scanned At"},
}

const findingSep = " | "

func toSheet(s Scan) SheetRow {
	return SheetRow{
		ID:         s.ID,
		VIN:        s.VIN,
		ScannedAt:  tabular.FormatDateTime(s.ScannedAt),
		Workshop:   tabular.OrDash(s.Workshop),
		Mileage:    tabular.FormatInt(s.Mileage),
		Status:     tabular.OrDash(string(s.Status)),
		Critical:   strconv.Itoa(s.Counts.Critical),
		High:       strconv.Itoa(s.Counts.High),
		Medium:     strconv.Itoa(s.Counts.Medium),
		Low:        strconv.Itoa(s.Counts.Low),
		FaultCodes: FormatFindings(s.Findings),
	}
}

func fromSheet(r SheetRow) (Scan, error) {
	at, err := tabular.ParseDate(r.ScannedAt)
	if err != nil || at == nil {
		return Scan{}, tabular.Invalid("Scanned At", "%q is not a date", r.ScannedAt)
	}
	mileage, err := tabular.ParseInt(r.Mileage)
	if err != nil {
		return Scan{}, tabular.Invalid("Mileage (km)", "%q is not a number", r.Mileage)
	}
	findings, err := ParseFindings(r.FaultCodes)
	if err != nil {
		return Scan{}, tabular.Invalid("Fault Codes", "%v", err)
	}
	s := Scan{
		ID:        tabular.Text(r.ID),
		VIN:       strings.ToUpper(tabular.Text(r.VIN)),
		ScannedAt: *at,
		Workshop:  tabular.Text(r.Workshop),
		Mileage:   mileage,
		Findings:  findings,
		Source:    SourceImport,
	}
	s.Summarize()
	return s, nil
}

// FormatFindings renders findings as "P0301 (high): Cylinder 1 misfire | ...".
func FormatFindings(findings []Finding) string {
	if len(findings) == 0 {
		return tabular.Placeholder
	}
	parts := make([]string, len(findings))
	for i, f := range findings {
		p := fmt.Sprintf("%s (%s)", f.Code, f.Severity)
		if f.Description != "" {
			p += ": " + f.Description
		}
		parts[i] = p
	}
	return strings.Join(parts, findingSep)
}

// ParseFindings reverses FormatFindings. A bare code takes the info severity.
func ParseFindings(s string) ([]Finding, error) {
	if tabular.IsNull(s) {
		return nil, nil
	}
	var out []Finding
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var f Finding
		head, desc, _ := strings.Cut(part, ":")
		f.Description = strings.TrimSpace(desc)
		head = strings.TrimSpace(head)
		if code, rest, ok := strings.Cut(head, "("); ok {
			f.Code = dtc.NormalizeCode(code)
			f.Severity = dtc.ParseSeverity(strings.TrimSuffix(strings.TrimSpace(rest), ")"))
		} else {
			f.Code = dtc.NormalizeCode(head)
			f.Severity = dtc.SeverityInfo
		}
		if !dtc.CodePattern.MatchString(f.Code) {
			return nil, fmt.Errorf("%q is not a valid trouble code", f.Code)
		}
		out = append(out, f)
	}
	return out, nil
}
