package dtc

import (
	"strings"

	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

// SheetRow is the spreadsheet layout of the fault code catalog.
type SheetRow struct {
	Code        string `csv:"Code"`
	Description string `csv:"Description"`
	System      string `csv:"System"`
	Severity    string `csv:"Severity"`
}

// Sheet maps catalog entries to and from spreadsheets.
var Sheet = tabular.Layout[Definition, SheetRow]{
	To:              toSheet,
	From:            fromSheet,
	RequiredColumns: []string{"Code", "Description"},
}

func toSheet(d Definition) SheetRow {
	return SheetRow{
		Code:        d.Code,
		Description: tabular.OrDash(d.Description),
		System:      tabular.OrDash(string(d.System)),
		Severity:    tabular.OrDash(string(d.Severity)),
	}
}

func fromSheet(s SheetRow) (Definition, error) {
	code := NormalizeCode(s.Code)
	if !CodePattern.MatchString(code) {
		return Definition{}, tabular.Invalid("Code", "%q is not a valid trouble code", s.Code)
	}
	system := SystemOf(code)
	if v := strings.ToLower(tabular.Text(s.System)); v != "" && System(v) != system {
		return Definition{}, tabular.Invalid("System", "%q does not match code %s", v, code)
	}
	return Definition{
		Code:        code,
		Description: tabular.Text(s.Description),
		System:      system,
		Severity:    ParseSeverity(tabular.Text(s.Severity)),
	}, nil
}
