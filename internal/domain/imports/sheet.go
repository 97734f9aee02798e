package imports

import (
	"time"

	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

// BatchSheetRow is the spreadsheet layout of the import history.
type BatchSheetRow struct {
	ID         string `csv:"Batch ID"`
	CreatedAt  string `csv:"Imported At"`
	Resource   string `csv:"Resource"`
	Operator   string `csv:"Operator"`
	Filename   string `csv:"File"`
	Total      string `csv:"Rows"`
	Imported   string `csv:"Imported"`
	Duplicates string `csv:"Duplicates"`
	Invalid    string `csv:"Invalid"`
	ArchiveURL string `csv:"Original File"`
}

// BatchSheet maps history entries to and from spreadsheets.
var BatchSheet = tabular.Layout[Batch, BatchSheetRow]{
	To:              batchToSheet,
	From:            batchFromSheet,
	RequiredColumns: []string{"Batch ID", "Resource"},
}

func batchToSheet(b Batch) BatchSheetRow {
	return BatchSheetRow{
		ID:         b.ID,
		CreatedAt:  tabular.FormatDateTime(b.CreatedAt),
		Resource:   b.Resource,
		Operator:   tabular.OrDash(b.Operator),
		Filename:   tabular.OrDash(b.Filename),
		Total:      tabular.FormatInt(b.TotalRows),
		Imported:   tabular.FormatInt(b.ImportedRows),
		Duplicates: tabular.FormatInt(b.DuplicateRows),
		Invalid:    tabular.FormatInt(b.InvalidRows),
		ArchiveURL: tabular.OrDash(b.ArchiveURL),
	}
}

func batchFromSheet(s BatchSheetRow) (Batch, error) {
	b := Batch{
		ID:         tabular.Text(s.ID),
		Resource:   tabular.Text(s.Resource),
		Operator:   tabular.Text(s.Operator),
		Filename:   tabular.Text(s.Filename),
		ArchiveURL: tabular.Text(s.ArchiveURL),
	}
	at, err := tabular.ParseDate(s.CreatedAt)
	if err != nil {
		return Batch{}, tabular.Invalid("Imported At", "%q is not a date", s.CreatedAt)
	}
	if at != nil {
		b.CreatedAt = at.In(time.UTC)
	}
	counts := []struct {
		field string
		cell  string
		dst   *int
	}{
		{"Rows", s.Total, &b.TotalRows},
		{"Imported", s.Imported, &b.ImportedRows},
		{"Duplicates", s.Duplicates, &b.DuplicateRows},
		{"Invalid", s.Invalid, &b.InvalidRows},
	}
	for _, c := range counts {
		n, err := tabular.ParseInt(c.cell)
		if err != nil {
			return Batch{}, tabular.Invalid(c.field, "%q is not a number", c.cell)
		}
		*c.dst = n
	}
	return b, nil
}
