package imports

import "time"

// Anonymous stands in for the operator of unauthenticated uploads.
const Anonymous = "anonymous"

// BatchFilterKeys are the list filters recognised for the import history.
var BatchFilterKeys = []string{"resource", "operator"}

// Batch is the history entry of one import that stored rows.
type Batch struct {
	ID            string    `json:"id"`
	Resource      string    `json:"resource"`
	Operator      string    `json:"operator"`
	Filename      string    `json:"filename"`
	TotalRows     int       `json:"totalRows"`
	ImportedRows  int       `json:"importedRows"`
	DuplicateRows int       `json:"duplicateRows"`
	InvalidRows   int       `json:"invalidRows"`
	ArchiveURL    string    `json:"archiveUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (b Batch) Key() string { return b.ID }

// NewBatch summarises r for the history.
func NewBatch(resource, operator, filename string, r Result, at time.Time) Batch {
	if operator == "" {
		operator = Anonymous
	}
	invalid := map[int]bool{}
	for _, e := range r.Errors {
		invalid[e.Row] = true
	}
	return Batch{
		ID:            r.BatchID,
		Resource:      resource,
		Operator:      operator,
		Filename:      filename,
		TotalRows:     r.TotalRows,
		ImportedRows:  r.ImportedRows,
		DuplicateRows: r.Duplicates.InFile + r.Duplicates.InDatabase,
		InvalidRows:   len(invalid),
		ArchiveURL:    r.ArchiveURL,
		CreatedAt:     at.UTC(),
	}
}
