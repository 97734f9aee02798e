package imports

// Result summarises one bulk-import attempt.
type Result struct {
	Success      bool       `json:"success"`
	Message      string     `json:"message"`
	TotalRows    int        `json:"totalRows"`
	ImportedRows int        `json:"importedRows"`
	Duplicates   Duplicates `json:"duplicates"`
	Errors       []RowError `json:"errors,omitempty"`
	BatchID      string     `json:"batchId,omitempty"`
	ArchiveURL   string     `json:"archiveUrl,omitempty"`
}

// Duplicates counts rows skipped because their key was already seen.
type Duplicates struct {
	InFile     int               `json:"inFile"`
	InDatabase int               `json:"inDatabase"`
	Details    []DuplicateDetail `json:"details,omitempty"`
}

// Duplicate sources.
const (
	SourceFile     = "file"
	SourceDatabase = "database"
)

// DuplicateDetail identifies one skipped duplicate.
type DuplicateDetail struct {
	Row    int    `json:"row"`
	Key    string `json:"key"`
	Source string `json:"source"`
}

// RowError is a row that failed conversion or validation.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Skipped returns the number of rows not imported.
func (r Result) Skipped() int {
	return r.TotalRows - r.ImportedRows
}
