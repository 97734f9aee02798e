// Package sqlstore implements the generic list and bulk-insert repository on
// database/sql. A Table describes one resource; the driver packages supply the
// Dialect and the schema.
package sqlstore

// FilterKind selects how a filter value is matched against its column.
type FilterKind int

const (
	Exact FilterKind = iota
	Contains
	Prefix
	Bool
)

// FilterSpec binds a public filter key to a column.
type FilterSpec struct {
	Column string
	Kind   FilterKind
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table describes how rows of type R are stored.
type Table[R any] struct {
	Name string
	// Key is the natural unique key column.
	Key string
	// Columns in the order Scan reads and Values writes them.
	Columns []string
	// Filters whitelists the filter keys a list request may use.
	Filters map[string]FilterSpec
	OrderBy string

	Scan   func(Scanner) (R, error)
	Values func(R) ([]any, error)
}
