package records

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a single record lookup has no match.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert collides with an existing key.
	ErrConflict = errors.New("record already exists")
	// ErrInvalidFilter is returned for a filter value the store cannot apply.
	ErrInvalidFilter = errors.New("invalid filter value")
)

// Repository is the persistence port shared by every listable, importable resource.
type Repository[R any] interface {
	Paginate(ctx context.Context, req PageRequest) (Page[R], error)
	ExistingKeys(ctx context.Context, keys []string) (map[string]bool, error)
	InsertBatch(ctx context.Context, rows []R) (int, error)
}

// Keyed is implemented by records that carry a natural unique key. Bulk import
// uses it to detect duplicates.
type Keyed interface {
	Key() string
}
