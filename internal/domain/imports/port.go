package imports

import (
	"context"
	"io"
)

// ArchiveStore keeps the original uploaded files.
type ArchiveStore interface {
	Archive(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// History records finished imports.
type History interface {
	InsertBatch(ctx context.Context, rows []Batch) (int, error)
}
