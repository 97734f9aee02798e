package httpserver

import (
	"context"

	appimports "github.com/bryanwahyu/automaton-diag/internal/application/imports"
	"github.com/bryanwahyu/automaton-diag/internal/application/listing"
	"github.com/bryanwahyu/automaton-diag/internal/domain/imports"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
)

// Resource is one listable collection mounted under /v1/{name}. Importable
// resources also accept uploads.
type Resource interface {
	Name() string
	FilterKeys() []string
	Importable() bool
	List(ctx context.Context, req records.PageRequest) (any, error)
	Import(ctx context.Context, up appimports.Upload) (imports.Result, error)
}

type resource[R records.Keyed] struct {
	name     string
	lister   *listing.Service[R]
	importer *appimports.Service[R]
}

// NewResource binds the list and import use cases of one record type. A nil
// importer makes the resource read-only.
func NewResource[R records.Keyed](name string, lister *listing.Service[R], importer *appimports.Service[R]) Resource {
	return &resource[R]{name: name, lister: lister, importer: importer}
}

func (r *resource[R]) Name() string         { return r.name }
func (r *resource[R]) FilterKeys() []string { return r.lister.FilterKeys }
func (r *resource[R]) Importable() bool     { return r.importer != nil }

func (r *resource[R]) List(ctx context.Context, req records.PageRequest) (any, error) {
	return r.lister.List(ctx, req)
}

func (r *resource[R]) Import(ctx context.Context, up appimports.Upload) (imports.Result, error) {
	return r.importer.Import(ctx, up)
}
