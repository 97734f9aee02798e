package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

const (
	defaultPageSize  = 20
	defaultMaxExport = 10000
	keyChunk         = 500
)

// Repository implements records.Repository[R] for one Table.
type Repository[R any] struct {
	db        *sql.DB
	dialect   Dialect
	table     Table[R]
	maxExport int
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	maxExport int
}

// WithMaxExport caps the number of rows returned by an all-matching request.
func WithMaxExport(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxExport = n
		}
	}
}

func New[R any](db *sql.DB, dialect Dialect, table Table[R], opts ...Option) *Repository[R] {
	o := options{maxExport: defaultMaxExport}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[R]{db: db, dialect: dialect, table: table, maxExport: o.maxExport}
}

// Paginate returns one page of rows and the total count of matching rows. The
// two queries run concurrently.
func (r *Repository[R]) Paginate(ctx context.Context, req records.PageRequest) (records.Page[R], error) {
	page, limit := req.Page, req.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := (page - 1) * limit
	if req.All {
		page, limit, offset = 1, r.maxExport, 0
	}

	where, args, err := r.where(req.Filters)
	if err != nil {
		return records.Page[R]{}, err
	}

	var (
		rows  []R
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = r.list(gctx, where, args, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = r.count(gctx, where, args)
		return err
	})
	if err := g.Wait(); err != nil {
		return records.Page[R]{}, err
	}
	return records.NewPage(rows, total, page, limit), nil
}

// Count returns the number of rows matching filters.
func (r *Repository[R]) Count(ctx context.Context, filters records.Filters) (int64, error) {
	where, args, err := r.where(filters)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, where, args)
}

func (r *Repository[R]) list(ctx context.Context, where string, args []any, limit, offset int) ([]R, error) {
	var q strings.Builder
	fmt.Fprintf(&q, "SELECT %s FROM %s%s", strings.Join(r.table.Columns, ", "), r.table.Name, where)
	if r.table.OrderBy != "" {
		q.WriteString(" ORDER BY " + r.table.OrderBy)
	}
	n := len(args)
	fmt.Fprintf(&q, " LIMIT %s OFFSET %s", r.dialect.Bind(n+1), r.dialect.Bind(n+2))
	args = append(append([]any{}, args...), limit, offset)

	rs, err := r.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", r.table.Name, err)
	}
	defer rs.Close()

	var out []R
	for rs.Next() {
		row, err := r.table.Scan(rs)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", r.table.Name, err)
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", r.table.Name, err)
	}
	return out, nil
}

func (r *Repository[R]) count(ctx context.Context, where string, args []any) (int64, error) {
	q := "SELECT COUNT(*) FROM " + r.table.Name + where
	var total int64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting %s: %w", r.table.Name, err)
	}
	return total, nil
}

// where renders the whitelisted filters. Unknown keys are ignored.
func (r *Repository[R]) where(filters records.Filters) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	for _, key := range filters.Keys() {
		spec, ok := r.table.Filters[key]
		if !ok {
			continue
		}
		value := filters.Get(key)
		bind := r.dialect.Bind(len(args) + 1)
		switch spec.Kind {
		case Exact:
			conds = append(conds, spec.Column+" = "+bind)
			args = append(args, value)
		case Contains:
			conds = append(conds, fmt.Sprintf("%s %s %s ESCAPE '%s'", spec.Column, r.dialect.Like, bind, likeEscape))
			args = append(args, "%"+escapeLikePattern(value)+"%")
		case Prefix:
			conds = append(conds, fmt.Sprintf("%s %s %s ESCAPE '%s'", spec.Column, r.dialect.Like, bind, likeEscape))
			args = append(args, escapeLikePattern(value)+"%")
		case Bool:
			b, err := tabular.ParseBool(value)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %s=%q", records.ErrInvalidFilter, key, value)
			}
			conds = append(conds, spec.Column+" = "+bind)
			args = append(args, b)
		}
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// ExistingKeys reports which of keys are already stored.
func (r *Repository[R]) ExistingKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for start := 0; start < len(keys); start += keyChunk {
		chunk := keys[start:min(start+keyChunk, len(keys))]
		binds := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for i, k := range chunk {
			binds[i] = r.dialect.Bind(i + 1)
			args[i] = k
		}
		q := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)", r.table.Key, r.table.Name, r.table.Key, strings.Join(binds, ", "))
		rs, err := r.db.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, fmt.Errorf("looking up %s keys: %w", r.table.Name, err)
		}
		for rs.Next() {
			var k string
			if err := rs.Scan(&k); err != nil {
				rs.Close()
				return nil, err
			}
			found[k] = true
		}
		err = rs.Err()
		rs.Close()
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// InsertBatch inserts rows in a single transaction. Either every row is
// stored or none is.
func (r *Repository[R]) InsertBatch(ctx context.Context, rows []R) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	binds := make([]string, len(r.table.Columns))
	for i := range binds {
		binds[i] = r.dialect.Bind(i + 1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.table.Name, strings.Join(r.table.Columns, ", "), strings.Join(binds, ", "))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin %s insert: %w", r.table.Name, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("preparing %s insert: %w", r.table.Name, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		vals, err := r.table.Values(row)
		if err != nil {
			return 0, fmt.Errorf("encoding %s row %d: %w", r.table.Name, i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			if r.dialect.IsDuplicate != nil && r.dialect.IsDuplicate(err) {
				return 0, fmt.Errorf("%w: %s row %d", records.ErrConflict, r.table.Name, i+1)
			}
			return 0, fmt.Errorf("inserting %s row %d: %w", r.table.Name, i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s insert: %w", r.table.Name, err)
	}
	return len(rows), nil
}
