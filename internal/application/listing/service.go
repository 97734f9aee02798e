package listing

import (
	"context"

	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Service serves filtered, paginated lists of one resource.
type Service[R any] struct {
	Repo       records.Repository[R]
	FilterKeys []string
	MaxLimit   int
}

func New[R any](repo records.Repository[R], filterKeys []string, maxLimit int) *Service[R] {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	return &Service[R]{Repo: repo, FilterKeys: filterKeys, MaxLimit: maxLimit}
}

// List normalises the request and queries the repository. Filters the
// resource does not recognise are dropped.
func (s *Service[R]) List(ctx context.Context, req records.PageRequest) (records.Page[R], error) {
	req.Filters = req.Filters.Restrict(s.FilterKeys)
	if !req.All {
		if req.Page <= 0 {
			req.Page = 1
		}
		req.Limit = s.ValidateLimit(req.Limit)
	}
	return s.Repo.Paginate(ctx, req)
}

// ValidateLimit clamps a page size to [1, MaxLimit], defaulting to DefaultLimit.
func (s *Service[R]) ValidateLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > s.MaxLimit {
		return s.MaxLimit
	}
	return limit
}
