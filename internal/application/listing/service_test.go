package listing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
)

type stubRepo struct {
	got records.PageRequest
}

func (s *stubRepo) Paginate(_ context.Context, req records.PageRequest) (records.Page[string], error) {
	s.got = req
	return records.NewPage([]string{"a"}, 1, req.Page, req.Limit), nil
}

func (s *stubRepo) ExistingKeys(context.Context, []string) (map[string]bool, error) { return nil, nil }

func (s *stubRepo) InsertBatch(context.Context, []string) (int, error) { return 0, nil }

func TestListClampsAndRestricts(t *testing.T) {
	repo := &stubRepo{}
	svc := New[string](repo, []string{"vin"}, 50)

	_, err := svc.List(context.Background(), records.PageRequest{Page: 0, Limit: 500, Filters: records.Filters{"vin": " ABC ", "tenant": "x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.got.Page)
	assert.Equal(t, 50, repo.got.Limit)
	assert.Equal(t, records.Filters{"vin": "ABC"}, repo.got.Filters)
}

func TestListAllKeepsZeroLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := New[string](repo, nil, 0)

	_, err := svc.List(context.Background(), records.PageRequest{All: true})
	require.NoError(t, err)
	assert.True(t, repo.got.All)
	assert.Zero(t, repo.got.Limit)
}

func TestValidateLimit(t *testing.T) {
	svc := New[string](&stubRepo{}, nil, 0)
	assert.Equal(t, DefaultLimit, svc.ValidateLimit(0))
	assert.Equal(t, MaxLimit, svc.ValidateLimit(1000))
	assert.Equal(t, 30, svc.ValidateLimit(30))
}
