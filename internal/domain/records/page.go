package records

import "math"

// PageRequest asks for one page of rows matching Filters. When All is set the
// page/limit pair is ignored and every matching row is returned (up to the
// store's export cap).
type PageRequest struct {
	Page    int
	Limit   int
	Filters Filters
	All     bool
}

// Offset returns the row offset of the requested page.
func (r PageRequest) Offset() int {
	if r.Page <= 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

// Page is one page of rows plus the total count of all matching rows.
type Page[R any] struct {
	Rows       []R   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPage fills pagination metadata for rows.
func NewPage[R any](rows []R, total int64, page, limit int) Page[R] {
	if rows == nil {
		rows = []R{}
	}
	return Page[R]{
		Rows:       rows,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(total, limit),
	}
}

// TotalPages computes ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// PageButtons returns up to window consecutive page numbers around current.
func PageButtons(current, totalPages, window int) []int {
	if totalPages <= 0 {
		return nil
	}
	if window <= 0 || window > totalPages {
		window = totalPages
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}
	start := current - window/2
	if start < 1 {
		start = 1
	}
	if start+window-1 > totalPages {
		start = totalPages - window + 1
	}
	out := make([]int, window)
	for i := range out {
		out[i] = start + i
	}
	return out
}
