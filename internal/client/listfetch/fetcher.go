// Package listfetch loads pages of rows from a list endpoint with
// last-request-wins semantics: starting a fetch cancels the one before it, and
// only the latest call may commit its outcome.
package listfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bryanwahyu/automaton-diag/internal/client"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
)

// maxBody bounds how much of a list response is read.
const maxBody = 64 << 20

// Commit receives the outcome of the latest fetch. It runs while the fetcher
// holds its lock, so it never interleaves with another commit and is never
// called for a superseded request.
type Commit[R any] func(records.Page[R], error)

// Fetcher issues list requests for one screen.
type Fetcher[R any] struct {
	http     *http.Client
	endpoint string
	limit    int
	tokens   client.TokenSource
	logger   *slog.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

// New returns a fetcher for GET <baseURL>/<path> with a fixed page size.
func New[R any](baseURL, path string, limit int, opts ...client.Option) *Fetcher[R] {
	o := client.Apply(opts...)
	return &Fetcher[R]{
		http:     o.HTTP,
		endpoint: client.Endpoint(baseURL, path),
		limit:    limit,
		tokens:   o.Tokens,
		logger:   o.Logger,
	}
}

// Limit is the page size sent with every paged fetch.
func (f *Fetcher[R]) Limit() int { return f.limit }

// Fetch loads one page. page must be >= 1.
func (f *Fetcher[R]) Fetch(ctx context.Context, page int, filters records.Filters, commit Commit[R]) (records.Page[R], error) {
	if page < 1 {
		return records.Page[R]{}, &client.Error{Kind: client.KindValidation, Op: "list", Message: "page must be 1 or greater"}
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(f.limit))
	filters.Encode(q)
	return f.run(ctx, q, page, f.limit, commit)
}

// FetchAll loads every row matching filters by leaving out page and limit.
// The server caps the result at its export limit.
func (f *Fetcher[R]) FetchAll(ctx context.Context, filters records.Filters, commit Commit[R]) (records.Page[R], error) {
	q := url.Values{}
	filters.Encode(q)
	return f.run(ctx, q, 1, 0, commit)
}

// Close cancels the outstanding fetch, if any. Later fetches return
// client.ErrCancelled without a request.
func (f *Fetcher[R]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher[R]) run(ctx context.Context, q url.Values, page, limit int, commit Commit[R]) (records.Page[R], error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return records.Page[R]{}, &client.Error{Kind: client.KindCancelled, Op: "list", Message: "fetcher closed"}
	}
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	gen := f.gen
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()
	defer cancel()

	start := time.Now()
	res, err := f.get(ctx, q, page, limit)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		f.logger.Debug("list fetch superseded", "endpoint", f.endpoint, "query", q.Encode())
		return records.Page[R]{}, &client.Error{Kind: client.KindCancelled, Op: "list", Err: context.Canceled}
	}
	f.cancel = nil
	if client.IsKind(err, client.KindCancelled) {
		// aborted by the caller's own context
		return records.Page[R]{}, err
	}
	if err != nil {
		f.logger.Warn("list fetch failed", "endpoint", f.endpoint, "query", q.Encode(), "error", err)
	} else {
		f.logger.Debug("list fetched", "endpoint", f.endpoint, "query", q.Encode(),
			"rows", len(res.Rows), "total", res.Total, "duration", time.Since(start))
	}
	if commit != nil {
		commit(res, err)
	}
	return res, err
}

// envelope accepts both {data: [...]} and {rows: [...]}.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Rows  json.RawMessage `json:"rows"`
	Total *json.Number    `json:"total"`
}

func (f *Fetcher[R]) get(ctx context.Context, q url.Values, page, limit int) (records.Page[R], error) {
	const op = "list"
	u := f.endpoint
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return records.Page[R]{}, &client.Error{Kind: client.KindNetwork, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	client.Authorize(req, f.tokens)

	resp, err := f.http.Do(req)
	if err != nil {
		return records.Page[R]{}, client.Transport(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return records.Page[R]{}, client.Transport(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return records.Page[R]{}, &client.Error{Kind: client.KindHTTP, Op: op, Status: resp.StatusCode}
	}

	rows, total, err := decode[R](body)
	if err != nil {
		return records.Page[R]{}, &client.Error{Kind: client.KindFormat, Op: op, Status: resp.StatusCode, Err: err}
	}
	if limit == 0 {
		limit = len(rows)
	}
	return records.NewPage(rows, total, page, limit), nil
}

func decode[R any](body []byte) ([]R, int64, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, 0, fmt.Errorf("decode body: %w", err)
	}
	raw := env.Data
	if len(raw) == 0 || string(raw) == "null" {
		raw = env.Rows
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, 0, fmt.Errorf("missing rows array")
	}
	if env.Total == nil {
		return nil, 0, fmt.Errorf("missing total")
	}
	total, err := env.Total.Int64()
	if err != nil || total < 0 {
		return nil, 0, fmt.Errorf("invalid total %q", env.Total.String())
	}
	var rows []R
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, 0, fmt.Errorf("decode rows: %w", err)
	}
	return rows, total, nil
}
