// Package screen is the generic filtered, paginated list screen of the
// dashboard. A Config describes one resource; Screen owns the view state and
// drives the list fetcher and the spreadsheet bridge for it.
package screen

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bryanwahyu/automaton-diag/internal/client"
	"github.com/bryanwahyu/automaton-diag/internal/client/listfetch"
	"github.com/bryanwahyu/automaton-diag/internal/client/sheets"
	"github.com/bryanwahyu/automaton-diag/internal/domain/imports"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

const (
	MsgNoData    = "No data available."
	MsgNoMatches = "No data matches the selected criteria."

	// pageWindow is how many page buttons are shown.
	pageWindow = 5
)

var (
	errNoImport = &client.Error{Kind: client.KindValidation, Op: "import", Message: "This screen does not support imports."}
	errNoFile   = &client.Error{Kind: client.KindValidation, Op: "import", Message: "Please select a file first."}
)

// ExportConfig selects what Export writes.
type ExportConfig struct {
	Format tabular.Format
	// AllMatching re-fetches every row matching the filters instead of
	// exporting the loaded page.
	AllMatching bool
}

// ImportConfig describes the bulk-import endpoint of a screen.
type ImportConfig = sheets.UploadConfig

// Config describes one resource screen.
type Config[R any] struct {
	// Resource is the display name, also used as the export file prefix.
	Resource   string
	Path       string
	Limit      int
	FilterKeys []string
	Mapper     tabular.Mapper[R]
	Export     ExportConfig
	// Import is nil for read-only screens.
	Import *ImportConfig
}

// Deps are the collaborators passed in at construction.
type Deps struct {
	BaseURL string
	Tokens  client.TokenSource
	HTTP    *http.Client
	Logger  *slog.Logger
	Now     func() time.Time
}

func (d Deps) options() []client.Option {
	var opts []client.Option
	if d.HTTP != nil {
		opts = append(opts, client.WithHTTPClient(d.HTTP))
	}
	if d.Tokens != nil {
		opts = append(opts, client.WithTokens(d.Tokens))
	}
	if d.Logger != nil {
		opts = append(opts, client.WithLogger(d.Logger))
	}
	return opts
}

// Status is the non-row part of the view.
type Status struct {
	Total      int64
	Page       int
	TotalPages int
	Buttons    []int
	Filters    records.Filters
	// Error is the user message of the last failed load.
	Error string
	// Empty is set when a successful load returned no rows.
	Empty string

	SelectedFile string
	Upload       *imports.Result
	UploadError  string
}

// View is a snapshot of what the screen shows.
type View[R any] struct {
	Rows []R
	Status
}

// Screen is one resource screen.
type Screen[R any] struct {
	cfg      Config[R]
	fetcher  *listfetch.Fetcher[R]
	exporter sheets.Exporter[R]
	uploader *sheets.Uploader

	mu       sync.Mutex
	view     View[R]
	selected *sheets.File
}

func New[R any](cfg Config[R], deps Deps) *Screen[R] {
	if cfg.Limit <= 0 {
		cfg.Limit = 30
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = tabular.XLSX
	}
	opts := deps.options()
	s := &Screen[R]{
		cfg:      cfg,
		fetcher:  listfetch.New[R](deps.BaseURL, cfg.Path, cfg.Limit, opts...),
		exporter: sheets.Exporter[R]{Resource: cfg.Resource, Format: cfg.Export.Format, Mapper: cfg.Mapper, Now: deps.Now},
	}
	if cfg.Import != nil {
		s.uploader = sheets.NewUploader(deps.BaseURL, *cfg.Import, opts...)
	}
	return s
}

// Config returns the screen configuration.
func (s *Screen[R]) Config() Config[R] { return s.cfg }

// Load fetches page with filters and commits the outcome to the view unless a
// newer load superseded it. Keys outside the screen's filter list are dropped.
func (s *Screen[R]) Load(ctx context.Context, page int, filters records.Filters) error {
	filters = filters.Restrict(s.cfg.FilterKeys)
	_, err := s.fetcher.Fetch(ctx, page, filters, func(p records.Page[R], err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.commit(p, filters, err)
	})
	return err
}

func (s *Screen[R]) commit(p records.Page[R], filters records.Filters, err error) {
	v := &s.view
	v.Filters = filters
	if err != nil {
		v.Rows, v.Total, v.TotalPages, v.Buttons = nil, 0, 0, nil
		v.Error = client.UserMessage(err)
		v.Empty = ""
		return
	}
	v.Rows = p.Rows
	v.Total = p.Total
	v.Page = p.Page
	v.TotalPages = p.TotalPages
	v.Buttons = records.PageButtons(p.Page, p.TotalPages, pageWindow)
	v.Error = ""
	v.Empty = ""
	if p.Total == 0 {
		v.Empty = MsgNoData
		if !filters.IsEmpty() {
			v.Empty = MsgNoMatches
		}
	}
}

// View returns the current view.
func (s *Screen[R]) View() View[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Rows = append([]R(nil), s.view.Rows...)
	return v
}

// Status returns the current view without its rows.
func (s *Screen[R]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Status
}

// Table renders the loaded rows as display cells, header first.
func (s *Screen[R]) Table() ([][]string, error) {
	v := s.View()
	return tabular.Records[R](s.cfg.Mapper, v.Rows)
}

// Export renders the loaded page, or every matching row when the screen is
// configured for it.
func (s *Screen[R]) Export(ctx context.Context) (sheets.Artifact, error) {
	v := s.View()
	rows := v.Rows
	if s.cfg.Export.AllMatching {
		all, err := s.fetcher.FetchAll(ctx, v.Filters, nil)
		if err != nil {
			return sheets.Artifact{}, err
		}
		rows = all.Rows
	}
	return s.exporter.Export(rows, sheets.FilenameHint(v.Filters))
}

// SelectFile validates f and keeps it for Import. Selecting a file discards
// the previous upload result.
func (s *Screen[R]) SelectFile(f sheets.File) error {
	if s.uploader == nil {
		return errNoImport
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Upload = nil
	s.view.UploadError = ""
	if err := s.uploader.Validate(f); err != nil {
		s.selected = nil
		s.view.SelectedFile = ""
		s.view.UploadError = client.UserMessage(err)
		return err
	}
	s.selected = &f
	s.view.SelectedFile = f.Name
	return nil
}

// Import uploads the selected file. On success the selection is cleared so
// the same file can be chosen again.
func (s *Screen[R]) Import(ctx context.Context) (imports.Result, error) {
	if s.uploader == nil {
		return imports.Result{}, errNoImport
	}
	s.mu.Lock()
	f := s.selected
	s.mu.Unlock()
	if f == nil {
		return imports.Result{}, errNoFile
	}

	res, err := s.uploader.Upload(ctx, *f)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.view.UploadError = client.UserMessage(err)
		if res.TotalRows > 0 || res.Message != "" {
			s.view.Upload = &res
		}
		return res, err
	}
	s.view.Upload = &res
	s.view.UploadError = ""
	s.selected = nil
	s.view.SelectedFile = ""
	return res, nil
}

// ResetUpload clears the selection and the last upload result.
func (s *Screen[R]) ResetUpload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.view.SelectedFile = ""
	s.view.Upload = nil
	s.view.UploadError = ""
}

// Close cancels any outstanding load.
func (s *Screen[R]) Close() { s.fetcher.Close() }
