// Package sheets moves rows between the dashboard and spreadsheet files:
// export renders loaded rows into a downloadable file, upload sends a
// user-selected file to a bulk-import endpoint.
package sheets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-diag/internal/client"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

// ErrNoData is returned instead of producing an empty file.
var ErrNoData = &client.Error{Kind: client.KindValidation, Op: "export", Message: "No data available to download."}

// Artifact is a generated file ready to be saved.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Exporter renders rows of one resource.
type Exporter[R any] struct {
	// Resource prefixes the filename, e.g. "Vehicles".
	Resource string
	Format   tabular.Format
	Mapper   tabular.Mapper[R]
	// Now defaults to time.Now.
	Now func() time.Time
}

// Export renders rows into an artifact. hint names the export scope and is
// usually FilenameHint(filters).
func (e Exporter[R]) Export(rows []R, hint string) (Artifact, error) {
	if len(rows) == 0 {
		return Artifact{}, ErrNoData
	}
	var buf bytes.Buffer
	if err := tabular.Encode[R](&buf, e.Format, e.Mapper, rows); err != nil {
		return Artifact{}, &client.Error{Kind: client.KindFormat, Op: "export", Err: err}
	}
	return Artifact{
		Filename:    e.filename(hint),
		ContentType: e.Format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

func (e Exporter[R]) filename(hint string) string {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if hint = safeName(hint); hint == "" {
		hint = "All"
	}
	return fmt.Sprintf("%s_%s_%s%s", safeName(e.Resource), hint, now().Format("2006-01-02"), e.Format.Ext())
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeName(s string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(s), "-"), "-._")
}

// FilenameHint joins the active filter values in key order, or returns "All".
func FilenameHint(filters records.Filters) string {
	keys := filters.Keys()
	if len(keys) == 0 {
		return "All"
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if p := safeName(filters.Get(k)); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "All"
	}
	return strings.Join(parts, "_")
}

// Downloader delivers an artifact to the operator.
type Downloader interface {
	Save(a Artifact) (string, error)
}

// DirDownloader writes artifacts into a directory.
type DirDownloader struct {
	Dir string
}

func (d DirDownloader) Save(a Artifact) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(a.Filename))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
