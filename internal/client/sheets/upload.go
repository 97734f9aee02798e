package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/bryanwahyu/automaton-diag/internal/client"
	"github.com/bryanwahyu/automaton-diag/internal/domain/imports"
)

// FieldName is the multipart field carrying the file.
const FieldName = "file"

// ErrUploadInFlight rejects a second upload while one is running.
var ErrUploadInFlight = &client.Error{Kind: client.KindValidation, Op: "import", Message: "An upload is already in progress."}

// File is a user-selected file. Open is called once per upload attempt, so a
// failed upload can be retried with the same File.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// OpenFile describes the file at path for upload.
func OpenFile(path string) (File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if st.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Size: st.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// BytesFile wraps an in-memory file.
func BytesFile(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// UploadConfig describes a screen's bulk-import endpoint.
type UploadConfig struct {
	// Endpoints are tried in order; a 404 moves on to the next one.
	Endpoints []string
	// Accept lists allowed extensions including the dot.
	Accept   []string
	MaxBytes int64
}

// Uploader posts files to a bulk-import endpoint. One upload runs at a time.
type Uploader struct {
	http    *http.Client
	baseURL string
	cfg     UploadConfig
	tokens  client.TokenSource
	logger  *slog.Logger

	busy atomic.Bool
}

func NewUploader(baseURL string, cfg UploadConfig, opts ...client.Option) *Uploader {
	o := client.Apply(opts...)
	return &Uploader{http: o.HTTP, baseURL: baseURL, cfg: cfg, tokens: o.Tokens, logger: o.Logger}
}

// Busy reports whether an upload is running.
func (u *Uploader) Busy() bool { return u.busy.Load() }

// Validate checks type and size without touching the network.
func (u *Uploader) Validate(f File) error {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if !slices.Contains(u.cfg.Accept, ext) {
		return &client.Error{Kind: client.KindValidation, Op: "import",
			Message: fmt.Sprintf("Invalid file type. Please select a %s file.", strings.Join(u.cfg.Accept, ", "))}
	}
	if f.Size <= 0 {
		return &client.Error{Kind: client.KindValidation, Op: "import", Message: "The selected file is empty."}
	}
	if u.cfg.MaxBytes > 0 && f.Size > u.cfg.MaxBytes {
		return tooLarge(u.cfg.MaxBytes)
	}
	return nil
}

// read loads the whole file. The bytes read must match the size the file was
// selected with.
func (u *Uploader) read(f File) ([]byte, error) {
	if f.Open == nil {
		return nil, errUnreadable(nil)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errUnreadable(err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if u.cfg.MaxBytes > 0 {
		r = io.LimitReader(r, u.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errUnreadable(err)
	}
	if u.cfg.MaxBytes > 0 && int64(len(data)) > u.cfg.MaxBytes {
		return nil, tooLarge(u.cfg.MaxBytes)
	}
	if int64(len(data)) != f.Size {
		return nil, &client.Error{Kind: client.KindValidation, Op: "import",
			Message: "The file changed after it was selected. Please select it again."}
	}
	return data, nil
}

func errUnreadable(err error) error {
	return &client.Error{Kind: client.KindValidation, Op: "import", Message: "The file could not be read.", Err: err}
}

func tooLarge(limit int64) error {
	return &client.Error{Kind: client.KindValidation, Op: "import",
		Message: fmt.Sprintf("File is too large. Maximum size is %d MB.", limit>>20)}
}

// Upload validates f and sends it. On a JSON error response the decoded
// result is returned together with the error.
func (u *Uploader) Upload(ctx context.Context, f File) (imports.Result, error) {
	if !u.busy.CompareAndSwap(false, true) {
		return imports.Result{}, ErrUploadInFlight
	}
	defer u.busy.Store(false)

	if err := u.Validate(f); err != nil {
		return imports.Result{}, err
	}
	data, err := u.read(f)
	if err != nil {
		return imports.Result{}, err
	}

	body, contentType, err := multipartBody(f.Name, data)
	if err != nil {
		return imports.Result{}, &client.Error{Kind: client.KindValidation, Op: "import", Err: err}
	}

	for _, ep := range u.cfg.Endpoints {
		url := client.Endpoint(u.baseURL, ep)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return imports.Result{}, &client.Error{Kind: client.KindNetwork, Op: "import", Err: err}
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		client.Authorize(req, u.tokens)

		resp, err := u.http.Do(req)
		if err != nil {
			return imports.Result{}, client.Transport("import", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			resp.Body.Close()
			u.logger.Debug("import endpoint not found", "url", url)
			continue
		}
		res, err := u.readResult(resp, url)
		resp.Body.Close()
		if err == nil {
			u.logger.Info("file imported", "file", f.Name, "url", url,
				"imported", res.ImportedRows, "total", res.TotalRows)
		}
		return res, err
	}
	return imports.Result{}, &client.Error{Kind: client.KindEndpoint, Op: "import", Status: http.StatusNotFound,
		Message: fmt.Sprintf("none of %d import endpoints exist", len(u.cfg.Endpoints))}
}

func (u *Uploader) readResult(resp *http.Response, url string) (imports.Result, error) {
	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mt != "application/json" && !strings.HasSuffix(mt, "+json") {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		u.logger.Debug("import returned non-JSON body", "url", url, "status", resp.StatusCode,
			"content_type", mt, "body", string(raw))
		return imports.Result{}, &client.Error{Kind: client.KindServerConfig, Op: "import", Status: resp.StatusCode}
	}

	var res imports.Result
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// error bodies are optional
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			u.logger.Debug("import error body not decoded", "url", url, "status", resp.StatusCode, "error", err)
			res = imports.Result{}
		}
		msg := res.Message
		if msg == "" {
			msg = client.StatusMessage(resp.StatusCode)
		}
		return res, &client.Error{Kind: client.KindImport, Op: "import", Status: resp.StatusCode, Message: msg}
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return imports.Result{}, &client.Error{Kind: client.KindFormat, Op: "import", Status: resp.StatusCode, Err: err}
	}
	return res, nil
}

func multipartBody(name string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(FieldName, filepath.Base(name))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
