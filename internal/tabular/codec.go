package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"
)

// Format is a tabular file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrLegacyWorkbook    = errors.New("legacy .xls workbooks are not supported, save the file as .xlsx")
	ErrNoHeader          = errors.New("file has no header row")
)

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type written for the format.
func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// FormatFromName picks the format from a file name's extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return CSV, nil
	case ".xlsx":
		return XLSX, nil
	case ".xls":
		return "", ErrLegacyWorkbook
	}
	return "", ErrUnsupportedFormat
}

// MissingColumnsError lists required headers absent from an imported file.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

const sheetName = "Sheet1"

// Encode writes rows in the given format, header first.
func Encode[R any](w io.Writer, format Format, m Mapper[R], rows []R) error {
	switch format {
	case CSV:
		cw := csv.NewWriter(w)
		cw.UseCRLF = true
		if err := writeRows(cw, m, rows); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	case XLSX:
		f := excelize.NewFile()
		defer f.Close()
		sw := &sheetWriter{file: f, sheet: sheetName}
		if err := writeRows(sw, m, rows); err != nil {
			return err
		}
		if err := sw.finish(len(m.Header())); err != nil {
			return err
		}
		return f.Write(w)
	}
	return ErrUnsupportedFormat
}

// Records renders rows as display cells, header first.
func Records[R any](m Mapper[R], rows []R) ([][]string, error) {
	var c collector
	if err := writeRows(&c, m, rows); err != nil {
		return nil, err
	}
	return c.records, nil
}

func writeRows[R any](w csvutil.Writer, m Mapper[R], rows []R) error {
	if err := w.Write(m.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = false
	for i, row := range rows {
		if err := m.Encode(enc, row); err != nil {
			return fmt.Errorf("encode row %d: %w", i+1, err)
		}
	}
	return nil
}

// Decoded is one imported data row. Line is the 1-based line in the source
// file (the header is line 1).
type Decoded[R any] struct {
	Line  int
	Value R
	Err   error
}

// Decode reads every data row of a file. File-level problems (unreadable
// workbook, missing header or columns) are returned as the error; row-level
// problems are reported per row.
func Decode[R any](r io.Reader, format Format, m Mapper[R]) ([]Decoded[R], error) {
	raw, err := readAll(r, format)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoHeader
	}
	header, err := canonicalHeader(raw[0], m)
	if err != nil {
		return nil, err
	}

	src := newSliceReader(raw[1:], len(header))
	if len(src.rows) == 0 {
		return nil, nil
	}
	dec, err := csvutil.NewDecoder(src, header...)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	out := make([]Decoded[R], 0, len(src.rows))
	for i := 0; ; i++ {
		v, err := m.Decode(dec)
		if errors.Is(err, io.EOF) {
			break
		}
		out = append(out, Decoded[R]{Line: src.lines[i], Value: v, Err: err})
	}
	return out, nil
}

func readAll(r io.Reader, format Format) ([][]string, error) {
	switch format {
	case CSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		cr.LazyQuotes = true
		records, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(records) > 0 && len(records[0]) > 0 {
			records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
		}
		return records, nil
	case XLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
		}
		return rows, nil
	}
	return nil, ErrUnsupportedFormat
}

// canonicalHeader maps the file's header cells onto the layout's exact names,
// ignoring case and surrounding whitespace. Unknown columns are kept and later
// ignored by the decoder.
func canonicalHeader[R any](cells []string, m Mapper[R]) ([]string, error) {
	known := map[string]string{}
	for _, h := range m.Header() {
		known[normalizeHeader(h)] = h
	}
	seen := map[string]bool{}
	out := make([]string, len(cells))
	for i, c := range cells {
		key := normalizeHeader(c)
		if name, ok := known[key]; ok && !seen[name] {
			out[i] = name
			seen[name] = true
			continue
		}
		out[i] = fmt.Sprintf("_col%d_%s", i, strings.TrimSpace(c))
	}
	var missing []string
	for _, req := range m.Required() {
		if !seen[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	if len(seen) == 0 {
		return nil, ErrNoHeader
	}
	return out, nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
