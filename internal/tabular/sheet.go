package tabular

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheetWriter adapts an excelize worksheet to csvutil.Writer.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) Write(record []string) error {
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(record))
	for i, v := range record {
		values[i] = v
	}
	return w.file.SetSheetRow(w.sheet, cell, &values)
}

// finish styles the header row and widens the used columns.
func (w *sheetWriter) finish(cols int) error {
	if cols == 0 {
		return nil
	}
	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := w.file.SetRowStyle(w.sheet, 1, 1, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	return w.file.SetColWidth(w.sheet, "A", last, 20)
}

// collector keeps written records in memory.
type collector struct {
	records [][]string
}

func (c *collector) Write(record []string) error {
	c.records = append(c.records, append([]string(nil), record...))
	return nil
}

// sliceReader adapts already-read rows to csvutil.Reader. Blank rows are
// skipped and short rows padded to the header width.
type sliceReader struct {
	rows  [][]string
	lines []int
	next  int
}

func newSliceReader(raw [][]string, width int) *sliceReader {
	r := &sliceReader{}
	for i, row := range raw {
		if blank(row) {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		r.rows = append(r.rows, padded)
		r.lines = append(r.lines, i+2)
	}
	return r
}

func (r *sliceReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
