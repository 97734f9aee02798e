package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bryanwahyu/automaton-diag/internal/client/screen"
)

// maxRowErrors caps the row errors printed after an import.
const maxRowErrors = 20

var (
	accent = lipgloss.AdaptiveColor{Light: "#005577", Dark: "#00aadd"}

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#a8a8a8"})
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#859900", Dark: "#50fa7b"}).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#b58900", Dark: "#f1fa8c"}).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#dc322f", Dark: "#ff5555"}).
			Bold(true)
)

func renderScreen(w io.Writer, s Screen) error {
	st := s.Status()
	switch {
	case st.Error != "":
		fmt.Fprintln(w, errorStyle.Render(st.Error))
		return nil
	case st.Empty != "":
		fmt.Fprintln(w, mutedStyle.Render(st.Empty))
		return nil
	}

	recs, err := s.Table()
	if err != nil {
		return err
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		Headers(recs[0]...).
		Rows(recs[1:]...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, pager(st))
	return nil
}

// pager renders "Page 2 of 5 (130 rows)  1 [2] 3 4 5".
func pager(st screen.Status) string {
	buttons := make([]string, len(st.Buttons))
	for i, b := range st.Buttons {
		label := strconv.Itoa(b)
		if b == st.Page {
			label = currentStyle.Render("[" + label + "]")
		}
		buttons[i] = label
	}
	info := fmt.Sprintf("Page %d of %d (%d rows)", st.Page, st.TotalPages, st.Total)
	return mutedStyle.Render(info) + "  " + strings.Join(buttons, " ")
}

// renderUpload prints the last upload result. A failed upload's message is
// left to the returned error.
func renderUpload(w io.Writer, st screen.Status) {
	res := st.Upload
	if res == nil {
		return
	}
	if st.UploadError == "" && res.Message != "" {
		style := successStyle
		if res.ImportedRows == 0 {
			style = warningStyle
		}
		fmt.Fprintln(w, style.Render(res.Message))
	}
	fmt.Fprintf(w, "Imported: %d of %d\n", res.ImportedRows, res.TotalRows)
	fmt.Fprintf(w, "Duplicates: %d in file, %d already stored\n", res.Duplicates.InFile, res.Duplicates.InDatabase)
	if res.ArchiveURL != "" {
		fmt.Fprintln(w, mutedStyle.Render("Original file: "+res.ArchiveURL))
	}
	for i, e := range res.Errors {
		if i == maxRowErrors {
			fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("... and %d more", len(res.Errors)-maxRowErrors)))
			break
		}
		field := ""
		if e.Field != "" {
			field = " " + e.Field
		}
		fmt.Fprintf(w, "  row %d%s: %s\n", e.Row, field, e.Message)
	}
}
