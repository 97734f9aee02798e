package tabular

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is written for null values.
const Placeholder = "-"

const (
	DateLayout     = "02 Jan 2006"
	DateTimeLayout = "02 Jan 2006 15:04"
)

var printer = message.NewPrinter(language.English)

var dateLayouts = []string{
	DateTimeLayout,
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2 Jan 2006",
}

// IsNull reports whether a cell holds no value.
func IsNull(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == Placeholder
}

// OrDash returns s, or the placeholder when s is blank.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// Text reads a string cell, mapping the placeholder back to "".
func Text(s string) string {
	if IsNull(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// FormatDate renders t as a display date. Time of day is dropped.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.Format(DateLayout)
}

// FormatDateTime renders t to minute precision.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format(DateTimeLayout)
}

// ParseDate accepts display dates, ISO dates and Excel serial numbers.
// Null cells yield nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if IsNull(s) {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	// Excel serial date support for cells typed as dates in a workbook.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 20000 && serial <= 80000 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, strconv.ErrSyntax
}

// FormatBool renders Yes/No.
func FormatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ParseBool accepts Yes/No and common machine spellings. Null cells are false.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "x", "active":
		return true, nil
	case "no", "n", "false", "0", "", Placeholder, "inactive":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

// FormatInt renders n with locale digit grouping (12,345).
func FormatInt(n int) string {
	return printer.Sprintf("%d", n)
}

// ParseInt reverses FormatInt. Null cells are 0.
func ParseInt(s string) (int, error) {
	if IsNull(s) {
		return 0, nil
	}
	clean := strings.NewReplacer(",", "", " ", "", "_", "").Replace(strings.TrimSpace(s))
	if n, err := strconv.Atoi(clean); err == nil {
		return n, nil
	}
	// Spreadsheets sometimes store whole numbers as floats ("2019.0").
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || f != float64(int(f)) {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}
