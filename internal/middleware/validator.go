package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// Input validation and sanitization utilities

var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// ErrBadParam is wrapped by parameter validation errors.
var ErrBadParam = errors.New("invalid parameter")

// ValidateVIN checks a normalised VIN (no I, O or Q).
func ValidateVIN(vin string) error {
	if !vinPattern.MatchString(vin) {
		return fmt.Errorf("%w: %q is not a valid VIN", ErrBadParam, vin)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// PageParams reads page and limit from the query. all is true when both are
// absent, which selects every matching row.
func PageParams(r *http.Request) (page, limit int, all bool, err error) {
	q := r.URL.Query()
	rawPage, rawLimit := strings.TrimSpace(q.Get("page")), strings.TrimSpace(q.Get("limit"))
	if rawPage == "" && rawLimit == "" {
		return 0, 0, true, nil
	}
	if page, err = positiveInt("page", rawPage, 1); err != nil {
		return 0, 0, false, err
	}
	if limit, err = positiveInt("limit", rawLimit, 0); err != nil {
		return 0, 0, false, err
	}
	return page, limit, false, nil
}

func positiveInt(name, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadParam, name)
	}
	return n, nil
}
