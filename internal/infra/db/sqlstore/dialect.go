package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	Name string
	// Bind returns the placeholder for the n-th (1-based) argument.
	Bind func(n int) string
	// Like is the case-insensitive pattern operator.
	Like string
	// IsDuplicate reports whether err is a unique-key violation.
	IsDuplicate func(err error) bool
}

// QuestionBind is the "?" placeholder style used by MySQL and SQLite.
func QuestionBind(int) string { return "?" }

// DollarBind is the "$n" placeholder style used by PostgreSQL.
func DollarBind(n int) string { return fmt.Sprintf("$%d", n) }

// Escape character used in LIKE patterns. A backslash would need different
// quoting in MySQL and PostgreSQL string literals.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// escapeLikePattern escapes LIKE wildcards in user input.
func escapeLikePattern(s string) string {
	return likeReplacer.Replace(s)
}
