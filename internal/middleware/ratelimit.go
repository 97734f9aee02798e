package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit allows requests per window for each client, keyed by operator
// when authenticated and by IP otherwise.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(keyByOperatorOrIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "too many requests, try again shortly")
		}),
	)
}

func keyByOperatorOrIP(r *http.Request) (string, error) {
	if op := OperatorFromContext(r.Context()); op != "" {
		return "op:" + op, nil
	}
	return httprate.KeyByIP(r)
}
