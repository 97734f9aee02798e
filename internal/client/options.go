package client

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Options are the collaborators shared by the client packages.
type Options struct {
	HTTP   *http.Client
	Tokens TokenSource
	Logger *slog.Logger
}

// Option configures Options.
type Option func(*Options)

func WithHTTPClient(c *http.Client) Option { return func(o *Options) { o.HTTP = c } }

func WithTokens(ts TokenSource) Option { return func(o *Options) { o.Tokens = ts } }

func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Apply fills defaults and applies opts.
func Apply(opts ...Option) Options {
	o := Options{HTTP: &http.Client{Timeout: 30 * time.Second}, Logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Endpoint joins a base URL and a resource path.
func Endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
