// Package client holds what the dashboard packages share when talking to the
// API: the error taxonomy and the token source.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a client failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNetwork
	KindHTTP
	KindFormat
	KindServerConfig
	KindEndpoint
	KindImport
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindFormat:
		return "format"
	case KindServerConfig:
		return "server configuration"
	case KindEndpoint:
		return "endpoint"
	case KindImport:
		return "import"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Error is returned by every client operation that fails.
type Error struct {
	Kind Kind
	// Op is the operation, e.g. "list vehicles".
	Op string
	// Status is the HTTP status when one was received.
	Status int
	// Message is safe to show to an operator.
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, ErrCancelled) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// ErrCancelled is the kind sentinel for superseded or aborted requests.
var ErrCancelled = &Error{Kind: KindCancelled}

// IsKind reports whether err is a client error of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == k
}

// Transport classifies an error from http.Client.Do.
func Transport(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCancelled, Op: op, Err: err}
	}
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// UserMessage turns any error into a short string for the operator.
// Cancelled errors yield "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if !errors.As(err, &ce) {
		return "Something went wrong. Please try again."
	}
	switch ce.Kind {
	case KindCancelled:
		return ""
	case KindValidation, KindImport:
		if ce.Message != "" {
			return ce.Message
		}
		return "The upload failed."
	case KindNetwork:
		return "Something went wrong. Please check your connection and try again."
	case KindHTTP:
		return "Request failed: " + statusText(ce.Status)
	case KindFormat:
		return "Invalid response format."
	case KindServerConfig:
		return "The server returned an unexpected response. Please contact an administrator."
	case KindEndpoint:
		return "No import endpoint is available for this screen."
	}
	return "Something went wrong. Please try again."
}

// StatusMessage is the generic message used when a failed response carries none.
func StatusMessage(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "The file could not be processed. Check the format and try again."
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "You are not allowed to import data. Please sign in again."
	case status == http.StatusRequestEntityTooLarge:
		return "The file is too large for the server."
	case status == http.StatusUnprocessableEntity:
		return "No rows could be imported."
	case status == http.StatusTooManyRequests:
		return "Too many uploads. Please wait a minute and try again."
	case status >= 500:
		return "The server failed to process the file. Please try again later."
	}
	return "Upload failed: " + statusText(status)
}

func statusText(status int) string {
	if t := http.StatusText(status); t != "" {
		return fmt.Sprintf("%d %s", status, t)
	}
	return fmt.Sprintf("status %d", status)
}

// TokenSource yields the bearer token for API calls; "" means none.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Authorize sets the bearer header when ts yields a token.
func Authorize(req *http.Request, ts TokenSource) {
	if ts == nil {
		return
	}
	if tok := ts.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}
