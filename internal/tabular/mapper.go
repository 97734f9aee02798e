// Package tabular converts typed rows to and from spreadsheet and CSV files.
//
// Every resource describes its file layout as a flat struct of display strings
// tagged with `csv:"<Header>"`. The same layout drives export and import, so a
// file produced by export can be fed back through import.
package tabular

import (
	"fmt"

	"github.com/jszwec/csvutil"
)

// Mapper converts between a record type and its sheet representation.
type Mapper[R any] interface {
	Header() []string
	Required() []string
	Encode(enc *csvutil.Encoder, row R) error
	Decode(dec *csvutil.Decoder) (R, error)
}

// Layout builds a Mapper from a sheet row type S and two conversion funcs.
type Layout[R any, S any] struct {
	To   func(R) S
	From func(S) (R, error)

	// RequiredColumns must be present in an imported header row.
	RequiredColumns []string
}

func (l Layout[R, S]) Header() []string {
	var s S
	h, err := csvutil.Header(s, "csv")
	if err != nil {
		panic(fmt.Sprintf("tabular: invalid sheet row type %T: %v", s, err))
	}
	return h
}

func (l Layout[R, S]) Required() []string { return l.RequiredColumns }

func (l Layout[R, S]) Encode(enc *csvutil.Encoder, row R) error {
	return enc.Encode(l.To(row))
}

func (l Layout[R, S]) Decode(dec *csvutil.Decoder) (R, error) {
	var s S
	if err := dec.Decode(&s); err != nil {
		var zero R
		return zero, err
	}
	return l.From(s)
}

// FieldError reports a cell that could not be converted.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid is shorthand for a *FieldError.
func Invalid(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}
