// Package encoder writes Go values as JSON. Records are written as
// objects of their properties, with a "class" member whenever the
// runtime type differs from the type the reader will expect.
package encoder

import (
	"bytes"
	"io"
	"log/slog"
	"reflect"

	"github.com/go-json-experiment/json/jsontext"

	apperrors "github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/opentype"
	"github.com/mcncl/typedjson/internal/registry"
)

// Encoder writes typed values to a JSON stream. A schema for an open type
// is written in full once per Encoder; later occurrences refer to it by
// name. An Encoder is not safe for concurrent use.
type Encoder struct {
	out       *jsontext.Encoder
	reg       *registry.Registry
	described *opentype.Known
	omitClass bool
	excluded  map[string]bool
	logger    *slog.Logger
	jsonOpts  []jsontext.Options
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithRegistry makes the encoder use reg instead of the default registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Encoder) {
		if reg != nil {
			e.reg = reg
		}
	}
}

// OmitClass suppresses the class member of records.
func OmitClass(omit bool) Option {
	return func(e *Encoder) {
		e.omitClass = omit
	}
}

// Exclude skips properties whose declared type is one of types.
func Exclude(types ...reflect.Type) Option {
	return func(e *Encoder) {
		for _, t := range types {
			e.excluded[registry.QualifiedName(t)] = true
		}
	}
}

// Indent makes the output multiline, indenting nested values by indent.
func Indent(indent string) Option {
	return func(e *Encoder) {
		e.jsonOpts = append(e.jsonOpts, jsontext.Multiline(true), jsontext.WithIndent(indent))
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an encoder writing to w.
func New(w io.Writer, opts ...Option) *Encoder {
	e := &Encoder{
		described: opentype.NewKnown(),
		excluded:  make(map[string]bool),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reg == nil {
		e.reg = registry.Default()
	}
	e.out = jsontext.NewEncoder(w, e.jsonOpts...)
	return e
}

// Encode writes v. The runtime type of v is the expected type, so a root
// record carries no class member.
func (e *Encoder) Encode(v any) error {
	return e.EncodeAs(v, reflect.TypeOf(v))
}

// EncodeAs writes v as a value of the expected type t. A nil t expects
// nothing, so every record carries its class.
func (e *Encoder) EncodeAs(v any, t reflect.Type) error {
	if err := e.value(reflect.ValueOf(v), t); err != nil {
		return apperrors.NewOutputError("failed to write JSON", err)
	}
	return nil
}

// EncodeArray writes items as one array whose elements have no expected
// type.
func (e *Encoder) EncodeArray(items ...any) error {
	return e.EncodeAs(items, reflect.TypeOf(items))
}

// Marshal returns the encoding of v.
func Marshal(v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := New(&buf, opts...).Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
