// Package decoder reads JSON into Go values, guided by the type the caller
// expects. Objects may carry a "class" key naming their concrete type or
// an inline open type definition.
package decoder

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-json-experiment/json/jsontext"

	apperrors "github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/models"
	"github.com/mcncl/typedjson/internal/opentype"
	"github.com/mcncl/typedjson/internal/registry"
)

// errEnd signals that the closing token of the enclosing container was
// read instead of a value.
var errEnd = errors.New("end of container")

// Decoder reads typed values from a JSON stream. A Decoder is not safe
// for concurrent use.
type Decoder struct {
	in            *tokenStream
	reg           *registry.Registry
	known         *opentype.Known
	ignoreUnknown bool
	keepClass     bool
	logger        *slog.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithRegistry makes the decoder use reg instead of the default registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(d *Decoder) {
		if reg != nil {
			d.reg = reg
		}
	}
}

// IgnoreUnknownKeys makes the decoder skip object keys that do not match
// a property instead of failing.
func IgnoreUnknownKeys(ignore bool) Option {
	return func(d *Decoder) {
		d.ignoreUnknown = ignore
	}
}

// KeepClass makes the decoder keep a class tag that names no known type
// as the "class" entry of the generic object it decodes to.
func KeepClass(keep bool) Option {
	return func(d *Decoder) {
		d.keepClass = keep
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a decoder reading from r.
func New(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		in:     newTokenStream(r),
		known:  opentype.NewKnown(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.reg == nil {
		d.reg = registry.Default()
	}
	return d
}

// NewFromString creates a decoder reading s.
func NewFromString(s string, opts ...Option) *Decoder {
	return New(strings.NewReader(s), opts...)
}

// Decode reads the next value into the value pointed to by v. The
// pointed-to type is the expected type; a pointer to an empty interface
// decodes generically. Decode returns io.EOF at the end of the stream.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return apperrors.Newf(apperrors.ErrorTypeTypeMismatch, nil,
			"decode target must be a non-nil pointer, got %T", v)
	}
	target := rv.Elem()
	val, err := d.DecodeValue(target.Type())
	if err != nil {
		return err
	}
	if !val.IsValid() {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	target.Set(val)
	return nil
}

// DecodeType reads the next value with t as the expected type. A nil t
// decodes generically. JSON null yields nil.
func (d *Decoder) DecodeType(t reflect.Type) (any, error) {
	v, err := d.DecodeValue(t)
	if err != nil || !v.IsValid() {
		return nil, err
	}
	return v.Interface(), nil
}

// DecodeValue is DecodeType returning a reflect.Value, which is invalid
// for JSON null.
func (d *Decoder) DecodeValue(t reflect.Type) (reflect.Value, error) {
	v, err := d.value(typeHint(t))
	if errors.Is(err, errEnd) {
		return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
			"unexpected end of container")
	}
	if err != nil {
		return reflect.Value{}, err
	}
	return d.assign(t, v, d.in.pos())
}

// DecodeObject reads the next value as a generic object.
func (d *Decoder) DecodeObject() (*models.Object, error) {
	var obj *models.Object
	if err := d.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// DecodeAs reads the next value from d as a T.
func DecodeAs[T any](d *Decoder) (T, error) {
	var v T
	err := d.Decode(&v)
	return v, err
}

// Unmarshal decodes the single JSON value in data into v.
func Unmarshal(data []byte, v any, opts ...Option) error {
	d := New(bytes.NewReader(data), opts...)
	if err := d.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.ErrorTypeUnexpectedToken, nil, "no JSON value", apperrors.ErrEmptyInput)
		}
		return err
	}
	if _, err := d.in.next(); !errors.Is(err, io.EOF) {
		if err != nil {
			return err
		}
		return apperrors.New(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
			"data after top-level value", apperrors.ErrMultipleJSON)
	}
	return nil
}

// value reads the next value. The result is invalid for null.
func (d *Decoder) value(h hint) (reflect.Value, error) {
	tok, err := d.in.next()
	if err != nil {
		return reflect.Value{}, err
	}
	switch tok.kind {
	case 'n':
		return reflect.Value{}, nil
	case 't', 'f':
		return reflect.ValueOf(tok.kind == 't'), nil
	case '0':
		return d.number(tok.text, h)
	case '"':
		return d.str(tok.text, h)
	case '[':
		return d.array(h)
	case '{':
		return d.object(h)
	case ']', '}':
		return reflect.Value{}, errEnd
	}
	return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
		"unexpected %s", tok.describe())
}

// expect reads a token of the given kind.
func (d *Decoder) expect(kind jsontext.Kind, what string) (token, error) {
	tok, err := d.in.next()
	if err != nil {
		return tok, err
	}
	if tok.kind != kind {
		return tok, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
			"expected %s, found %s", what, tok.describe())
	}
	return tok, nil
}

func interfaceOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
