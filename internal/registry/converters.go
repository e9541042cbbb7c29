package registry

import (
	"encoding"
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcncl/typedjson/internal/models"
)

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

	// Scalars with their own wire form; their text methods are ignored.
	builtinScalars = map[reflect.Type]bool{
		reflect.TypeFor[time.Time]():       true,
		reflect.TypeFor[big.Int]():         true,
		reflect.TypeFor[big.Float]():       true,
		reflect.TypeFor[big.Rat]():         true,
		reflect.TypeFor[decimal.Decimal](): true,
		reflect.TypeFor[models.Name]():     true,
		reflect.TypeFor[models.Char]():     true,
	}
)

// Converter turns values of one type into strings and back.
type Converter struct {
	Format func(v reflect.Value) (string, error)
	Parse  func(s string) (reflect.Value, error)
}

// RegisterConverter registers a string conversion for T.
func RegisterConverter[T any](r *Registry, format func(T) (string, error), parse func(string) (T, error)) {
	t := reflect.TypeFor[T]()
	c := &Converter{
		Format: func(v reflect.Value) (string, error) {
			return format(v.Interface().(T))
		},
		Parse: func(s string) (reflect.Value, error) {
			v, err := parse(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		},
	}
	r.mu.Lock()
	r.convs[t] = c
	r.mu.Unlock()
	r.lookups.Delete(t)
}

// Converter returns the string conversion for t: a registered one, or
// one derived from encoding.TextMarshaler and encoding.TextUnmarshaler
// when t implements both. Lookups are memoized.
func (r *Registry) Converter(t reflect.Type) (*Converter, bool) {
	if t == nil {
		return nil, false
	}
	if cached, ok := r.lookups.Load(t); ok {
		c := cached.(*Converter)
		return c, c != nil
	}
	c := r.findConverter(t)
	r.lookups.Store(t, c)
	return c, c != nil
}

func (r *Registry) findConverter(t reflect.Type) *Converter {
	r.mu.RLock()
	c, ok := r.convs[t]
	r.mu.RUnlock()
	if ok {
		return c
	}
	if t.Kind() == reflect.Interface || builtinScalars[Base(t)] {
		return nil
	}
	if !t.Implements(textMarshalerType) && !reflect.PointerTo(t).Implements(textMarshalerType) {
		return nil
	}
	isPtr := t.Kind() == reflect.Pointer
	if isPtr && !t.Implements(textUnmarshalerType) ||
		!isPtr && !reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return nil
	}
	return &Converter{
		Format: func(v reflect.Value) (string, error) {
			m, ok := Addressable(v).Addr().Interface().(encoding.TextMarshaler)
			if !ok {
				m = v.Interface().(encoding.TextMarshaler)
			}
			text, err := m.MarshalText()
			return string(text), err
		},
		Parse: func(s string) (reflect.Value, error) {
			target := reflect.New(t)
			if isPtr {
				target.Elem().Set(reflect.New(t.Elem()))
				if err := target.Elem().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
					return reflect.Value{}, fmt.Errorf("parse %s: %w", QualifiedName(t), err)
				}
				return target.Elem(), nil
			}
			if err := target.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, fmt.Errorf("parse %s: %w", QualifiedName(t), err)
			}
			return target.Elem(), nil
		},
	}
}
