package encoder

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/shopspring/decimal"

	apperrors "github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/models"
	"github.com/mcncl/typedjson/internal/opentype"
	"github.com/mcncl/typedjson/internal/registry"
)

var (
	anyType        = reflect.TypeFor[any]()
	charType       = reflect.TypeFor[models.Char]()
	nameType       = reflect.TypeFor[models.Name]()
	setType        = reflect.TypeFor[models.Set]()
	objectViewType = reflect.TypeFor[models.ObjectView]()
	timeType       = reflect.TypeFor[time.Time]()
	bigIntType     = reflect.TypeFor[big.Int]()
	decimalType    = reflect.TypeFor[decimal.Decimal]()
	compositeType  = reflect.TypeFor[opentype.CompositeData]()
	tabularType    = reflect.TypeFor[opentype.TabularData]()
)

// category is the wire form chosen for a Go type.
type category int

const (
	catDisplay category = iota
	catEnum
	catText
	catBool
	catChar
	catInt
	catUint
	catFloat
	catBigInt
	catDecimal
	catDate
	catName
	catString
	catArray
	catSet
	catComposite
	catTabular
	catObject
	catMap
	catRecord
)

// classify picks the wire form of a non-pointer type. Registered
// enumerations and converters take precedence over the basic kind, since
// named Go types share kinds with the builtins.
func (e *Encoder) classify(t reflect.Type) category {
	switch t {
	case charType:
		return catChar
	case bigIntType:
		return catBigInt
	case decimalType:
		return catDecimal
	case timeType:
		return catDate
	case nameType:
		return catName
	case setType:
		return catSet
	case compositeType:
		return catComposite
	case tabularType:
		return catTabular
	}
	if e.reg.IsEnum(t) {
		return catEnum
	}
	if _, ok := e.reg.Converter(t); ok {
		return catText
	}
	if t.Implements(objectViewType) || reflect.PointerTo(t).Implements(objectViewType) {
		return catObject
	}
	switch t.Kind() {
	case reflect.Bool:
		return catBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return catInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return catUint
	case reflect.Float32, reflect.Float64:
		return catFloat
	case reflect.String:
		return catString
	case reflect.Slice, reflect.Array:
		return catArray
	case reflect.Map:
		return catMap
	case reflect.Struct:
		if len(e.reg.Introspect(t).Properties) > 0 {
			return catRecord
		}
	}
	return catDisplay
}

// value writes v. expected is the type the reader will decode v as; nil
// means nothing is known.
func (e *Encoder) value(v reflect.Value, expected reflect.Type) error {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return e.out.WriteToken(jsontext.Null)
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return e.out.WriteToken(jsontext.Null)
	}
	if (v.Kind() == reflect.Map || v.Kind() == reflect.Slice) && v.IsNil() {
		return e.out.WriteToken(jsontext.Null)
	}

	switch e.classify(v.Type()) {
	case catEnum:
		if name, ok := e.reg.EnumName(v); ok {
			return e.out.WriteToken(jsontext.String(name))
		}
		// Values outside the registered set keep their underlying form.
		switch {
		case v.CanInt():
			return e.out.WriteToken(jsontext.Int(v.Int()))
		case v.CanUint():
			return e.out.WriteToken(jsontext.Uint(v.Uint()))
		case v.Kind() == reflect.String:
			return e.out.WriteToken(jsontext.String(v.String()))
		}
		return apperrors.Newf(apperrors.ErrorTypeUnknownEnumerant, nil,
			"%v is not a value of %s", v, v.Type())
	case catText:
		conv, _ := e.reg.Converter(v.Type())
		s, err := conv.Format(v)
		if err != nil {
			return fmt.Errorf("format %s: %w", v.Type(), err)
		}
		return e.out.WriteToken(jsontext.String(s))
	case catBool:
		return e.out.WriteToken(jsontext.Bool(v.Bool()))
	case catChar:
		return e.out.WriteToken(jsontext.String(string(rune(v.Int()))))
	case catInt:
		return e.out.WriteToken(jsontext.Int(v.Int()))
	case catUint:
		return e.out.WriteToken(jsontext.Uint(v.Uint()))
	case catFloat:
		return e.float(v)
	case catBigInt:
		n := registry.Addressable(v).Addr().Interface().(*big.Int)
		return e.out.WriteValue(jsontext.Value(n.String()))
	case catDecimal:
		return e.out.WriteValue(jsontext.Value(v.Interface().(decimal.Decimal).String()))
	case catDate:
		ts := v.Interface().(time.Time)
		return e.out.WriteToken(jsontext.String(ts.UTC().Truncate(time.Second).Format(time.RFC3339)))
	case catName:
		return e.out.WriteToken(jsontext.String(v.Interface().(models.Name).Canonical()))
	case catString:
		return e.out.WriteToken(jsontext.String(v.String()))
	case catArray:
		return e.array(v, expected)
	case catSet:
		return e.set(registry.Addressable(v).Addr().Interface().(*models.Set))
	case catComposite:
		return e.composite(registry.Addressable(v).Addr().Interface().(*opentype.CompositeData))
	case catTabular:
		return e.tabular(registry.Addressable(v).Addr().Interface().(*opentype.TabularData))
	case catObject:
		return e.object(e.view(v).Backing())
	case catMap:
		return e.mapValue(v)
	case catRecord:
		return e.record(v, expected)
	}
	return e.out.WriteToken(jsontext.String(fmt.Sprint(v.Interface())))
}

func (e *Encoder) view(v reflect.Value) models.ObjectView {
	if ov, ok := v.Interface().(models.ObjectView); ok {
		return ov
	}
	return registry.Addressable(v).Addr().Interface().(models.ObjectView)
}

func (e *Encoder) float(v reflect.Value) error {
	f := v.Float()
	bits := 64
	if v.Kind() == reflect.Float32 {
		bits = 32
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return e.out.WriteToken(jsontext.String(strconv.FormatFloat(f, 'g', -1, bits)))
	}
	if bits == 32 {
		return e.out.WriteValue(jsontext.Value(strconv.FormatFloat(f, 'g', -1, 32)))
	}
	return e.out.WriteToken(jsontext.Float(f))
}

func (e *Encoder) array(v reflect.Value, expected reflect.Type) error {
	var elem reflect.Type
	if b := registry.Base(expected); b != nil && (b.Kind() == reflect.Slice || b.Kind() == reflect.Array) {
		elem = b.Elem()
	}
	if err := e.out.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := e.value(v.Index(i), elem); err != nil {
			return err
		}
	}
	return e.out.WriteToken(jsontext.EndArray)
}

func (e *Encoder) set(s *models.Set) error {
	if err := e.out.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for _, item := range s.Items() {
		if err := e.value(reflect.ValueOf(item), nil); err != nil {
			return err
		}
	}
	return e.out.WriteToken(jsontext.EndArray)
}

func (e *Encoder) object(obj *models.Object) error {
	if err := e.out.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	var err error
	obj.Range(func(key string, val any) bool {
		if err = e.out.WriteToken(jsontext.String(key)); err != nil {
			return false
		}
		err = e.value(reflect.ValueOf(val), nil)
		return err == nil
	})
	if err != nil {
		return err
	}
	return e.out.WriteToken(jsontext.EndObject)
}

// mapValue writes a map with its keys sorted.
func (e *Encoder) mapValue(v reflect.Value) error {
	keys := v.MapKeys()
	names := make([]string, len(keys))
	order := make([]int, len(keys))
	for i, k := range keys {
		if k.Kind() == reflect.String {
			names[i] = k.String()
		} else {
			names[i] = fmt.Sprint(k.Interface())
		}
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return names[order[a]] < names[order[b]] })

	if err := e.out.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, i := range order {
		if err := e.out.WriteToken(jsontext.String(names[i])); err != nil {
			return err
		}
		if err := e.value(v.MapIndex(keys[i]), nil); err != nil {
			return err
		}
	}
	return e.out.WriteToken(jsontext.EndObject)
}

// record writes the readable properties of a struct. Properties whose
// getter fails are left out.
func (e *Encoder) record(v reflect.Value, expected reflect.Type) error {
	t := v.Type()
	desc := e.reg.Introspect(t)
	rec := registry.Addressable(v)
	if err := e.out.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	if !e.omitClass && !e.implied(t, expected) {
		if err := e.out.WriteToken(jsontext.String("class")); err != nil {
			return err
		}
		if err := e.out.WriteToken(jsontext.String(e.reg.NameOf(t))); err != nil {
			return err
		}
	}
	for _, p := range desc.Properties {
		if p.Transient || p.Get == nil || e.excluded[registry.QualifiedName(p.Type)] {
			continue
		}
		pv, err := p.Get(rec)
		if err != nil {
			e.logger.Debug("skipping unreadable property",
				"type", registry.QualifiedName(t), "property", p.Name, "error", err)
			continue
		}
		if err := e.out.WriteToken(jsontext.String(p.Name)); err != nil {
			return err
		}
		if err := e.value(pv, p.Type); err != nil {
			return err
		}
	}
	return e.out.WriteToken(jsontext.EndObject)
}

// implied reports whether a reader expecting expected would decode a
// record of type t without being told the class.
func (e *Encoder) implied(t, expected reflect.Type) bool {
	if expected == nil || expected == anyType {
		return false
	}
	b := registry.Base(expected)
	if b == t {
		return true
	}
	if b.Kind() == reflect.Interface {
		impl, ok := e.reg.Implementation(b)
		return ok && registry.Base(impl) == t
	}
	return false
}
