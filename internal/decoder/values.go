package decoder

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/models"
	"github.com/mcncl/typedjson/internal/opentype"
	"github.com/mcncl/typedjson/internal/registry"
)

var (
	anyType     = reflect.TypeFor[any]()
	objectType  = reflect.TypeFor[models.Object]()
	objectPtr   = reflect.TypeFor[*models.Object]()
	rpcType     = reflect.TypeFor[models.RPC]()
	setType     = reflect.TypeFor[models.Set]()
	charType    = reflect.TypeFor[models.Char]()
	nameType    = reflect.TypeFor[models.Name]()
	timeType    = reflect.TypeFor[time.Time]()
	bigIntType  = reflect.TypeFor[big.Int]()
	decimalType = reflect.TypeFor[decimal.Decimal]()
)

// hint is the type expected for the next value. A nil typ means any
// value is acceptable and is decoded generically.
type hint struct {
	typ  reflect.Type
	open opentype.OpenType
}

func typeHint(t reflect.Type) hint {
	if t == anyType {
		return hint{}
	}
	return hint{typ: t}
}

func openHint(ot opentype.OpenType) hint {
	if s, ok := ot.(*opentype.SimpleType); ok {
		return typeHint(s.GoType())
	}
	return hint{typ: ot.GoType(), open: ot}
}

func describe(t reflect.Type) string {
	if t == nil {
		return "any"
	}
	return t.String()
}

// isIntegral reports whether a number literal has no fraction or exponent.
func isIntegral(text string) bool {
	return !strings.ContainsAny(text, ".eE")
}

// truncate reads a number literal as an int64, dropping any fraction.
func truncate(text string) (int64, error) {
	if isIntegral(text) {
		return strconv.ParseInt(text, 10, 64)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}

// number coerces a number literal to the numeric width the hint asks for.
// Without a numeric hint, integral literals become int64 and all others
// float64.
func (d *Decoder) number(text string, h hint) (reflect.Value, error) {
	t := registry.Base(h.typ)
	v, err := parseNumber(text, t)
	if err != nil {
		return reflect.Value{}, apperrors.New(apperrors.ErrorTypeMalformedScalar, d.in.pos(),
			fmt.Sprintf("cannot read %s as %s", text, describe(t)), err)
	}
	return v, nil
}

func parseNumber(text string, t reflect.Type) (reflect.Value, error) {
	if t != nil {
		switch t {
		case bigIntType:
			n, err := decimal.NewFromString(text)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(n.BigInt()), nil
		case decimalType:
			n, err := decimal.NewFromString(text)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(n), nil
		}
		switch t.Kind() {
		case reflect.Int8, reflect.Uint8:
			n, err := truncate(text)
			if t.Kind() == reflect.Uint8 {
				return reflect.ValueOf(uint8(n)), err
			}
			return reflect.ValueOf(int8(n)), err
		case reflect.Int16, reflect.Uint16:
			n, err := truncate(text)
			if t.Kind() == reflect.Uint16 {
				return reflect.ValueOf(uint16(n)), err
			}
			return reflect.ValueOf(int16(n)), err
		case reflect.Int32, reflect.Uint32:
			n, err := truncate(text)
			if t.Kind() == reflect.Uint32 {
				return reflect.ValueOf(uint32(n)), err
			}
			return reflect.ValueOf(int32(n)), err
		case reflect.Int, reflect.Int64:
			n, err := truncate(text)
			return reflect.ValueOf(n), err
		case reflect.Uint, reflect.Uint64, reflect.Uintptr:
			if isIntegral(text) {
				n, err := strconv.ParseUint(text, 10, 64)
				return reflect.ValueOf(n), err
			}
			n, err := truncate(text)
			return reflect.ValueOf(uint64(n)), err
		case reflect.Float32:
			f, err := strconv.ParseFloat(text, 32)
			return reflect.ValueOf(float32(f)), err
		case reflect.Float64:
			f, err := strconv.ParseFloat(text, 64)
			return reflect.ValueOf(f), err
		}
	}
	if isIntegral(text) {
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return reflect.ValueOf(n), nil
		}
		if !errors.Is(err, strconv.ErrRange) {
			return reflect.Value{}, err
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	return reflect.ValueOf(f), err
}

// str converts a string token to the scalar the hint asks for: a
// converter's result, an enumerant, a character, a time, a qualified name,
// or the string itself.
func (d *Decoder) str(text string, h hint) (reflect.Value, error) {
	t := registry.Base(h.typ)
	if t == nil {
		return reflect.ValueOf(text), nil
	}
	if conv, ok := d.reg.Converter(t); ok {
		v, err := conv.Parse(text)
		if err != nil {
			return reflect.Value{}, apperrors.New(apperrors.ErrorTypeMalformedScalar, d.in.pos(),
				fmt.Sprintf("cannot convert %q to %s", text, t), err)
		}
		return v, nil
	}
	if d.reg.IsEnum(t) {
		v, ok := d.reg.EnumValue(t, text)
		if !ok {
			return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnknownEnumerant, d.in.pos(),
				"%q is not a value of %s", text, t)
		}
		return v, nil
	}
	switch t {
	case charType:
		if utf8.RuneCountInString(text) == 1 {
			r, _ := utf8.DecodeRuneInString(text)
			return reflect.ValueOf(models.Char(r)), nil
		}
	case timeType:
		ts, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return reflect.Value{}, apperrors.New(apperrors.ErrorTypeMalformedScalar, d.in.pos(),
				fmt.Sprintf("cannot read %q as a date", text), err)
		}
		return reflect.ValueOf(ts.Truncate(time.Second).UTC()), nil
	case nameType:
		n, err := models.ParseName(text)
		if err != nil {
			return reflect.Value{}, apperrors.New(apperrors.ErrorTypeMalformedScalar, d.in.pos(),
				fmt.Sprintf("cannot read %q as a name", text),
				fmt.Errorf("%w: %v", apperrors.ErrMalformedName, err))
		}
		return reflect.ValueOf(n), nil
	}
	return reflect.ValueOf(text), nil
}

// array reads the elements of an array, with the element hint taken from
// the expected slice, array or open array type.
func (d *Decoder) array(h hint) (reflect.Value, error) {
	if at, ok := h.open.(*opentype.ArrayType); ok {
		return d.slice(at.GoType(), openHint(at.Sub()))
	}
	t := registry.Base(h.typ)
	switch {
	case t == nil:
		items := []any{}
		err := d.elements(hint{}, func(v reflect.Value) error {
			items = append(items, interfaceOf(v))
			return nil
		})
		return reflect.ValueOf(items), err
	case t == setType:
		set := models.NewSet()
		err := d.elements(hint{}, func(v reflect.Value) error {
			set.Add(interfaceOf(v))
			return nil
		})
		return reflect.ValueOf(set), err
	case t.Kind() == reflect.Slice:
		return d.slice(t, typeHint(t.Elem()))
	case t.Kind() == reflect.Array:
		arr := reflect.New(t).Elem()
		i := 0
		err := d.elements(typeHint(t.Elem()), func(v reflect.Value) error {
			if i >= t.Len() {
				return apperrors.Newf(apperrors.ErrorTypeTypeMismatch, d.in.pos(),
					"too many elements for %s", t)
			}
			ev, err := d.assign(t.Elem(), v, d.in.pos())
			if err != nil {
				return err
			}
			arr.Index(i).Set(ev)
			i++
			return nil
		})
		return arr, err
	}
	return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
		"unexpected array, expected %s", describe(h.typ))
}

func (d *Decoder) slice(t reflect.Type, elem hint) (reflect.Value, error) {
	s := reflect.MakeSlice(t, 0, 0)
	err := d.elements(elem, func(v reflect.Value) error {
		ev, err := d.assign(t.Elem(), v, d.in.pos())
		if err != nil {
			return err
		}
		s = reflect.Append(s, ev)
		return nil
	})
	return s, err
}

// elements reads values until the closing bracket.
func (d *Decoder) elements(h hint, fn func(reflect.Value) error) error {
	for {
		v, err := d.value(h)
		if errors.Is(err, errEnd) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// assign fits v to dst, following pointers one level in either direction
// and converting between types of the same basic kind. A nil dst accepts
// any value unchanged.
func (d *Decoder) assign(dst reflect.Type, v reflect.Value, pos *models.Position) (reflect.Value, error) {
	if dst == nil {
		return v, nil
	}
	if v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return reflect.Zero(dst), nil
	}
	vt := v.Type()
	switch {
	case vt.AssignableTo(dst):
		return v, nil
	case vt.Kind() == reflect.Pointer && !v.IsNil() && vt.Elem().AssignableTo(dst):
		return v.Elem(), nil
	case vt.Kind() != reflect.Pointer && reflect.PointerTo(vt).AssignableTo(dst):
		// Methods on *T satisfy an interface that T alone does not.
		p := reflect.New(vt)
		p.Elem().Set(v)
		return p, nil
	case dst.Kind() == reflect.Pointer:
		inner, err := d.assign(dst.Elem(), v, pos)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(dst.Elem())
		p.Elem().Set(inner)
		return p, nil
	case sameKindClass(vt, dst):
		return v.Convert(dst), nil
	}
	return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeTypeMismatch, pos,
		"cannot use %s as %s", vt, dst)
}

func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	}
	return 0
}

func sameKindClass(a, b reflect.Type) bool {
	c := kindClass(a.Kind())
	return c != 0 && c == kindClass(b.Kind())
}
