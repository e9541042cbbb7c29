package decoder

import (
	"errors"
	"fmt"
	"reflect"

	apperrors "github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/models"
	"github.com/mcncl/typedjson/internal/opentype"
	"github.com/mcncl/typedjson/internal/registry"
)

// classKey is the reserved object key naming the concrete type.
const classKey = "class"

// object decodes an object whose opening brace has been read. A leading
// class key selects the actual type, which must fit the expected one.
func (d *Decoder) object(h hint) (reflect.Value, error) {
	pos := d.in.pos()
	tok, err := d.in.next()
	if err != nil {
		return reflect.Value{}, err
	}
	if tok.kind != '"' || tok.text != classKey {
		d.in.pushBack(tok)
		if h.open != nil {
			return d.openObject(h.open, pos)
		}
		return d.typed(h.typ, pos)
	}

	classTok, err := d.in.next()
	if err != nil {
		return reflect.Value{}, err
	}
	switch classTok.kind {
	case '{':
		ot, err := d.schema()
		if err != nil {
			return reflect.Value{}, err
		}
		if err := d.checkOpen(ot, h, pos); err != nil {
			return reflect.Value{}, err
		}
		return d.openObject(ot, pos)
	case '"':
		name := classTok.text
		if ot, ok := d.known.Lookup(name); ok && ot.Kind() != opentype.KindSimple {
			if err := d.checkOpen(ot, h, pos); err != nil {
				return reflect.Value{}, err
			}
			return d.openObject(ot, pos)
		}
		actual, ok := d.reg.Resolve(name)
		if !ok {
			d.logger.Debug("unresolved class, decoding as object", "class", name, "pos", pos)
			actual = objectPtr
			if d.keepClass && registry.Assignable(actual, h.typ) {
				obj := models.NewObject()
				obj.Set(classKey, name)
				return d.fillObject(obj)
			}
		}
		if !registry.Assignable(actual, h.typ) {
			return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeTypeMismatch, pos,
				"class %s is not assignable to %s", name, describe(h.typ))
		}
		return d.typed(actual, pos)
	}
	return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
		"class must be a name or a type definition, found %s", classTok.describe())
}

func (d *Decoder) checkOpen(ot opentype.OpenType, h hint, pos *models.Position) error {
	if h.open != nil && !h.open.Equal(ot) {
		return apperrors.Newf(apperrors.ErrorTypeTypeMismatch, pos,
			"open type %s does not match expected %s", ot.TypeName(), h.open.TypeName())
	}
	if h.typ != nil && !ot.GoType().AssignableTo(h.typ) {
		return apperrors.Newf(apperrors.ErrorTypeTypeMismatch, pos,
			"open type %s is not assignable to %s", ot.TypeName(), h.typ)
	}
	return nil
}

func (d *Decoder) openObject(ot opentype.OpenType, pos *models.Position) (reflect.Value, error) {
	switch t := ot.(type) {
	case *opentype.CompositeType:
		return d.composite(t)
	case *opentype.TabularType:
		return d.tabular(t)
	}
	return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeTypeMismatch, pos,
		"%s values are not objects", ot.TypeName())
}

// typed decodes the members of an object into a value of type t.
func (d *Decoder) typed(t reflect.Type, pos *models.Position) (reflect.Value, error) {
	base := registry.Base(t)
	switch {
	case base == nil || base == objectType:
		return d.objectMap()
	case base == rpcType:
		obj, err := d.objectMap()
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(models.RPCFromObject(obj.Interface().(*models.Object))), nil
	case base.Kind() == reflect.Map && base.Key().Kind() == reflect.String:
		return d.mapValue(base)
	case base.Kind() == reflect.Interface:
		impl, ok := d.reg.Implementation(base)
		if !ok {
			return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeConstructionFailure, pos,
				"no implementation registered for %s", base)
		}
		return d.typed(impl, pos)
	case base.Kind() == reflect.Struct:
		rec, err := d.record(base)
		if err != nil {
			return reflect.Value{}, err
		}
		if t.Kind() != reflect.Pointer {
			return rec.Elem(), nil
		}
		return rec, nil
	}
	return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, pos,
		"unexpected object, expected %s", t)
}

// members reads key/value pairs until the closing brace, calling fn with
// each key after its value hint has been chosen by hintFor.
func (d *Decoder) members(hintFor func(key string) (hint, bool, error),
	fn func(key string, v reflect.Value, pos *models.Position) error) error {
	for {
		tok, err := d.in.next()
		if err != nil {
			return err
		}
		if tok.kind == '}' {
			return nil
		}
		if tok.kind != '"' {
			return apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
				"expected member name, found %s", tok.describe())
		}
		key, pos := tok.text, d.in.pos()
		h, keep, err := hintFor(key)
		if err != nil {
			return err
		}
		v, err := d.value(h)
		if err != nil {
			if errors.Is(err, errEnd) {
				return apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
					"missing value for %q", key)
			}
			return err
		}
		if !keep {
			d.logger.Debug("ignoring unknown key", "key", key, "pos", pos)
			continue
		}
		if err := fn(key, v, pos); err != nil {
			return err
		}
	}
}

func (d *Decoder) objectMap() (reflect.Value, error) {
	return d.fillObject(models.NewObject())
}

func (d *Decoder) fillObject(obj *models.Object) (reflect.Value, error) {
	err := d.members(
		func(string) (hint, bool, error) { return hint{}, true, nil },
		func(key string, v reflect.Value, _ *models.Position) error {
			obj.Set(key, interfaceOf(v))
			return nil
		})
	return reflect.ValueOf(obj), err
}

func (d *Decoder) mapValue(t reflect.Type) (reflect.Value, error) {
	m := reflect.MakeMap(t)
	elem := typeHint(t.Elem())
	err := d.members(
		func(string) (hint, bool, error) { return elem, true, nil },
		func(key string, v reflect.Value, pos *models.Position) error {
			ev, err := d.assign(t.Elem(), v, pos)
			if err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), ev)
			return nil
		})
	return m, err
}

type member struct {
	key   string
	value reflect.Value
	pos   *models.Position
}

// record decodes a struct. Members are collected first; then the
// constructor with the longest parameter list whose names were all seen
// builds the value, and the remaining members are set as properties.
// The result is a pointer to the new record.
func (d *Decoder) record(t reflect.Type) (reflect.Value, error) {
	desc := d.reg.Introspect(t)
	var members []member
	err := d.members(
		func(key string) (hint, bool, error) {
			if p, ok := desc.Property(key); ok {
				return typeHint(p.Type), true, nil
			}
			if pt, ok := d.reg.ConstructorParam(t, key); ok {
				return typeHint(pt), true, nil
			}
			if d.ignoreUnknown {
				return hint{}, false, nil
			}
			return hint{}, false, apperrors.Newf(apperrors.ErrorTypeUnknownProperty, d.in.pos(),
				"%s has no property %q", registry.QualifiedName(t), key)
		},
		func(key string, v reflect.Value, pos *models.Position) error {
			members = append(members, member{key: key, value: v, pos: pos})
			return nil
		})
	if err != nil {
		return reflect.Value{}, err
	}

	rec, consumed, err := d.construct(t, members)
	if err != nil {
		return reflect.Value{}, err
	}
	for _, m := range members {
		if consumed[m.key] {
			continue
		}
		p, ok := desc.Property(m.key)
		if !ok || p.Set == nil {
			return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnwritableProperty, m.pos,
				"property %q of %s is not writable", m.key, registry.QualifiedName(t))
		}
		val, err := d.assign(p.Type, m.value, m.pos)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := p.Set(rec.Elem(), val); err != nil {
			return reflect.Value{}, apperrors.New(apperrors.ErrorTypeUnwritableProperty, m.pos,
				fmt.Sprintf("cannot set property %q of %s", m.key, registry.QualifiedName(t)), err)
		}
	}
	return rec, nil
}

func (d *Decoder) construct(t reflect.Type, members []member) (reflect.Value, map[string]bool, error) {
	byKey := make(map[string]int, len(members))
	for i, m := range members {
		byKey[m.key] = i
	}
	for _, c := range d.reg.Constructors(t) {
		args := make([]reflect.Value, len(c.Names))
		usable := true
		for i, name := range c.Names {
			idx, ok := byKey[name]
			if !ok {
				usable = false
				break
			}
			arg, err := d.assign(c.Params[i], members[idx].value, members[idx].pos)
			if err != nil {
				return reflect.Value{}, nil, err
			}
			args[i] = arg
		}
		if !usable {
			continue
		}
		out, err := c.Invoke(args)
		if err != nil {
			return reflect.Value{}, nil, apperrors.New(apperrors.ErrorTypeConstructionFailure, d.in.pos(),
				fmt.Sprintf("cannot construct %s", registry.QualifiedName(t)), err)
		}
		rec, err := d.toPointer(t, out)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		consumed := make(map[string]bool, len(c.Names))
		for _, name := range c.Names {
			consumed[name] = true
		}
		d.logger.Debug("constructed record", "type", registry.QualifiedName(t), "params", c.Names)
		return rec, consumed, nil
	}
	return reflect.New(t), nil, nil
}

func (d *Decoder) toPointer(t reflect.Type, v reflect.Value) (reflect.Value, error) {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch {
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Type().Elem() == t:
		return v, nil
	case v.IsValid() && v.Type() == t:
		p := reflect.New(t)
		p.Elem().Set(v)
		return p, nil
	}
	return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeConstructionFailure, d.in.pos(),
		"constructor of %s returned %v", registry.QualifiedName(t), interfaceOf(v))
}
