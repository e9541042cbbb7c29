package decoder

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	apperrors "github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/models"
	"github.com/mcncl/typedjson/internal/opentype"
)

// schema reads an inline type definition whose opening brace has been
// read and records it as known on this stream.
func (d *Decoder) schema() (opentype.OpenType, error) {
	pos := d.in.pos()
	var (
		name, description string
		keys, row         []opentype.Item
		hasKeys, hasRow   bool
		indices           []string
		elem              opentype.OpenType
		primitive         bool
		dimension         = 1
	)
	for {
		tok, err := d.in.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == '}' {
			break
		}
		if tok.kind != '"' {
			return nil, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
				"expected type definition key, found %s", tok.describe())
		}
		switch tok.text {
		case "type":
			name, err = d.stringValue()
		case "description":
			description, err = d.stringValue()
		case "keys":
			keys, err = d.items()
			hasKeys = true
		case "row":
			row, err = d.items()
			hasRow = true
		case "indices":
			indices, err = d.stringArray()
		case "elementType":
			elem, primitive, err = d.typeRef()
		case "dimension":
			dimension, err = d.intValue()
		default:
			err = apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
				"unknown type definition key %q", tok.text)
		}
		if err != nil {
			return nil, err
		}
	}
	if name == "" {
		return nil, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, pos,
			"type definition has no type name")
	}

	var (
		ot  opentype.OpenType
		err error
	)
	switch {
	case hasKeys:
		ot, err = opentype.NewCompositeType(name, description, keys...)
	case hasRow:
		var rowType *opentype.CompositeType
		rowType, err = opentype.NewCompositeType(name, description, row...)
		if err == nil {
			ot, err = opentype.NewTabularType(name, description, rowType, indices...)
		}
	case elem != nil:
		ot, err = opentype.NewArrayTypeNamed(name, description, dimension, elem, primitive)
	default:
		if s, _, ok := opentype.SimpleByName(name); ok {
			return s, nil
		}
		err = fmt.Errorf("type %s has neither keys, row nor element type", name)
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeConstructionFailure, pos,
			"invalid type definition", err)
	}
	defined, err := d.known.Define(ot)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeTypeMismatch, pos,
			fmt.Sprintf("redefinition of %s", name), err)
	}
	d.logger.Debug("defined open type", "type", name, "kind", ot.Kind())
	return defined, nil
}

// typeRef reads a type reference: a known name or an inline definition.
// primitive reports whether a primitive element name was used.
func (d *Decoder) typeRef() (ot opentype.OpenType, primitive bool, err error) {
	tok, err := d.in.next()
	if err != nil {
		return nil, false, err
	}
	switch tok.kind {
	case '"':
		if s, prim, ok := opentype.SimpleByName(tok.text); ok {
			return s, prim, nil
		}
		if ot, ok := d.known.Lookup(tok.text); ok {
			return ot, false, nil
		}
		return nil, false, apperrors.Newf(apperrors.ErrorTypeUnknownTypeReference, d.in.pos(),
			"unknown type %q", tok.text)
	case '{':
		ot, err := d.schema()
		return ot, false, err
	}
	return nil, false, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
		"expected type name or definition, found %s", tok.describe())
}

// items reads the item map of a composite or row definition.
func (d *Decoder) items() ([]opentype.Item, error) {
	if _, err := d.expect('{', "item definitions"); err != nil {
		return nil, err
	}
	var items []opentype.Item
	for {
		tok, err := d.in.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == '}' {
			return items, nil
		}
		if tok.kind != '"' {
			return nil, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
				"expected item name, found %s", tok.describe())
		}
		item := opentype.Item{Key: tok.text}
		if _, err := d.expect('{', "item definition"); err != nil {
			return nil, err
		}
		for {
			field, err := d.in.next()
			if err != nil {
				return nil, err
			}
			if field.kind == '}' {
				break
			}
			switch {
			case field.kind == '"' && field.text == "type":
				item.Type, _, err = d.typeRef()
			case field.kind == '"' && field.text == "description":
				item.Description, err = d.stringValue()
			default:
				err = apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
					"unexpected %s in definition of item %q", field.describe(), item.Key)
			}
			if err != nil {
				return nil, err
			}
		}
		if item.Type == nil {
			return nil, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
				"item %q has no type", item.Key)
		}
		items = append(items, item)
	}
}

func (d *Decoder) stringValue() (string, error) {
	tok, err := d.expect('"', "string")
	return tok.text, err
}

func (d *Decoder) intValue() (int, error) {
	tok, err := d.expect('0', "number")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.text)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrorTypeMalformedScalar, d.in.pos(), "expected an integer", err)
	}
	return n, nil
}

func (d *Decoder) stringArray() ([]string, error) {
	if _, err := d.expect('[', "array"); err != nil {
		return nil, err
	}
	var out []string
	for {
		tok, err := d.in.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case ']':
			return out, nil
		case '"':
			out = append(out, tok.text)
		default:
			return nil, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
				"expected string, found %s", tok.describe())
		}
	}
}

// composite decodes the members of a composite value.
func (d *Decoder) composite(ct *opentype.CompositeType) (reflect.Value, error) {
	values := make(map[string]any)
	err := d.members(
		func(key string) (hint, bool, error) {
			item, ok := ct.Item(key)
			if ok {
				return openHint(item.Type), true, nil
			}
			if d.ignoreUnknown {
				return hint{}, false, nil
			}
			return hint{}, false, apperrors.Newf(apperrors.ErrorTypeUnknownProperty, d.in.pos(),
				"%s has no item %q", ct.TypeName(), key)
		},
		func(key string, v reflect.Value, pos *models.Position) error {
			item, _ := ct.Item(key)
			val, err := d.assign(itemGoType(item.Type), v, pos)
			if err != nil {
				return err
			}
			values[key] = interfaceOf(val)
			return nil
		})
	if err != nil {
		return reflect.Value{}, err
	}
	data, err := opentype.NewCompositeData(ct, values)
	if err != nil {
		return reflect.Value{}, apperrors.New(apperrors.ErrorTypeConstructionFailure, d.in.pos(),
			fmt.Sprintf("cannot build %s", ct.TypeName()), err)
	}
	return reflect.ValueOf(data), nil
}

// tabular decodes {"rows": [[cell, ...], ...]} after the class member.
// Cells follow the declaration order of the row items.
func (d *Decoder) tabular(tt *opentype.TabularType) (reflect.Value, error) {
	table := opentype.NewTabularData(tt)
	tok, err := d.in.next()
	if err != nil {
		return reflect.Value{}, err
	}
	if tok.kind == '}' {
		return reflect.ValueOf(table), nil
	}
	if tok.kind != '"' || tok.text != "rows" {
		return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
			"expected rows of %s, found %s", tt.TypeName(), tok.describe())
	}
	if _, err := d.expect('[', "array of rows"); err != nil {
		return reflect.Value{}, err
	}
	items := tt.Row().Items()
	for {
		tok, err := d.in.next()
		if err != nil {
			return reflect.Value{}, err
		}
		if tok.kind == ']' {
			break
		}
		if tok.kind != '[' {
			return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
				"expected row, found %s", tok.describe())
		}
		values := make(map[string]any, len(items))
		for _, item := range items {
			v, err := d.value(openHint(item.Type))
			if errors.Is(err, errEnd) {
				return reflect.Value{}, apperrors.Newf(apperrors.ErrorTypeUnexpectedToken, d.in.pos(),
					"row of %s has too few cells", tt.TypeName())
			}
			if err != nil {
				return reflect.Value{}, err
			}
			val, err := d.assign(itemGoType(item.Type), v, d.in.pos())
			if err != nil {
				return reflect.Value{}, err
			}
			values[item.Key] = interfaceOf(val)
		}
		if _, err := d.expect(']', "end of row"); err != nil {
			return reflect.Value{}, err
		}
		row, err := opentype.NewCompositeData(tt.Row(), values)
		if err == nil {
			err = table.Put(row)
		}
		if err != nil {
			return reflect.Value{}, apperrors.New(apperrors.ErrorTypeConstructionFailure, d.in.pos(),
				fmt.Sprintf("cannot add row to %s", tt.TypeName()), err)
		}
	}
	if _, err := d.expect('}', "end of table"); err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(table), nil
}

func itemGoType(ot opentype.OpenType) reflect.Type {
	if t := ot.GoType(); t != anyType {
		return t
	}
	return nil
}
