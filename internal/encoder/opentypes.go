package encoder

import (
	"fmt"
	"reflect"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/mcncl/typedjson/internal/opentype"
)

func (e *Encoder) composite(cd *opentype.CompositeData) error {
	if err := e.out.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	if err := e.classMember(cd.Type()); err != nil {
		return err
	}
	for _, item := range cd.Type().Items() {
		if err := e.out.WriteToken(jsontext.String(item.Key)); err != nil {
			return err
		}
		if err := e.value(reflect.ValueOf(cd.Get(item.Key)), item.Type.GoType()); err != nil {
			return err
		}
	}
	return e.out.WriteToken(jsontext.EndObject)
}

// tabular writes {"class": ..., "rows": [[cell, ...], ...]} with cells in
// row item order.
func (e *Encoder) tabular(td *opentype.TabularData) error {
	if err := e.out.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	if err := e.classMember(td.Type()); err != nil {
		return err
	}
	if err := e.out.WriteToken(jsontext.String("rows")); err != nil {
		return err
	}
	if err := e.out.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	items := td.Type().Row().Items()
	for _, row := range td.Rows() {
		if err := e.out.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, item := range items {
			if err := e.value(reflect.ValueOf(row.Get(item.Key)), item.Type.GoType()); err != nil {
				return err
			}
		}
		if err := e.out.WriteToken(jsontext.EndArray); err != nil {
			return err
		}
	}
	if err := e.out.WriteToken(jsontext.EndArray); err != nil {
		return err
	}
	return e.out.WriteToken(jsontext.EndObject)
}

func (e *Encoder) classMember(ot opentype.OpenType) error {
	if err := e.out.WriteToken(jsontext.String("class")); err != nil {
		return err
	}
	return e.typeRef(ot)
}

// typeRef writes the name of ot if it was already described on this
// stream, its full definition otherwise.
func (e *Encoder) typeRef(ot opentype.OpenType) error {
	if s, ok := ot.(*opentype.SimpleType); ok {
		return e.out.WriteToken(jsontext.String(s.TypeName()))
	}
	if known, ok := e.described.Lookup(ot.TypeName()); ok {
		if !known.Equal(ot) {
			return fmt.Errorf("%w: %s", opentype.ErrConflictingDefinition, ot.TypeName())
		}
		return e.out.WriteToken(jsontext.String(ot.TypeName()))
	}
	if _, err := e.described.Define(ot); err != nil {
		return err
	}

	if err := e.out.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	if err := e.member("type", ot.TypeName()); err != nil {
		return err
	}
	var err error
	switch t := ot.(type) {
	case *opentype.CompositeType:
		err = e.describedBy(t.Description(), t.TypeName())
		if err == nil {
			err = e.items("keys", t.Items())
		}
	case *opentype.TabularType:
		err = e.describedBy(t.Description(), t.TypeName())
		if err == nil {
			err = e.items("row", t.Row().Items())
		}
		if err == nil {
			err = e.indices(t.Indices())
		}
	case *opentype.ArrayType:
		err = e.arrayType(t)
	}
	if err != nil {
		return err
	}
	return e.out.WriteToken(jsontext.EndObject)
}

func (e *Encoder) arrayType(t *opentype.ArrayType) error {
	if err := e.out.WriteToken(jsontext.String("elementType")); err != nil {
		return err
	}
	var err error
	if t.Primitive() {
		err = e.out.WriteToken(jsontext.String(t.ElementName()))
	} else {
		err = e.typeRef(t.Element())
	}
	if err != nil {
		return err
	}
	if err := e.out.WriteToken(jsontext.String("dimension")); err != nil {
		return err
	}
	if err := e.out.WriteToken(jsontext.Int(int64(t.Dimension()))); err != nil {
		return err
	}
	return e.describedBy(t.Description(), t.TypeName())
}

// describedBy writes a description member unless it only repeats name.
func (e *Encoder) describedBy(description, name string) error {
	if description == "" || description == name {
		return nil
	}
	return e.member("description", description)
}

func (e *Encoder) member(name, value string) error {
	if err := e.out.WriteToken(jsontext.String(name)); err != nil {
		return err
	}
	return e.out.WriteToken(jsontext.String(value))
}

func (e *Encoder) items(name string, items []opentype.Item) error {
	if err := e.out.WriteToken(jsontext.String(name)); err != nil {
		return err
	}
	if err := e.out.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, item := range items {
		if err := e.out.WriteToken(jsontext.String(item.Key)); err != nil {
			return err
		}
		if err := e.out.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		if err := e.out.WriteToken(jsontext.String("type")); err != nil {
			return err
		}
		if err := e.typeRef(item.Type); err != nil {
			return err
		}
		if err := e.describedBy(item.Description, item.Key); err != nil {
			return err
		}
		if err := e.out.WriteToken(jsontext.EndObject); err != nil {
			return err
		}
	}
	return e.out.WriteToken(jsontext.EndObject)
}

func (e *Encoder) indices(indices []string) error {
	if err := e.out.WriteToken(jsontext.String("indices")); err != nil {
		return err
	}
	if err := e.out.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for _, idx := range indices {
		if err := e.out.WriteToken(jsontext.String(idx)); err != nil {
			return err
		}
	}
	return e.out.WriteToken(jsontext.EndArray)
}
