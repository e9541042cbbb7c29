package opentype

import (
	"fmt"
	"reflect"
	"strings"
)

var (
	compositeDataType = reflect.TypeOf((*CompositeData)(nil))
	tabularDataType   = reflect.TypeOf((*TabularData)(nil))
)

// ArrayType describes arrays of an element open type with a fixed number
// of dimensions. Primitive arrays of simple types use the unboxed
// element name on the wire.
type ArrayType struct {
	name        string
	description string
	element     OpenType
	dimension   int
	primitive   bool
}

// NewArrayType creates an array type and derives its name and description.
func NewArrayType(dimension int, element OpenType, primitive bool) (*ArrayType, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("array dimension must be positive, got %d", dimension)
	}
	if element == nil {
		return nil, fmt.Errorf("array element type is required")
	}
	if _, isArray := element.(*ArrayType); isArray {
		return nil, fmt.Errorf("array element type must not be an array type")
	}
	elemName := element.TypeName()
	if primitive {
		s, ok := element.(*SimpleType)
		if !ok || s.primitive == "" {
			return nil, fmt.Errorf("type %s has no primitive form", elemName)
		}
		elemName = s.primitive
	}
	return &ArrayType{
		name:        elemName + strings.Repeat("[]", dimension),
		description: fmt.Sprintf("%d-dimension array of %s", dimension, elemName),
		element:     element,
		dimension:   dimension,
		primitive:   primitive,
	}, nil
}

// NewArrayTypeNamed is NewArrayType with an explicit name and description,
// as read from a schema.
func NewArrayTypeNamed(name, description string, dimension int, element OpenType, primitive bool) (*ArrayType, error) {
	a, err := NewArrayType(dimension, element, primitive)
	if err != nil {
		return nil, err
	}
	if name != "" {
		a.name = name
	}
	if description != "" {
		a.description = description
	}
	return a, nil
}

func (a *ArrayType) TypeName() string    { return a.name }
func (a *ArrayType) Description() string { return a.description }
func (a *ArrayType) Kind() Kind          { return KindArray }
func (a *ArrayType) Element() OpenType   { return a.element }
func (a *ArrayType) Dimension() int      { return a.dimension }
func (a *ArrayType) Primitive() bool     { return a.primitive }

// ElementName is the element name as written in a schema.
func (a *ArrayType) ElementName() string {
	if s, ok := a.element.(*SimpleType); ok && a.primitive {
		return s.primitive
	}
	return a.element.TypeName()
}

// GoType returns a slice type nested Dimension times.
func (a *ArrayType) GoType() reflect.Type {
	t := a.element.GoType()
	for i := 0; i < a.dimension; i++ {
		t = reflect.SliceOf(t)
	}
	return t
}

// Sub returns the type of the arrays one dimension down, or the element
// type for one-dimensional arrays.
func (a *ArrayType) Sub() OpenType {
	if a.dimension == 1 {
		return a.element
	}
	sub, _ := NewArrayType(a.dimension-1, a.element, a.primitive)
	return sub
}

func (a *ArrayType) Equal(other OpenType) bool {
	o, ok := other.(*ArrayType)
	if !ok {
		return false
	}
	return a.name == o.name && a.description == o.description &&
		a.dimension == o.dimension && a.primitive == o.primitive &&
		a.element.Equal(o.element)
}

// Item is one named field of a composite type.
type Item struct {
	Key         string
	Description string
	Type        OpenType
}

// CompositeType describes a record with named, typed items. Item order is
// the declaration order.
type CompositeType struct {
	name        string
	description string
	items       []Item
	index       map[string]int
}

// NewCompositeType creates a composite type. An empty item description
// defaults to the key.
func NewCompositeType(name, description string, items ...Item) (*CompositeType, error) {
	if name == "" {
		return nil, fmt.Errorf("composite type name is required")
	}
	if description == "" {
		description = name
	}
	c := &CompositeType{
		name:        name,
		description: description,
		index:       make(map[string]int, len(items)),
	}
	for _, item := range items {
		if item.Key == "" {
			return nil, fmt.Errorf("composite type %s: empty item key", name)
		}
		if item.Type == nil {
			return nil, fmt.Errorf("composite type %s: item %q has no type", name, item.Key)
		}
		if _, dup := c.index[item.Key]; dup {
			return nil, fmt.Errorf("composite type %s: duplicate item %q", name, item.Key)
		}
		if item.Description == "" {
			item.Description = item.Key
		}
		c.index[item.Key] = len(c.items)
		c.items = append(c.items, item)
	}
	return c, nil
}

func (c *CompositeType) TypeName() string     { return c.name }
func (c *CompositeType) Description() string  { return c.description }
func (c *CompositeType) Kind() Kind           { return KindComposite }
func (c *CompositeType) GoType() reflect.Type { return compositeDataType }

// Items returns the items in declaration order.
func (c *CompositeType) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Keys returns the item keys in declaration order.
func (c *CompositeType) Keys() []string {
	keys := make([]string, len(c.items))
	for i, item := range c.items {
		keys[i] = item.Key
	}
	return keys
}

// Item returns the item with the given key.
func (c *CompositeType) Item(key string) (Item, bool) {
	i, ok := c.index[key]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

func (c *CompositeType) Equal(other OpenType) bool {
	o, ok := other.(*CompositeType)
	if !ok {
		return false
	}
	if c.name != o.name || c.description != o.description {
		return false
	}
	return itemsEqual(c.items, o.items)
}

func itemsEqual(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i, item := range a {
		oi := b[i]
		if item.Key != oi.Key || item.Description != oi.Description || !item.Type.Equal(oi.Type) {
			return false
		}
	}
	return true
}

// TabularType describes a table of composite rows, indexed by a subset of
// the row keys.
type TabularType struct {
	name        string
	description string
	row         *CompositeType
	indices     []string
}

// NewTabularType creates a tabular type. Every index must name a row item.
func NewTabularType(name, description string, row *CompositeType, indices ...string) (*TabularType, error) {
	if name == "" {
		return nil, fmt.Errorf("tabular type name is required")
	}
	if row == nil {
		return nil, fmt.Errorf("tabular type %s: row type is required", name)
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("tabular type %s: at least one index is required", name)
	}
	for _, idx := range indices {
		if _, ok := row.Item(idx); !ok {
			return nil, fmt.Errorf("tabular type %s: index %q is not a row item", name, idx)
		}
	}
	if description == "" {
		description = name
	}
	return &TabularType{
		name:        name,
		description: description,
		row:         row,
		indices:     append([]string(nil), indices...),
	}, nil
}

func (t *TabularType) TypeName() string     { return t.name }
func (t *TabularType) Description() string  { return t.description }
func (t *TabularType) Kind() Kind           { return KindTabular }
func (t *TabularType) GoType() reflect.Type { return tabularDataType }
func (t *TabularType) Row() *CompositeType  { return t.row }

// Indices returns the index column names.
func (t *TabularType) Indices() []string {
	return append([]string(nil), t.indices...)
}

func (t *TabularType) Equal(other OpenType) bool {
	o, ok := other.(*TabularType)
	if !ok {
		return false
	}
	if t.name != o.name || t.description != o.description || len(t.indices) != len(o.indices) {
		return false
	}
	for i := range t.indices {
		if t.indices[i] != o.indices[i] {
			return false
		}
	}
	// The row type's own name is not part of the wire form.
	return itemsEqual(t.row.items, o.row.items)
}
