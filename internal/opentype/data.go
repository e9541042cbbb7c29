package opentype

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mcncl/typedjson/internal/models"
)

var (
	// ErrInvalidValue is returned when a value does not match its item type.
	ErrInvalidValue = errors.New("value does not match open type")
	// ErrDuplicateIndex is returned when a table already holds a row with
	// the same index values.
	ErrDuplicateIndex = errors.New("duplicate row index")
)

// CompositeData is a value of a CompositeType.
type CompositeData struct {
	typ    *CompositeType
	values map[string]any
}

// NewCompositeData creates a composite value. Items missing from values
// are nil.
func NewCompositeData(typ *CompositeType, values map[string]any) (*CompositeData, error) {
	if typ == nil {
		return nil, fmt.Errorf("%w: composite type is required", ErrInvalidValue)
	}
	data := &CompositeData{typ: typ, values: make(map[string]any, len(typ.items))}
	for key, value := range values {
		item, ok := typ.Item(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no item %q", ErrInvalidValue, typ.name, key)
		}
		if err := checkValue(item.Type, value); err != nil {
			return nil, fmt.Errorf("item %q of %s: %w", key, typ.name, err)
		}
		data.values[key] = value
	}
	return data, nil
}

func checkValue(t OpenType, value any) error {
	if value == nil {
		return nil
	}
	switch ot := t.(type) {
	case *CompositeType:
		cd, ok := value.(*CompositeData)
		if !ok || !cd.typ.Equal(ot) {
			return fmt.Errorf("%w: expected composite %s", ErrInvalidValue, ot.name)
		}
		return nil
	case *TabularType:
		td, ok := value.(*TabularData)
		if !ok || !td.typ.Equal(ot) {
			return fmt.Errorf("%w: expected table %s", ErrInvalidValue, ot.name)
		}
		return nil
	}
	if vt := reflect.TypeOf(value); !vt.AssignableTo(t.GoType()) {
		return fmt.Errorf("%w: %s is not a %s", ErrInvalidValue, vt, t.TypeName())
	}
	return nil
}

// Type returns the composite type of d.
func (d *CompositeData) Type() *CompositeType {
	return d.typ
}

// Get returns the value of an item.
func (d *CompositeData) Get(key string) any {
	return d.values[key]
}

// Has reports whether the type of d declares key.
func (d *CompositeData) Has(key string) bool {
	_, ok := d.typ.Item(key)
	return ok
}

// Values returns the item values in declaration order.
func (d *CompositeData) Values() []any {
	out := make([]any, len(d.typ.items))
	for i, item := range d.typ.items {
		out[i] = d.values[item.Key]
	}
	return out
}

func (d *CompositeData) String() string {
	var b strings.Builder
	b.WriteString(d.typ.name)
	b.WriteByte('{')
	for i, item := range d.typ.items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", item.Key, d.values[item.Key])
	}
	b.WriteByte('}')
	return b.String()
}

// TabularData is a value of a TabularType. Rows keep insertion order and
// are unique by their index values.
type TabularData struct {
	typ   *TabularType
	rows  []*CompositeData
	index map[string]int
}

// NewTabularData creates an empty table.
func NewTabularData(typ *TabularType) *TabularData {
	return &TabularData{typ: typ, index: make(map[string]int)}
}

// Type returns the tabular type of t.
func (t *TabularData) Type() *TabularType {
	return t.typ
}

// Put adds a row.
func (t *TabularData) Put(row *CompositeData) error {
	if row == nil {
		return fmt.Errorf("%w: nil row", ErrInvalidValue)
	}
	if !itemsEqual(row.typ.items, t.typ.row.items) {
		return fmt.Errorf("%w: row of type %s does not fit table %s",
			ErrInvalidValue, row.typ.name, t.typ.name)
	}
	key := t.keyOf(row)
	if _, exists := t.index[key]; exists {
		return fmt.Errorf("%w in %s: %v", ErrDuplicateIndex, t.typ.name, t.indexValues(row))
	}
	t.index[key] = len(t.rows)
	t.rows = append(t.rows, row)
	return nil
}

// Get returns the row whose index columns hold the given values.
func (t *TabularData) Get(index ...any) (*CompositeData, bool) {
	i, ok := t.index[indexKey(index)]
	if !ok {
		return nil, false
	}
	return t.rows[i], true
}

// Rows returns the rows in insertion order.
func (t *TabularData) Rows() []*CompositeData {
	return append([]*CompositeData(nil), t.rows...)
}

// Len returns the number of rows.
func (t *TabularData) Len() int {
	return len(t.rows)
}

func (t *TabularData) indexValues(row *CompositeData) []any {
	values := make([]any, len(t.typ.indices))
	for i, idx := range t.typ.indices {
		values[i] = row.values[idx]
	}
	return values
}

func (t *TabularData) keyOf(row *CompositeData) string {
	return indexKey(t.indexValues(row))
}

func indexKey(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if n, ok := v.(models.Name); ok {
			v = n.Canonical()
		}
		parts[i] = fmt.Sprintf("%T:%v", v, v)
	}
	return strings.Join(parts, "\x1f")
}
