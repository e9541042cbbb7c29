package registry

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// ErrNoAccessor is returned by property accessors that cannot reach the
// field, such as a field promoted through a nil embedded pointer.
var ErrNoAccessor = errors.New("property not reachable")

// Property describes one named, typed property of a record type. Get and
// Set receive the record as an addressable value of the described type.
// A nil Get makes the property unreadable; a nil Set makes it read-only.
type Property struct {
	Name      string
	Type      reflect.Type
	Get       func(record reflect.Value) (reflect.Value, error)
	Set       func(record reflect.Value, value reflect.Value) error
	Transient bool
}

// Descriptor lists the properties of a record type in declaration order.
type Descriptor struct {
	Type       reflect.Type
	Properties []Property
	index      map[string]int
}

func newDescriptor(t reflect.Type, props []Property) *Descriptor {
	d := &Descriptor{Type: t, Properties: props, index: make(map[string]int, len(props))}
	for i, p := range props {
		d.index[p.Name] = i
	}
	return d
}

// Property returns the property with the given name.
func (d *Descriptor) Property(name string) (*Property, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.Properties[i], true
}

// Describe registers a manual descriptor for t, replacing introspection.
func (r *Registry) Describe(t reflect.Type, props ...Property) {
	t = Base(t)
	d := newDescriptor(t, props)
	r.mu.Lock()
	r.described[t] = d
	r.mu.Unlock()
	r.descriptors.Delete(t)
}

// Accessor builds a Property from typed getter and setter functions. Either
// function may be nil.
func Accessor[R, V any](name string, get func(*R) (V, error), set func(*R, V) error) Property {
	p := Property{Name: name, Type: reflect.TypeFor[V]()}
	if get != nil {
		p.Get = func(record reflect.Value) (v reflect.Value, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("getter %s panicked: %v", name, rec)
				}
			}()
			value, err := get(record.Addr().Interface().(*R))
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&value).Elem(), nil
		}
	}
	if set != nil {
		p.Set = func(record, value reflect.Value) error {
			var v V
			if value.IsValid() {
				reflect.ValueOf(&v).Elem().Set(value)
			}
			return set(record.Addr().Interface().(*R), v)
		}
	}
	return p
}

// Introspect returns the descriptor of t's base type. Results are cached.
// Types that are not structs have no properties.
func (r *Registry) Introspect(t reflect.Type) *Descriptor {
	t = Base(t)
	if cached, ok := r.descriptors.Load(t); ok {
		return cached.(*Descriptor)
	}
	r.mu.RLock()
	d, manual := r.described[t]
	r.mu.RUnlock()
	if !manual {
		d = newDescriptor(t, structProperties(t))
	}
	actual, _ := r.descriptors.LoadOrStore(t, d)
	return actual.(*Descriptor)
}

type fieldInfo struct {
	name     string
	index    []int
	typ      reflect.Type
	depth    int
	readonly bool
	trans    bool
}

func structProperties(t reflect.Type) []Property {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var fields []fieldInfo
	collectFields(t, nil, 0, &fields, map[reflect.Type]bool{})

	// Shallower fields hide deeper ones with the same name.
	best := make(map[string]int)
	for i, f := range fields {
		if j, seen := best[f.name]; !seen || f.depth < fields[j].depth {
			best[f.name] = i
		}
	}
	var props []Property
	for i, f := range fields {
		if best[f.name] != i {
			continue
		}
		props = append(props, fieldProperty(f))
	}
	return props
}

func collectFields(t reflect.Type, parent []int, depth int, out *[]fieldInfo, visiting map[reflect.Type]bool) {
	if visiting[t] {
		return
	}
	visiting[t] = true
	defer delete(visiting, t)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		name, opts, skip := parseTag(sf)
		if skip {
			continue
		}
		if sf.Anonymous && name == "" {
			ft := Base(sf.Type)
			if ft.Kind() == reflect.Struct {
				collectFields(ft, index, depth+1, out, visiting)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = strcase.ToLowerCamel(sf.Name)
		}
		*out = append(*out, fieldInfo{
			name:     name,
			index:    index,
			typ:      sf.Type,
			depth:    depth,
			readonly: opts.has("readonly"),
			trans:    opts.has("transient"),
		})
	}
}

type tagOptions []string

func (o tagOptions) has(opt string) bool {
	for _, v := range o {
		if v == opt {
			return true
		}
	}
	return false
}

// parseTag reads the codec tag, falling back to the json tag for the
// name only.
func parseTag(sf reflect.StructField) (name string, opts tagOptions, skip bool) {
	if tag, ok := sf.Tag.Lookup("codec"); ok {
		if tag == "-" {
			return "", nil, true
		}
		parts := strings.Split(tag, ",")
		return parts[0], tagOptions(parts[1:]), false
	}
	if tag, ok := sf.Tag.Lookup("json"); ok {
		if tag == "-" {
			return "", nil, true
		}
		name, _, _ = strings.Cut(tag, ",")
		return name, nil, false
	}
	return "", nil, false
}

func fieldProperty(f fieldInfo) Property {
	index := f.index
	p := Property{
		Name:      f.name,
		Type:      f.typ,
		Transient: f.trans,
		Get: func(record reflect.Value) (reflect.Value, error) {
			v, ok := fieldByIndex(record, index, false)
			if !ok {
				return reflect.Value{}, ErrNoAccessor
			}
			return v, nil
		},
	}
	if !f.readonly {
		p.Set = func(record, value reflect.Value) error {
			v, ok := fieldByIndex(record, index, true)
			if !ok || !v.CanSet() {
				return ErrNoAccessor
			}
			v.Set(value)
			return nil
		}
	}
	return p
}

// fieldByIndex walks index from v, allocating nil embedded pointers when
// alloc is set.
func fieldByIndex(v reflect.Value, index []int, alloc bool) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc || !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// Addressable returns v itself when it can be addressed, otherwise an
// addressable copy.
func Addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}
