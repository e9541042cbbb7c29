package registry

import (
	"fmt"
	"reflect"
)

type enumTable struct {
	byName map[string]reflect.Value
	names  map[any]string
}

// RegisterEnum registers the complete value set of an enumeration. All
// values must share one comparable type. Each value is written as its
// String form when it implements fmt.Stringer, otherwise as %v.
func (r *Registry) RegisterEnum(values ...any) error {
	if len(values) == 0 {
		return fmt.Errorf("enumeration needs at least one value")
	}
	t := reflect.TypeOf(values[0])
	if t == nil || !t.Comparable() {
		return fmt.Errorf("enumeration type %v is not comparable", t)
	}
	table := &enumTable{
		byName: make(map[string]reflect.Value, len(values)),
		names:  make(map[any]string, len(values)),
	}
	for _, v := range values {
		if reflect.TypeOf(v) != t {
			return fmt.Errorf("enumeration value %v is not of type %v", v, t)
		}
		name := fmt.Sprint(v)
		if _, dup := table.byName[name]; dup {
			return fmt.Errorf("enumeration %v has duplicate name %q", t, name)
		}
		table.byName[name] = reflect.ValueOf(v)
		table.names[v] = name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enums[t] = table
	r.logger.Debug("registered enum", "type", QualifiedName(t), "values", len(values))
	return nil
}

// IsEnum reports whether t is a registered enumeration.
func (r *Registry) IsEnum(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.enums[t]
	return ok
}

// EnumValue returns the enumerant of t named name.
func (r *Registry) EnumValue(t reflect.Type, name string) (reflect.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.enums[t]
	if !ok {
		return reflect.Value{}, false
	}
	v, ok := table.byName[name]
	return v, ok
}

// EnumName returns the name of an enumerant.
func (r *Registry) EnumName(v reflect.Value) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.enums[v.Type()]
	if !ok {
		return "", false
	}
	name, ok := table.names[v.Interface()]
	return name, ok
}
