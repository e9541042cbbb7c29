package registry

import (
	"fmt"
	"reflect"
	"sort"
)

var errorType = reflect.TypeFor[error]()

// Constructor is a function that builds a record from named parameters.
// Names maps each positional parameter to a property name.
type Constructor struct {
	Names  []string
	Params []reflect.Type
	Result reflect.Type
	fn     reflect.Value
}

// Invoke calls the constructor. A non-nil error result is returned as
// the error.
func (c *Constructor) Invoke(args []reflect.Value) (result reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("constructor of %s panicked: %v", QualifiedName(c.Result), rec)
		}
	}()
	out := c.fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

// RegisterConstructor registers fn as a way to build its result type.
// fn must return the record, optionally followed by an error, and names
// must list one property name per parameter.
func (r *Registry) RegisterConstructor(fn any, names ...string) error {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("constructor must be a function, got %v", ft)
	}
	if ft.IsVariadic() {
		return fmt.Errorf("constructor %v must not be variadic", ft)
	}
	if ft.NumIn() != len(names) {
		return fmt.Errorf("constructor %v takes %d parameters but %d names were given",
			ft, ft.NumIn(), len(names))
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return fmt.Errorf("constructor %v must return a value and an optional error", ft)
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return fmt.Errorf("constructor %v names parameter %q twice", ft, n)
		}
		seen[n] = true
	}

	c := &Constructor{
		Names:  append([]string(nil), names...),
		Result: ft.Out(0),
		fn:     fv,
	}
	for i := 0; i < ft.NumIn(); i++ {
		c.Params = append(c.Params, ft.In(i))
	}

	key := Base(c.Result)
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.ctors[key], c)
	// Longest parameter list first; ties keep registration order.
	sort.SliceStable(list, func(i, j int) bool {
		return len(list[i].Names) > len(list[j].Names)
	})
	r.ctors[key] = list
	r.logger.Debug("registered constructor", "type", QualifiedName(key), "params", names)
	return nil
}

// Constructors returns the constructors of t's base type, longest
// parameter list first.
func (r *Registry) Constructors(t reflect.Type) []*Constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Constructor(nil), r.ctors[Base(t)]...)
}

// ConstructorParam returns the declared type of a constructor parameter
// named name, for names that are not properties.
func (r *Registry) ConstructorParam(t reflect.Type, name string) (reflect.Type, bool) {
	for _, c := range r.Constructors(t) {
		for i, n := range c.Names {
			if n == name {
				return c.Params[i], true
			}
		}
	}
	return nil, false
}
