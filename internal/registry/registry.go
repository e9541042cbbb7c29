// Package registry holds the process-wide knowledge the codec needs about
// Go types: class aliases, named types for class resolution, default
// implementations of interfaces, enumerations, scalar converters,
// property-matching constructors and introspected property descriptors.
//
// A Registry is safe for concurrent use. Registrations are expected to
// happen at startup; lookups are memoized.
package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Resolver maps a class name to a Go type. It is consulted after aliases
// when decoding a class tag.
type Resolver func(name string) (reflect.Type, bool)

// Registry is the type registry shared by decoders and encoders.
type Registry struct {
	mu        sync.RWMutex
	aliases   map[string]reflect.Type
	aliasOf   map[reflect.Type]string
	named     map[string]reflect.Type
	resolver  Resolver
	impls     map[reflect.Type]reflect.Type
	ctors     map[reflect.Type][]*Constructor
	enums     map[reflect.Type]*enumTable
	described map[reflect.Type]*Descriptor
	convs     map[reflect.Type]*Converter

	descriptors sync.Map // reflect.Type -> *Descriptor
	lookups     sync.Map // reflect.Type -> *Converter, nil when none applies

	logger *slog.Logger
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		aliases:   make(map[string]reflect.Type),
		aliasOf:   make(map[reflect.Type]string),
		named:     make(map[string]reflect.Type),
		impls:     make(map[reflect.Type]reflect.Type),
		ctors:     make(map[reflect.Type][]*Constructor),
		enums:     make(map[reflect.Type]*enumTable),
		described: make(map[reflect.Type]*Descriptor),
		convs:     make(map[reflect.Type]*Converter),
		logger:    slog.New(slog.DiscardHandler),
	}
}

// Default returns the process-wide registry, created on first use.
var Default = sync.OnceValue(New)

// SetLogger sets the logger used to report registrations and lookups.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

func (r *Registry) log() *slog.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

// Base strips all pointer levels from t.
func Base(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// QualifiedName returns the fully qualified name of t: its package path
// and name for named types, its type literal otherwise.
func QualifiedName(t reflect.Type) string {
	t = Base(t)
	if t == nil {
		return ""
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// AddAlias registers name as the class tag for t. Aliases take precedence
// over qualified names in both directions.
func (r *Registry) AddAlias(t reflect.Type, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.aliasOf[Base(t)]; ok {
		delete(r.aliases, old)
	}
	if prev, ok := r.aliases[name]; ok {
		delete(r.aliasOf, Base(prev))
	}
	r.aliases[name] = t
	r.aliasOf[Base(t)] = name
	r.logger.Debug("registered alias", "alias", name, "type", QualifiedName(t))
}

// Alias returns the alias registered for t.
func (r *Registry) Alias(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.aliasOf[Base(t)]
	return name, ok
}

// NameOf returns the class tag written for t: its alias if registered,
// its qualified name otherwise.
func (r *Registry) NameOf(t reflect.Type) string {
	if alias, ok := r.Alias(t); ok {
		return alias
	}
	return QualifiedName(t)
}

// Register makes the types of the given values resolvable by their
// qualified names. The registered form (value or pointer) is the one
// produced when a class tag names the type.
func (r *Registry) Register(values ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range values {
		t := reflect.TypeOf(v)
		if t == nil {
			continue
		}
		r.named[QualifiedName(t)] = t
		r.logger.Debug("registered type", "name", QualifiedName(t))
	}
}

// SetResolver replaces the lookup used for class names that are not
// aliases. A nil resolver restores the lookup of registered types.
func (r *Registry) SetResolver(resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolver = resolver
}

// Resolve maps a class tag to a type, consulting aliases first.
func (r *Registry) Resolve(name string) (reflect.Type, bool) {
	r.mu.RLock()
	if t, ok := r.aliases[name]; ok {
		r.mu.RUnlock()
		return t, true
	}
	resolver := r.resolver
	t, ok := r.named[name]
	r.mu.RUnlock()
	if resolver != nil {
		return resolver(name)
	}
	return t, ok
}

// RegisterImplementation sets impl as the type decoded when iface is
// expected and the input carries no class tag.
func (r *Registry) RegisterImplementation(iface, impl reflect.Type) error {
	if iface == nil || iface.Kind() != reflect.Interface {
		return fmt.Errorf("%v is not an interface type", iface)
	}
	if impl == nil || !(impl.Implements(iface) || reflect.PointerTo(impl).Implements(iface)) {
		return fmt.Errorf("%v does not implement %v", impl, iface)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impls[iface] = impl
	return nil
}

// Implementation returns the default implementation of iface.
func (r *Registry) Implementation(iface reflect.Type) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.impls[iface]
	return t, ok
}

// ClearCaches drops memoized descriptors and converter lookups.
// Registrations are kept.
func (r *Registry) ClearCaches() {
	r.descriptors.Range(func(k, _ any) bool {
		r.descriptors.Delete(k)
		return true
	})
	r.lookups.Range(func(k, _ any) bool {
		r.lookups.Delete(k)
		return true
	})
}

// Assignable reports whether a value of type actual can be stored where
// expected is declared, allowing for one level of pointer indirection.
// A nil expected type accepts everything.
func Assignable(actual, expected reflect.Type) bool {
	if expected == nil || actual == nil {
		return true
	}
	if actual.AssignableTo(expected) || reflect.PointerTo(actual).AssignableTo(expected) {
		return true
	}
	return Base(actual) == Base(expected)
}
