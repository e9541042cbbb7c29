package opentype

import (
	"errors"
	"fmt"
)

// ErrConflictingDefinition is returned when a name is redefined with a
// different structure.
var ErrConflictingDefinition = errors.New("conflicting open type definition")

// Known tracks the named open types seen on one stream. The decoder uses
// it to resolve type references; the encoder uses it to write each schema
// in full only once. Simple types are always known.
type Known struct {
	types map[string]OpenType
}

// NewKnown creates an empty set.
func NewKnown() *Known {
	return &Known{types: make(map[string]OpenType)}
}

// Lookup resolves name to a defined type or a simple type.
func (k *Known) Lookup(name string) (OpenType, bool) {
	if t, ok := k.types[name]; ok {
		return t, true
	}
	if s, _, ok := SimpleByName(name); ok {
		return s, true
	}
	return nil, false
}

// Has reports whether name has been defined on this stream.
func (k *Known) Has(name string) bool {
	_, ok := k.types[name]
	return ok
}

// Define records t. Redefining a name with an equal type returns the
// existing definition.
func (k *Known) Define(t OpenType) (OpenType, error) {
	if existing, ok := k.types[t.TypeName()]; ok {
		if !existing.Equal(t) {
			return nil, fmt.Errorf("%w: %s", ErrConflictingDefinition, t.TypeName())
		}
		return existing, nil
	}
	k.types[t.TypeName()] = t
	return t, nil
}

// Len returns the number of defined types.
func (k *Known) Len() int {
	return len(k.types)
}
