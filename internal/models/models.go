// Package models holds the JSON value model shared by the decoder and the
// encoder: the ordered object, the set collection, and the scalar kinds
// that have no direct Go builtin (characters and qualified names).
package models

import (
	"fmt"
	"reflect"
)

// Position is a location in the input, used for diagnostics.
type Position struct {
	Offset int64 // byte offset, 0-based
	Line   int   // 1-based
	Column int   // 1-based, in bytes
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Char is the single-character scalar kind. A JSON string of exactly one
// character decodes to a Char when a Char is expected.
type Char rune

// String returns the character as a one-character string.
func (c Char) String() string {
	return string(rune(c))
}

// Set is a uniqueness-preserving collection. Iteration follows insertion
// order; element order carries no meaning on the wire.
type Set struct {
	items []any
	index map[any]int
}

// NewSet creates a set holding the given items.
func NewSet(items ...any) *Set {
	s := &Set{index: make(map[any]int)}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item and reports whether it was not already present.
// Items that are not comparable are always appended.
func (s *Set) Add(item any) bool {
	if s.index == nil {
		s.index = make(map[any]int)
	}
	if !isComparable(item) {
		s.items = append(s.items, item)
		return true
	}
	if _, exists := s.index[item]; exists {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Contains reports whether item is in the set.
func (s *Set) Contains(item any) bool {
	if s == nil || !isComparable(item) {
		return false
	}
	_, ok := s.index[item]
	return ok
}

// Len returns the number of items.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the items in insertion order.
func (s *Set) Items() []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}

// Document is one decoded top-level JSON value.
type Document struct {
	Root        any
	RootIsArray bool
}
