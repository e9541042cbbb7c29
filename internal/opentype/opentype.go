// Package opentype implements self-describing open types: simple scalar
// types, arrays, composites and tables. Values of these types carry their
// schema on the wire, so they can be decoded without any Go type being
// registered.
package opentype

import (
	"math/big"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcncl/typedjson/internal/models"
)

// Kind distinguishes the four open type variants.
type Kind int

const (
	KindSimple Kind = iota
	KindArray
	KindComposite
	KindTabular
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindArray:
		return "array"
	case KindComposite:
		return "composite"
	case KindTabular:
		return "tabular"
	default:
		return "unknown"
	}
}

// OpenType is a self-describing type.
type OpenType interface {
	// TypeName is the unique name of the type.
	TypeName() string
	Description() string
	Kind() Kind
	// GoType is the Go type values of this open type are represented by.
	GoType() reflect.Type
	// Equal reports structural equality.
	Equal(other OpenType) bool
}

// SimpleType is one of the fixed scalar open types. Instances are
// singletons; compare them with ==.
type SimpleType struct {
	name      string
	primitive string
	goType    reflect.Type
}

func (s *SimpleType) TypeName() string     { return s.name }
func (s *SimpleType) Description() string  { return s.name }
func (s *SimpleType) Kind() Kind           { return KindSimple }
func (s *SimpleType) GoType() reflect.Type { return s.goType }

// Primitive returns the unboxed element name used by primitive arrays, or
// "" when the type has none.
func (s *SimpleType) Primitive() string { return s.primitive }

func (s *SimpleType) Equal(other OpenType) bool {
	o, ok := other.(*SimpleType)
	return ok && o == s
}

func (s *SimpleType) String() string { return s.name }

var (
	Void       = simple("java.lang.Void", "", reflect.TypeOf((*any)(nil)).Elem())
	Boolean    = simple("java.lang.Boolean", "boolean", reflect.TypeOf(false))
	Character  = simple("java.lang.Character", "char", reflect.TypeOf(models.Char(0)))
	Byte       = simple("java.lang.Byte", "byte", reflect.TypeOf(int8(0)))
	Short      = simple("java.lang.Short", "short", reflect.TypeOf(int16(0)))
	Integer    = simple("java.lang.Integer", "int", reflect.TypeOf(int32(0)))
	Long       = simple("java.lang.Long", "long", reflect.TypeOf(int64(0)))
	Float      = simple("java.lang.Float", "float", reflect.TypeOf(float32(0)))
	Double     = simple("java.lang.Double", "double", reflect.TypeOf(float64(0)))
	String     = simple("java.lang.String", "", reflect.TypeOf(""))
	BigDecimal = simple("java.math.BigDecimal", "", reflect.TypeOf(decimal.Decimal{}))
	BigInteger = simple("java.math.BigInteger", "", reflect.TypeOf((*big.Int)(nil)))
	Date       = simple("java.util.Date", "", reflect.TypeOf(time.Time{}))
	ObjectName = simple("javax.management.ObjectName", "", reflect.TypeOf(models.Name{}))
)

var (
	simpleByName      = map[string]*SimpleType{}
	simpleByPrimitive = map[string]*SimpleType{}
	simpleByGoType    = map[reflect.Type]*SimpleType{}
)

func simple(name, primitive string, goType reflect.Type) *SimpleType {
	return &SimpleType{name: name, primitive: primitive, goType: goType}
}

var simples = []*SimpleType{
	Void, Boolean, Character, Byte, Short, Integer, Long, Float,
	Double, String, BigDecimal, BigInteger, Date, ObjectName,
}

func init() {
	for _, s := range simples {
		simpleByName[s.name] = s
		simpleByGoType[s.goType] = s
		if s.primitive != "" {
			simpleByPrimitive[s.primitive] = s
		}
	}
}

// SimpleByName returns the simple type with the given name. Primitive
// element names such as "long" resolve as well; primitive reports
// whether name was one of those.
func SimpleByName(name string) (t *SimpleType, primitive bool, ok bool) {
	if t, ok := simpleByName[name]; ok {
		return t, false, true
	}
	if t, ok := simpleByPrimitive[name]; ok {
		return t, true, true
	}
	return nil, false, false
}

// SimpleFor returns the simple type whose values are represented by t.
func SimpleFor(t reflect.Type) (*SimpleType, bool) {
	s, ok := simpleByGoType[t]
	return s, ok
}

// Simples returns all simple types.
func Simples() []*SimpleType {
	return append([]*SimpleType(nil), simples...)
}
