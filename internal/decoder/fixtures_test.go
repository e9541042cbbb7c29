package decoder

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcncl/typedjson/internal/registry"
)

type PhoneNumber interface {
	Label() string
}

type Phone struct {
	Name   string
	Number string
}

func (p *Phone) Label() string { return p.Name }

type SpecialNumber struct {
	Phone
	Extension int
}

type Person struct {
	Name    string
	Age     int
	Numbers []PhoneNumber
}

type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (c Color) String() string {
	switch c {
	case Red:
		return "RED"
	case Green:
		return "GREEN"
	case Blue:
		return "BLUE"
	}
	return "UNKNOWN"
}

type Palette struct {
	Primary Color
	Others  []Color
}

// RoBean can only be filled through its constructor.
type RoBean struct {
	Value int `codec:"value,readonly"`

	viaConstructor bool
}

func NewRoBean(value int) *RoBean {
	return &RoBean{Value: value, viaConstructor: true}
}

type ImmutablePoint struct {
	X int `codec:"x,readonly"`
	Y int `codec:"y,readonly"`

	ctor string
}

func NewPointXY(x, y int) ImmutablePoint {
	return ImmutablePoint{X: x, Y: y, ctor: "xy"}
}

func NewPointX(x int) ImmutablePoint {
	return ImmutablePoint{X: x, ctor: "x"}
}

type Labelled struct {
	Label string `json:"label"`
	Tags  []string
	Skip  string `codec:"-"`
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	reg.AddAlias(reflect.TypeFor[*SpecialNumber](), "Special")
	reg.Register(&Phone{}, &Person{})
	require.NoError(t, reg.RegisterImplementation(reflect.TypeFor[PhoneNumber](), reflect.TypeFor[*Phone]()))
	require.NoError(t, reg.RegisterEnum(Red, Green, Blue))
	require.NoError(t, reg.RegisterConstructor(NewRoBean, "value"))
	require.NoError(t, reg.RegisterConstructor(NewPointX, "x"))
	require.NoError(t, reg.RegisterConstructor(NewPointXY, "x", "y"))
	return reg
}

func decodeString(t *testing.T, reg *registry.Registry, input string, typ reflect.Type, opts ...Option) (any, error) {
	t.Helper()
	opts = append([]Option{WithRegistry(reg)}, opts...)
	return NewFromString(input, opts...).DecodeType(typ)
}
