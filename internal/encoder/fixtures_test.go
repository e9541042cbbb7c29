package encoder

import (
	"errors"
	"math/big"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/typedjson/internal/models"
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
)

func (c Color) String() string {
	if c == Green {
		return "GREEN"
	}
	return "RED"
}

type Collections struct {
	ListOfItems []int
	SetOfItems  *models.Set
}

type Account struct {
	User     string
	Password string `codec:"password,transient"`
	Created  time.Time
	Internal string `codec:"-"`
}

type Inner struct {
	Depth int
}

type Outer struct {
	*Inner
	Width int
}

type opaque struct {
	n int
}

type Event struct {
	ID      int64
	Kind    Color
	At      time.Time
	Source  models.Name
	Amount  decimal.Decimal
	Big     *big.Int
	Ratio   float32
	Initial models.Char
	Tags    []string
	Counts  map[string]int
	Timeout time.Duration
	Addr    net.IP
}

// Gauge is described manually; its status cannot be read.
type Gauge struct {
	value float64
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	reg.AddAlias(reflect.TypeFor[*SpecialNumber](), "Special")
	reg.Register(&Phone{})
	require.NoError(t, reg.RegisterImplementation(reflect.TypeFor[PhoneNumber](), reflect.TypeFor[*Phone]()))
	require.NoError(t, reg.RegisterEnum(Red, Green))
	registry.RegisterConverter(reg, func(d time.Duration) (string, error) { return d.String(), nil }, time.ParseDuration)
	reg.Describe(reflect.TypeFor[Gauge](),
		registry.Accessor("value",
			func(g *Gauge) (float64, error) { return g.value, nil },
			func(g *Gauge, v float64) error { g.value = v; return nil }),
		registry.Accessor[Gauge, string]("status",
			func(*Gauge) (string, error) { return "", errors.New("offline") },
			nil),
	)
	return reg
}

func marshal(t *testing.T, reg *registry.Registry, v any, opts ...Option) string {
	t.Helper()
	opts = append([]Option{WithRegistry(reg)}, opts...)
	data, err := Marshal(v, opts...)
	require.NoError(t, err)
	return string(data)
}
