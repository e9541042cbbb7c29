package opentype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/typedjson/internal/models"
)

func beanType(t *testing.T) *CompositeType {
	t.Helper()
	ct, err := NewCompositeType("Bean", "",
		Item{Key: "name", Type: ObjectName},
		Item{Key: "count", Type: Long},
		Item{Key: "label", Type: String},
	)
	require.NoError(t, err)
	return ct
}

func TestCompositeData(t *testing.T) {
	ct := beanType(t)
	name := models.MustParseName("app:type=Queue")

	cd, err := NewCompositeData(ct, map[string]any{"name": name, "count": int64(3)})
	require.NoError(t, err)
	assert.Same(t, ct, cd.Type())
	assert.Equal(t, int64(3), cd.Get("count"))
	assert.Nil(t, cd.Get("label"))
	assert.True(t, cd.Has("label"))
	assert.False(t, cd.Has("other"))
	assert.Equal(t, []any{name, int64(3), nil}, cd.Values())
	assert.Equal(t, "Bean{name=app:type=Queue, count=3, label=<nil>}", cd.String())
}

func TestCompositeData_Invalid(t *testing.T) {
	ct := beanType(t)
	other, err := NewCompositeType("Other", "", Item{Key: "x", Type: Long})
	require.NoError(t, err)
	otherValue, err := NewCompositeData(other, nil)
	require.NoError(t, err)
	nested, err := NewCompositeType("Nested", "", Item{Key: "inner", Type: ct})
	require.NoError(t, err)

	tests := []struct {
		name   string
		typ    *CompositeType
		values map[string]any
	}{
		{"no type", nil, nil},
		{"unknown item", ct, map[string]any{"missing": 1}},
		{"wrong scalar type", ct, map[string]any{"count": 3}},
		{"wrong composite type", nested, map[string]any{"inner": otherValue}},
		{"scalar for composite", nested, map[string]any{"inner": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompositeData(tt.typ, tt.values)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidValue))
		})
	}
}

func TestTabularData(t *testing.T) {
	ct := beanType(t)
	tt, err := NewTabularType("Beans", "", ct, "name")
	require.NoError(t, err)
	table := NewTabularData(tt)

	for i, n := range []string{"app:type=Queue,name=a", "app:type=Queue,name=b"} {
		row, err := NewCompositeData(ct, map[string]any{"name": models.MustParseName(n), "count": int64(i)})
		require.NoError(t, err)
		require.NoError(t, table.Put(row))
	}
	assert.Equal(t, 2, table.Len())
	assert.Same(t, tt, table.Type())

	// Index lookup uses the canonical form of names.
	row, ok := table.Get(models.MustParseName("app:name=b,type=Queue"))
	require.True(t, ok)
	assert.Equal(t, int64(1), row.Get("count"))
	_, ok = table.Get(models.MustParseName("app:name=c,type=Queue"))
	assert.False(t, ok)

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(0), rows[0].Get("count"))

	dup, err := NewCompositeData(ct, map[string]any{"name": models.MustParseName("app:name=a,type=Queue")})
	require.NoError(t, err)
	err = table.Put(dup)
	assert.True(t, errors.Is(err, ErrDuplicateIndex))

	other, err := NewCompositeType("Other", "", Item{Key: "x", Type: Long})
	require.NoError(t, err)
	wrongRow, err := NewCompositeData(other, nil)
	require.NoError(t, err)
	assert.True(t, errors.Is(table.Put(wrongRow), ErrInvalidValue))
	assert.True(t, errors.Is(table.Put(nil), ErrInvalidValue))
}

func TestKnown(t *testing.T) {
	known := NewKnown()

	s, ok := known.Lookup("java.lang.Long")
	require.True(t, ok)
	assert.Same(t, Long, s)
	assert.False(t, known.Has("java.lang.Long"), "simple types are not defined per stream")

	first, err := NewCompositeType("Point", "", Item{Key: "x", Type: Integer})
	require.NoError(t, err)
	defined, err := known.Define(first)
	require.NoError(t, err)
	assert.Same(t, first, defined)

	again, err := NewCompositeType("Point", "", Item{Key: "x", Type: Integer})
	require.NoError(t, err)
	defined, err = known.Define(again)
	require.NoError(t, err)
	assert.Same(t, first, defined, "an equal redefinition returns the first definition")

	conflict, err := NewCompositeType("Point", "", Item{Key: "x", Type: Long})
	require.NoError(t, err)
	_, err = known.Define(conflict)
	assert.True(t, errors.Is(err, ErrConflictingDefinition))

	assert.True(t, known.Has("Point"))
	assert.Equal(t, 1, known.Len())
	_, ok = known.Lookup("Line")
	assert.False(t, ok)
}
