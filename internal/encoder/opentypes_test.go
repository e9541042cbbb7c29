package encoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/typedjson/internal/decoder"
	apperrors "github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/opentype"
)

func pointType(t *testing.T) *opentype.CompositeType {
	t.Helper()
	ct, err := opentype.NewCompositeType("Point", "",
		opentype.Item{Key: "x", Type: opentype.Integer},
		opentype.Item{Key: "y", Type: opentype.Integer},
	)
	require.NoError(t, err)
	return ct
}

func point(t *testing.T, ct *opentype.CompositeType, x, y int32) *opentype.CompositeData {
	t.Helper()
	cd, err := opentype.NewCompositeData(ct, map[string]any{"x": x, "y": y})
	require.NoError(t, err)
	return cd
}

func testTable(t *testing.T) *opentype.TabularData {
	t.Helper()
	row, err := opentype.NewCompositeType("com.example.TestTable", "Test table",
		opentype.Item{Key: "column1", Description: "Column 1", Type: opentype.Integer},
		opentype.Item{Key: "column2", Description: "Column 2", Type: opentype.Integer},
	)
	require.NoError(t, err)
	tt, err := opentype.NewTabularType("com.example.TestTable", "Test table", row, "column1", "column2")
	require.NoError(t, err)

	table := opentype.NewTabularData(tt)
	for _, cells := range [][2]int32{{1, 2}, {3, 4}} {
		cd, err := opentype.NewCompositeData(row, map[string]any{"column1": cells[0], "column2": cells[1]})
		require.NoError(t, err)
		require.NoError(t, table.Put(cd))
	}
	return table
}

func TestEncode_Tabular(t *testing.T) {
	expected := `{"class":{"type":"com.example.TestTable","description":"Test table",` +
		`"row":{"column1":{"type":"java.lang.Integer","description":"Column 1"},` +
		`"column2":{"type":"java.lang.Integer","description":"Column 2"}},` +
		`"indices":["column1","column2"]},"rows":[[1,2],[3,4]]}`

	assert.Equal(t, expected, marshal(t, testRegistry(t), testTable(t)))
}

func TestEncode_CompositeSchemaWrittenOnce(t *testing.T) {
	ct := pointType(t)
	values := []any{point(t, ct, 1, 2), point(t, ct, 3, 4)}

	expected := `[{"class":{"type":"Point","keys":{"x":{"type":"java.lang.Integer"},"y":{"type":"java.lang.Integer"}}},` +
		`"x":1,"y":2},{"class":"Point","x":3,"y":4}]`
	out := marshal(t, testRegistry(t), values)
	assert.Equal(t, expected, out)

	var back []any
	require.NoError(t, decoder.Unmarshal([]byte(out), &back))
	require.Len(t, back, 2)
	for i, v := range back {
		cd, ok := v.(*opentype.CompositeData)
		require.True(t, ok, "got %T", v)
		assert.True(t, ct.Equal(cd.Type()))
		assert.Equal(t, values[i].(*opentype.CompositeData).Values(), cd.Values())
	}
}

func TestEncode_ArrayItem(t *testing.T) {
	longs, err := opentype.NewArrayType(1, opentype.Long, true)
	require.NoError(t, err)
	ct, err := opentype.NewCompositeType("Sample", "Sample data", opentype.Item{Key: "values", Type: longs})
	require.NoError(t, err)
	cd, err := opentype.NewCompositeData(ct, map[string]any{"values": []int64{1, 2, 3}})
	require.NoError(t, err)

	expected := `{"class":{"type":"Sample","description":"Sample data","keys":{"values":{"type":` +
		`{"type":"long[]","elementType":"long","dimension":1,"description":"1-dimension array of long"}}}},` +
		`"values":[1,2,3]}`
	out := marshal(t, testRegistry(t), cd)
	assert.Equal(t, expected, out)

	var back any
	require.NoError(t, decoder.Unmarshal([]byte(out), &back))
	decoded := back.(*opentype.CompositeData)
	assert.True(t, ct.Equal(decoded.Type()))
	assert.Equal(t, []int64{1, 2, 3}, decoded.Get("values"))
}

func TestEncode_NestedCompositeReferences(t *testing.T) {
	pt := pointType(t)
	line, err := opentype.NewCompositeType("Line", "",
		opentype.Item{Key: "from", Type: pt},
		opentype.Item{Key: "to", Type: pt},
	)
	require.NoError(t, err)
	cd, err := opentype.NewCompositeData(line, map[string]any{"from": point(t, pt, 0, 0), "to": point(t, pt, 1, 1)})
	require.NoError(t, err)

	// Values of a declared item type still name their type.
	expected := `{"class":{"type":"Line","keys":{"from":{"type":{"type":"Point","keys":` +
		`{"x":{"type":"java.lang.Integer"},"y":{"type":"java.lang.Integer"}}}},"to":{"type":"Point"}}},` +
		`"from":{"class":"Point","x":0,"y":0},"to":{"class":"Point","x":1,"y":1}}`
	assert.Equal(t, expected, marshal(t, testRegistry(t), cd))
}

func TestEncode_OpenTypesIgnoreOmitClass(t *testing.T) {
	out := marshal(t, testRegistry(t), point(t, pointType(t), 1, 2), OmitClass(true))
	assert.Contains(t, out, `"class":{"type":"Point"`)
}

func TestEncode_ConflictingSchemas(t *testing.T) {
	other, err := opentype.NewCompositeType("Point", "", opentype.Item{Key: "x", Type: opentype.Long})
	require.NoError(t, err)
	conflicting, err := opentype.NewCompositeData(other, map[string]any{"x": int64(1)})
	require.NoError(t, err)

	_, err = Marshal([]any{point(t, pointType(t), 1, 2), conflicting}, WithRegistry(testRegistry(t)))
	require.Error(t, err)
	assert.ErrorIs(t, err, opentype.ErrConflictingDefinition)
	assert.Equal(t, apperrors.ErrorTypeOutput, apperrors.TypeOf(err))
}

func TestEncode_TableRoundTrip(t *testing.T) {
	table := testTable(t)
	out := marshal(t, testRegistry(t), []any{table, table})

	var back []any
	require.NoError(t, decoder.Unmarshal([]byte(out), &back))
	require.Len(t, back, 2)
	for _, v := range back {
		decoded, ok := v.(*opentype.TabularData)
		require.True(t, ok, "got %T", v)
		assert.True(t, table.Type().Equal(decoded.Type()))
		assert.Equal(t, 2, decoded.Len())
		row, ok := decoded.Get(int32(1), int32(2))
		require.True(t, ok)
		assert.Equal(t, []any{int32(1), int32(2)}, row.Values())
	}
	assert.Equal(t, 1, strings.Count(out, `"row":`), "table schema should be written once")
}
