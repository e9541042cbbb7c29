package e2e_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcncl/typedjson/internal/decoder"
	"github.com/mcncl/typedjson/internal/encoder"
	"github.com/mcncl/typedjson/internal/opentype"
)

// generateNestedJSON creates a deeply nested JSON structure for benchmarking
func generateNestedJSON(depth int, width int) map[string]interface{} {
	if depth <= 0 {
		return map[string]interface{}{
			"leaf_value": "data",
			"timestamp":  time.Now().Format(time.RFC3339),
			"count":      rand.Intn(100),
			"enabled":    rand.Intn(2) == 1,
		}
	}

	result := make(map[string]interface{})

	for i := 0; i < width; i++ {
		key := fmt.Sprintf("nested_%d_%d", depth, i)
		result[key] = generateNestedJSON(depth-1, width)
	}

	return result
}

// generateWideJSON creates a JSON object with many fields at the same level
func generateWideJSON(fieldCount int) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < fieldCount; i++ {
		// Mix different types of fields
		switch i % 5 {
		case 0:
			result[fmt.Sprintf("string_field_%d", i)] = fmt.Sprintf("value_%d", i)
		case 1:
			result[fmt.Sprintf("int_field_%d", i)] = i
		case 2:
			result[fmt.Sprintf("bool_field_%d", i)] = i%2 == 0
		case 3:
			result[fmt.Sprintf("float_field_%d", i)] = float64(i) + 0.5
		case 4:
			result[fmt.Sprintf("object_field_%d", i)] = map[string]interface{}{
				"id":    i,
				"name":  fmt.Sprintf("Object %d", i),
				"value": i * 10,
			}
		}
	}

	return result
}

// benchmarkRoundTrip decodes and re-encodes data b.N times.
func benchmarkRoundTrip(b *testing.B, data []byte) {
	b.Helper()
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var v any
		if err := decoder.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
		if _, err := encoder.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDeepNesting benchmarks performance with deeply nested JSON structures
func BenchmarkDeepNesting(b *testing.B) {
	depths := []struct {
		name  string
		depth int
		width int
	}{
		{"Depth3Width3", 3, 3},   // Moderate nesting
		{"Depth5Width2", 5, 2},   // Deep nesting
		{"Depth2Width10", 2, 10}, // Wide but shallow
	}

	for _, depth := range depths {
		b.Run(depth.name, func(b *testing.B) {
			data, err := json.Marshal(generateNestedJSON(depth.depth, depth.width))
			require.NoError(b, err)
			benchmarkRoundTrip(b, data)
		})
	}
}

// BenchmarkWideStructures benchmarks performance with wide JSON structures (many fields)
func BenchmarkWideStructures(b *testing.B) {
	for _, count := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("%dFields", count), func(b *testing.B) {
			data, err := json.Marshal(generateWideJSON(count))
			require.NoError(b, err)
			benchmarkRoundTrip(b, data)
		})
	}
}

// BenchmarkLargeJSON benchmarks arrays of many similar objects
func BenchmarkLargeJSON(b *testing.B) {
	for _, count := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("%dItems", count), func(b *testing.B) {
			benchmarkRoundTrip(b, generateLargeJSON(b, "", count))
		})
	}
}

// BenchmarkTabular benchmarks tables whose schema is written once and
// referenced by name afterwards
func BenchmarkTabular(b *testing.B) {
	row, err := opentype.NewCompositeType("Sample", "",
		opentype.Item{Key: "id", Type: opentype.Long},
		opentype.Item{Key: "value", Type: opentype.Double},
	)
	require.NoError(b, err)
	tt, err := opentype.NewTabularType("Samples", "", row, "id")
	require.NoError(b, err)

	table := opentype.NewTabularData(tt)
	for i := 0; i < 1000; i++ {
		cd, err := opentype.NewCompositeData(row, map[string]any{"id": int64(i), "value": float64(i) / 3})
		require.NoError(b, err)
		require.NoError(b, table.Put(cd))
	}
	data, err := encoder.Marshal([]any{table, table})
	require.NoError(b, err)

	benchmarkRoundTrip(b, data)
}
