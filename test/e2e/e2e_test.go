package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEndToEnd_ComplexNestedStructures tests that a complex document comes
// back unchanged apart from layout
func TestEndToEnd_ComplexNestedStructures(t *testing.T) {
	tempDir := t.TempDir()

	jsonContent := `{
		"id": 12345,
		"uuid": "550e8400-e29b-41d4-a716-446655440000",
		"created_at": "2023-05-20T14:56:23Z",
		"updated_at": null,
		"config": {
			"enabled": true,
			"timeout_seconds": 30,
			"features": ["logging", "metrics", "alerting"],
			"rate_limits": {
				"per_second": 100,
				"burst": 150
			},
			"environments": {
				"development": {"debug": true, "log_level": "debug"},
				"production": {"debug": false, "log_level": "info"}
			}
		},
		"users": [
			{
				"id": 1,
				"name": "Alice",
				"roles": ["admin", "user"],
				"metadata": {"last_login": "2023-05-19T10:30:00Z", "login_count": 42}
			},
			{
				"id": 2,
				"name": "Bob",
				"roles": ["user"],
				"metadata": {"last_login": "2023-05-18T09:15:00Z", "login_count": 17}
			}
		],
		"stats": {
			"requests": 1234567,
			"errors": 123,
			"success_rate": 0.9999,
			"response_times": [0.045, 0.067, 0.032, 0.051],
			"total_bytes": 9007199254740993
		},
		"active": true
	}`

	jsonFile := filepath.Join(tempDir, "complex.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(jsonContent), 0644))
	outputFile := filepath.Join(tempDir, "complex_output.json")

	cmd := exec.Command("go", "run", "../../main.go", "-i", jsonFile, "-o", outputFile)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "CLI command failed: %s", string(output))

	written, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	out := string(written)

	assert.JSONEq(t, jsonContent, out)
	// Member order is kept and integers keep their precision.
	assert.True(t, strings.HasPrefix(out, `{"id":12345,"uuid":`))
	assert.Contains(t, out, `"total_bytes":9007199254740993`)
	assert.Contains(t, out, `"updated_at":null`)
}

// TestEndToEnd_HeterogeneousArrays tests arrays containing mixed types
func TestEndToEnd_HeterogeneousArrays(t *testing.T) {
	jsonContent := `{
		"mixed_array": [1, "string", true, null, {"nested": "object"}, [1, 2, 3], 2.5],
		"mixed_objects": [
			{"type": "user", "id": 1, "name": "Alice"},
			{"type": "group", "id": 2, "members": 5},
			{"type": "user", "id": 3, "name": "Bob", "active": true}
		]
	}`

	cmd := exec.Command("go", "run", "../../main.go")
	cmd.Stdin = strings.NewReader(jsonContent)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	require.NoError(t, cmd.Run(), "CLI command failed: %s", stderr.String())

	output := strings.TrimSpace(stdout.String())
	assert.JSONEq(t, jsonContent, output)
	assert.Contains(t, output, `"mixed_array":[1,"string",true,null,{"nested":"object"},[1,2,3],2.5]`)
}

// TestEndToEnd_TypedDocument tests a document mixing open types and plain
// values through the pretty printer
func TestEndToEnd_TypedDocument(t *testing.T) {
	jsonContent := `{
		"generatedAt": "2024-02-01T10:00:00Z",
		"gauges": [
			{"class": {"type": "Gauge", "description": "A gauge",
				"keys": {"name": {"type": "javax.management.ObjectName", "description": "Bean"},
				         "samples": {"type": {"type": "long[]", "elementType": "long", "dimension": 1}}}},
			 "name": "app:type=Queue,name=in", "samples": [1, 2, 3]},
			{"class": "Gauge", "name": "app:type=Queue,name=out", "samples": []}
		]
	}`

	cmd := exec.Command("go", "run", "../../main.go", "--pretty")
	cmd.Stdin = strings.NewReader(jsonContent)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	require.NoError(t, cmd.Run(), "CLI command failed: %s", stderr.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))

	gauges := got["gauges"].([]any)
	require.Len(t, gauges, 2)
	first := gauges[0].(map[string]any)
	assert.IsType(t, map[string]any{}, first["class"], "the first occurrence carries the schema")
	assert.Equal(t, []any{1.0, 2.0, 3.0}, first["samples"])
	second := gauges[1].(map[string]any)
	assert.Equal(t, "Gauge", second["class"], "later occurrences refer to the schema by name")
	assert.Equal(t, "app:name=out,type=Queue", second["name"], "names are written in canonical form")
	assert.Equal(t, "2024-02-01T10:00:00Z", got["generatedAt"])
}

// generateLargeJSON generates a large JSON file with the specified number of items
func generateLargeJSON(t testing.TB, filePath string, itemCount int) []byte {
	// Seed random for reproducible results
	rng := rand.New(rand.NewSource(42))

	items := make([]map[string]interface{}, itemCount)

	for i := 0; i < itemCount; i++ {
		items[i] = map[string]interface{}{
			"id":          i + 1,
			"guid":        fmt.Sprintf("%x-%x-%x-%x-%x", rng.Uint32(), rng.Uint32()&0xffff, rng.Uint32()&0xffff, rng.Uint32()&0xffff, rng.Uint32()<<16|rng.Uint32()),
			"name":        fmt.Sprintf("Item %d", i+1),
			"description": fmt.Sprintf("This is item number %d in the test dataset", i+1),
			"created_at":  time.Now().Add(-time.Duration(rng.Intn(10000)) * time.Hour).Format(time.RFC3339),
			"price":       float64(rng.Intn(100000)) / 100,
			"quantity":    rng.Intn(100),
			"active":      rng.Intn(2) == 1,
			"tags":        []string{"tag1", "tag2", "tag3"}[0 : rng.Intn(3)+1],
			"metadata": map[string]interface{}{
				"source":      "test",
				"priority":    rng.Intn(5) + 1,
				"processed":   rng.Intn(2) == 1,
				"retry_count": rng.Intn(5),
			},
		}
	}

	jsonData, err := json.MarshalIndent(items, "", "  ")
	require.NoError(t, err)

	if filePath != "" {
		require.NoError(t, os.WriteFile(filePath, jsonData, 0644))
	}
	return jsonData
}

// TestEndToEnd_LargeDocument tests a document with many array elements
func TestEndToEnd_LargeDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large document test in short mode")
	}

	tempDir := t.TempDir()
	jsonFile := filepath.Join(tempDir, "large.json")
	outputFile := filepath.Join(tempDir, "large_output.json")
	input := generateLargeJSON(t, jsonFile, 2000)

	cmd := exec.Command("go", "run", "../../main.go", "-i", jsonFile, "-o", outputFile)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "CLI command failed: %s", string(output))

	written, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.JSONEq(t, string(input), string(written))
}

// TestEndToEnd_EdgeCases tests various edge cases
func TestEndToEnd_EdgeCases(t *testing.T) {
	testCases := []struct {
		name     string
		json     string
		args     []string
		expected string
		isError  bool
	}{
		{
			name:     "EmptyObject",
			json:     `{}`,
			expected: `{}`,
		},
		{
			name:     "EmptyArray",
			json:     `[]`,
			expected: `[]`,
		},
		{
			name:     "SingleValue",
			json:     `"just a string"`,
			expected: `"just a string"`,
		},
		{
			name:     "SingleNumber",
			json:     `42`,
			expected: `42`,
		},
		{
			name:     "SingleBoolean",
			json:     `true`,
			expected: `true`,
		},
		{
			name:     "SingleNull",
			json:     `null`,
			expected: `null`,
		},
		{
			name:     "EscapedString",
			json:     `{"quote": "say \"hi\"\n", "unicode": "café"}`,
			expected: `{"quote":"say \"hi\"\n","unicode":"café"}`,
		},
		{
			name:    "TrailingComma",
			json:    `{"name": "Invalid JSON",}`,
			isError: true,
		},
		{
			name:     "TrailingCommaAsJSONC",
			json:     `{"name": "Valid JSONC",}`,
			args:     []string{"--jsonc"},
			expected: `{"name":"Valid JSONC"}`,
		},
		{
			name:    "MultipleValues",
			json:    `{"a": 1} {"b": 2}`,
			isError: true,
		},
		{
			name:    "UnknownOpenType",
			json:    `{"class": {"type": "Point", "keys": {"x": {"type": "java.lang.Thread"}}}, "x": 1}`,
			isError: true,
		},
		{
			name:     "DeeplyNestedObject",
			json:     `{"level1":{"level2":{"level3":{"level4":{"level5":{"value":42}}}}}}`,
			expected: `{"level1":{"level2":{"level3":{"level4":{"level5":{"value":42}}}}}}`,
		},
		{
			name:     "DeeplyNestedArray",
			json:     `[[[[[[42]]]]]]`,
			expected: `[[[[[[42]]]]]]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := exec.Command("go", append([]string{"run", "../../main.go"}, tc.args...)...)
			cmd.Stdin = strings.NewReader(tc.json)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()

			if tc.isError {
				assert.Error(t, err, "Expected an error for %s", tc.name)
				assert.NotEmpty(t, stderr.String())
			} else {
				require.NoError(t, err, "Unexpected error for %s: %s", tc.name, stderr.String())
				assert.Equal(t, tc.expected, strings.TrimSpace(stdout.String()), "Unexpected output for %s", tc.name)
			}
		})
	}
}
