package e2e_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mcncl/gotoon/internal/decoder"
	"github.com/mcncl/gotoon/internal/encoder"
	"github.com/mcncl/gotoon/internal/models"
	"github.com/mcncl/gotoon/internal/parser"
	"github.com/mcncl/gotoon/internal/stats"
	"github.com/stretchr/testify/require"
)

// generateRecords creates uniform records, the tabular best case.
func generateRecords(count int) []any {
	// Seed random for reproducible results
	rng := rand.New(rand.NewSource(42))

	items := make([]any, count)
	for i := range items {
		items[i] = map[string]any{
			"id":     i,
			"name":   fmt.Sprintf("Item %d", i),
			"price":  float64(rng.Intn(10000)) / 100,
			"active": rng.Intn(2) == 1,
			"sku":    fmt.Sprintf("SKU-%05d", rng.Intn(100000)),
		}
	}
	return items
}

// generateNested creates a deeply nested structure that renders as lists
// and indented objects.
func generateNested(depth, width int) map[string]any {
	if depth <= 0 {
		return map[string]any{
			"leaf_value": "data",
			"count":      depth + width,
			"tags":       []any{"a", "b", "c"},
		}
	}

	result := make(map[string]any)
	for i := 0; i < width; i++ {
		result[fmt.Sprintf("nested_%d_%d", depth, i)] = generateNested(depth-1, width)
	}
	result["children"] = []any{generateNested(depth-1, 1), "tail"}
	return result
}

func mustValue(b *testing.B, data any) models.Value {
	b.Helper()
	v, err := models.FromAny(data)
	require.NoError(b, err)
	return v
}

// BenchmarkEncode measures encoding throughput and reports token savings
// against compact JSON.
func BenchmarkEncode(b *testing.B) {
	cases := []struct {
		name string
		data any
	}{
		{"Records100", generateRecords(100)},
		{"Records1000", generateRecords(1000)},
		{"Nested4x3", generateNested(4, 3)},
	}

	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			v := mustValue(b, tc.data)
			enc, err := encoder.NewEncoder(encoder.DefaultOptions())
			require.NoError(b, err)

			savings, err := stats.EstimateSavings(v, stats.HeuristicCounter{}, enc.Options())
			require.NoError(b, err)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := enc.Encode(v); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportMetric(savings.Percent, "%saved")
		})
	}
}

// BenchmarkDecode measures strict decoding of pre-encoded text.
func BenchmarkDecode(b *testing.B) {
	cases := []struct {
		name string
		data any
	}{
		{"Records100", generateRecords(100)},
		{"Records1000", generateRecords(1000)},
		{"Nested4x3", generateNested(4, 3)},
	}

	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			text, err := encoder.Encode(mustValue(b, tc.data), encoder.DefaultOptions())
			require.NoError(b, err)
			dec, err := decoder.NewDecoder(decoder.DefaultOptions())
			require.NoError(b, err)

			b.SetBytes(int64(len(text)))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := dec.Decode(text); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkParseJSON measures the JSON input path.
func BenchmarkParseJSON(b *testing.B) {
	data, err := json.Marshal(generateRecords(1000))
	require.NoError(b, err)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := parser.ParseBytes(data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCLI benchmarks the binary end to end on a large file
func BenchmarkCLI(b *testing.B) {
	// Skip in short mode
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	tempDir := b.TempDir()
	jsonData, err := json.MarshalIndent(generateRecords(10000), "", "  ")
	require.NoError(b, err)

	jsonFile := filepath.Join(tempDir, "large.json")
	require.NoError(b, os.WriteFile(jsonFile, jsonData, 0o644))
	outputFile := filepath.Join(tempDir, "large.toon")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cmd := exec.Command("go", "run", "../../main.go", "-i", jsonFile, "-o", outputFile)
		output, err := cmd.CombinedOutput()
		require.NoError(b, err, "CLI command failed: %s", string(output))

		// Clean up output file for next iteration
		if err := os.Remove(outputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing file: %v\n", err)
		}
	}
}
