package e2e_test

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/google/go-cmp/cmp"
	"github.com/mcncl/gotoon/internal/decoder"
	"github.com/mcncl/gotoon/internal/encoder"
	"github.com/mcncl/gotoon/internal/models"
	"github.com/mcncl/gotoon/internal/parser"
	"github.com/mcncl/gotoon/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goldenDir = "../../testdata/golden"

// TestEndToEnd_Golden encodes every JSON fixture, compares the text with its
// .toon twin and decodes the twin back to the parsed JSON.
func TestEndToEnd_Golden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(goldenDir, "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, jsonPath := range files {
		name := strings.TrimSuffix(filepath.Base(jsonPath), ".json")
		t.Run(name, func(t *testing.T) {
			golden, err := os.ReadFile(filepath.Join(goldenDir, name+".toon"))
			require.NoError(t, err)
			want := strings.TrimSuffix(string(golden), "\n")

			v, err := parser.ParseFile(jsonPath)
			require.NoError(t, err)

			got, err := encoder.Encode(v, encoder.DefaultOptions())
			require.NoError(t, err)
			if got != want {
				t.Errorf("encoded text differs from %s.toon:\n%s", name, diff.LineDiff(want, got))
			}

			back, err := decoder.Decode(string(golden))
			require.NoError(t, err)
			if d := cmp.Diff(v, back); d != "" {
				t.Errorf("decoded %s.toon mismatch (-want +got):\n%s", name, d)
			}
		})
	}
}

// TestEndToEnd_OptionMatrix round-trips the fixtures under every delimiter,
// with and without length markers, at two indent widths.
func TestEndToEnd_OptionMatrix(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(goldenDir, "*.json"))
	require.NoError(t, err)

	for _, jsonPath := range files {
		v, err := parser.ParseFile(jsonPath)
		require.NoError(t, err)

		for _, delim := range []syntax.Delimiter{syntax.Comma, syntax.Tab, syntax.Pipe} {
			for _, marker := range []bool{false, true} {
				for _, indent := range []int{2, 4} {
					name := fmt.Sprintf("%s/%s/marker=%v/indent=%d", filepath.Base(jsonPath), delim.Name(), marker, indent)
					t.Run(name, func(t *testing.T) {
						text, err := encoder.Encode(v, encoder.Options{
							Indent:       indent,
							Delimiter:    delim,
							LengthMarker: marker,
						})
						require.NoError(t, err)

						back, err := decoder.DecodeWithOptions(text, decoder.Options{Indent: indent, Strict: true})
						require.NoError(t, err, "text:\n%s", text)
						if d := cmp.Diff(v, back); d != "" {
							t.Errorf("round trip mismatch (-want +got):\n%s\ntext:\n%s", d, text)
						}
					})
				}
			}
		}
	}
}

var (
	stringPool = []string{
		"", " ", "plain", "two words", "a,b", "a|b", "tab\there", "x:y", "-", "-5",
		"true", "null", "007", "1e5", "é", `q"uote`, `back\slash`, "line\nbreak",
		"[1]", "{x}", "#", " padded ",
	}
	keyPool    = []string{"id", "name", "a b", "", "x.y", "k-1", "1", "_private", "ünï", "q\"k"}
	numberPool = []string{"0", "1", "-7", "3.25", "-0.5", "1e3", "12345678901234567890"}
)

func randomScalar(rng *rand.Rand) models.Value {
	switch rng.Intn(5) {
	case 0:
		return models.NewNull()
	case 1:
		return models.NewBool(rng.Intn(2) == 0)
	case 2:
		return models.MustNumber(numberPool[rng.Intn(len(numberPool))])
	default:
		return models.NewString(stringPool[rng.Intn(len(stringPool))])
	}
}

func randomValue(rng *rand.Rand, depth int) models.Value {
	if depth <= 0 {
		return randomScalar(rng)
	}
	switch rng.Intn(6) {
	case 0, 1:
		return randomScalar(rng)
	case 2:
		// uniform rows to exercise tabular output
		n := rng.Intn(4)
		keys := rng.Perm(len(keyPool))[:1+rng.Intn(3)]
		rows := make([]models.Value, n)
		for i := range rows {
			fields := make([]models.Field, len(keys))
			for j, k := range keys {
				fields[j] = models.F(keyPool[k], randomScalar(rng))
			}
			rows[i] = models.NewObject(fields...)
		}
		return models.NewArray(rows...)
	case 3:
		items := make([]models.Value, rng.Intn(4))
		for i := range items {
			items[i] = randomValue(rng, depth-1)
		}
		return models.NewArray(items...)
	default:
		keys := rng.Perm(len(keyPool))[:rng.Intn(4)]
		fields := make([]models.Field, len(keys))
		for i, k := range keys {
			fields[i] = models.F(keyPool[k], randomValue(rng, depth-1))
		}
		return models.NewObject(fields...)
	}
}

// TestEndToEnd_RandomRoundTrip checks decode(encode(v)) == v for generated
// trees mixing every array shape and awkward strings.
func TestEndToEnd_RandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	delims := []syntax.Delimiter{syntax.Comma, syntax.Tab, syntax.Pipe}

	for i := 0; i < 300; i++ {
		v := randomValue(rng, 4)
		opts := encoder.Options{Delimiter: delims[i%len(delims)], LengthMarker: i%2 == 0}

		text, err := encoder.Encode(v, opts)
		require.NoError(t, err, "value %d: %s", i, v)

		back, err := decoder.Decode(text)
		require.NoError(t, err, "value %d: %s\ntext:\n%s", i, v, text)
		if d := cmp.Diff(v, back); d != "" {
			t.Fatalf("value %d mismatch (-want +got):\n%s\ntext:\n%s", i, d, text)
		}
	}
}

// TestEndToEnd_CLIRoundTrip drives the binary through an encode and a decode.
func TestEndToEnd_CLIRoundTrip(t *testing.T) {
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
			"rate_limits": {"per_second": 100, "burst": 150}
		},
		"users": [
			{"id": 1, "name": "Alice", "roles": ["admin", "user"]},
			{"id": 2, "name": "Bob", "roles": []}
		],
		"stats": [
			{"day": "mon", "hits": 10, "ratio": 0.25},
			{"day": "tue", "hits": 12, "ratio": 0.5}
		]
	}`
	jsonFile := filepath.Join(tempDir, "complex.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(jsonContent), 0o644))

	toonFile := filepath.Join(tempDir, "complex.toon")
	cmd := exec.Command("go", "run", "../../main.go", "-i", jsonFile, "-o", toonFile, "-d", "tab")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "encode failed: %s", string(output))

	text, err := os.ReadFile(toonFile)
	require.NoError(t, err)
	assert.Contains(t, string(text), "stats[2\t]{day\thits\tratio}:")
	assert.Contains(t, string(text), "created_at: \"2023-05-20T14:56:23Z\"")

	backFile := filepath.Join(tempDir, "back.json")
	cmd = exec.Command("go", "run", "../../main.go", "-i", toonFile, "-o", backFile)
	output, err = cmd.CombinedOutput()
	require.NoError(t, err, "decode failed: %s", string(output))

	want, err := parser.ParseFile(jsonFile)
	require.NoError(t, err)
	got, err := parser.ParseFile(backFile)
	require.NoError(t, err)
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("CLI round trip mismatch (-want +got):\n%s", d)
	}
}

// TestEndToEnd_LenientDecode accepts input strict mode rejects.
func TestEndToEnd_LenientDecode(t *testing.T) {
	input := "users[2]:\n  - a\n\n  - b\n"

	cmd := exec.Command("go", "run", "../../main.go", "-D")
	cmd.Stdin = strings.NewReader(input)
	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "TOON syntax error")

	cmd = exec.Command("go", "run", "../../main.go", "-D", "--lenient")
	cmd.Stdin = strings.NewReader(input)
	output, err = cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"users\": [\n    \"a\",\n    \"b\"\n  ]\n}\n", string(output))
}
