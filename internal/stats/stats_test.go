package stats

import (
	"testing"

	"github.com/mcncl/gotoon/internal/encoder"
	"github.com/mcncl/gotoon/internal/errors"
	"github.com/mcncl/gotoon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicCounter(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"id: 1", 4},       // "id" ":" " " "1"
		{`{"a":1}`, 7},     // every punctuation mark counts
		{"hello world", 5}, // 2 + 1 + 2
		{"12345678", 2},
		{"été", 2}, // five bytes of letters
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, HeuristicCounter{}.CountTokens(tt.text))
		})
	}
}

func TestByteCounter(t *testing.T) {
	assert.Equal(t, 0, ByteCounter.CountTokens(""))
	assert.Equal(t, 1, ByteCounter.CountTokens("abc"))
	assert.Equal(t, 2, ByteCounter.CountTokens("abcdefgh"))
}

func TestLookup(t *testing.T) {
	c, err := Lookup("")
	require.NoError(t, err)
	assert.IsType(t, HeuristicCounter{}, c)

	c, err = Lookup("BYTES")
	require.NoError(t, err)
	assert.Equal(t, 2, c.CountTokens("abcdefgh"))

	_, err = Lookup("cl100k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidOption))
	assert.Equal(t, []string{"bytes", "heuristic"}, Names())
}

func TestEstimateSavings_Tabular(t *testing.T) {
	rows := make([]models.Value, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, models.NewObject(
			models.F("id", models.NewInt(int64(i))),
			models.F("name", models.NewString("user")),
			models.F("active", models.NewBool(i%2 == 0)),
		))
	}
	v := models.NewObject(models.F("users", models.NewArray(rows...)))

	s, err := EstimateSavings(v, HeuristicCounter{}, encoder.DefaultOptions())
	require.NoError(t, err)

	assert.Greater(t, s.ReferenceTokens, s.FormatTokens)
	assert.Equal(t, s.ReferenceTokens-s.FormatTokens, s.Saved)
	assert.Greater(t, s.Percent, 30.0)
	assert.Contains(t, s.String(), "JSON tokens:")
}

func TestEstimateSavings_EncodeError(t *testing.T) {
	_, err := EstimateSavings(models.NewArray(models.Value{}), HeuristicCounter{}, encoder.DefaultOptions())
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	counter := CounterFunc(func(text string) int { return len(text) })

	s := Compare("0123456789", "01234", counter)
	assert.Equal(t, Savings{ReferenceTokens: 10, FormatTokens: 5, Saved: 5, Percent: 50}, s)

	s = Compare("", "", counter)
	assert.Equal(t, Savings{}, s)
}
