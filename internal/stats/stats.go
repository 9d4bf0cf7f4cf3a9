// Package stats estimates how many language-model tokens a value costs as
// compact JSON and as TOON text.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mcncl/gotoon/internal/encoder"
	"github.com/mcncl/gotoon/internal/errors"
	"github.com/mcncl/gotoon/internal/formatter"
	"github.com/mcncl/gotoon/internal/models"
)

// Counter counts tokens in text.
type Counter interface {
	CountTokens(text string) int
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(text string) int

// CountTokens calls f(text).
func (f CounterFunc) CountTokens(text string) int {
	return f(text)
}

// HeuristicCounter approximates BPE tokenisers: every run of letters,
// digits or whitespace is one token per four bytes (rounded up), and every
// other character is its own token.
type HeuristicCounter struct{}

// CountTokens implements Counter.
func (HeuristicCounter) CountTokens(text string) int {
	tokens := 0
	runLen := 0
	runClass := classNone
	flush := func() {
		if runLen > 0 {
			tokens += (runLen + 3) / 4
		}
		runLen = 0
	}

	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]

		class := classify(r)
		if class == classPunct {
			flush()
			runClass = classNone
			tokens++
			continue
		}
		if class != runClass {
			flush()
			runClass = class
		}
		runLen += size
	}
	flush()
	return tokens
}

type charClass uint8

const (
	classNone charClass = iota
	classLetter
	classDigit
	classSpace
	classPunct
)

func classify(r rune) charClass {
	switch {
	case unicode.IsLetter(r) || r == '_':
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	case r == ' ':
		return classSpace
	default:
		return classPunct
	}
}

// ByteCounter is the rough four-bytes-per-token rule.
var ByteCounter = CounterFunc(func(text string) int {
	return (len(text) + 3) / 4
})

var counters = map[string]Counter{
	"heuristic": HeuristicCounter{},
	"bytes":     ByteCounter,
}

// Lookup returns the counter registered under name. The empty name selects
// the heuristic counter.
func Lookup(name string) (Counter, error) {
	if name == "" {
		name = "heuristic"
	}
	c, ok := counters[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidOption, "unknown token counter %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return c, nil
}

// Names lists the registered counters.
func Names() []string {
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Savings compares a value's compact JSON form with its TOON form.
type Savings struct {
	ReferenceTokens int
	FormatTokens    int
	Saved           int
	Percent         float64
}

// String renders the comparison for terminal output.
func (s Savings) String() string {
	return fmt.Sprintf("JSON tokens: %d\nTOON tokens: %d\nSaved: %d (%.1f%%)",
		s.ReferenceTokens, s.FormatTokens, s.Saved, s.Percent)
}

// EstimateSavings encodes v with opts and counts tokens of both
// serialisations with c.
func EstimateSavings(v models.Value, c Counter, opts encoder.Options) (Savings, error) {
	reference, err := formatter.Compact(v)
	if err != nil {
		return Savings{}, err
	}
	text, err := encoder.Encode(v, opts)
	if err != nil {
		return Savings{}, err
	}
	return Compare(reference, text, c), nil
}

// Compare counts tokens of already-rendered texts.
func Compare(reference, text string, c Counter) Savings {
	s := Savings{
		ReferenceTokens: c.CountTokens(reference),
		FormatTokens:    c.CountTokens(text),
	}
	s.Saved = s.ReferenceTokens - s.FormatTokens
	if s.ReferenceTokens > 0 {
		s.Percent = float64(s.Saved) / float64(s.ReferenceTokens) * 100
	}
	return s
}
