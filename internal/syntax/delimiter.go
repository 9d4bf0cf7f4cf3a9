// Package syntax holds the lexical rules shared by the encoder and the
// decoder: delimiters, quoting, key spelling, number shapes and indentation.
package syntax

import (
	"fmt"
	"strings"

	"github.com/mcncl/gotoon/internal/errors"
)

// Delimiter separates inline array values, tabular cells and tabular field
// names.
type Delimiter byte

const (
	Comma Delimiter = ','
	Pipe  Delimiter = '|'
	Tab   Delimiter = '\t'
)

// DefaultDelimiter is implied when a bracket carries no marker.
const DefaultDelimiter = Comma

// String returns the delimiter character.
func (d Delimiter) String() string {
	return string(rune(d))
}

// Name returns the configuration name of the delimiter.
func (d Delimiter) Name() string {
	switch d {
	case Comma:
		return "comma"
	case Pipe:
		return "pipe"
	case Tab:
		return "tab"
	default:
		return fmt.Sprintf("delimiter(%q)", rune(d))
	}
}

// Marker returns the text placed inside array brackets after the count.
// The default delimiter is implicit and has no marker.
func (d Delimiter) Marker() string {
	if d == DefaultDelimiter {
		return ""
	}
	return d.String()
}

// Valid reports whether d is one of the supported delimiters.
func (d Delimiter) Valid() bool {
	return d == Comma || d == Pipe || d == Tab
}

// ParseDelimiter accepts either the delimiter character or its name.
// The empty string selects the default.
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(s) {
	case "", ",", "comma":
		return Comma, nil
	case "|", "pipe":
		return Pipe, nil
	case "\t", "tab", `\t`:
		return Tab, nil
	default:
		return 0, errors.Wrapf(errors.ErrInvalidOption, "unknown delimiter %q", s)
	}
}

// ResolveDelimiter maps a bracket marker byte to the active delimiter.
// A zero marker means no marker was present.
func ResolveDelimiter(marker byte) (Delimiter, bool) {
	switch marker {
	case 0, ',':
		return Comma, true
	case '|':
		return Pipe, true
	case '\t':
		return Tab, true
	default:
		return 0, false
	}
}

// IsMarker reports whether b may appear as a delimiter marker in brackets.
func IsMarker(b byte) bool {
	return b == ',' || b == '|' || b == '\t'
}

// Header renders the bracket segment for an array of length n, e.g. "[3]",
// "[3|]" or "[#3\t]".
func Header(n int, d Delimiter, lengthMarker bool) string {
	var sb strings.Builder
	sb.WriteByte('[')
	if lengthMarker {
		sb.WriteByte('#')
	}
	fmt.Fprintf(&sb, "%d", n)
	sb.WriteString(d.Marker())
	sb.WriteByte(']')
	return sb.String()
}
