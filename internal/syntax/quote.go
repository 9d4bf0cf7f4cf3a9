package syntax

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mcncl/gotoon/internal/errors"
)

// Reserved literal tokens.
const (
	LiteralTrue  = "true"
	LiteralFalse = "false"
	LiteralNull  = "null"
)

var (
	// numberRegex is the grammar the decoder coerces to a number.
	numberRegex = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
	// numericLikeRegex also covers leading-zero forms a reader could take for a number.
	numericLikeRegex = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
	bareKeyRegex     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// IsNumber reports whether an unquoted token coerces to a number.
func IsNumber(s string) bool {
	return numberRegex.MatchString(s)
}

// IsNumericLike reports whether s could be read as a number.
func IsNumericLike(s string) bool {
	return numericLikeRegex.MatchString(s)
}

// IsReserved reports whether s spells true, false or null.
func IsReserved(s string) bool {
	return s == LiteralTrue || s == LiteralFalse || s == LiteralNull
}

// NeedsQuoting reports whether the string s must be quoted to decode back
// to the same string when d is the active delimiter.
func NeedsQuoting(s string, d Delimiter) bool {
	if s == "" {
		return true
	}
	if IsReserved(s) || IsNumericLike(s) {
		return true
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		return true
	}
	if s[0] == '-' {
		return true
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ':', '"', '\\', '[', ']', '{', '}':
			return true
		default:
			if c < 0x20 || c == 0x7f || Delimiter(c) == d {
				return true
			}
		}
	}
	return false
}

// Quote wraps s in double quotes, escaping backslash, quote, newline,
// carriage return and tab.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// FormatString renders a string scalar, quoting it only when required.
func FormatString(s string, d Delimiter) string {
	if NeedsQuoting(s, d) {
		return Quote(s)
	}
	return s
}

// FormatKey renders an object key or tabular field name.
func FormatKey(key string) string {
	if bareKeyRegex.MatchString(key) {
		return key
	}
	return Quote(key)
}

// QuoteError describes a failure inside a quoted span. Offset is the byte
// offset of the problem relative to the start of the input.
type QuoteError struct {
	Offset int
	Err    error
}

func (e *QuoteError) Error() string {
	return e.Err.Error()
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// Unquote reads a quoted string at the start of s (s[0] must be '"') and
// returns the unescaped text plus the number of bytes consumed, including
// both quotes.
func Unquote(s string) (string, int, error) {
	if s == "" || s[0] != '"' {
		return "", 0, &QuoteError{Offset: 0, Err: errors.ErrUnterminatedString}
	}
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, &QuoteError{Offset: i, Err: errors.ErrUnterminatedString}
			}
			switch s[i+1] {
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				return "", 0, &QuoteError{Offset: i, Err: errors.Wrapf(errors.ErrInvalidEscape, `\%c`, s[i+1])}
			}
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, &QuoteError{Offset: 0, Err: errors.ErrUnterminatedString}
}
