package decoder

import (
	"strconv"
	"strings"

	"github.com/mcncl/gotoon/internal/errors"
	"github.com/mcncl/gotoon/internal/syntax"
)

// header is a parsed array header such as `items[#2|]{id|name}:`.
type header struct {
	count        int
	delim        syntax.Delimiter
	fields       []string
	tabular      bool
	lengthMarker bool
}

// entry is the head of a line up to and including its colon.
type entry struct {
	key    string
	hasKey bool
	hdr    *header
	rest   string // text after the colon, leading spaces removed
	restAt int    // byte offset of rest within the line text
}

// posError carries a byte offset within the line text so the caller can
// attach a line and column.
type posError struct {
	offset int
	msg    string
	err    error
}

func (e *posError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *posError) Unwrap() error { return e.err }

func errAt(offset int, msg string, err error) error {
	return &posError{offset: offset, msg: msg, err: err}
}

// parseEntry reads a key, an optional array header and the colon. ok is
// false when s is not in key form at all (no colon and no header), which
// callers treat as a bare scalar.
func parseEntry(s string) (e entry, ok bool, err error) {
	i := 0
	switch {
	case s == "":
		return e, false, nil
	case s[0] == '"':
		key, n, err := syntax.Unquote(s)
		if err != nil {
			return e, false, quoteToPos(0, "invalid quoted key", err)
		}
		j := skipSpaces(s, n)
		if j >= len(s) || (s[j] != ':' && s[j] != '[') {
			return e, false, nil
		}
		e.key, e.hasKey, i = key, true, j
	case s[0] == '[':
	default:
		j := strings.IndexAny(s, ":[")
		if j < 0 {
			return e, false, nil
		}
		if q := strings.IndexByte(s, '"'); q >= 0 && q < j {
			return e, false, nil
		}
		key := strings.TrimRight(s[:j], " ")
		if key == "" {
			return e, false, errAt(0, "empty key", errors.ErrMissingColon)
		}
		e.key, e.hasKey, i = key, true, j
	}

	if s[i] == '[' {
		h, n, err := parseHeader(s, i)
		if err != nil {
			return e, false, err
		}
		e.hdr = &h
		i = n
	}
	if i >= len(s) || s[i] != ':' {
		return e, false, errAt(i, "expected ':' after key", errors.ErrMissingColon)
	}
	i = skipSpaces(s, i+1)
	e.rest, e.restAt = s[i:], i
	return e, true, nil
}

// parseHeader parses `[#N<marker>]{fields}` starting at s[i] == '[' and
// returns the offset just past it.
func parseHeader(s string, i int) (header, int, error) {
	var h header
	start := i
	i++
	if i < len(s) && s[i] == '#' {
		h.lengthMarker = true
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	switch {
	case i > digits:
		n, err := strconv.Atoi(s[digits:i])
		if err != nil {
			return h, 0, errAt(digits, "array length out of range", errors.ErrMalformedHeader)
		}
		h.count = n
	case h.lengthMarker || (i < len(s) && s[i] != ']'):
		return h, 0, errAt(digits, "array length must be a non-negative integer", errors.ErrMalformedHeader)
	}

	h.delim = syntax.DefaultDelimiter
	if i < len(s) && syntax.IsMarker(s[i]) {
		h.delim, _ = syntax.ResolveDelimiter(s[i])
		i++
	}
	if i >= len(s) {
		return h, 0, errAt(start, "unterminated bracket segment", errors.ErrMalformedHeader)
	}
	if s[i] != ']' {
		return h, 0, errAt(i, "unexpected character in bracket segment", errors.ErrMalformedHeader)
	}
	i++

	if i < len(s) && s[i] == '{' {
		end := closingBrace(s, i+1)
		if end < 0 {
			return h, 0, errAt(i, "unterminated fields segment", errors.ErrMalformedHeader)
		}
		fields, err := parseFields(s[i+1:end], i+1, h.delim)
		if err != nil {
			return h, 0, err
		}
		h.fields, h.tabular = fields, true
		i = end + 1
	}
	return h, i, nil
}

// closingBrace finds the '}' ending a fields segment, skipping quoted names.
func closingBrace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case '"':
			_, n, err := syntax.Unquote(s[i:])
			if err != nil {
				return -1
			}
			i += n
		case '}':
			return i
		default:
			i++
		}
	}
	return -1
}

func parseFields(s string, base int, d syntax.Delimiter) ([]string, error) {
	tokens, err := syntax.Split(s, d)
	if err != nil {
		return nil, quoteToPos(base, "invalid field name", err)
	}
	if len(tokens) == 0 {
		return nil, errAt(base, "tabular header declares no fields", errors.ErrMalformedHeader)
	}
	fields := make([]string, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for i, t := range tokens {
		if t.Text == "" && !t.Quoted {
			return nil, errAt(base+t.Offset, "empty field name", errors.ErrMalformedHeader)
		}
		if _, dup := seen[t.Text]; dup {
			return nil, errAt(base+t.Offset, "field "+strconv.Quote(t.Text)+" declared twice", errors.ErrDuplicateKey)
		}
		seen[t.Text] = struct{}{}
		fields[i] = t.Text
	}
	return fields, nil
}

// quoteToPos shifts a quoting failure to an offset within the line.
func quoteToPos(base int, msg string, err error) error {
	var qe *syntax.QuoteError
	if errors.As(err, &qe) {
		return errAt(base+qe.Offset, msg, qe.Err)
	}
	return errAt(base, msg, err)
}

func skipSpaces(s string, i int) int {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}
