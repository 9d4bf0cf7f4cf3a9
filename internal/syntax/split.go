package syntax

import (
	"github.com/mcncl/gotoon/internal/errors"
)

// Token is one delimited cell. Quoted tokens hold their unescaped text.
type Token struct {
	Text   string
	Quoted bool
	// Offset is the byte offset of the token within the split input.
	Offset int
}

// Split breaks s on d, treating delimiters inside quoted spans as text.
// Whitespace around each token is dropped. An empty input yields no tokens.
func Split(s string, d Delimiter) ([]Token, error) {
	if isBlank(s) {
		return nil, nil
	}
	var tokens []Token
	i := 0
	for {
		i = skipSpace(s, i, d)
		start := i
		if i < len(s) && s[i] == '"' {
			text, n, err := Unquote(s[i:])
			if err != nil {
				if qe, ok := err.(*QuoteError); ok {
					qe.Offset += i
				}
				return nil, err
			}
			i = skipSpace(s, i+n, d)
			if i < len(s) && s[i] != byte(d) {
				return nil, &QuoteError{Offset: i, Err: errors.ErrTrailingContent}
			}
			tokens = append(tokens, Token{Text: text, Quoted: true, Offset: start})
		} else {
			for i < len(s) && s[i] != byte(d) {
				if s[i] == '"' {
					return nil, &QuoteError{Offset: i, Err: errors.Wrapf(errors.ErrTrailingContent, "quote inside unquoted value")}
				}
				i++
			}
			tokens = append(tokens, Token{Text: trimSpace(s[start:i], d), Offset: start})
		}
		if i >= len(s) {
			return tokens, nil
		}
		// s[i] is the delimiter
		i++
		if i == len(s) {
			tokens = append(tokens, Token{Offset: i})
			return tokens, nil
		}
	}
}

func isSpace(c byte, d Delimiter) bool {
	if c == '\t' && d == Tab {
		return false
	}
	return c == ' ' || c == '\t'
}

func skipSpace(s string, i int, d Delimiter) int {
	for i < len(s) && isSpace(s[i], d) {
		i++
	}
	return i
}

func trimSpace(s string, d Delimiter) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start], d) {
		start++
	}
	for end > start && isSpace(s[end-1], d) {
		end--
	}
	return s[start:end]
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			return false
		}
	}
	return true
}
