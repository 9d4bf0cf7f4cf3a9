package decoder

import (
	"fmt"
	"strings"

	"github.com/mcncl/gotoon/internal/errors"
)

// line is one non-blank input line with its nesting depth resolved.
type line struct {
	num    int    // 1-based line number
	depth  int    // nesting level
	indent int    // bytes of leading indentation
	text   string // content after indentation, trailing spaces removed
}

// scan splits text into content lines, validating indentation and the
// placement of blank lines.
func scan(text string, opts Options) ([]line, error) {
	raw := strings.Split(text, "\n")
	lines := make([]line, 0, len(raw))
	var pendingBlank int

	for i, s := range raw {
		num := i + 1
		s = strings.TrimSuffix(s, "\r")
		if strings.TrimLeft(s, " \t") == "" {
			if pendingBlank == 0 {
				pendingBlank = num
			}
			continue
		}

		ln, err := measure(s, num, opts)
		if err != nil {
			return nil, err
		}
		if pendingBlank > 0 && opts.Strict && ln.depth > 0 && len(lines) > 0 {
			return nil, errors.NewSyntaxError(pendingBlank, 0, "blank lines are only allowed between top-level entries", errors.ErrBlankLine)
		}
		pendingBlank = 0
		lines = append(lines, ln)
	}
	return lines, nil
}

func measure(s string, num int, opts Options) (line, error) {
	spaces, tabs, n := 0, 0, 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		if s[n] == '\t' {
			tabs++
		} else {
			spaces++
		}
		n++
	}

	ln := line{num: num, indent: n, text: strings.TrimRight(s[n:], " ")}
	if opts.Strict {
		if tabs > 0 {
			return ln, errors.NewSyntaxError(num, 1, "tabs are not allowed in indentation", errors.ErrIndentation)
		}
		if spaces%opts.Indent != 0 {
			msg := fmt.Sprintf("indentation of %d spaces is not a multiple of %d", spaces, opts.Indent)
			return ln, errors.NewSyntaxError(num, n+1, msg, errors.ErrIndentation)
		}
	}
	ln.depth = tabs + spaces/opts.Indent
	return ln, nil
}
