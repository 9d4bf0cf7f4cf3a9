// Package decoder parses TOON text back into value trees.
package decoder

import (
	"fmt"
	"strings"

	"github.com/mcncl/gotoon/internal/errors"
	"github.com/mcncl/gotoon/internal/models"
	"github.com/mcncl/gotoon/internal/syntax"
)

// Defaults applied to zero option fields.
const (
	DefaultIndent   = 2
	DefaultMaxDepth = 256
)

// Options controls how text is read.
type Options struct {
	// Indent is the number of spaces per nesting level.
	Indent int
	// Strict requires space-only indentation in exact multiples of Indent
	// and rejects blank lines inside nested blocks. Declared lengths, row
	// widths and duplicate keys are checked in both modes.
	Strict bool
	// MaxDepth bounds container nesting.
	MaxDepth int
}

// DefaultOptions returns strict decoding with two-space indentation.
func DefaultOptions() Options {
	return Options{
		Indent:   DefaultIndent,
		Strict:   true,
		MaxDepth: DefaultMaxDepth,
	}
}

func (o Options) normalize() (Options, error) {
	if o.Indent == 0 {
		o.Indent = DefaultIndent
	}
	if o.Indent < 0 {
		return o, errors.NewSyntaxError(0, 0, "invalid options", errors.Wrapf(errors.ErrInvalidOption, "indent %d", o.Indent))
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o, nil
}

// Decoder parses text with fixed options and is safe for concurrent use.
type Decoder struct {
	opts Options
}

// NewDecoder creates a new Decoder instance
func NewDecoder(opts Options) (*Decoder, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	return &Decoder{opts: opts}, nil
}

// Decode parses text with DefaultOptions.
func Decode(text string) (models.Value, error) {
	return DecodeWithOptions(text, DefaultOptions())
}

// DecodeWithOptions parses text with opts.
func DecodeWithOptions(text string, opts Options) (models.Value, error) {
	dec, err := NewDecoder(opts)
	if err != nil {
		return models.Value{}, err
	}
	return dec.Decode(text)
}

// Decode parses text. Errors are *errors.AppError values of type syntax,
// structural or value carrying the offending line.
func (d *Decoder) Decode(text string) (models.Value, error) {
	lines, err := scan(text, d.opts)
	if err != nil {
		return models.Value{}, err
	}
	p := &parser{lines: lines, opts: d.opts}
	return p.root()
}

// item is an entry located within a line. base is the offset of the entry
// text inside ln.text, non-zero for content after a list marker.
type item struct {
	ln   line
	base int
	e    entry
}

type parser struct {
	lines []line
	pos   int
	depth int
	opts  Options
}

func (p *parser) root() (models.Value, error) {
	if len(p.lines) == 0 {
		return models.NewObject(), nil
	}
	first := p.lines[0]
	if first.depth != 0 {
		return models.Value{}, p.unexpected(first)
	}
	e, ok, err := parseEntry(first.text)
	if err != nil {
		return models.Value{}, p.fail(first, 0, err)
	}

	var v models.Value
	switch {
	case ok && !e.hasKey:
		p.pos++
		v, err = p.array(item{ln: first, e: e}, 0)
	case !ok && len(p.lines) == 1:
		p.pos++
		v, err = p.scalar(first, 0, first.text)
	case !ok:
		return models.Value{}, p.fail(first, 0, errAt(0, "expected key: value", errors.ErrMissingColon))
	default:
		v, err = p.object(0, nil)
	}
	if err != nil {
		return models.Value{}, err
	}
	if p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.depth > 0 {
			return models.Value{}, p.unexpected(ln)
		}
		return models.Value{}, p.fail(ln, 0, errAt(0, "content after root array", errors.ErrTrailingContent))
	}
	return v, nil
}

// object reads fields at depth until a shallower line. head, when set, is
// the first field, already read from a list item marker line.
func (p *parser) object(depth int, head *item) (models.Value, error) {
	if err := p.enter(); err != nil {
		return models.Value{}, err
	}
	defer p.leave()

	var fields []models.Field
	seen := make(map[string]struct{})
	add := func(it item) error {
		if _, dup := seen[it.e.key]; dup {
			msg := fmt.Sprintf("key %q appears more than once", it.e.key)
			return p.fail(it.ln, it.base, errAt(0, msg, errors.ErrDuplicateKey))
		}
		seen[it.e.key] = struct{}{}
		v, err := p.value(it, depth)
		if err != nil {
			return err
		}
		fields = append(fields, models.F(it.e.key, v))
		return nil
	}

	if head != nil {
		if err := add(*head); err != nil {
			return models.Value{}, err
		}
	}
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.depth < depth {
			break
		}
		if ln.depth > depth {
			return models.Value{}, p.unexpected(ln)
		}
		if isListItem(ln.text) {
			return models.Value{}, p.fail(ln, 0, errAt(0, "list item outside of an array", errors.ErrMissingColon))
		}
		p.pos++

		e, ok, err := parseEntry(ln.text)
		if err != nil {
			return models.Value{}, p.fail(ln, 0, err)
		}
		if !ok {
			return models.Value{}, p.fail(ln, 0, errAt(0, "expected key: value", errors.ErrMissingColon))
		}
		if !e.hasKey {
			return models.Value{}, p.fail(ln, 0, errAt(0, "array header without a key", errors.ErrMalformedHeader))
		}
		if err := add(item{ln: ln, e: e}); err != nil {
			return models.Value{}, err
		}
	}
	return models.NewObject(fields...), nil
}

// value decodes the right-hand side of a field whose key line sits at depth.
func (p *parser) value(it item, depth int) (models.Value, error) {
	switch {
	case it.e.hdr != nil:
		return p.array(it, depth)
	case it.e.rest == "":
		if p.deeper(depth) {
			return p.object(depth+1, nil)
		}
		return models.NewObject(), nil
	default:
		return p.scalar(it.ln, it.base+it.e.restAt, it.e.rest)
	}
}

func (p *parser) array(it item, depth int) (models.Value, error) {
	if err := p.enter(); err != nil {
		return models.Value{}, err
	}
	defer p.leave()

	switch {
	case it.e.hdr.tabular:
		if it.e.rest != "" {
			return models.Value{}, p.fail(it.ln, it.base+it.e.restAt,
				errAt(0, "tabular header must end the line", errors.ErrTrailingContent))
		}
		return p.table(it, depth)
	case it.e.rest != "":
		return p.inline(it)
	default:
		return p.list(it, depth)
	}
}

func (p *parser) inline(it item) (models.Value, error) {
	h := it.e.hdr
	off := it.base + it.e.restAt
	tokens, err := syntax.Split(it.e.rest, h.delim)
	if err != nil {
		return models.Value{}, p.fail(it.ln, off, quoteToPos(0, "invalid array value", err))
	}
	if len(tokens) != h.count {
		msg := fmt.Sprintf("declared %d values, found %d", h.count, len(tokens))
		return models.Value{}, errors.NewStructuralError(it.ln.num, msg, errors.ErrLengthMismatch)
	}
	items := make([]models.Value, len(tokens))
	for i, t := range tokens {
		items[i] = coerce(t)
	}
	return models.NewArray(items...), nil
}

func (p *parser) table(it item, depth int) (models.Value, error) {
	h := it.e.hdr
	var rows []models.Value
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.depth <= depth {
			break
		}
		if ln.depth > depth+1 {
			return models.Value{}, p.unexpected(ln)
		}
		p.pos++

		tokens, err := syntax.Split(ln.text, h.delim)
		if err != nil {
			return models.Value{}, p.fail(ln, 0, quoteToPos(0, "invalid row value", err))
		}
		if len(tokens) != len(h.fields) {
			msg := fmt.Sprintf("row has %d values, header declares %d fields", len(tokens), len(h.fields))
			return models.Value{}, errors.NewStructuralError(ln.num, msg, errors.ErrFieldCountMismatch)
		}
		fields := make([]models.Field, len(tokens))
		for i, t := range tokens {
			fields[i] = models.F(h.fields[i], coerce(t))
		}
		rows = append(rows, models.NewObject(fields...))
	}
	if len(rows) != h.count {
		msg := fmt.Sprintf("declared %d rows, found %d", h.count, len(rows))
		return models.Value{}, errors.NewStructuralError(it.ln.num, msg, errors.ErrLengthMismatch)
	}
	return models.NewArray(rows...), nil
}

func (p *parser) list(it item, depth int) (models.Value, error) {
	h := it.e.hdr
	var items []models.Value
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.depth <= depth {
			break
		}
		if ln.depth > depth+1 {
			return models.Value{}, p.unexpected(ln)
		}
		if !isListItem(ln.text) {
			return models.Value{}, errors.NewStructuralError(ln.num, "expected a list item", errors.ErrMissingListMarker)
		}
		p.pos++

		v, err := p.listItem(ln, depth+1)
		if err != nil {
			return models.Value{}, err
		}
		items = append(items, v)
	}
	if len(items) != h.count {
		msg := fmt.Sprintf("declared %d items, found %d", h.count, len(items))
		return models.Value{}, errors.NewStructuralError(it.ln.num, msg, errors.ErrLengthMismatch)
	}
	return models.NewArray(items...), nil
}

// listItem decodes one item whose marker sits at depth m. A bare marker
// owns the block one level deeper: an array when that block starts with a
// keyless header, an object otherwise.
func (p *parser) listItem(ln line, m int) (models.Value, error) {
	if ln.text == "-" {
		if !p.deeper(m) {
			return models.NewObject(), nil
		}
		next := p.lines[p.pos]
		if next.depth > m+1 {
			return models.Value{}, p.unexpected(next)
		}
		if !strings.HasPrefix(next.text, "[") {
			return p.object(m+1, nil)
		}
		p.pos++
		e, ok, err := parseEntry(next.text)
		if err != nil {
			return models.Value{}, p.fail(next, 0, err)
		}
		if !ok {
			return models.Value{}, p.fail(next, 0, errAt(0, "expected array header", errors.ErrMalformedHeader))
		}
		v, err := p.array(item{ln: next, e: e}, m+1)
		if err != nil {
			return models.Value{}, err
		}
		if p.deeper(m) {
			after := p.lines[p.pos]
			return models.Value{}, p.fail(after, 0, errAt(0, "content after nested array", errors.ErrTrailingContent))
		}
		return v, nil
	}

	content := strings.TrimLeft(ln.text[1:], " ")
	base := len(ln.text) - len(content)
	e, ok, err := parseEntry(content)
	if err != nil {
		return models.Value{}, p.fail(ln, base, err)
	}
	it := item{ln: ln, base: base, e: e}
	switch {
	case !ok:
		return p.scalar(ln, base, content)
	case !e.hasKey:
		return p.array(it, m)
	default:
		return p.object(m+1, &it)
	}
}

// scalar decodes a single value occupying the rest of a line from off.
func (p *parser) scalar(ln line, off int, text string) (models.Value, error) {
	if text == "" || text[0] != '"' {
		return coerce(syntax.Token{Text: text}), nil
	}
	s, n, err := syntax.Unquote(text)
	if err != nil {
		return models.Value{}, p.fail(ln, off, quoteToPos(0, "invalid string", err))
	}
	if strings.TrimLeft(text[n:], " ") != "" {
		return models.Value{}, p.fail(ln, off+n, errAt(0, "content after closing quote", errors.ErrTrailingContent))
	}
	return models.NewString(s), nil
}

// coerce applies scalar inference to a token. Quoted tokens are always
// strings.
func coerce(t syntax.Token) models.Value {
	if t.Quoted {
		return models.NewString(t.Text)
	}
	switch t.Text {
	case "", syntax.LiteralNull:
		return models.NewNull()
	case syntax.LiteralTrue:
		return models.NewBool(true)
	case syntax.LiteralFalse:
		return models.NewBool(false)
	}
	if syntax.IsNumber(t.Text) {
		if v, err := models.NewNumber(t.Text); err == nil {
			return v
		}
	}
	return models.NewString(t.Text)
}

func isListItem(text string) bool {
	return text == "-" || strings.HasPrefix(text, "- ")
}

func (p *parser) deeper(depth int) bool {
	return p.pos < len(p.lines) && p.lines[p.pos].depth > depth
}

func (p *parser) enter() error {
	p.depth++
	if p.depth <= p.opts.MaxDepth {
		return nil
	}
	num := 0
	if n := len(p.lines); n > 0 {
		num = p.lines[min(p.pos, n-1)].num
	}
	msg := fmt.Sprintf("nesting exceeds %d levels", p.opts.MaxDepth)
	return errors.NewStructuralError(num, msg, errors.ErrDepthExceeded)
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) unexpected(ln line) error {
	return errors.NewSyntaxError(ln.num, ln.indent+1, "line is indented deeper than its block allows", errors.ErrUnexpectedIndent)
}

// fail classifies a positioned error from line ln. off is the offset of the
// parsed text within ln.text.
func (p *parser) fail(ln line, off int, err error) error {
	var pe *posError
	if !errors.As(err, &pe) {
		return errors.NewSyntaxError(ln.num, ln.indent+off+1, "invalid line", err)
	}
	col := ln.indent + off + pe.offset + 1
	switch {
	case errors.Is(pe.err, errors.ErrInvalidEscape), errors.Is(pe.err, errors.ErrInvalidNumber):
		return errors.NewValueError(ln.num, col, pe.msg, pe.err)
	case errors.Is(pe.err, errors.ErrDuplicateKey):
		return errors.NewStructuralError(ln.num, pe.msg, pe.err)
	default:
		return errors.NewSyntaxError(ln.num, col, pe.msg, pe.err)
	}
}
