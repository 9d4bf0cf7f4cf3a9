// Package encoder renders value trees as TOON text.
package encoder

import (
	"fmt"
	"strings"

	"github.com/mcncl/gotoon/internal/analyzer"
	"github.com/mcncl/gotoon/internal/errors"
	"github.com/mcncl/gotoon/internal/models"
	"github.com/mcncl/gotoon/internal/syntax"
)

// Defaults applied to zero option fields.
const (
	DefaultIndent   = 2
	DefaultMaxDepth = 256
)

// Options controls how text is laid out.
type Options struct {
	// Indent is the number of spaces per nesting level.
	Indent int
	// Delimiter separates inline values, tabular cells and field names.
	Delimiter syntax.Delimiter
	// LengthMarker prefixes array counts with '#', e.g. "[#3]".
	LengthMarker bool
	// MaxDepth bounds container nesting.
	MaxDepth int
}

// DefaultOptions returns two-space indentation with the comma delimiter.
func DefaultOptions() Options {
	return Options{
		Indent:    DefaultIndent,
		Delimiter: syntax.DefaultDelimiter,
		MaxDepth:  DefaultMaxDepth,
	}
}

func (o Options) normalize() (Options, error) {
	if o.Indent == 0 {
		o.Indent = DefaultIndent
	}
	if o.Indent < 0 {
		return o, errors.NewEncodeError("invalid options", errors.Wrapf(errors.ErrInvalidOption, "indent %d", o.Indent))
	}
	if o.Delimiter == 0 {
		o.Delimiter = syntax.DefaultDelimiter
	}
	if !o.Delimiter.Valid() {
		return o, errors.NewEncodeError("invalid options", errors.Wrapf(errors.ErrInvalidOption, "delimiter %q", rune(o.Delimiter)))
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o, nil
}

// Encoder renders values with fixed options. It holds no per-call state and
// is safe for concurrent use.
type Encoder struct {
	opts Options
}

// NewEncoder creates a new Encoder instance
func NewEncoder(opts Options) (*Encoder, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	return &Encoder{opts: opts}, nil
}

// Options returns the effective options.
func (e *Encoder) Options() Options {
	return e.opts
}

// Encode renders v. Output has no trailing newline.
func Encode(v models.Value, opts Options) (string, error) {
	enc, err := NewEncoder(opts)
	if err != nil {
		return "", err
	}
	return enc.Encode(v)
}

// Encode renders v. The same input always yields the same bytes.
func (e *Encoder) Encode(v models.Value) (string, error) {
	s := &state{
		opts:   e.opts,
		active: make(map[any]struct{}),
	}
	if err := s.root(v); err != nil {
		return "", err
	}
	return s.buf.String(), nil
}

// state is the per-call output buffer and descent bookkeeping.
type state struct {
	opts   Options
	buf    strings.Builder
	lines  int
	depth  int
	active map[any]struct{}
	path   []string
}

func (s *state) line(depth int, text string) {
	if s.lines > 0 {
		s.buf.WriteByte('\n')
	}
	s.buf.WriteString(syntax.Indent(depth, s.opts.Indent))
	s.buf.WriteString(text)
	s.lines++
}

func (s *state) fail(err error) error {
	where := "root"
	if len(s.path) > 0 {
		where = strings.Join(s.path, ".")
	}
	return errors.NewEncodeError(fmt.Sprintf("cannot encode value at %s", where), err)
}

// enter tracks a container on the descent path. key identifies the backing
// storage so that a tree referring back to an ancestor is caught.
func (s *state) enter(key any) error {
	s.depth++
	if s.depth > s.opts.MaxDepth {
		return s.fail(errors.Wrapf(errors.ErrDepthExceeded, "limit %d", s.opts.MaxDepth))
	}
	if key == nil {
		return nil
	}
	if _, ok := s.active[key]; ok {
		return s.fail(errors.ErrCycle)
	}
	s.active[key] = struct{}{}
	return nil
}

func (s *state) leave(key any) {
	s.depth--
	if key != nil {
		delete(s.active, key)
	}
}

// sliceKey identifies a container by its first element and length. A child
// may share a prefix of its parent's storage without being the parent.
type sliceKey struct {
	first any
	n     int
}

func itemsKey(items []models.Value) any {
	if len(items) == 0 {
		return nil
	}
	return sliceKey{first: &items[0], n: len(items)}
}

func fieldsKey(fields []models.Field) any {
	if len(fields) == 0 {
		return nil
	}
	return sliceKey{first: &fields[0], n: len(fields)}
}

func (s *state) root(v models.Value) error {
	switch v.Kind() {
	case models.KindObject:
		return s.object(v.Fields(), 0)
	case models.KindArray:
		return s.array("", v.Items(), 0)
	default:
		text, err := s.scalar(v)
		if err != nil {
			return err
		}
		s.line(0, text)
		return nil
	}
}

func (s *state) scalar(v models.Value) (string, error) {
	switch v.Kind() {
	case models.KindNull:
		return syntax.LiteralNull, nil
	case models.KindBool:
		if v.Bool() {
			return syntax.LiteralTrue, nil
		}
		return syntax.LiteralFalse, nil
	case models.KindNumber:
		return v.NumberLiteral(), nil
	case models.KindString:
		return syntax.FormatString(v.Str(), s.opts.Delimiter), nil
	default:
		return "", s.fail(errors.Wrapf(errors.ErrUnsupportedValue, "kind %s", v.Kind()))
	}
}

func (s *state) object(fields []models.Field, depth int) error {
	key := fieldsKey(fields)
	if err := s.enter(key); err != nil {
		return err
	}
	defer s.leave(key)

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Key]; dup {
			return s.fail(errors.Wrapf(errors.ErrDuplicateKey, "%q", f.Key))
		}
		seen[f.Key] = struct{}{}

		s.path = append(s.path, f.Key)
		if err := s.field(f.Key, f.Value, depth); err != nil {
			return err
		}
		s.path = s.path[:len(s.path)-1]
	}
	return nil
}

func (s *state) field(key string, v models.Value, depth int) error {
	k := syntax.FormatKey(key)
	switch v.Kind() {
	case models.KindObject:
		s.line(depth, k+":")
		return s.object(v.Fields(), depth+1)
	case models.KindArray:
		return s.array(k, v.Items(), depth)
	default:
		text, err := s.scalar(v)
		if err != nil {
			return err
		}
		s.line(depth, k+": "+text)
		return nil
	}
}

// array renders an array header at depth; prefix is the formatted key or
// empty for root arrays and arrays inside list items.
func (s *state) array(prefix string, items []models.Value, depth int) error {
	key := itemsKey(items)
	if err := s.enter(key); err != nil {
		return err
	}
	defer s.leave(key)

	header := prefix + syntax.Header(len(items), s.opts.Delimiter, s.opts.LengthMarker)
	switch analyzer.Classify(items) {
	case analyzer.ShapePrimitive:
		return s.primitiveArray(header, items, depth)
	case analyzer.ShapeTabular:
		fields, _ := analyzer.TabularFields(items)
		return s.tabularArray(header, fields, items, depth)
	default:
		return s.listArray(header, items, depth)
	}
}

func (s *state) primitiveArray(header string, items []models.Value, depth int) error {
	if len(items) == 0 {
		s.line(depth, header+":")
		return nil
	}
	cells, err := s.joinScalars(items)
	if err != nil {
		return err
	}
	s.line(depth, header+": "+cells)
	return nil
}

func (s *state) tabularArray(header string, fields []string, items []models.Value, depth int) error {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = syntax.FormatKey(f)
	}
	delim := s.opts.Delimiter.String()
	s.line(depth, header+"{"+strings.Join(names, delim)+"}:")

	for _, item := range items {
		row := make([]models.Value, len(fields))
		for i, f := range item.Fields() {
			row[i] = f.Value
		}
		cells, err := s.joinScalars(row)
		if err != nil {
			return err
		}
		s.line(depth+1, cells)
	}
	return nil
}

func (s *state) listArray(header string, items []models.Value, depth int) error {
	s.line(depth, header+":")
	for i, item := range items {
		s.path = append(s.path, fmt.Sprint(i))
		if err := s.listItem(item, depth+1); err != nil {
			return err
		}
		s.path = s.path[:len(s.path)-1]
	}
	return nil
}

// listItem writes one "- " line. Structured items put the marker alone on
// its line and render their body one level deeper.
func (s *state) listItem(item models.Value, depth int) error {
	switch item.Kind() {
	case models.KindObject:
		s.line(depth, "-")
		return s.object(item.Fields(), depth+1)
	case models.KindArray:
		s.line(depth, "-")
		return s.array("", item.Items(), depth+1)
	default:
		text, err := s.scalar(item)
		if err != nil {
			return err
		}
		s.line(depth, "- "+text)
		return nil
	}
}

func (s *state) joinScalars(items []models.Value) (string, error) {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteByte(byte(s.opts.Delimiter))
		}
		text, err := s.scalar(item)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
