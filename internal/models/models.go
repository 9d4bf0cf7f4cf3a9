// Package models holds the value tree shared by the encoder and the decoder.
package models

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/mcncl/gotoon/internal/errors"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// The zero Kind is invalid so that an uninitialised Value is never mistaken
// for null.
const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// IsScalar reports whether the kind is null, bool, number or string.
func (k Kind) IsScalar() bool {
	return k == KindNull || k == KindBool || k == KindNumber || k == KindString
}

// Value is an immutable JSON-like value.
//
//	Kind        payload
//	KindNull    -
//	KindBool    b
//	KindNumber  s (decimal literal)
//	KindString  s
//	KindArray   items
//	KindObject  fields (ordered, keys unique)
type Value struct {
	kind   Kind
	b      bool
	s      string
	items  []Value
	fields []Field
}

// Field is one key/value pair of an object.
type Field struct {
	Key   string
	Value Value
}

// F builds a Field.
func F(key string, v Value) Field {
	return Field{Key: key, Value: v}
}

// numberRegex is the JSON number grammar.
var numberRegex = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// IsNumberLiteral reports whether s is a number in the JSON grammar.
func IsNumberLiteral(s string) bool {
	return numberRegex.MatchString(s)
}

// NewNull returns the null value.
func NewNull() Value {
	return Value{kind: KindNull}
}

// NewBool returns a boolean value.
func NewBool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// NewString returns a string value.
func NewString(s string) Value {
	return Value{kind: KindString, s: s}
}

// NewNumber returns a number holding the exact decimal literal.
// Negative zero is normalised to 0.
func NewNumber(literal string) (Value, error) {
	if !IsNumberLiteral(literal) {
		return Value{}, errors.Wrapf(errors.ErrInvalidNumber, "%q", literal)
	}
	if isNegativeZero(literal) {
		literal = "0"
	}
	return Value{kind: KindNumber, s: literal}, nil
}

// MustNumber is like NewNumber but panics on a malformed literal.
func MustNumber(literal string) Value {
	v, err := NewNumber(literal)
	if err != nil {
		panic(err)
	}
	return v
}

// NewInt returns an integer number.
func NewInt(n int64) Value {
	return Value{kind: KindNumber, s: strconv.FormatInt(n, 10)}
}

// NewFloat returns a number in shortest round-trip decimal form without an
// exponent. NaN and infinities have no representation and become null.
func NewFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NewNull()
	}
	if f == 0 {
		return Value{kind: KindNumber, s: "0"}
	}
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NewArray returns an array holding items in order.
func NewArray(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// NewObject returns an object holding fields in order.
func NewObject(fields ...Field) Value {
	if fields == nil {
		fields = []Field{}
	}
	return Value{kind: KindObject, fields: fields}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Bool returns the boolean payload.
func (v Value) Bool() bool {
	return v.b
}

// Str returns the string payload.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// NumberLiteral returns the decimal literal of a number.
func (v Value) NumberLiteral() string {
	if v.kind != KindNumber {
		return ""
	}
	return v.s
}

// Int64 returns the number as an int64 when it is an exact integer in range.
func (v Value) Int64() (int64, error) {
	if v.kind != KindNumber {
		return 0, errors.Wrapf(errors.ErrUnsupportedValue, "%s is not a number", v.kind)
	}
	if n, err := strconv.ParseInt(v.s, 10, 64); err == nil {
		return n, nil
	}
	r, ok := new(big.Rat).SetString(v.s)
	if !ok || !r.IsInt() || !r.Num().IsInt64() {
		return 0, errors.Wrapf(errors.ErrInvalidNumber, "%s is not an int64", v.s)
	}
	return r.Num().Int64(), nil
}

// Float64 returns the number as a float64. exact is false when the literal
// cannot be represented without rounding.
func (v Value) Float64() (f float64, exact bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return f, false
	}
	r, ok := new(big.Rat).SetString(v.s)
	if !ok {
		return f, false
	}
	fr := new(big.Rat)
	if fr.SetFloat64(f) == nil {
		return f, false
	}
	return f, fr.Cmp(r) == 0
}

// Items returns the elements of an array.
func (v Value) Items() []Value {
	return v.items
}

// Fields returns the fields of an object in order.
func (v Value) Fields() []Field {
	return v.fields
}

// Get returns the value stored under key in an object.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the object keys in order.
func (v Value) Keys() []string {
	keys := make([]string, len(v.fields))
	for i, f := range v.fields {
		keys[i] = f.Key
	}
	return keys
}

// Len returns the number of items or fields; scalars have length 1.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.fields)
	case KindInvalid:
		return 0
	default:
		return 1
	}
}

// Equal reports whether a and b are structurally identical, including key
// order, element order and number spelling.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindNumber, KindString:
		return a.s == b.s
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if a.fields[i].Key != b.fields[i].Key || !Equal(a.fields[i].Value, b.fields[i].Value) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Equal reports whether v and o are structurally identical.
// It lets go-cmp compare values without reaching into unexported fields.
func (v Value) Equal(o Value) bool {
	return Equal(v, o)
}

// String renders v for debugging.
func (v Value) String() string {
	var sb strings.Builder
	v.debug(&sb)
	return sb.String()
}

func (v Value) debug(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(v.s)
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				sb.WriteByte(' ')
			}
			item.debug(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(f.Key)
			sb.WriteByte(':')
			f.Value.debug(sb)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(fmt.Sprintf("<%s>", v.kind))
	}
}

// MapKeys returns a copy of v with every object key passed through fn. Two
// keys of one object that map to the same name are reported as
// ErrDuplicateKey naming both source keys.
func MapKeys(v Value, fn func(string) string) (Value, error) {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			mapped, err := MapKeys(item, fn)
			if err != nil {
				return Value{}, err
			}
			items[i] = mapped
		}
		return NewArray(items...), nil
	case KindObject:
		fields := make([]Field, len(v.fields))
		seen := make(map[string]string, len(v.fields))
		for i, f := range v.fields {
			key := fn(f.Key)
			if prev, ok := seen[key]; ok {
				return Value{}, errors.Wrapf(errors.ErrDuplicateKey, "keys %q and %q both map to %q", prev, f.Key, key)
			}
			seen[key] = f.Key
			mapped, err := MapKeys(f.Value, fn)
			if err != nil {
				return Value{}, err
			}
			fields[i] = Field{Key: key, Value: mapped}
		}
		return NewObject(fields...), nil
	default:
		return v, nil
	}
}

func isNegativeZero(literal string) bool {
	if !strings.HasPrefix(literal, "-") {
		return false
	}
	mantissa := literal[1:]
	if i := strings.IndexAny(mantissa, "eE"); i >= 0 {
		mantissa = mantissa[:i]
	}
	return strings.Trim(mantissa, "0.") == ""
}
