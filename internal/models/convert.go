package models

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"

	"github.com/mcncl/gotoon/internal/errors"
)

// FromAny converts plain Go data (the shapes produced by encoding/json plus
// the native integer and float kinds) into a Value. Map keys are sorted
// because Go maps carry no order.
func FromAny(v any) (Value, error) {
	c := &converter{active: make(map[ref]struct{})}
	return c.convert(v)
}

type converter struct {
	// active holds the maps and slices on the current descent path
	active map[ref]struct{}
}

func (c *converter) convert(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return t, nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return NewNumber(string(t))
	case int:
		return NewInt(int64(t)), nil
	case int8:
		return NewInt(int64(t)), nil
	case int16:
		return NewInt(int64(t)), nil
	case int32:
		return NewInt(int64(t)), nil
	case int64:
		return NewInt(t), nil
	case uint, uint8, uint16, uint32, uint64:
		n := reflect.ValueOf(t).Uint()
		return Value{kind: KindNumber, s: strconv.FormatUint(n, 10)}, nil
	case float32:
		return NewFloat(float64(t)), nil
	case float64:
		return NewFloat(t), nil
	case []any:
		return c.convertSlice(t)
	case map[string]any:
		return c.convertMap(t)
	default:
		return Value{}, errors.NewEncodeError("cannot convert Go value", errors.Wrapf(errors.ErrUnsupportedValue, "type %T", v))
	}
}

// ref identifies a map or slice. Slices also carry their length, since a
// slice may hold a shorter slice of its own storage without a cycle.
type ref struct {
	ptr uintptr
	n   int
}

func (c *converter) enter(r ref) error {
	if r.ptr == 0 {
		return nil
	}
	if _, ok := c.active[r]; ok {
		return errors.NewEncodeError("cannot convert Go value", errors.ErrCycle)
	}
	c.active[r] = struct{}{}
	return nil
}

func (c *converter) leave(r ref) {
	delete(c.active, r)
}

func (c *converter) convertSlice(s []any) (Value, error) {
	var r ref
	if len(s) > 0 {
		r = ref{ptr: reflect.ValueOf(s).Pointer(), n: len(s)}
	}
	if err := c.enter(r); err != nil {
		return Value{}, err
	}
	defer c.leave(r)

	items := make([]Value, len(s))
	for i, elem := range s {
		item, err := c.convert(elem)
		if err != nil {
			return Value{}, err
		}
		items[i] = item
	}
	return NewArray(items...), nil
}

func (c *converter) convertMap(m map[string]any) (Value, error) {
	r := ref{ptr: reflect.ValueOf(m).Pointer()}
	if err := c.enter(r); err != nil {
		return Value{}, err
	}
	defer c.leave(r)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, len(keys))
	for i, k := range keys {
		fv, err := c.convert(m[k])
		if err != nil {
			return Value{}, err
		}
		fields[i] = Field{Key: k, Value: fv}
	}
	return NewObject(fields...), nil
}

// ToAny converts v back into plain Go data: nil, bool, json.Number, string,
// []any and map[string]any. Key order is lost.
func ToAny(v Value) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.s)
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = ToAny(item)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Key] = ToAny(f.Value)
		}
		return out
	default:
		return nil
	}
}
