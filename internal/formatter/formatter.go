// Package formatter renders value trees as JSON text.
package formatter

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mcncl/gotoon/internal/errors"
	"github.com/mcncl/gotoon/internal/models"
)

// Formatter is responsible for writing values as JSON, compact or indented
type Formatter struct {
	indent string
}

// NewFormatter creates a new Formatter instance. A width of zero produces
// compact output.
func NewFormatter(indentWidth int) *Formatter {
	if indentWidth < 0 {
		indentWidth = 0
	}
	return &Formatter{indent: strings.Repeat(" ", indentWidth)}
}

// Format returns v as JSON with object keys in their stored order and
// numbers spelled exactly as stored.
func (f *Formatter) Format(v models.Value) (string, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return "", err
	}
	if f.indent == "" {
		return buf.String(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", f.indent); err != nil {
		return "", errors.NewOutputError("failed to indent JSON", err)
	}
	return out.String(), nil
}

// Compact is a shorthand for NewFormatter(0).Format(v).
func Compact(v models.Value) (string, error) {
	return NewFormatter(0).Format(v)
}

func writeValue(buf *bytes.Buffer, v models.Value) error {
	switch v.Kind() {
	case models.KindNull:
		buf.WriteString("null")
	case models.KindBool:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case models.KindNumber:
		buf.WriteString(v.NumberLiteral())
	case models.KindString:
		return writeString(buf, v.Str())
	case models.KindArray:
		buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case models.KindObject:
		buf.WriteByte('{')
		for i, f := range v.Fields() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, f.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return errors.NewOutputError("cannot write value as JSON", errors.Wrapf(errors.ErrUnsupportedValue, "kind %s", v.Kind()))
	}
	return nil
}

// writeString appends s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return errors.NewOutputError("failed to write string", err)
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
