// Package analyzer decides how arrays are laid out in TOON text.
package analyzer

import (
	"github.com/mcncl/gotoon/internal/models"
)

// Shape is the render strategy for an array.
type Shape uint8

const (
	// ShapePrimitive arrays hold only scalars and render inline.
	ShapePrimitive Shape = iota
	// ShapeTabular arrays hold flat objects sharing one ordered key set.
	ShapeTabular
	// ShapeList arrays render one marker-prefixed line per element.
	ShapeList
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapePrimitive:
		return "primitive"
	case ShapeTabular:
		return "tabular"
	case ShapeList:
		return "list"
	default:
		return "unknown"
	}
}

// Classify returns the shape of an array from its contents alone.
// Empty arrays classify as primitive: they render as a bare header.
func Classify(items []models.Value) Shape {
	if len(items) == 0 {
		return ShapePrimitive
	}
	if allScalar(items) {
		return ShapePrimitive
	}
	if _, ok := TabularFields(items); ok {
		return ShapeTabular
	}
	return ShapeList
}

// TabularFields returns the shared field names when items qualify for
// tabular rendering: every item an object, all with the same keys in the
// same order, every cell a scalar, and at least one field.
func TabularFields(items []models.Value) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}
	first := items[0]
	if first.Kind() != models.KindObject || first.Len() == 0 {
		return nil, false
	}
	header := first.Fields()
	for _, item := range items {
		if item.Kind() != models.KindObject {
			return nil, false
		}
		fields := item.Fields()
		if len(fields) != len(header) {
			return nil, false
		}
		for i, f := range fields {
			if f.Key != header[i].Key || !f.Value.Kind().IsScalar() {
				return nil, false
			}
		}
	}
	return first.Keys(), true
}

func allScalar(items []models.Value) bool {
	for _, item := range items {
		if !item.Kind().IsScalar() {
			return false
		}
	}
	return true
}

// Summary counts array shapes and measures nesting across a value tree.
type Summary struct {
	Objects   int
	Arrays    int
	Primitive int
	Tabular   int
	List      int
	Scalars   int
	MaxDepth  int
}

// Analyze walks v and tallies how its arrays will be rendered.
func Analyze(v models.Value) Summary {
	var s Summary
	s.walk(v, 0)
	return s
}

func (s *Summary) walk(v models.Value, depth int) {
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}
	switch v.Kind() {
	case models.KindObject:
		s.Objects++
		for _, f := range v.Fields() {
			s.walk(f.Value, depth+1)
		}
	case models.KindArray:
		s.Arrays++
		switch Classify(v.Items()) {
		case ShapePrimitive:
			s.Primitive++
		case ShapeTabular:
			s.Tabular++
		default:
			s.List++
		}
		for _, item := range v.Items() {
			s.walk(item, depth+1)
		}
	default:
		s.Scalars++
	}
}
