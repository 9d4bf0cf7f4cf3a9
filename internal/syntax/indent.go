package syntax

import (
	"strings"
	"sync"
)

type indentKey struct {
	depth int
	width int
}

var indents = struct {
	sync.RWMutex
	m map[indentKey]string
}{m: make(map[indentKey]string)}

// Indent returns the leading spaces for depth levels of width spaces each.
// Results are memoised; the table only ever grows.
func Indent(depth, width int) string {
	if depth <= 0 || width <= 0 {
		return ""
	}
	key := indentKey{depth: depth, width: width}

	indents.RLock()
	s, ok := indents.m[key]
	indents.RUnlock()
	if ok {
		return s
	}

	s = strings.Repeat(" ", depth*width)
	indents.Lock()
	indents.m[key] = s
	indents.Unlock()
	return s
}
