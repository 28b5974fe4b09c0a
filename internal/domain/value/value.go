// Where: cli/internal/domain/value/value.go
// What: Conversion helpers for loosely-typed context values.
// Why: Context bags arrive from JSON, YAML, and command-line strings with mixed types.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AsMap converts a value to map form when possible.
// YAML decoders may produce map[any]any; keys are stringified.
func AsMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

// AsString returns the value when it is a string.
func AsString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

// AsBool accepts a bool or a "true"/"false" string (case-insensitive).
func AsBool(value any) (bool, bool) {
	switch typed := value.(type) {
	case bool:
		return typed, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

// Lookup returns the value for key and whether it is present and non-nil.
func Lookup(bag map[string]any, key string) (any, bool) {
	if bag == nil {
		return nil, false
	}
	v, ok := bag[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// SortedKeys returns the map keys in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CloneStrings copies a string map; nil stays nil.
func CloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
