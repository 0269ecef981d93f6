package gitlab3

import (
	"encoding/json"
	"reflect"
)

// Matcher is implemented by every entity type; find helpers read attributes
// through it.
type Matcher interface {
	Lookup(key string) (any, bool)
}

// Matches reports whether m has every attribute in criteria with an equal
// value. An absent attribute is treated as nil.
func Matches(m Matcher, criteria Attributes) bool {
	for key, want := range criteria {
		got, _ := m.Lookup(key)
		if !attributeEqual(got, want) {
			return false
		}
	}
	return true
}

// FindOne returns the first element of items matching criteria, scanning in
// order. Empty criteria match every element.
func FindOne[T Matcher](items []T, criteria Attributes) (T, bool) {
	for _, item := range items {
		if Matches(item, criteria) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// FindAll returns every element of items matching criteria, preserving
// order. The result is empty, not nil, when nothing matches.
func FindAll[T Matcher](items []T, criteria Attributes) []T {
	matches := make([]T, 0)
	for _, item := range items {
		if Matches(item, criteria) {
			matches = append(matches, item)
		}
	}
	return matches
}

// attributeEqual compares a decoded attribute with a criterion value.
// Numbers compare by value regardless of their Go type, since JSON decodes
// them as float64 while callers usually pass ints.
func attributeEqual(got, want any) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}

	gn, gok := toFloat(got)
	wn, wok := toFloat(want)
	if gok && wok {
		return gn == wn
	}
	if gok != wok {
		return false
	}

	return reflect.DeepEqual(normalize(got), normalize(want))
}

// toFloat converts numeric values to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// normalize converts typed slices and maps into the shapes produced by
// encoding/json so they compare equal with decoded attributes.
func normalize(v any) any {
	switch val := v.(type) {
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = float64(n)
		}
		return out
	case Attributes:
		return map[string]any(val)
	default:
		return v
	}
}
