// Package paths resolves dotted key paths ("a.b.c") against nested data.
// It is the single path-resolution utility shared by the decision table
// interpreter, the clause evaluators, and the template renderer.
package paths

import "strings"

// Resolve walks a dotted path through nested map[string]any values.
// It is total: any missing segment, nil value, or non-map intermediate
// returns (nil, false) rather than panicking.
func Resolve(ctx map[string]any, path string) (any, bool) {
	if ctx == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var cur any = ctx
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Equal compares a resolved context value with an expected literal.
// Numeric values compare as float64 regardless of the concrete Go type,
// since JSON decoding and hand-built contexts disagree on int vs float64.
func Equal(got, want any) bool {
	gf, gok := asFloat(got)
	wf, wok := asFloat(want)
	if gok && wok {
		return gf == wf
	}
	return got == want
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
