// Package decision implements the generic decision-table interpreter.
// Tables live in the engine package as data (ordered condition/result
// rows) so that the same interpreter can be run twice with different
// contexts to diff "recommended" against "effective" outcomes.
package decision

import (
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/paths"
)

// Evaluate runs a decision table against a context and returns the merged
// result record.
//
// Rules are scanned in file order and every matching rule merges its Then
// record into the result; scanning never stops at the first match. A rule
// with an empty If map is a fallback: it merges only while no specific
// rule has matched yet, so defaults placed before specific rules still
// apply and get layered over, while trailing fallbacks are suppressed once
// anything specific fired.
func Evaluate(table domain.DecisionTable, ctx map[string]any) map[string]any {
	result := map[string]any{}
	specificMatched := false

	for _, rule := range table {
		if len(rule.If) == 0 {
			if specificMatched {
				continue
			}
			merge(result, rule.Then)
			continue
		}
		if Matches(rule.If, ctx) {
			specificMatched = true
			merge(result, rule.Then)
		}
	}
	return result
}

// Matches reports whether every key-path in the condition map resolves to
// the exact given value in the context.
func Matches(cond map[string]any, ctx map[string]any) bool {
	for path, want := range cond {
		got, ok := paths.Resolve(ctx, path)
		if !ok {
			return false
		}
		if !paths.Equal(got, want) {
			return false
		}
	}
	return true
}

// merge layers src onto dst. Scalars replace; list values append with
// de-duplication so that reason codes from several matched rules
// accumulate instead of clobbering each other.
func merge(dst, src map[string]any) {
	for k, v := range src {
		newList, newIsList := v.([]any)
		oldList, oldIsList := dst[k].([]any)
		if newIsList && oldIsList {
			dst[k] = appendUnique(oldList, newList)
			continue
		}
		dst[k] = v
	}
}

func appendUnique(dst, src []any) []any {
	for _, v := range src {
		seen := false
		for _, e := range dst {
			if paths.Equal(e, v) {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}

// String extracts a string field from a result record, with a default.
func String(result map[string]any, key, fallback string) string {
	if s, ok := result[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Number extracts a numeric field from a result record, with a default.
func Number(result map[string]any, key string, fallback float64) float64 {
	switch n := result[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return fallback
}

// Bool extracts a boolean field from a result record, with a default.
func Bool(result map[string]any, key string, fallback bool) bool {
	if b, ok := result[key].(bool); ok {
		return b
	}
	return fallback
}

// Strings extracts a string list field from a result record.
func Strings(result map[string]any, key string) []string {
	list, ok := result[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
