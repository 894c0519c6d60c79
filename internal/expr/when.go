package expr

import (
	"strings"

	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/paths"
)

// knownLeafKeys are the context fields a structured when-clause may
// constrain. Keys outside this set are ignored entirely, which means a
// typo in rule data silently matches everything; the set is kept explicit
// here so that at least the blessed vocabulary is in one place.
var knownLeafKeys = map[string]bool{
	"cycling_mode_in":        true,
	"substrate_in":           true,
	"risk_tolerance_in":      true,
	"tap_kh_status_in":       true,
	"disinfectant_in":        true,
	"dark_start_enabled":     true,
	"dark_start_recommended": true,
	"dark_start_override":    true,
	"dark_start_preference":  true,
	"co2_enabled":            true,
	"plants_present":         true,
	"shrimp_planned":         true,
	"ammonia_available":      true,
}

// EvalWhen evaluates a structured when-clause tree against a context map.
// A nil clause matches unconditionally. All listed conditions (all, any,
// not, and every leaf predicate) must hold.
func EvalWhen(w *domain.WhenClause, ctx map[string]any) bool {
	if w == nil {
		return true
	}
	for i := range w.All {
		if !EvalWhen(&w.All[i], ctx) {
			return false
		}
	}
	if len(w.Any) > 0 {
		matched := false
		for i := range w.Any {
			if EvalWhen(&w.Any[i], ctx) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if w.Not != nil && EvalWhen(w.Not, ctx) {
		return false
	}
	for key, expect := range w.Match {
		if !evalLeaf(key, expect, ctx) {
			return false
		}
	}
	return true
}

// evalLeaf evaluates one leaf predicate. "*_in" predicates test membership
// of the context value in a literal list (or equality with a scalar);
// everything else is plain equality.
func evalLeaf(key string, expect any, ctx map[string]any) bool {
	if !knownLeafKeys[key] {
		return true
	}
	if strings.HasSuffix(key, "_in") {
		got, ok := paths.Resolve(ctx, strings.TrimSuffix(key, "_in"))
		if !ok {
			return false
		}
		if list, isList := expect.([]any); isList {
			for _, item := range list {
				if paths.Equal(got, item) {
					return true
				}
			}
			return false
		}
		return paths.Equal(got, expect)
	}
	got, ok := paths.Resolve(ctx, key)
	if !ok {
		return false
	}
	return paths.Equal(got, expect)
}
