package expr

import (
	"encoding/json"
	"testing"

	"github.com/aquaplan/aquaplan/internal/domain"
)

func whenCtx() map[string]any {
	return map[string]any{
		"cycling_mode":       "fishless_ammonia",
		"substrate":          "soil",
		"dark_start_enabled": true,
		"co2_enabled":        false,
		"plants_present":     true,
		"shrimp_planned":     false,
		"risk_tolerance":     "low",
		"tap_kh_status":      "known",
		"disinfectant":       "chloramine",
		"ammonia_available":  true,
	}
}

func parseWhen(t *testing.T, src string) *domain.WhenClause {
	t.Helper()
	var w domain.WhenClause
	if err := json.Unmarshal([]byte(src), &w); err != nil {
		t.Fatalf("parse when clause: %v", err)
	}
	return &w
}

func TestEvalWhen_NilMatchesAll(t *testing.T) {
	if !EvalWhen(nil, whenCtx()) {
		t.Error("nil when clause should match unconditionally")
	}
}

func TestEvalWhen_InPredicates(t *testing.T) {
	ctx := whenCtx()

	w := parseWhen(t, `{"cycling_mode_in": ["fishless_ammonia", "fish_in"]}`)
	if !EvalWhen(w, ctx) {
		t.Error("membership in list should match")
	}

	w = parseWhen(t, `{"cycling_mode_in": ["plant_assisted"]}`)
	if EvalWhen(w, ctx) {
		t.Error("non-membership should not match")
	}

	// Scalar form is plain equality.
	w = parseWhen(t, `{"substrate_in": "soil"}`)
	if !EvalWhen(w, ctx) {
		t.Error("scalar _in should match on equality")
	}
}

func TestEvalWhen_BooleanLeaves(t *testing.T) {
	ctx := whenCtx()

	if !EvalWhen(parseWhen(t, `{"dark_start_enabled": true}`), ctx) {
		t.Error("boolean leaf should match")
	}
	if EvalWhen(parseWhen(t, `{"co2_enabled": true}`), ctx) {
		t.Error("boolean leaf should not match")
	}
}

func TestEvalWhen_Combinators(t *testing.T) {
	ctx := whenCtx()

	w := parseWhen(t, `{
		"all": [
			{"plants_present": true},
			{"any": [
				{"substrate_in": ["soil", "aquasoil"]},
				{"co2_enabled": true}
			]}
		],
		"not": {"shrimp_planned": true}
	}`)
	if !EvalWhen(w, ctx) {
		t.Error("nested all/any/not should match")
	}

	w = parseWhen(t, `{"not": {"plants_present": true}}`)
	if EvalWhen(w, ctx) {
		t.Error("negation of a matching child should fail")
	}

	w = parseWhen(t, `{"any": [{"co2_enabled": true}, {"shrimp_planned": true}]}`)
	if EvalWhen(w, ctx) {
		t.Error("any with no matching child should fail")
	}
}

func TestEvalWhen_UnknownLeafIgnored(t *testing.T) {
	// A misspelled key is non-constraining, so the clause still matches.
	w := parseWhen(t, `{"cycling_mod_in": ["nope"], "plants_present": true}`)
	if !EvalWhen(w, whenCtx()) {
		t.Error("unknown leaf keys should be ignored")
	}
}

func TestEvalWhen_MissingContextFieldFailsClosed(t *testing.T) {
	ctx := map[string]any{"plants_present": true}
	w := parseWhen(t, `{"cycling_mode_in": ["fish_in"]}`)
	if EvalWhen(w, ctx) {
		t.Error("known leaf with missing context field should not match")
	}
}

func TestEvalWhen_MixedLeavesAreConjunctive(t *testing.T) {
	ctx := whenCtx()
	w := parseWhen(t, `{"plants_present": true, "shrimp_planned": true}`)
	if EvalWhen(w, ctx) {
		t.Error("all leaves must hold for a match")
	}
}
