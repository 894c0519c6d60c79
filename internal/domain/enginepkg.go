package domain

import "encoding/json"

// DecisionRule is one row of a decision table. An empty If map is a
// fallback row that applies only when no other row matched.
type DecisionRule struct {
	If   map[string]any `json:"if"`
	Then map[string]any `json:"then"`
}

// DecisionTable is an ordered list of rules evaluated top to bottom.
type DecisionTable []DecisionRule

// Calculator bundles the defaults and constants for one named calculator.
type Calculator struct {
	Defaults  map[string]float64 `json:"defaults"`
	Constants map[string]float64 `json:"constants"`
}

// SchemaInfo carries the version of a named data schema.
type SchemaInfo struct {
	Version string `json:"version"`
}

// OverrideRule is one clause-expression row of the override policy.
// When the expression matches the selection context, user acknowledgement
// is required before acting on the plan.
type OverrideRule struct {
	When   string `json:"when"`
	Reason string `json:"reason"`
}

// EnginePackage is the caller-supplied rule/template/constant bundle.
type EnginePackage struct {
	DecisionTables  map[string]DecisionTable   `json:"decision_tables"`
	ParameterLimits map[string]json.RawMessage `json:"parameter_limits"`
	Calculators     map[string]Calculator      `json:"calculators"`
	Templates       map[string]json.RawMessage `json:"templates"`
	Schemas         map[string]SchemaInfo      `json:"schemas"`
	Worksheets      map[string]json.RawMessage `json:"worksheets"`
	OverridePolicy  []OverrideRule             `json:"override_policy"`
}

// Calculator names the engine reads from an EnginePackage.
const (
	CalcDosing  = "dosing"
	CalcVolume  = "volume"
	CalcAmmonia = "ammonia"
)

// WhenClause is a structured condition tree. Any/All/Not combine child
// clauses; every other JSON key on the object is a leaf predicate matched
// against the rules context. Unknown leaf keys are non-constraining, so a
// misspelled key silently matches everything.
type WhenClause struct {
	Any   []WhenClause
	All   []WhenClause
	Not   *WhenClause
	Match map[string]any
}

// UnmarshalJSON splits the combinator keys from leaf predicates.
func (w *WhenClause) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*w = WhenClause{}
	for key, val := range raw {
		switch key {
		case "any":
			if err := json.Unmarshal(val, &w.Any); err != nil {
				return err
			}
		case "all":
			if err := json.Unmarshal(val, &w.All); err != nil {
				return err
			}
		case "not":
			w.Not = &WhenClause{}
			if err := json.Unmarshal(val, w.Not); err != nil {
				return err
			}
		default:
			var v any
			if err := json.Unmarshal(val, &v); err != nil {
				return err
			}
			if w.Match == nil {
				w.Match = map[string]any{}
			}
			w.Match[key] = v
		}
	}
	return nil
}

// MarshalJSON renders the combinators and leaf predicates back onto one
// flat object, mirroring the accepted input form.
func (w WhenClause) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if len(w.Any) > 0 {
		out["any"] = w.Any
	}
	if len(w.All) > 0 {
		out["all"] = w.All
	}
	if w.Not != nil {
		out["not"] = *w.Not
	}
	for k, v := range w.Match {
		out[k] = v
	}
	return json.Marshal(out)
}

// TemplateAtom is an unrendered instruction or expected-behavior entry.
// Condition is a clause expression; empty means always included.
type TemplateAtom struct {
	Template  string `json:"template"`
	Condition string `json:"condition,omitempty"`
}

// TemplateTaskAtom is an unrendered task entry.
type TemplateTaskAtom struct {
	Template  string  `json:"template"`
	Condition string  `json:"condition,omitempty"`
	Cadence   Cadence `json:"cadence"`
	EveryDays int     `json:"every_days,omitempty"`
}

// PhaseSkeleton declares a phase a ruleset can populate, gated by When.
type PhaseSkeleton struct {
	PhaseID string      `json:"phase_id"`
	When    *WhenClause `json:"when,omitempty"`
}

// RulesetRule contributes atoms to any matching phase.
type RulesetRule struct {
	RuleID           string             `json:"rule_id"`
	PhaseIDs         []string           `json:"phase_ids,omitempty"`
	When             *WhenClause        `json:"when,omitempty"`
	RequiresRoles    []Role             `json:"requires_roles,omitempty"`
	ObjectiveIDs     []string           `json:"objective_ids,omitempty"`
	ExpectedBehavior []string           `json:"expected_behavior,omitempty"`
	Instructions     []TemplateAtom     `json:"instructions,omitempty"`
	Tasks            []TemplateTaskAtom `json:"tasks,omitempty"`
}

// Ruleset is the optional declarative phase-expansion input.
type Ruleset struct {
	Phases []PhaseSkeleton `json:"phases"`
	Rules  []RulesetRule   `json:"rules"`
}

// PhaseTemplate is a strategy-2 template matched by phase ID and,
// optionally, sequence number.
type PhaseTemplate struct {
	PhaseID          string             `json:"phase_id"`
	SequenceNumber   *int               `json:"sequence_number,omitempty"`
	Instructions     []TemplateAtom     `json:"instructions,omitempty"`
	Tasks            []TemplateTaskAtom `json:"tasks,omitempty"`
	ExpectedBehavior []TemplateAtom     `json:"expected_behavior,omitempty"`
	ExitChecks       []string           `json:"exit_checks,omitempty"`
}

// PlaylistAtom is one entry in the shared playlist atom library.
type PlaylistAtom struct {
	Kind      string  `json:"kind"` // "instruction", "task", "expected"
	Template  string  `json:"template"`
	Condition string  `json:"condition,omitempty"`
	Cadence   Cadence `json:"cadence,omitempty"`
	EveryDays int     `json:"every_days,omitempty"`
}

// Playlist resolves explicit per-phase atom ID sequences against a shared
// atom library.
type Playlist struct {
	Atoms  map[string]PlaylistAtom `json:"atoms"`
	Phases map[string][]string     `json:"phases"`
}

// FallbackTask is a pre-rendered task in the static fallback pack.
type FallbackTask struct {
	Text      string  `json:"text"`
	Cadence   Cadence `json:"cadence"`
	EveryDays int     `json:"every_days,omitempty"`
}

// FallbackPhaseAtoms are the static atoms for one phase of a fallback pack.
type FallbackPhaseAtoms struct {
	Instructions     []string       `json:"instructions,omitempty"`
	Tasks            []FallbackTask `json:"tasks,omitempty"`
	ExpectedBehavior []string       `json:"expected_behavior,omitempty"`
}

// FallbackPack is a static template pack. Entries use {key} brace
// placeholders resolved against the flat replacement map.
type FallbackPack struct {
	Phases map[string]FallbackPhaseAtoms `json:"phases"`
}

// UserTargets are the app-level target ranges supplied alongside the setup.
type UserTargets struct {
	TemperatureC Range   `json:"temperature_c"`
	PH           Range   `json:"ph"`
	GH           Range   `json:"gh"`
	KH           Range   `json:"kh"`
	Nitrate      Range   `json:"nitrate_ppm"`
	AmmoniaMax   float64 `json:"ammonia_ppm_max"`
	NitriteMax   float64 `json:"nitrite_ppm_max"`
}
