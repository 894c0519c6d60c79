// Package domain defines the core types for the aquaplan protocol engine.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CyclingMode identifies the tank cycling strategy.
type CyclingMode string

const (
	ModeAuto            CyclingMode = "auto"
	ModeFishlessAmmonia CyclingMode = "fishless_ammonia"
	ModeFishIn          CyclingMode = "fish_in"
	ModePlantAssisted   CyclingMode = "plant_assisted"
)

// DarkStartPreference is the user's dark-start choice. JSON accepts a bare
// boolean or the string "auto"; anything unrecognized decodes as auto.
type DarkStartPreference string

const (
	DarkStartAuto DarkStartPreference = "auto"
	DarkStartOn   DarkStartPreference = "on"
	DarkStartOff  DarkStartPreference = "off"
)

// UnmarshalJSON accepts true/false, "auto", "on"/"off".
func (p *DarkStartPreference) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		if t {
			*p = DarkStartOn
		} else {
			*p = DarkStartOff
		}
	case string:
		switch strings.ToLower(t) {
		case "on", "true", "yes":
			*p = DarkStartOn
		case "off", "false", "no":
			*p = DarkStartOff
		default:
			*p = DarkStartAuto
		}
	default:
		*p = DarkStartAuto
	}
	return nil
}

// MarshalJSON renders the canonical string form.
func (p DarkStartPreference) MarshalJSON() ([]byte, error) {
	if p == "" {
		p = DarkStartAuto
	}
	return json.Marshal(string(p))
}

// Range is a [low, high] pair. JSON accepts a two-element array or a bare
// scalar, which decodes as the degenerate range [v, v].
type Range struct {
	Low  float64
	High float64
}

// UnmarshalJSON accepts [low, high] or a scalar.
func (r *Range) UnmarshalJSON(b []byte) error {
	var arr []float64
	if err := json.Unmarshal(b, &arr); err == nil {
		switch len(arr) {
		case 0:
			*r = Range{}
		case 1:
			*r = Range{Low: arr[0], High: arr[0]}
		default:
			*r = Range{Low: arr[0], High: arr[1]}
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("range: expected scalar or [low,high]: %w", err)
	}
	*r = Range{Low: v, High: v}
	return nil
}

// MarshalJSON always renders the two-element array form.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Low, r.High})
}

// IsZero reports whether the range is entirely unset.
func (r Range) IsZero() bool { return r.Low == 0 && r.High == 0 }

// Preferences holds the user's protocol preferences.
type Preferences struct {
	CyclingMode      CyclingMode         `json:"cycling_mode_preference"`
	RiskTolerance    string              `json:"risk_tolerance"`
	PhotoperiodHours float64             `json:"photoperiod_hours"`
	DarkStart        DarkStartPreference `json:"dark_start"`
}

// CO2Config describes the tank's CO2 injection setup.
type CO2Config struct {
	Enabled     bool   `json:"enabled"`
	StartIntent string `json:"start_intent"` // "from_start" or "after_cycle"
}

// TankProfile describes the physical tank.
type TankProfile struct {
	GrossVolumeL           float64   `json:"tank_volume_l_gross"`
	NetVolumeL             *float64  `json:"net_water_volume_l"`
	NetVolumeMethod        string    `json:"net_volume_method"` // "explicit" or "estimate_multiplier"
	EstimatedNetMultiplier float64   `json:"estimated_net_multiplier"`
	Substrate              string    `json:"substrate"`
	Hardscape              []string  `json:"hardscape"`
	CO2                    CO2Config `json:"co2"`
	Heater                 bool      `json:"heater"`
}

// WaterProfile describes the source water. Pointer fields distinguish
// "not measured" from zero.
type WaterProfile struct {
	TapPH               *float64 `json:"tap_ph"`
	TapGH               *float64 `json:"tap_gh"`
	TapKH               *float64 `json:"tap_kh"`
	TapAmmonia          *float64 `json:"tap_ammonia"`
	Disinfectant        string   `json:"disinfectant"` // "none", "chlorine", "chloramine", "unknown"
	WeeklyChangePercent Range    `json:"weekly_water_change_percent"`
}

// BiologyProfile describes the planned livestock and plants.
type BiologyProfile struct {
	PlantSpecies    []string `json:"plant_species"`
	PlantCategories []string `json:"plant_categories"`
	PlantDemand     string   `json:"plant_demand"` // "low", "medium", "high"
	Fish            []string `json:"fish"`
	Shrimp          []string `json:"shrimp"`
	CleanupCrew     []string `json:"cleanup_crew"`
	LivestockTraits []string `json:"livestock_traits"`
}

// CustomProduct is a user-declared dosing product. It is converted into a
// synthetic catalog entry before role resolution.
type CustomProduct struct {
	Name            string     `json:"name"`
	Role            Role       `json:"role"`
	Enabled         bool       `json:"enabled"`
	Dose            *DoseModel `json:"dose,omitempty"`
	Bicarbonate     bool       `json:"bicarbonate"`
	PureAmmonia     bool       `json:"pure_ammonia"`
	SolutionPercent float64    `json:"solution_percent"`
	MeqPerL         float64    `json:"meq_per_l"`
}

// ProductStack describes the user's selected and custom products.
type ProductStack struct {
	AmmoniaSourceType  string          `json:"ammonia_source_type"`
	SelectedProductIDs []string        `json:"selected_product_ids"`
	Custom             []CustomProduct `json:"custom"`
	CombinedGHKH       bool            `json:"combined_gh_kh"`
}

// TestingCapability flags which water tests the user can run.
type TestingCapability struct {
	Ammonia bool `json:"ammonia"`
	Nitrite bool `json:"nitrite"`
	Nitrate bool `json:"nitrate"`
	GH      bool `json:"gh"`
	KH      bool `json:"kh"`
	PH      bool `json:"ph"`
}

// Setup is the raw engine input describing a tank project.
type Setup struct {
	Preferences Preferences       `json:"preferences"`
	Tank        TankProfile       `json:"tank"`
	Water       WaterProfile      `json:"water"`
	Biology     BiologyProfile    `json:"biology"`
	Products    ProductStack      `json:"products"`
	Testing     TestingCapability `json:"testing"`
}

// Role is one of the 8 fixed semantic product categories.
type Role string

const (
	RoleGHRemineralizer  Role = "gh_remineralizer"
	RoleKHBuffer         Role = "kh_buffer"
	RoleAmmoniaSource    Role = "ammonia_source"
	RoleDechlorinator    Role = "dechlorinator"
	RoleBacterialStarter Role = "bacterial_starter"
	RoleFertilizer       Role = "fertilizer"
	RoleRootTabs         Role = "root_tabs"
	RoleAlgaecide        Role = "algaecide"
)

// AllRoles lists every role in resolution order.
var AllRoles = []Role{
	RoleGHRemineralizer,
	RoleKHBuffer,
	RoleAmmoniaSource,
	RoleDechlorinator,
	RoleBacterialStarter,
	RoleFertilizer,
	RoleRootTabs,
	RoleAlgaecide,
}

// DoseModel describes linear-by-volume dosing.
type DoseModel struct {
	Kind       string  `json:"kind"` // "per_volume" or "none"
	Amount     float64 `json:"amount"`
	Unit       string  `json:"unit"`
	PerVolumeL float64 `json:"per_volume_l"`
}

// EffectModel describes what a dose does to the water.
type EffectModel struct {
	Type     string  `json:"type"` // e.g. "gh_target", "kh_delta", "ammonia_ppm"
	Strength float64 `json:"strength"`
	Units    string  `json:"units"`
}

// ProductConstraints carries usage caveats.
type ProductConstraints struct {
	RequiresTrigger bool     `json:"requires_trigger"`
	Warnings        []string `json:"warnings"`
}

// Product is a catalog entry.
type Product struct {
	ProductID   string             `json:"product_id"`
	DisplayName string             `json:"display_name"`
	Category    Role               `json:"category"`
	Dose        *DoseModel         `json:"dose,omitempty"`
	Effect      *EffectModel       `json:"effect,omitempty"`
	Constraints ProductConstraints `json:"constraints"`
}

// ProductCatalog is the static reference catalog.
type ProductCatalog struct {
	Products []Product `json:"products"`
}

// Cadence is a task recurrence pattern.
type Cadence string

const (
	CadenceOneTime  Cadence = "one_time"
	CadenceDaily    Cadence = "daily"
	CadenceWeekly   Cadence = "weekly"
	CadenceInterval Cadence = "interval"
	CadenceMonthly  Cadence = "monthly"
)

// Instruction is a rendered instruction atom.
type Instruction struct {
	Text string `json:"text"`
}

// TaskAtom is a rendered task atom attached to a phase.
type TaskAtom struct {
	TaskID       string  `json:"task_id,omitempty"`
	Text         string  `json:"text"`
	Cadence      Cadence `json:"cadence"`
	PhaseID      string  `json:"phase_id,omitempty"`
	StartPhaseID string  `json:"start_phase_id,omitempty"`
	EndPhaseID   string  `json:"end_phase_id,omitempty"`
	EveryDays    int     `json:"every_days,omitempty"`
}

// Phase is one stage of the generated protocol. Once built it is never
// mutated; phase_id and sequence_number are globally unique across a plan.
type Phase struct {
	PhaseID          string        `json:"phase_id"`
	PhaseName        string        `json:"phase_name"`
	SequenceNumber   int           `json:"sequence_number"`
	ModifiersApplied []string      `json:"modifiers_applied"`
	ObjectiveIDs     []string      `json:"objective_ids,omitempty"`
	Instructions     []Instruction `json:"instructions"`
	Tasks            []TaskAtom    `json:"tasks"`
	ExpectedBehavior []string      `json:"expected_behavior"`
	ExitChecks       []string      `json:"exit_checks,omitempty"`
}

// NoteType classifies plan notes.
type NoteType string

const (
	NoteWarning     NoteType = "warning"
	NoteBlocking    NoteType = "blocking"
	NoteTriggerOnly NoteType = "trigger_only"
)

// Note is a data-carried diagnostic attached to the plan.
type Note struct {
	Type    NoteType `json:"type"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

// Selection records the recommended vs. effective protocol decisions.
type Selection struct {
	RecommendedCyclingMode CyclingMode `json:"recommended_cycling_mode"`
	EffectiveCyclingMode   CyclingMode `json:"effective_cycling_mode"`
	RecommendedDarkStart   bool        `json:"recommended_dark_start"`
	EffectiveDarkStart     bool        `json:"effective_dark_start"`
	RiskScore              int         `json:"risk_score_1_to_5"`
	ReasonCodes            []string    `json:"reason_codes"`
	OverrideAckRequired    bool        `json:"override_ack_required"`
	OverrideAcknowledged   bool        `json:"override_acknowledged"`
	Blocked                bool        `json:"blocked"`
}

// DerivedQuantities are the numeric results computed from the setup.
type DerivedQuantities struct {
	NetVolumeL          float64 `json:"net_volume_l"`
	WeeklyChangeVolumeL Range   `json:"weekly_change_volume_l"`
	PhotoperiodHours    float64 `json:"photoperiod_hours"`
}

// Targets are the resolved water parameter targets.
type Targets struct {
	TemperatureC Range   `json:"temperature_c"`
	PH           Range   `json:"ph"`
	GH           Range   `json:"gh"`
	KH           Range   `json:"kh"`
	Nitrate      Range   `json:"nitrate_ppm"`
	AmmoniaMax   float64 `json:"ammonia_ppm_max"`
	NitriteMax   float64 `json:"nitrite_ppm_max"`
}

// DosingReference carries the pre-computed dosing numbers surfaced to the
// user alongside the phases. Nil fields mean "not computable from this
// setup" rather than zero.
type DosingReference struct {
	GHDoseGrams        *Range   `json:"gh_dose_g,omitempty"`
	KHDoseGrams        *float64 `json:"kh_dose_g,omitempty"`
	AmmoniaDoseML      *float64 `json:"ammonia_dose_ml"`
	FertilizerMLPerWk  *float64 `json:"fertilizer_ml_per_week,omitempty"`
	AmmoniaTargetPPM   float64  `json:"ammonia_target_ppm,omitempty"`
	SolutionPercentRef float64  `json:"solution_percent_ref,omitempty"`
}

// GlobalReference groups the targets and dosing numbers.
type GlobalReference struct {
	Targets Targets         `json:"targets"`
	Dosing  DosingReference `json:"dosing"`
}

// PlanMeta identifies a generated plan.
type PlanMeta struct {
	PlanID         string            `json:"plan_id,omitempty"`
	SchemaVersions map[string]string `json:"schema_versions"`
	GeneratedAt    string            `json:"generated_at"`
	EngineVersion  string            `json:"engine_version,omitempty"`
}

// Checklist buckets a phase's task atoms by cadence.
type Checklist struct {
	PhaseID      string     `json:"phase_id"`
	ObjectiveIDs []string   `json:"objective_ids,omitempty"`
	Daily        []TaskAtom `json:"daily,omitempty"`
	Weekly       []TaskAtom `json:"weekly,omitempty"`
	Interval     []TaskAtom `json:"interval,omitempty"`
	Monthly      []TaskAtom `json:"monthly,omitempty"`
	OneTime      []TaskAtom `json:"one_time,omitempty"`
}

// Plan is the engine output document. It is a pure function of its inputs:
// identical setup, catalog, package, ruleset, and timestamp produce
// byte-identical JSON.
type Plan struct {
	Meta       PlanMeta                   `json:"meta"`
	Selection  Selection                  `json:"selection"`
	Derived    DerivedQuantities          `json:"derived"`
	Reference  GlobalReference            `json:"reference"`
	Phases     []Phase                    `json:"phases"`
	Checklists []Checklist                `json:"checklists"`
	Worksheets map[string]json.RawMessage `json:"worksheets,omitempty"`
	Notes      []Note                     `json:"notes"`
}
