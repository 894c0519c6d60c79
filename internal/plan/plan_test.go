package plan

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/aquaplan/aquaplan/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func baseSetup() domain.Setup {
	return domain.Setup{
		Preferences: domain.Preferences{
			CyclingMode:      domain.ModeAuto,
			RiskTolerance:    "medium",
			PhotoperiodHours: 8,
			DarkStart:        domain.DarkStartAuto,
		},
		Tank: domain.TankProfile{
			GrossVolumeL:           60,
			EstimatedNetMultiplier: 0.85,
			Substrate:              "aquasoil",
		},
		Water: domain.WaterProfile{
			TapGH:               ptr(4),
			TapKH:               ptr(3),
			Disinfectant:        "chlorine",
			WeeklyChangePercent: domain.Range{Low: 20, High: 30},
		},
		Biology: domain.BiologyProfile{
			PlantSpecies: []string{"anubias"},
			PlantDemand:  "low",
		},
		Products: domain.ProductStack{
			AmmoniaSourceType:  "solution",
			SelectedProductIDs: []string{"gh1", "kh1", "amm1"},
		},
		Testing: domain.TestingCapability{Ammonia: true, Nitrite: true},
	}
}

func baseCatalog() domain.ProductCatalog {
	return domain.ProductCatalog{Products: []domain.Product{
		{ProductID: "gh1", DisplayName: "ReMineral GH+", Category: domain.RoleGHRemineralizer},
		{ProductID: "kh1", DisplayName: "Alka Buffer", Category: domain.RoleKHBuffer},
		{ProductID: "amm1", DisplayName: "Dr Tim's Ammonium", Category: domain.RoleAmmoniaSource},
	}}
}

func basePackage(t *testing.T) domain.EnginePackage {
	t.Helper()
	tables := map[string]domain.DecisionTable{
		TableCyclingMode: {
			{If: map[string]any{}, Then: map[string]any{
				"cycling_mode": "fishless_ammonia", "risk_score_1_to_5": 2.0,
				"reason_codes": []any{"default_fishless"},
			}},
			{If: map[string]any{"cycling_mode_preference": "fish_in"}, Then: map[string]any{
				"cycling_mode": "fish_in", "risk_score_1_to_5": 4.0,
				"reason_codes": []any{"user_fish_in"},
			}},
		},
		TableDarkStart: {
			{If: map[string]any{"substrate": "aquasoil"}, Then: map[string]any{
				"dark_start_recommended": true, "reason_codes": []any{"aquasoil_dark_start"},
			}},
		},
	}

	fallback, err := json.Marshal(map[string]domain.FallbackPack{
		"default": {Phases: map[string]domain.FallbackPhaseAtoms{
			"phase_setup": {
				Instructions: []string{"Fill the tank to {net_volume_l} L and dechlorinate with {dechlorinator}."},
				Tasks: []domain.FallbackTask{
					{Text: "Check for leaks", Cadence: domain.CadenceOneTime},
					{Text: "Top off evaporation", Cadence: domain.CadenceDaily},
				},
				ExpectedBehavior: []string{"Water clears within 24h"},
			},
			"phase_ammonia_intro": {
				Instructions: []string{"Dose {ammonia_product} to {ammonia_target_ppm} ppm."},
				Tasks: []domain.FallbackTask{
					{Text: "Test ammonia", Cadence: domain.CadenceInterval, EveryDays: 2},
					{Text: "Change {water_change_l} L of water", Cadence: domain.CadenceWeekly},
				},
			},
		}},
		"fish_in": {Phases: map[string]domain.FallbackPhaseAtoms{
			"phase_fish_in_week_1": {
				Instructions: []string{"Feed lightly, test ammonia daily."},
				Tasks:        []domain.FallbackTask{{Text: "Test ammonia and nitrite", Cadence: domain.CadenceDaily}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("marshal fallback: %v", err)
	}

	return domain.EnginePackage{
		DecisionTables: tables,
		Calculators: map[string]domain.Calculator{
			domain.CalcAmmonia: {
				Defaults:  map[string]float64{"target_ppm": 2},
				Constants: map[string]float64{"reference_percent": 9.5, "reference_dose_ml": 1, "reference_volume_l": 50, "reference_result_ppm": 3.8},
			},
		},
		Templates: map[string]json.RawMessage{TemplatesFallback: fallback},
		Schemas:   map[string]domain.SchemaInfo{"setup": {Version: "3"}, "plan": {Version: "7"}},
	}
}

func baseRequest(t *testing.T) Request {
	t.Helper()
	return Request{
		Setup:          baseSetup(),
		Catalog:        baseCatalog(),
		Package:        basePackage(t),
		GeneratedAtISO: "2026-03-01T00:00:00Z",
		PlanID:         "plan-test",
		EngineVersion:  "test",
	}
}

func noteCode(notes []domain.Note, code string) *domain.Note {
	for i := range notes {
		if notes[i].Code == code {
			return &notes[i]
		}
	}
	return nil
}

func TestGenerateDeterministic(t *testing.T) {
	p1, err := Generate(baseRequest(t))
	require.NoError(t, err)
	p2, err := Generate(baseRequest(t))
	require.NoError(t, err)

	b1, err := EncodeJSON(p1)
	require.NoError(t, err)
	b2, err := EncodeJSON(p2)
	require.NoError(t, err)
	require.Equal(t, string(b1), string(b2))
}

func TestGenerateSelectsRecommendedMode(t *testing.T) {
	p, err := Generate(baseRequest(t))
	require.NoError(t, err)

	if p.Selection.EffectiveCyclingMode != domain.ModeFishlessAmmonia {
		t.Errorf("effective mode = %q", p.Selection.EffectiveCyclingMode)
	}
	if p.Selection.RecommendedCyclingMode != domain.ModeFishlessAmmonia {
		t.Errorf("recommended mode = %q", p.Selection.RecommendedCyclingMode)
	}
	// Aquasoil recommends a dark start; the user left it on auto.
	if !p.Selection.RecommendedDarkStart || !p.Selection.EffectiveDarkStart {
		t.Errorf("dark start = %+v", p.Selection)
	}
	want := []string{"default_fishless", "aquasoil_dark_start"}
	if diff := cmp.Diff(want, p.Selection.ReasonCodes); diff != "" {
		t.Errorf("reason codes mismatch (-want +got):\n%s", diff)
	}
	if p.Phases[0].PhaseID != "phase_dark_start_setup" {
		t.Errorf("first phase = %q", p.Phases[0].PhaseID)
	}
}

func TestGenerateFishInFirstPhase(t *testing.T) {
	req := baseRequest(t)
	req.Setup.Preferences.CyclingMode = domain.ModeFishIn
	req.Setup.Preferences.DarkStart = domain.DarkStartOff
	req.OverrideAcknowledged = true

	p, err := Generate(req)
	require.NoError(t, err)
	if p.Selection.EffectiveCyclingMode != domain.ModeFishIn {
		t.Fatalf("effective mode = %q", p.Selection.EffectiveCyclingMode)
	}
	if p.Phases[0].PhaseID != "phase_fish_in_week_1" {
		t.Errorf("first phase = %q", p.Phases[0].PhaseID)
	}
	if got := p.Phases[len(p.Phases)-1].SequenceNumber; got != 600 {
		t.Errorf("trailing maintenance sequence = %d", got)
	}
	// The fish-in fallback pack applies.
	if len(p.Phases[0].Instructions) == 0 {
		t.Error("fish-in first phase has no instructions")
	}
}

func TestOverridePolicyBlocks(t *testing.T) {
	req := baseRequest(t)
	req.Setup.Preferences.CyclingMode = domain.ModeFishIn

	p, err := Generate(req)
	require.NoError(t, err)
	if !p.Selection.OverrideAckRequired || !p.Selection.Blocked {
		t.Fatalf("selection = %+v", p.Selection)
	}
	n := noteCode(p.Notes, "override_ack_required")
	if n == nil || n.Type != domain.NoteBlocking {
		t.Fatalf("blocking note = %+v", n)
	}
	// The plan is still generated in full.
	if len(p.Phases) == 0 || len(p.Checklists) == 0 {
		t.Error("blocked plan missing phases or checklists")
	}

	req.OverrideAcknowledged = true
	p, err = Generate(req)
	require.NoError(t, err)
	if p.Selection.Blocked || !p.Selection.OverrideAckRequired {
		t.Errorf("acknowledged selection = %+v", p.Selection)
	}
	if noteCode(p.Notes, "override_ack_required") != nil {
		t.Error("blocking note present after acknowledgement")
	}
}

func TestNormalizationWarnings(t *testing.T) {
	req := baseRequest(t)
	req.Setup.Tank.GrossVolumeL = 0
	req.Setup.Water.TapGH = nil
	req.Setup.Water.TapKH = nil
	req.Setup.Products.SelectedProductIDs = []string{"gh1", "", "kh1"}

	p, err := Generate(req)
	require.NoError(t, err)
	for _, code := range []string{"missing_tank_volume", "missing_tap_gh", "missing_tap_kh", "invalid_product_selection"} {
		if noteCode(p.Notes, code) == nil {
			t.Errorf("missing warning %q", code)
		}
	}
	// The cleaned selection still resolves both required roles.
	if noteCode(p.Notes, "missing_role_gh_remineralizer") != nil {
		t.Error("valid selection reported as missing role")
	}
}

func TestMissingRequiredRoleWarns(t *testing.T) {
	req := baseRequest(t)
	req.Setup.Products.SelectedProductIDs = []string{"amm1"}

	p, err := Generate(req)
	require.NoError(t, err)
	if noteCode(p.Notes, "missing_role_gh_remineralizer") == nil {
		t.Error("expected missing GH remineralizer warning")
	}
	if noteCode(p.Notes, "missing_role_kh_buffer") == nil {
		t.Error("expected missing KH buffer warning")
	}
}

func TestAmmoniaCalibrationMismatchWarns(t *testing.T) {
	req := baseRequest(t)
	req.Setup.Products.Custom = []domain.CustomProduct{{
		Name: "Janitor ammonia", Role: domain.RoleAmmoniaSource, Enabled: true,
		PureAmmonia: true, SolutionPercent: 24.5,
	}}

	p, err := Generate(req)
	require.NoError(t, err)
	if p.Reference.Dosing.AmmoniaDoseML != nil {
		t.Errorf("dose = %v, want nil", *p.Reference.Dosing.AmmoniaDoseML)
	}
	if noteCode(p.Notes, "ammonia_calibration_mismatch") == nil {
		t.Error("expected calibration mismatch warning")
	}
}

func TestDerivedQuantitiesAndRendering(t *testing.T) {
	p, err := Generate(baseRequest(t))
	require.NoError(t, err)

	if got := p.Derived.NetVolumeL; got != 51 {
		t.Errorf("net volume = %v", got)
	}
	want := domain.Range{Low: 10.2, High: 15.3}
	if diff := cmp.Diff(want, p.Derived.WeeklyChangeVolumeL); diff != "" {
		t.Errorf("weekly change mismatch (-want +got):\n%s", diff)
	}

	// 1 mL raises 50 L by 3.8 ppm; 51 L to 2 ppm needs ~0.54 mL.
	require.NotNil(t, p.Reference.Dosing.AmmoniaDoseML)
	if got := *p.Reference.Dosing.AmmoniaDoseML; got < 0.5 || got > 0.6 {
		t.Errorf("ammonia dose = %v", got)
	}

	var amm *domain.Phase
	for i := range p.Phases {
		if p.Phases[i].PhaseID == "phase_ammonia_intro" {
			amm = &p.Phases[i]
		}
	}
	require.NotNil(t, amm)
	require.NotEmpty(t, amm.Instructions)
	text := amm.Instructions[0].Text
	if !strings.Contains(text, "Dr Tim's Ammonium") || !strings.Contains(text, "2 ppm") {
		t.Errorf("rendered instruction = %q", text)
	}
}

func TestChecklistsBucketByCadence(t *testing.T) {
	p, err := Generate(baseRequest(t))
	require.NoError(t, err)

	byPhase := map[string]domain.Checklist{}
	for _, c := range p.Checklists {
		byPhase[c.PhaseID] = c
	}
	amm := byPhase["phase_ammonia_intro"]
	if len(amm.Interval) != 1 || len(amm.Weekly) != 1 {
		t.Errorf("ammonia checklist = %+v", amm)
	}
	if amm.Interval[0].EveryDays != 2 {
		t.Errorf("interval task = %+v", amm.Interval[0])
	}
	if len(p.Checklists) != len(p.Phases) {
		t.Errorf("checklists = %d, phases = %d", len(p.Checklists), len(p.Phases))
	}
}

func TestEpochTimestampDefault(t *testing.T) {
	req := baseRequest(t)
	req.GeneratedAtISO = ""
	p, err := Generate(req)
	require.NoError(t, err)
	if p.Meta.GeneratedAt != EpochISO {
		t.Errorf("generated at = %q", p.Meta.GeneratedAt)
	}
	if p.Meta.SchemaVersions["plan"] != "7" {
		t.Errorf("schema versions = %v", p.Meta.SchemaVersions)
	}
}
