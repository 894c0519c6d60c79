// Package plan is the orchestrator: it composes normalization, decision
// tables, derived quantities, role resolution, phase sequencing, and
// phase expansion into one Generate call. Generate is a pure function of
// the request, including its timestamp, so identical requests produce
// byte-identical JSON.
package plan

import (
	"encoding/json"

	"github.com/aquaplan/aquaplan/internal/calc"
	"github.com/aquaplan/aquaplan/internal/decision"
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/expand"
	"github.com/aquaplan/aquaplan/internal/expr"
	"github.com/aquaplan/aquaplan/internal/roles"
	"github.com/aquaplan/aquaplan/internal/sequence"
)

// EpochISO is the default generation timestamp. Callers must override it
// for real use; leaving it visible in output makes a missing timestamp
// obvious instead of silently current.
const EpochISO = "1970-01-01T00:00:00Z"

// Decision table names read from the engine package.
const (
	TableCyclingMode = "cycling_mode"
	TableDarkStart   = "dark_start"
)

// Template bundle keys read from the engine package's templates map.
const (
	TemplatesPhase    = "phase_templates"
	TemplatesPlaylist = "playlist"
	TemplatesFallback = "fallback_packs"
)

// Request carries every input Generate consumes. Nothing is read from
// the environment.
type Request struct {
	Setup   domain.Setup
	Catalog domain.ProductCatalog
	Package domain.EnginePackage
	Ruleset *domain.Ruleset
	Targets *domain.UserTargets

	OverrideAcknowledged bool
	GeneratedAtISO       string
	PlanID               string
	EngineVersion        string
}

// defaultOverridePolicy applies when the engine package carries none:
// deviating from the recommended cycling mode at high risk needs an
// explicit acknowledgement.
var defaultOverridePolicy = []domain.OverrideRule{
	{
		When:   "cycling_mode_mismatch == 1 AND risk_score_1_to_5 >= 4",
		Reason: "selected cycling mode differs from the recommendation at high risk",
	},
}

// Generate builds the full plan document. The only error path is the
// phase sequencer's collision invariant; every recoverable problem
// surfaces as a note on the plan instead.
func Generate(req Request) (*domain.Plan, error) {
	setup, notes := normalize(req.Setup, req.Package)

	sel, selNotes := selection(setup, req)
	notes = append(notes, selNotes...)

	resolved := roles.Resolve(req.Catalog.Products, setup.Products.Custom, setup.Products.SelectedProductIDs)
	notes = append(notes, resolved.Notes...)

	derived, reference, dosingNotes := deriveQuantities(setup, req, sel, resolved)
	notes = append(notes, dosingNotes...)

	phases, err := sequence.Build(sequence.Inputs{
		Mode:             sel.EffectiveCyclingMode,
		DarkStart:        sel.EffectiveDarkStart,
		DarkStartForced:  setup.Preferences.DarkStart == domain.DarkStartOn,
		CO2Enabled:       setup.Tank.CO2.Enabled,
		CO2StartIntent:   setup.Tank.CO2.StartIntent,
		PhotoperiodHours: setup.Preferences.PhotoperiodHours,
	})
	if err != nil {
		return nil, err
	}

	ectx := expand.Context{
		RulesCtx:      rulesContext(setup, sel, resolved),
		TemplateCtx:   templateContext(setup, sel, derived, reference, resolved),
		Replacements:  replacements(setup, derived, reference, resolved),
		ResolvedRoles: resolved.RoleSet(),
		Mode:          sel.EffectiveCyclingMode,
	}
	phases, _ = expand.Run(phases, ectx, expanders(req))
	for i := range phases {
		phases[i].Instructions = roles.SuppressTriggerInstructions(phases[i].Instructions, resolved)
		phases[i].Tasks = roles.SuppressTriggerTasks(phases[i].Tasks, resolved)
	}

	generatedAt := req.GeneratedAtISO
	if generatedAt == "" {
		generatedAt = EpochISO
	}
	return &domain.Plan{
		Meta: domain.PlanMeta{
			PlanID:         req.PlanID,
			SchemaVersions: schemaVersions(req.Package),
			GeneratedAt:    generatedAt,
			EngineVersion:  req.EngineVersion,
		},
		Selection:  sel,
		Derived:    derived,
		Reference:  reference,
		Phases:     phases,
		Checklists: checklists(phases),
		Worksheets: req.Package.Worksheets,
		Notes:      notes,
	}, nil
}

// selection runs the cycling-mode table twice, once with the user's
// actual preference and once forcing auto, so the recommended and
// effective decisions are computed independently. The dark-start table
// then runs against the effective mode.
func selection(setup domain.Setup, req Request) (domain.Selection, []domain.Note) {
	tables := req.Package.DecisionTables

	actual := decision.Evaluate(tables[TableCyclingMode], decisionContext(setup, setup.Preferences.CyclingMode))
	forced := decision.Evaluate(tables[TableCyclingMode], decisionContext(setup, domain.ModeAuto))

	recommended := domain.CyclingMode(decision.String(forced, "cycling_mode", string(domain.ModeFishlessAmmonia)))
	fallback := setup.Preferences.CyclingMode
	if fallback == domain.ModeAuto {
		fallback = recommended
	}
	effective := domain.CyclingMode(decision.String(actual, "cycling_mode", string(fallback)))

	risk := int(decision.Number(actual, "risk_score_1_to_5", 2))
	if risk < 1 {
		risk = 1
	}
	if risk > 5 {
		risk = 5
	}

	dark := decision.Evaluate(tables[TableDarkStart], decisionContext(setup, effective))
	recommendedDark := decision.Bool(dark, "dark_start_recommended", false)
	effectiveDark := recommendedDark
	switch setup.Preferences.DarkStart {
	case domain.DarkStartOn:
		effectiveDark = true
	case domain.DarkStartOff:
		effectiveDark = false
	}

	sel := domain.Selection{
		RecommendedCyclingMode: recommended,
		EffectiveCyclingMode:   effective,
		RecommendedDarkStart:   recommendedDark,
		EffectiveDarkStart:     effectiveDark,
		RiskScore:              risk,
		ReasonCodes:            mergeCodes(decision.Strings(actual, "reason_codes"), decision.Strings(dark, "reason_codes")),
		OverrideAcknowledged:   req.OverrideAcknowledged,
	}

	var notes []domain.Note
	policy := req.Package.OverridePolicy
	if len(policy) == 0 {
		policy = defaultOverridePolicy
	}
	octx := overrideContext(setup, sel)
	for _, rule := range policy {
		if !expr.EvalClauses(rule.When, octx) {
			continue
		}
		sel.OverrideAckRequired = true
		if !req.OverrideAcknowledged {
			sel.Blocked = true
			notes = append(notes, domain.Note{
				Type:    domain.NoteBlocking,
				Code:    "override_ack_required",
				Message: rule.Reason,
			})
		}
	}
	return sel, notes
}

// expanders decodes the optional strategy inputs from the engine package
// and orders the four strategies by priority. Malformed template JSON
// leaves a strategy empty instead of failing generation.
func expanders(req Request) []expand.Expander {
	var templates []domain.PhaseTemplate
	decodeTemplate(req.Package, TemplatesPhase, &templates)

	var playlist domain.Playlist
	decodeTemplate(req.Package, TemplatesPlaylist, &playlist)

	packs := map[string]domain.FallbackPack{}
	decodeTemplate(req.Package, TemplatesFallback, &packs)

	return []expand.Expander{
		&expand.RulesetExpander{Ruleset: req.Ruleset},
		&expand.TemplateExpander{Templates: templates},
		&expand.PlaylistExpander{Playlist: &playlist},
		&expand.FallbackExpander{Packs: packs},
	}
}

func decodeTemplate(pkg domain.EnginePackage, key string, out any) {
	raw, ok := pkg.Templates[key]
	if !ok {
		return
	}
	_ = json.Unmarshal(raw, out)
}

// checklists buckets each phase's task atoms by cadence.
func checklists(phases []domain.Phase) []domain.Checklist {
	out := make([]domain.Checklist, 0, len(phases))
	for _, p := range phases {
		c := domain.Checklist{PhaseID: p.PhaseID, ObjectiveIDs: p.ObjectiveIDs}
		for _, t := range p.Tasks {
			switch t.Cadence {
			case domain.CadenceDaily:
				c.Daily = append(c.Daily, t)
			case domain.CadenceWeekly:
				c.Weekly = append(c.Weekly, t)
			case domain.CadenceInterval:
				c.Interval = append(c.Interval, t)
			case domain.CadenceMonthly:
				c.Monthly = append(c.Monthly, t)
			default:
				c.OneTime = append(c.OneTime, t)
			}
		}
		out = append(out, c)
	}
	return out
}

func schemaVersions(pkg domain.EnginePackage) map[string]string {
	out := make(map[string]string, len(pkg.Schemas))
	for name, info := range pkg.Schemas {
		out[name] = info.Version
	}
	return out
}

func mergeCodes(groups ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, group := range groups {
		for _, code := range group {
			if seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

// EncodeJSON renders a plan as stable, indented JSON. Map keys serialize
// sorted, so the byte output is deterministic.
func EncodeJSON(p *domain.Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// overrideContext is the flat context the override-policy clause
// expressions evaluate against.
func overrideContext(setup domain.Setup, sel domain.Selection) map[string]any {
	pref := setup.Preferences.CyclingMode
	mismatch := pref != "" && pref != domain.ModeAuto && pref != sel.RecommendedCyclingMode
	return map[string]any{
		"risk_score_1_to_5":        float64(sel.RiskScore),
		"cycling_mode_mismatch":    mismatch,
		"dark_start_override":      setup.Preferences.DarkStart != domain.DarkStartAuto,
		"risk_tolerance":           setup.Preferences.RiskTolerance,
		"effective_cycling_mode":   string(sel.EffectiveCyclingMode),
		"recommended_cycling_mode": string(sel.RecommendedCyclingMode),
	}
}

// ammoniaTargetPPM reads the dosing target from the ammonia calculator,
// falling back to a conservative 2 ppm.
func ammoniaTargetPPM(pkg domain.EnginePackage) float64 {
	if v, ok := pkg.Calculators[domain.CalcAmmonia].Defaults["target_ppm"]; ok && v > 0 {
		return v
	}
	return 2
}

// calibration reads the single supported ammonia dosing reference from
// the engine package constants.
func calibration(pkg domain.EnginePackage) calc.AmmoniaCalibration {
	consts := pkg.Calculators[domain.CalcAmmonia].Constants
	cal := calc.AmmoniaCalibration{
		ReferencePercent:   constOr(consts, "reference_percent", 9.5),
		ReferenceDoseML:    constOr(consts, "reference_dose_ml", 1),
		ReferenceVolumeL:   constOr(consts, "reference_volume_l", 50),
		ReferenceResultPPM: constOr(consts, "reference_result_ppm", 3.8),
	}
	return cal
}

func constOr(m map[string]float64, key string, fallback float64) float64 {
	if v, ok := m[key]; ok && v != 0 {
		return v
	}
	return fallback
}
