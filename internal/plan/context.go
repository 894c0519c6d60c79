package plan

import (
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/roles"
	"github.com/aquaplan/aquaplan/internal/template"
)

// genericRoleNames render in place of a product name when a role did not
// resolve, keeping instruction text readable instead of leaking a raw
// {placeholder} token.
var genericRoleNames = map[domain.Role]string{
	domain.RoleGHRemineralizer:  "your GH remineralizer",
	domain.RoleKHBuffer:         "your KH buffer",
	domain.RoleAmmoniaSource:    "your ammonia source",
	domain.RoleDechlorinator:    "your dechlorinator",
	domain.RoleBacterialStarter: "your bacterial starter",
	domain.RoleFertilizer:       "your fertilizer",
	domain.RoleRootTabs:         "root tabs",
	domain.RoleAlgaecide:        "your algaecide",
}

// decisionContext builds the lookup context for the decision tables. The
// preference mode is a parameter so the same setup can be evaluated with
// the user's actual choice and with auto forced.
func decisionContext(s domain.Setup, pref domain.CyclingMode) map[string]any {
	return map[string]any{
		"cycling_mode_preference": string(pref),
		"risk_tolerance":          s.Preferences.RiskTolerance,
		"dark_start_preference":   string(s.Preferences.DarkStart),
		"photoperiod_hours":       s.Preferences.PhotoperiodHours,
		"substrate":               s.Tank.Substrate,
		"co2_enabled":             s.Tank.CO2.Enabled,
		"heater":                  s.Tank.Heater,
		"plants_present":          plantsPresent(s),
		"plant_demand":            s.Biology.PlantDemand,
		"fish_planned":            len(s.Biology.Fish) > 0,
		"shrimp_planned":          len(s.Biology.Shrimp) > 0,
		"ammonia_available":       ammoniaAvailable(s),
		"tap_kh_status":           tapKHStatus(s.Water.TapKH),
		"disinfectant":            s.Water.Disinfectant,
		"testing": map[string]any{
			"ammonia": s.Testing.Ammonia,
			"nitrite": s.Testing.Nitrite,
			"nitrate": s.Testing.Nitrate,
			"gh":      s.Testing.GH,
			"kh":      s.Testing.KH,
			"ph":      s.Testing.PH,
		},
		"tank": map[string]any{
			"gross_volume_l": s.Tank.GrossVolumeL,
			"substrate":      s.Tank.Substrate,
		},
	}
}

// rulesContext is the flat context the structured when-clauses match
// against. Its keys are the known leaf vocabulary minus the _in suffix.
func rulesContext(s domain.Setup, sel domain.Selection, resolved roles.Resolved) map[string]any {
	return map[string]any{
		"cycling_mode":           string(sel.EffectiveCyclingMode),
		"substrate":              s.Tank.Substrate,
		"risk_tolerance":         s.Preferences.RiskTolerance,
		"tap_kh_status":          tapKHStatus(s.Water.TapKH),
		"disinfectant":           s.Water.Disinfectant,
		"dark_start_enabled":     sel.EffectiveDarkStart,
		"dark_start_recommended": sel.RecommendedDarkStart,
		"dark_start_override":    s.Preferences.DarkStart != domain.DarkStartAuto,
		"dark_start_preference":  string(s.Preferences.DarkStart),
		"co2_enabled":            s.Tank.CO2.Enabled,
		"plants_present":         plantsPresent(s),
		"shrimp_planned":         len(s.Biology.Shrimp) > 0,
		"ammonia_available":      ammoniaAvailable(s) || resolved.Have(domain.RoleAmmoniaSource),
	}
}

// templateContext is the nested context for {{dotted.path}} rendering and
// per-atom condition expressions. Dose values arrive pre-formatted so
// template text never shows raw float precision.
func templateContext(s domain.Setup, sel domain.Selection, derived domain.DerivedQuantities, ref domain.GlobalReference, resolved roles.Resolved) map[string]any {
	roleCtx := map[string]any{}
	for _, role := range domain.AllRoles {
		entry := map[string]any{"present": resolved.Have(role), "name": roleName(role, resolved)}
		roleCtx[string(role)] = entry
	}
	return map[string]any{
		"mode":           string(sel.EffectiveCyclingMode),
		"dark_start":     sel.EffectiveDarkStart,
		"risk_score":     float64(sel.RiskScore),
		"plants_present": plantsPresent(s),
		"shrimp_planned": len(s.Biology.Shrimp) > 0,
		"co2_enabled":    s.Tank.CO2.Enabled,
		"disinfectant":   s.Water.Disinfectant,
		"tap_kh_status":  tapKHStatus(s.Water.TapKH),
		"tank": map[string]any{
			"net_volume_l":   derived.NetVolumeL,
			"gross_volume_l": s.Tank.GrossVolumeL,
			"substrate":      s.Tank.Substrate,
			"heater":         s.Tank.Heater,
		},
		"derived": map[string]any{
			"net_volume_l":         derived.NetVolumeL,
			"weekly_change_low_l":  derived.WeeklyChangeVolumeL.Low,
			"weekly_change_high_l": derived.WeeklyChangeVolumeL.High,
			"photoperiod_hours":    derived.PhotoperiodHours,
		},
		"dosing": map[string]any{
			"gh_dose_g":              formatRangePtr(ref.Dosing.GHDoseGrams),
			"kh_dose_g":              template.FormatOptional(ref.Dosing.KHDoseGrams, 2),
			"ammonia_dose_ml":        template.FormatOptional(ref.Dosing.AmmoniaDoseML, 2),
			"fertilizer_ml_per_week": template.FormatOptional(ref.Dosing.FertilizerMLPerWk, 1),
			"ammonia_target_ppm":     ref.Dosing.AmmoniaTargetPPM,
		},
		"targets": map[string]any{
			"temperature_c": template.FormatRange(ref.Targets.TemperatureC, 1),
			"ph":            template.FormatRange(ref.Targets.PH, 1),
			"gh":            template.FormatRange(ref.Targets.GH, 0),
			"kh":            template.FormatRange(ref.Targets.KH, 0),
			"nitrate_ppm":   template.FormatRange(ref.Targets.Nitrate, 0),
		},
		"roles": roleCtx,
	}
}

// replacements is the flat {key} map for brace rendering, used by the
// ruleset and fallback strategies.
func replacements(s domain.Setup, derived domain.DerivedQuantities, ref domain.GlobalReference, resolved roles.Resolved) map[string]string {
	out := map[string]string{
		"net_volume_l":           template.FormatNumber(derived.NetVolumeL, 1),
		"water_change_low_l":     template.FormatNumber(derived.WeeklyChangeVolumeL.Low, 1),
		"water_change_high_l":    template.FormatNumber(derived.WeeklyChangeVolumeL.High, 1),
		"water_change_l":         template.FormatRange(derived.WeeklyChangeVolumeL, 1),
		"water_change_percent":   template.FormatRange(s.Water.WeeklyChangePercent, 0),
		"photoperiod_hours":      template.FormatNumber(derived.PhotoperiodHours, 1),
		"gh_dose_g":              formatRangePtr(ref.Dosing.GHDoseGrams),
		"kh_dose_g":              template.FormatOptional(ref.Dosing.KHDoseGrams, 2),
		"ammonia_dose_ml":        template.FormatOptional(ref.Dosing.AmmoniaDoseML, 2),
		"ammonia_target_ppm":     template.FormatNumber(ref.Dosing.AmmoniaTargetPPM, 1),
		"fertilizer_ml_per_week": template.FormatOptional(ref.Dosing.FertilizerMLPerWk, 1),
		"temperature_range":      template.FormatRange(ref.Targets.TemperatureC, 1),
		"ph_range":               template.FormatRange(ref.Targets.PH, 1),
		"gh_range":               template.FormatRange(ref.Targets.GH, 0),
		"kh_range":               template.FormatRange(ref.Targets.KH, 0),
		"nitrate_range":          template.FormatRange(ref.Targets.Nitrate, 0),
	}
	out["gh_product"] = roleName(domain.RoleGHRemineralizer, resolved)
	out["kh_product"] = roleName(domain.RoleKHBuffer, resolved)
	out["ammonia_product"] = roleName(domain.RoleAmmoniaSource, resolved)
	out["dechlorinator"] = roleName(domain.RoleDechlorinator, resolved)
	out["bacterial_starter"] = roleName(domain.RoleBacterialStarter, resolved)
	out["fertilizer_product"] = roleName(domain.RoleFertilizer, resolved)
	out["root_tabs_product"] = roleName(domain.RoleRootTabs, resolved)
	out["algaecide_product"] = roleName(domain.RoleAlgaecide, resolved)
	return out
}

func roleName(role domain.Role, resolved roles.Resolved) string {
	if p := resolved.Product(role); p != nil {
		return p.DisplayName
	}
	return genericRoleNames[role]
}

func formatRangePtr(r *domain.Range) string {
	if r == nil {
		return template.NotAvailable
	}
	return template.FormatRange(*r, 2)
}

func plantsPresent(s domain.Setup) bool {
	return len(s.Biology.PlantSpecies) > 0 || len(s.Biology.PlantCategories) > 0
}

// ammoniaAvailable reports whether the setup declares any dosable
// ammonia source.
func ammoniaAvailable(s domain.Setup) bool {
	if s.Products.AmmoniaSourceType != "" && s.Products.AmmoniaSourceType != "none" {
		return true
	}
	for _, cp := range s.Products.Custom {
		if cp.Enabled && cp.Role == domain.RoleAmmoniaSource {
			return true
		}
	}
	return false
}

// tapKHStatus classifies the source water's buffering. The thresholds
// match the dosing worksheet's low/ok/high bands.
func tapKHStatus(tapKH *float64) string {
	switch {
	case tapKH == nil:
		return "unknown"
	case *tapKH < 3:
		return "low"
	case *tapKH <= 8:
		return "ok"
	default:
		return "high"
	}
}
