package plan

import (
	"fmt"

	"github.com/aquaplan/aquaplan/internal/calc"
	"github.com/aquaplan/aquaplan/internal/domain"
)

// Normalization defaults. Fields whose absence materially affects the
// downstream math additionally emit a warning note.
const (
	defaultRiskTolerance    = "medium"
	defaultPlantDemand      = "low"
	defaultDisinfectant     = "unknown"
	defaultPhotoperiodHours = 8
	defaultNetMultiplier    = 0.9
	defaultChangePctLow     = 20
	defaultChangePctHigh    = 30
)

// normalize fills every omitted setup field with its documented default
// and collects warning notes for the gaps that change the math. The
// input is copied; the caller's setup is never mutated.
func normalize(in domain.Setup, pkg domain.EnginePackage) (domain.Setup, []domain.Note) {
	s := in
	var notes []domain.Note

	warn := func(code, msg string) {
		notes = append(notes, domain.Note{Type: domain.NoteWarning, Code: code, Message: msg})
	}

	if s.Preferences.CyclingMode == "" {
		s.Preferences.CyclingMode = domain.ModeAuto
	}
	if s.Preferences.RiskTolerance == "" {
		s.Preferences.RiskTolerance = defaultRiskTolerance
	}
	if s.Preferences.DarkStart == "" {
		s.Preferences.DarkStart = domain.DarkStartAuto
	}
	if s.Preferences.PhotoperiodHours <= 0 {
		s.Preferences.PhotoperiodHours = defaultPhotoperiodHours
	}

	if s.Tank.GrossVolumeL <= 0 && (s.Tank.NetVolumeL == nil || *s.Tank.NetVolumeL <= 0) {
		warn("missing_tank_volume", "tank volume is missing; all dose volumes compute as zero until it is set")
	}
	if s.Tank.NetVolumeMethod == calc.NetVolumeMethodExplicit && (s.Tank.NetVolumeL == nil || *s.Tank.NetVolumeL <= 0) {
		warn("missing_net_volume", "net volume method is explicit but no net volume was given; estimating from gross volume")
		s.Tank.NetVolumeMethod = ""
	}
	if s.Tank.EstimatedNetMultiplier <= 0 || s.Tank.EstimatedNetMultiplier > 1 {
		s.Tank.EstimatedNetMultiplier = constOr(pkg.Calculators[domain.CalcVolume].Defaults, "estimated_net_multiplier", defaultNetMultiplier)
	}

	if s.Water.Disinfectant == "" {
		s.Water.Disinfectant = defaultDisinfectant
	}
	if s.Water.TapGH == nil {
		warn("missing_tap_gh", "tap GH not measured; GH dosing uses the target range as the full delta")
	}
	if s.Water.TapKH == nil {
		warn("missing_tap_kh", "tap KH unknown; test KH before dosing any buffer")
	}
	if s.Water.WeeklyChangePercent.IsZero() {
		s.Water.WeeklyChangePercent = domain.Range{
			Low:  constOr(pkg.Calculators[domain.CalcDosing].Defaults, "weekly_change_percent_low", defaultChangePctLow),
			High: constOr(pkg.Calculators[domain.CalcDosing].Defaults, "weekly_change_percent_high", defaultChangePctHigh),
		}
	}

	if s.Biology.PlantDemand == "" {
		s.Biology.PlantDemand = defaultPlantDemand
	}

	if cleaned, dropped := cleanIDs(s.Products.SelectedProductIDs); dropped > 0 {
		warn("invalid_product_selection", fmt.Sprintf("%d selected product entries were empty and ignored", dropped))
		s.Products.SelectedProductIDs = cleaned
	}

	return s, notes
}

func cleanIDs(ids []string) ([]string, int) {
	dropped := 0
	out := ids
	for i, id := range ids {
		if id == "" {
			out = make([]string, 0, len(ids))
			out = append(out, ids[:i]...)
			dropped = 1
			for _, rest := range ids[i+1:] {
				if rest == "" {
					dropped++
					continue
				}
				out = append(out, rest)
			}
			return out, dropped
		}
	}
	return out, 0
}
