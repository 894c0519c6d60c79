package plan

import (
	"github.com/aquaplan/aquaplan/internal/calc"
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/roles"
)

// defaultTargets apply when the caller supplies no target ranges. They
// cover a general community planted tank.
var defaultTargets = domain.Targets{
	TemperatureC: domain.Range{Low: 22, High: 26},
	PH:           domain.Range{Low: 6.5, High: 7.5},
	GH:           domain.Range{Low: 6, High: 8},
	KH:           domain.Range{Low: 3, High: 5},
	Nitrate:      domain.Range{Low: 10, High: 25},
	AmmoniaMax:   0.25,
	NitriteMax:   0.25,
}

// fertilizerFactors scale the label dose by plant demand.
var fertilizerFactors = map[string]float64{
	"low":    0.5,
	"medium": 1,
	"high":   1.5,
}

// deriveQuantities computes the numeric plan sections: net volume,
// water-change range, resolved targets, and the dosing reference. Doses
// that cannot be computed from this setup stay nil; the only warning
// emitted here is the ammonia calibration mismatch.
func deriveQuantities(s domain.Setup, req Request, sel domain.Selection, resolved roles.Resolved) (domain.DerivedQuantities, domain.GlobalReference, []domain.Note) {
	net := calc.NetVolume(s.Tank)
	derived := domain.DerivedQuantities{
		NetVolumeL:          net,
		WeeklyChangeVolumeL: calc.WeeklyChangeVolumeRange(net, s.Water.WeeklyChangePercent),
		PhotoperiodHours:    s.Preferences.PhotoperiodHours,
	}

	targets := resolveTargets(req.Targets)
	dosing, notes := dosingReference(s, req, sel, resolved, net, targets)

	return derived, domain.GlobalReference{Targets: targets, Dosing: dosing}, notes
}

// resolveTargets maps the app-level target ranges into the plan's target
// shape, filling unset fields from the defaults.
func resolveTargets(ut *domain.UserTargets) domain.Targets {
	t := defaultTargets
	if ut == nil {
		return t
	}
	if !ut.TemperatureC.IsZero() {
		t.TemperatureC = ut.TemperatureC
	}
	if !ut.PH.IsZero() {
		t.PH = ut.PH
	}
	if !ut.GH.IsZero() {
		t.GH = ut.GH
	}
	if !ut.KH.IsZero() {
		t.KH = ut.KH
	}
	if !ut.Nitrate.IsZero() {
		t.Nitrate = ut.Nitrate
	}
	if ut.AmmoniaMax > 0 {
		t.AmmoniaMax = ut.AmmoniaMax
	}
	if ut.NitriteMax > 0 {
		t.NitriteMax = ut.NitriteMax
	}
	return t
}

func dosingReference(s domain.Setup, req Request, sel domain.Selection, resolved roles.Resolved, net float64, targets domain.Targets) (domain.DosingReference, []domain.Note) {
	consts := req.Package.Calculators[domain.CalcDosing].Constants
	var notes []domain.Note
	out := domain.DosingReference{}

	tapGH := 0.0
	if s.Water.TapGH != nil {
		tapGH = *s.Water.TapGH
	}
	gh := calc.GHDoseRange(tapGH, targets.GH, net, constOr(consts, "gh_g_per_degree_per_l", 0.018))
	out.GHDoseGrams = &gh

	if s.Water.TapKH != nil {
		kh := calc.KHDose(*s.Water.TapKH, targets.KH.Low, net, constOr(consts, "kh_g_per_degree_per_10l", 0.3))
		out.KHDoseGrams = &kh
	}

	if sel.EffectiveCyclingMode == domain.ModeFishlessAmmonia {
		cal := calibration(req.Package)
		target := ammoniaTargetPPM(req.Package)
		percent := solutionPercent(s, cal)
		out.AmmoniaTargetPPM = target
		out.SolutionPercentRef = cal.ReferencePercent
		out.AmmoniaDoseML = calc.AmmoniaDoseML(net, target, percent, cal)
		if out.AmmoniaDoseML == nil {
			notes = append(notes, domain.Note{
				Type:    domain.NoteWarning,
				Code:    "ammonia_calibration_mismatch",
				Message: "ammonia solution strength differs from the supported dosing reference; dose manually and verify with a test kit",
			})
		}
	}

	if fert := resolved.Product(domain.RoleFertilizer); fert != nil && fert.Dose != nil &&
		fert.Dose.Kind == "per_volume" && fert.Dose.PerVolumeL > 0 {
		factor := fertilizerFactors[s.Biology.PlantDemand]
		if factor == 0 {
			factor = 1
		}
		label := calc.FertilizerLabel{MLPer250LPerWeek: fert.Dose.Amount * 250 / fert.Dose.PerVolumeL}
		ml := calc.FertilizerDoseMLPerWeek(net, factor, label)
		out.FertilizerMLPerWk = &ml
	}

	return out, notes
}

// solutionPercent finds the strength of the declared ammonia solution,
// defaulting to the calibration reference when none is declared.
func solutionPercent(s domain.Setup, cal calc.AmmoniaCalibration) float64 {
	for _, cp := range s.Products.Custom {
		if cp.Enabled && cp.Role == domain.RoleAmmoniaSource && cp.SolutionPercent > 0 {
			return cp.SolutionPercent
		}
	}
	return cal.ReferencePercent
}
