// Package calc holds the derived-quantity calculators. Every function is
// pure and keeps full precision; rounding happens only at display time in
// the template package.
package calc

import (
	"github.com/aquaplan/aquaplan/internal/domain"
)

// Chemistry constants for synthetic custom-product entries.
const (
	// BicarbonateMeqDivisor converts milli-equivalents per liter into the
	// KH buffer strength unit (dKH per gram per 10 L).
	BicarbonateMeqDivisor = 0.357
	// PureAmmoniaPPMPerMLPerL is the ppm contribution of 1 mL of a 10%
	// ammonia solution per liter of tank water.
	PureAmmoniaPPMPerMLPerL = 200
)

// NetVolumeMethodExplicit selects the user-entered net volume.
const NetVolumeMethodExplicit = "explicit"

// NetVolume returns the effective water volume of a tank. The explicit
// field wins when the method asks for it and a usable value is present;
// otherwise the gross volume is scaled by the estimated net multiplier.
func NetVolume(tank domain.TankProfile) float64 {
	if tank.NetVolumeMethod == NetVolumeMethodExplicit && tank.NetVolumeL != nil && *tank.NetVolumeL > 0 {
		return *tank.NetVolumeL
	}
	mult := tank.EstimatedNetMultiplier
	if mult <= 0 || mult > 1 {
		mult = 1
	}
	return tank.GrossVolumeL * mult
}

// WeeklyChangeVolumeRange scales a net volume by a [low, high] percent
// range, element-wise. A scalar percent arrives as a degenerate range.
func WeeklyChangeVolumeRange(netVolumeL float64, percent domain.Range) domain.Range {
	return domain.Range{
		Low:  netVolumeL * percent.Low / 100,
		High: netVolumeL * percent.High / 100,
	}
}

// GHDoseRange computes the remineralizer dose in grams for each end of the
// GH target range. Deltas clamp at zero, so a tap harder than the target
// yields a zero dose, never a negative one.
func GHDoseRange(tapGH float64, target domain.Range, volumeL, constant float64) domain.Range {
	return domain.Range{
		Low:  clampedDelta(target.Low, tapGH) * volumeL * constant,
		High: clampedDelta(target.High, tapGH) * volumeL * constant,
	}
}

// KHDose computes the buffer dose in grams for a single KH target.
func KHDose(tapKH, targetKH, volumeL, constant float64) float64 {
	return clampedDelta(targetKH, tapKH) * (volumeL / 10) * constant
}

// AmmoniaCalibration is the single supported dosing reference point.
type AmmoniaCalibration struct {
	ReferencePercent   float64 `json:"reference_percent"`
	ReferenceDoseML    float64 `json:"reference_dose_ml"`
	ReferenceVolumeL   float64 `json:"reference_volume_l"`
	ReferenceResultPPM float64 `json:"reference_result_ppm"`
}

// AmmoniaDoseML linearly scales the calibration dose to the given volume
// and target ppm. It returns nil when the solution percent differs from
// the calibration reference: scaling across concentrations is unsupported
// and must surface as "not computable", never as a silently wrong number.
func AmmoniaDoseML(netVolumeL, targetPPM, solutionPercent float64, cal AmmoniaCalibration) *float64 {
	if solutionPercent != cal.ReferencePercent {
		return nil
	}
	if cal.ReferenceVolumeL <= 0 || cal.ReferenceResultPPM <= 0 {
		return nil
	}
	dose := cal.ReferenceDoseML * (netVolumeL / cal.ReferenceVolumeL) * (targetPPM / cal.ReferenceResultPPM)
	return &dose
}

// FertilizerLabel is the dosing instruction printed on a fertilizer bottle.
type FertilizerLabel struct {
	MLPer250LPerWeek float64 `json:"ml_per_250l_per_week"`
}

// FertilizerDoseMLPerWeek scales the label dose to the tank volume and the
// plant-demand dose factor.
func FertilizerDoseMLPerWeek(netVolumeL, doseFactor float64, label FertilizerLabel) float64 {
	return label.MLPer250LPerWeek * (netVolumeL / 250) * doseFactor
}

// BicarbonateKHStrength derives a KH buffer strength from a bicarbonate
// product's milli-equivalents per liter.
func BicarbonateKHStrength(meqPerL float64) float64 {
	return meqPerL / BicarbonateMeqDivisor
}

// PureAmmoniaDeltaPPM derives the per-mL-per-L ppm delta of a pure ammonia
// solution from its concentration percent.
func PureAmmoniaDeltaPPM(solutionPercent float64) float64 {
	return PureAmmoniaPPMPerMLPerL * solutionPercent / 10
}

func clampedDelta(target, current float64) float64 {
	d := target - current
	if d < 0 {
		return 0
	}
	return d
}
