package calc

import (
	"math"
	"testing"

	"github.com/aquaplan/aquaplan/internal/domain"
)

func TestNetVolume_Explicit(t *testing.T) {
	net := 50.0
	tank := domain.TankProfile{
		GrossVolumeL:           60,
		NetVolumeL:             &net,
		NetVolumeMethod:        "explicit",
		EstimatedNetMultiplier: 0.85,
	}
	if got := NetVolume(tank); got != 50 {
		t.Errorf("NetVolume = %v, want 50", got)
	}
}

func TestNetVolume_EstimateMultiplier(t *testing.T) {
	tank := domain.TankProfile{
		GrossVolumeL:           60,
		NetVolumeMethod:        "estimate_multiplier",
		EstimatedNetMultiplier: 0.85,
	}
	got := NetVolume(tank)
	if math.Abs(got-51) > 1e-9 {
		t.Errorf("NetVolume = %v, want 51", got)
	}
}

func TestNetVolume_ExplicitMethodWithoutValueFallsBack(t *testing.T) {
	tank := domain.TankProfile{
		GrossVolumeL:           60,
		NetVolumeMethod:        "explicit",
		EstimatedNetMultiplier: 0.85,
	}
	got := NetVolume(tank)
	if math.Abs(got-51) > 1e-9 {
		t.Errorf("NetVolume = %v, want multiplier fallback 51", got)
	}
}

func TestWeeklyChangeVolumeRange(t *testing.T) {
	got := WeeklyChangeVolumeRange(50, domain.Range{Low: 20, High: 30})
	if got.Low != 10 || got.High != 15 {
		t.Errorf("WeeklyChangeVolumeRange = %+v, want [10, 15]", got)
	}

	// Scalar percent behaves as the degenerate range.
	got = WeeklyChangeVolumeRange(50, domain.Range{Low: 25, High: 25})
	if got.Low != 12.5 || got.High != 12.5 {
		t.Errorf("degenerate range = %+v, want [12.5, 12.5]", got)
	}
}

func TestGHDoseRange_NeverNegative(t *testing.T) {
	// Tap harder than both targets: zero dose both ends.
	got := GHDoseRange(12, domain.Range{Low: 6, High: 8}, 50, 0.1)
	if got.Low != 0 || got.High != 0 {
		t.Errorf("GHDoseRange = %+v, want [0, 0]", got)
	}

	// Tap between targets: low end clamps, high end doses.
	got = GHDoseRange(7, domain.Range{Low: 6, High: 8}, 50, 0.1)
	if got.Low != 0 {
		t.Errorf("GHDoseRange.Low = %v, want 0", got.Low)
	}
	if math.Abs(got.High-5) > 1e-9 {
		t.Errorf("GHDoseRange.High = %v, want 5", got.High)
	}
}

func TestKHDose(t *testing.T) {
	got := KHDose(2, 4, 50, 0.6)
	want := 2.0 * 5 * 0.6
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("KHDose = %v, want %v", got, want)
	}

	if got := KHDose(6, 4, 50, 0.6); got != 0 {
		t.Errorf("KHDose above target = %v, want 0", got)
	}
}

func TestAmmoniaDoseML_LinearInVolume(t *testing.T) {
	cal := AmmoniaCalibration{
		ReferencePercent:   10,
		ReferenceDoseML:    2.5,
		ReferenceVolumeL:   50,
		ReferenceResultPPM: 2,
	}

	d1 := AmmoniaDoseML(50, 2, 10, cal)
	d2 := AmmoniaDoseML(100, 2, 10, cal)
	if d1 == nil || d2 == nil {
		t.Fatal("expected doses at the calibration percent")
	}
	if math.Abs(*d2-2**d1) > 1e-9 {
		t.Errorf("dose at 2x volume = %v, want 2x %v", *d2, *d1)
	}
}

func TestAmmoniaDoseML_CalibrationMismatchReturnsNil(t *testing.T) {
	cal := AmmoniaCalibration{
		ReferencePercent:   10,
		ReferenceDoseML:    2.5,
		ReferenceVolumeL:   50,
		ReferenceResultPPM: 2,
	}
	if got := AmmoniaDoseML(50, 2, 9.5, cal); got != nil {
		t.Errorf("mismatched percent: dose = %v, want nil", *got)
	}
	if got := AmmoniaDoseML(50, 2, 0, cal); got != nil {
		t.Errorf("zero percent: dose = %v, want nil", *got)
	}
}

func TestFertilizerDoseMLPerWeek(t *testing.T) {
	label := FertilizerLabel{MLPer250LPerWeek: 25}
	got := FertilizerDoseMLPerWeek(50, 1.0, label)
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("FertilizerDoseMLPerWeek = %v, want 5", got)
	}

	got = FertilizerDoseMLPerWeek(50, 0.5, label)
	if math.Abs(got-2.5) > 1e-9 {
		t.Errorf("half dose factor = %v, want 2.5", got)
	}
}

func TestChemistryHelpers(t *testing.T) {
	if got := BicarbonateKHStrength(0.714); math.Abs(got-2) > 1e-9 {
		t.Errorf("BicarbonateKHStrength = %v, want 2", got)
	}
	if got := PureAmmoniaDeltaPPM(10); got != 200 {
		t.Errorf("PureAmmoniaDeltaPPM(10) = %v, want 200", got)
	}
	if got := PureAmmoniaDeltaPPM(5); got != 100 {
		t.Errorf("PureAmmoniaDeltaPPM(5) = %v, want 100", got)
	}
}
