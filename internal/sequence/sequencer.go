// Package sequence computes the ordered phase list for a protocol plan.
// The sequence is a pure function of the effective cycling mode and the
// effective dark-start flag; phase IDs and sequence numbers are globally
// unique by construction, and any collision is a bug in the tables below,
// not a user-input problem, so it aborts plan generation.
package sequence

import (
	"fmt"
	"sort"

	"github.com/aquaplan/aquaplan/internal/domain"
)

// Modifier tags attached to phases.
const (
	ModCO2Wait      = "co2:wait"
	ModCO2LowStart  = "co2:low_start"
	ModLightRamp    = "light:ramp"
	ModLightMinimal = "light:minimal"
	ModDarkStart    = "ctx:dark_start"
)

// Inputs are the resolved decisions the sequencer keys on.
type Inputs struct {
	Mode             domain.CyclingMode
	DarkStart        bool
	DarkStartForced  bool
	CO2Enabled       bool
	CO2StartIntent   string
	PhotoperiodHours float64
}

// CO2Wait says what, if anything, CO2 injection is gated behind.
type CO2Wait string

const (
	CO2WaitNone          CO2Wait = ""
	CO2WaitDarkStartExit CO2Wait = "dark_start_exit"
	CO2WaitCycleStable   CO2Wait = "cycle_stable"
)

// CO2Gate decides whether CO2 must wait, and for what. Never gated when
// CO2 is off. A dark start gates CO2 behind the dark-start exit except in
// fish-in mode. Otherwise the fishless and fish-in modes gate behind
// cycle stability, and plant-assisted gates only when CO2 is not meant to
// run from the start.
func CO2Gate(in Inputs) CO2Wait {
	if !in.CO2Enabled {
		return CO2WaitNone
	}
	if in.DarkStart && in.Mode != domain.ModeFishIn {
		return CO2WaitDarkStartExit
	}
	switch in.Mode {
	case domain.ModeFishlessAmmonia, domain.ModeFishIn:
		return CO2WaitCycleStable
	case domain.ModePlantAssisted:
		if in.CO2StartIntent == "from_start" {
			return CO2WaitNone
		}
		return CO2WaitCycleStable
	}
	return CO2WaitNone
}

// Build computes the phase skeletons for the given inputs, ordered by
// sequence number, with the trailing maintenance phase appended.
func Build(in Inputs) ([]domain.Phase, error) {
	var phases []domain.Phase
	switch in.Mode {
	case domain.ModeFishlessAmmonia:
		if in.DarkStart {
			phases = fishlessDarkStartPhases()
		} else {
			phases = fishlessPhases()
		}
	case domain.ModeFishIn:
		phases = fishInPhases(in)
	case domain.ModePlantAssisted:
		phases = plantAssistedPhases(in)
	default:
		return nil, domain.NewEngineError(
			domain.ErrUnknownCyclingMode.Code,
			fmt.Sprintf("cannot sequence phases for mode %q", in.Mode),
		)
	}

	phases = append(phases, domain.Phase{
		PhaseID:          "phase_routine_maintenance",
		PhaseName:        "Routine maintenance",
		SequenceNumber:   600,
		ModifiersApplied: []string{},
	})

	applyCO2Wait(phases, CO2Gate(in))

	sort.Slice(phases, func(i, j int) bool {
		return phases[i].SequenceNumber < phases[j].SequenceNumber
	})

	if err := Validate(phases); err != nil {
		return nil, err
	}
	return phases, nil
}

// Validate enforces the global phase_id / sequence_number uniqueness
// invariant. Violations are fatal construction errors.
func Validate(phases []domain.Phase) error {
	if len(phases) == 0 {
		return domain.ErrEmptyPhaseSequence
	}
	seenID := make(map[string]bool, len(phases))
	seenSeq := make(map[int]bool, len(phases))
	for _, p := range phases {
		if seenID[p.PhaseID] {
			return domain.NewEngineError(
				domain.ErrPhaseIDCollision.Code,
				fmt.Sprintf("phase_id %q appears more than once", p.PhaseID),
			)
		}
		if seenSeq[p.SequenceNumber] {
			return domain.NewEngineError(
				domain.ErrSequenceCollision.Code,
				fmt.Sprintf("sequence_number %d appears more than once", p.SequenceNumber),
			)
		}
		seenID[p.PhaseID] = true
		seenSeq[p.SequenceNumber] = true
	}
	return nil
}

func fishlessPhases() []domain.Phase {
	return []domain.Phase{
		skeleton("phase_setup", "Setup and fill", 100),
		skeleton("phase_ammonia_intro", "Ammonia introduction", 200),
		skeleton("phase_nitrite_dominance", "Nitrite dominance", 300),
		skeleton("phase_completion_test", "Cycle completion test", 400),
		skeleton("phase_transition", "Transition to stocking", 500),
	}
}

// fishlessDarkStartPhases interleaves the dark-start track with the
// ammonia track. The shifted sequence numbers keep chronological order:
// 101, 201, 210, 310, 410, 501.
func fishlessDarkStartPhases() []domain.Phase {
	return []domain.Phase{
		skeleton("phase_dark_start_setup", "Dark start setup", 101, ModDarkStart),
		skeleton("phase_dark_start_cycling", "Dark start cycling", 201, ModDarkStart),
		skeleton("phase_ammonia_intro", "Ammonia introduction", 210, ModDarkStart),
		skeleton("phase_nitrite_dominance", "Nitrite dominance", 310, ModDarkStart),
		skeleton("phase_completion_test", "Cycle completion test", 410, ModDarkStart),
		skeleton("phase_dark_start_exit", "Dark start exit", 501, ModDarkStart, ModLightRamp),
	}
}

func fishInPhases(in Inputs) []domain.Phase {
	first := skeleton("phase_fish_in_week_1", "Fish-in week 1", 100)
	if minimalLighting(in) {
		first = skeleton("phase_fish_in_week_1", "Fish-in week 1", 110, ModLightMinimal)
	}
	return []domain.Phase{
		first,
		skeleton("phase_fish_in_week_2_3", "Fish-in weeks 2-3", 200),
		skeleton("phase_fish_in_week_4_6", "Fish-in weeks 4-6", 300),
		skeleton("phase_fish_in_stabilize", "Stabilization", 400),
	}
}

// minimalLighting applies when a dark start was forced on a fish-in tank
// or the cycling photoperiod is already short.
func minimalLighting(in Inputs) bool {
	return in.DarkStartForced || (in.PhotoperiodHours > 0 && in.PhotoperiodHours < 6)
}

// plantAssistedPhases never use a dark start; the first phase reflects a
// cautious low CO2 start when injection is meant to run from day one.
func plantAssistedPhases(in Inputs) []domain.Phase {
	first := skeleton("phase_plant_setup", "Planted setup", 100)
	if in.CO2Enabled && in.CO2StartIntent == "from_start" {
		first = skeleton("phase_plant_setup", "Planted setup", 120, ModCO2LowStart)
	}
	return []domain.Phase{
		first,
		skeleton("phase_plant_establish", "Plant establishment", 200),
		skeleton("phase_plant_stock", "Gradual stocking", 300),
		skeleton("phase_plant_tune", "Balance and tune", 400),
	}
}

// applyCO2Wait tags every phase that precedes the gate-lifting phase.
func applyCO2Wait(phases []domain.Phase, wait CO2Wait) {
	if wait == CO2WaitNone {
		return
	}
	lift := liftSequence(phases, wait)
	for i := range phases {
		if phases[i].SequenceNumber < lift {
			phases[i].ModifiersApplied = append(phases[i].ModifiersApplied, ModCO2Wait)
		}
	}
}

// liftSequence finds the sequence number at which the CO2 gate opens.
func liftSequence(phases []domain.Phase, wait CO2Wait) int {
	if wait == CO2WaitDarkStartExit {
		for _, p := range phases {
			if p.PhaseID == "phase_dark_start_exit" {
				return p.SequenceNumber
			}
		}
	}
	// Cycle stability: the last pre-maintenance phase.
	lift := 0
	for _, p := range phases {
		if p.SequenceNumber < 600 && p.SequenceNumber > lift {
			lift = p.SequenceNumber
		}
	}
	return lift
}

func skeleton(id, name string, seq int, modifiers ...string) domain.Phase {
	if modifiers == nil {
		modifiers = []string{}
	}
	return domain.Phase{
		PhaseID:          id,
		PhaseName:        name,
		SequenceNumber:   seq,
		ModifiersApplied: modifiers,
	}
}
