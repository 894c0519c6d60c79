// Package expand turns phase skeletons into fully rendered phases. Three
// data-driven strategies plus a static fallback pack share one interface
// and are tried in priority order; the first strategy that produces any
// atoms wins. The strategies are an evolutionary trail in the rule data
// (ruleset, then template pack, then playlist) and stay independently
// usable on purpose.
package expand

import (
	"fmt"
	"hash/fnv"

	"github.com/aquaplan/aquaplan/internal/domain"
)

// Context is everything a strategy may consult while expanding.
type Context struct {
	// RulesCtx is the flat context for structured when-clause matching.
	RulesCtx map[string]any
	// TemplateCtx is the nested context for {{dotted.path}} rendering and
	// clause-expression atom conditions.
	TemplateCtx map[string]any
	// Replacements is the flat {key} map for brace rendering.
	Replacements map[string]string
	// ResolvedRoles is the set of product roles that resolved, used by
	// requires_roles checks.
	ResolvedRoles map[domain.Role]bool
	// Mode selects the fallback pack.
	Mode domain.CyclingMode
}

// Expander expands phase skeletons into phases with atoms attached.
// The boolean result reports whether the strategy produced any atoms.
type Expander interface {
	Name() string
	Expand(phases []domain.Phase, ctx Context) ([]domain.Phase, bool)
}

// Run tries each expander in order and returns the first non-empty
// expansion. If every strategy comes up empty the skeletons are returned
// with empty atom lists so downstream code sees a uniform shape.
func Run(phases []domain.Phase, ctx Context, expanders []Expander) ([]domain.Phase, string) {
	for _, e := range expanders {
		if expanded, ok := e.Expand(phases, ctx); ok {
			return expanded, e.Name()
		}
	}
	out := make([]domain.Phase, len(phases))
	for i, p := range phases {
		out[i] = emptyExpansion(p)
	}
	return out, ""
}

func emptyExpansion(p domain.Phase) domain.Phase {
	p.Instructions = []domain.Instruction{}
	p.Tasks = []domain.TaskAtom{}
	p.ExpectedBehavior = []string{}
	return p
}

func anyAtoms(phases []domain.Phase) bool {
	for _, p := range phases {
		if len(p.Instructions) > 0 || len(p.Tasks) > 0 || len(p.ExpectedBehavior) > 0 {
			return true
		}
	}
	return false
}

// taskID derives a stable task identifier from the phase, cadence, and
// rendered text, keeping plan output deterministic across runs.
func taskID(phaseID string, cadence domain.Cadence, text string) string {
	h := fnv.New32a()
	h.Write([]byte(text))
	return fmt.Sprintf("task_%s_%s_%08x", phaseID, cadence, h.Sum32())
}

// finishTask fills the anchoring fields of a rendered task atom. One-time
// tasks anchor to the phase itself; recurring tasks start at the phase.
func finishTask(phaseID, text string, cadence domain.Cadence, everyDays int) domain.TaskAtom {
	atom := domain.TaskAtom{
		TaskID:    taskID(phaseID, cadence, text),
		Text:      text,
		Cadence:   cadence,
		EveryDays: everyDays,
	}
	if cadence == domain.CadenceOneTime {
		atom.PhaseID = phaseID
	} else {
		atom.StartPhaseID = phaseID
	}
	return atom
}
