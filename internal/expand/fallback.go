package expand

import (
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/template"
)

// FallbackPackKey selects which static pack applies: fish-in has its own,
// every other mode shares the default.
func FallbackPackKey(mode domain.CyclingMode) string {
	if mode == domain.ModeFishIn {
		return "fish_in"
	}
	return "default"
}

// FallbackExpander is the last-resort strategy: a static template pack
// keyed by cycling mode, rendered with flat {key} brace substitution.
type FallbackExpander struct {
	Packs map[string]domain.FallbackPack
}

// Name identifies the strategy in plan metadata.
func (e *FallbackExpander) Name() string { return "fallback_pack" }

// Expand renders the static pack entries for each phase.
func (e *FallbackExpander) Expand(phases []domain.Phase, ctx Context) ([]domain.Phase, bool) {
	pack, ok := e.Packs[FallbackPackKey(ctx.Mode)]
	if !ok {
		return nil, false
	}
	out := make([]domain.Phase, len(phases))
	for i, p := range phases {
		out[i] = expandFromPack(p, pack, ctx)
	}
	if !anyAtoms(out) {
		return nil, false
	}
	return out, true
}

func expandFromPack(p domain.Phase, pack domain.FallbackPack, ctx Context) domain.Phase {
	p = emptyExpansion(p)

	atoms, ok := pack.Phases[p.PhaseID]
	if !ok {
		return p
	}
	for _, tmpl := range atoms.Instructions {
		p.Instructions = append(p.Instructions, domain.Instruction{
			Text: template.RenderBraces(tmpl, ctx.Replacements),
		})
	}
	for _, task := range atoms.Tasks {
		text := template.RenderBraces(task.Text, ctx.Replacements)
		p.Tasks = append(p.Tasks, finishTask(p.PhaseID, text, task.Cadence, task.EveryDays))
	}
	for _, tmpl := range atoms.ExpectedBehavior {
		p.ExpectedBehavior = append(p.ExpectedBehavior, template.RenderBraces(tmpl, ctx.Replacements))
	}
	return p
}
