package expand

import (
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/expr"
	"github.com/aquaplan/aquaplan/internal/template"
)

// PlaylistExpander is the third strategy: each phase names an explicit
// ordered list of atom IDs resolved against a shared atom library. The
// per-atom condition filter and dotted-path rendering match the template
// strategy; only the selection mechanism differs.
type PlaylistExpander struct {
	Playlist *domain.Playlist
}

// Name identifies the strategy in plan metadata.
func (e *PlaylistExpander) Name() string { return "playlist" }

// Expand resolves each phase's atom ID sequence in order. Unknown atom
// IDs are skipped rather than failing the whole expansion.
func (e *PlaylistExpander) Expand(phases []domain.Phase, ctx Context) ([]domain.Phase, bool) {
	if e.Playlist == nil || len(e.Playlist.Phases) == 0 {
		return nil, false
	}
	out := make([]domain.Phase, len(phases))
	for i, p := range phases {
		out[i] = e.expandPhase(p, ctx)
	}
	if !anyAtoms(out) {
		return nil, false
	}
	return out, true
}

func (e *PlaylistExpander) expandPhase(p domain.Phase, ctx Context) domain.Phase {
	p = emptyExpansion(p)

	for _, atomID := range e.Playlist.Phases[p.PhaseID] {
		atom, ok := e.Playlist.Atoms[atomID]
		if !ok {
			continue
		}
		if !expr.EvalClauses(atom.Condition, ctx.TemplateCtx) {
			continue
		}
		text := template.RenderDotted(atom.Template, ctx.TemplateCtx)
		switch atom.Kind {
		case "instruction":
			p.Instructions = append(p.Instructions, domain.Instruction{Text: text})
		case "task":
			p.Tasks = append(p.Tasks, finishTask(p.PhaseID, text, atom.Cadence, atom.EveryDays))
		case "expected":
			p.ExpectedBehavior = append(p.ExpectedBehavior, text)
		}
	}
	return p
}
