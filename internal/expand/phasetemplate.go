package expand

import (
	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/expr"
	"github.com/aquaplan/aquaplan/internal/template"
)

// TemplateExpander is the second strategy: a template pack matched per
// phase by (phase_id, sequence_number), falling back to a phase_id-only
// match. Atoms are condition-filtered and rendered with {{dotted.path}}
// placeholders against the template context.
type TemplateExpander struct {
	Templates []domain.PhaseTemplate
}

// Name identifies the strategy in plan metadata.
func (e *TemplateExpander) Name() string { return "phase_template" }

// Expand renders each phase from its best-matching template.
func (e *TemplateExpander) Expand(phases []domain.Phase, ctx Context) ([]domain.Phase, bool) {
	if len(e.Templates) == 0 {
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

func (e *TemplateExpander) expandPhase(p domain.Phase, ctx Context) domain.Phase {
	p = emptyExpansion(p)

	tpl, ok := e.lookup(p.PhaseID, p.SequenceNumber)
	if !ok {
		return p
	}

	for _, atom := range tpl.Instructions {
		if !expr.EvalClauses(atom.Condition, ctx.TemplateCtx) {
			continue
		}
		text := template.RenderDotted(atom.Template, ctx.TemplateCtx)
		p.Instructions = append(p.Instructions, domain.Instruction{Text: text})
	}
	for _, atom := range tpl.Tasks {
		if !expr.EvalClauses(atom.Condition, ctx.TemplateCtx) {
			continue
		}
		text := template.RenderDotted(atom.Template, ctx.TemplateCtx)
		p.Tasks = append(p.Tasks, finishTask(p.PhaseID, text, atom.Cadence, atom.EveryDays))
	}
	for _, atom := range tpl.ExpectedBehavior {
		if !expr.EvalClauses(atom.Condition, ctx.TemplateCtx) {
			continue
		}
		p.ExpectedBehavior = append(p.ExpectedBehavior, template.RenderDotted(atom.Template, ctx.TemplateCtx))
	}
	p.ExitChecks = append(p.ExitChecks, tpl.ExitChecks...)
	return p
}

// lookup prefers an exact (phase_id, sequence_number) match and falls back
// to the first template matching the phase_id alone.
func (e *TemplateExpander) lookup(phaseID string, seq int) (domain.PhaseTemplate, bool) {
	var fallback *domain.PhaseTemplate
	for i := range e.Templates {
		tpl := &e.Templates[i]
		if tpl.PhaseID != phaseID {
			continue
		}
		if tpl.SequenceNumber != nil {
			if *tpl.SequenceNumber == seq {
				return *tpl, true
			}
			continue
		}
		if fallback == nil {
			fallback = tpl
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return domain.PhaseTemplate{}, false
}
