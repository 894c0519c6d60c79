package expand

import (
	"sort"

	"github.com/aquaplan/aquaplan/internal/domain"
	"github.com/aquaplan/aquaplan/internal/expr"
	"github.com/aquaplan/aquaplan/internal/template"
)

// RulesetExpander is the highest-priority strategy: a declarative ruleset
// contributes atoms to every phase whose skeleton and rules match the
// rules context.
type RulesetExpander struct {
	Ruleset *domain.Ruleset
}

// Name identifies the strategy in plan metadata.
func (e *RulesetExpander) Name() string { return "ruleset" }

// Expand populates each phase from the matching ruleset rules. A phase is
// considered only if the ruleset declares a skeleton for it whose when
// clause matches. Matching rules contribute objective IDs (unioned),
// expected-behavior lines, and rendered, de-duplicated instruction and
// task atoms.
func (e *RulesetExpander) Expand(phases []domain.Phase, ctx Context) ([]domain.Phase, bool) {
	if e.Ruleset == nil || (len(e.Ruleset.Phases) == 0 && len(e.Ruleset.Rules) == 0) {
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

func (e *RulesetExpander) expandPhase(p domain.Phase, ctx Context) domain.Phase {
	p = emptyExpansion(p)

	skel, declared := e.skeletonFor(p.PhaseID)
	if !declared || !expr.EvalWhen(skel.When, ctx.RulesCtx) {
		return p
	}

	objectives := map[string]bool{}
	seenInstr := map[string]bool{}
	seenTask := map[string]bool{}

	for _, rule := range e.Ruleset.Rules {
		if !ruleTargetsPhase(rule, p.PhaseID) {
			continue
		}
		if !expr.EvalWhen(rule.When, ctx.RulesCtx) {
			continue
		}
		if !rolesSatisfied(rule.RequiresRoles, ctx.ResolvedRoles) {
			continue
		}

		for _, id := range rule.ObjectiveIDs {
			objectives[id] = true
		}
		p.ExpectedBehavior = append(p.ExpectedBehavior, rule.ExpectedBehavior...)

		for _, atom := range rule.Instructions {
			if !expr.EvalClauses(atom.Condition, ctx.TemplateCtx) {
				continue
			}
			text := template.RenderBraces(atom.Template, ctx.Replacements)
			if seenInstr[text] {
				continue
			}
			seenInstr[text] = true
			p.Instructions = append(p.Instructions, domain.Instruction{Text: text})
		}

		for _, atom := range rule.Tasks {
			if !expr.EvalClauses(atom.Condition, ctx.TemplateCtx) {
				continue
			}
			text := template.RenderBraces(atom.Template, ctx.Replacements)
			key := string(atom.Cadence) + ":" + text
			if seenTask[key] {
				continue
			}
			seenTask[key] = true
			p.Tasks = append(p.Tasks, finishTask(p.PhaseID, text, atom.Cadence, atom.EveryDays))
		}
	}

	p.ObjectiveIDs = sortedKeys(objectives)
	return p
}

func (e *RulesetExpander) skeletonFor(phaseID string) (domain.PhaseSkeleton, bool) {
	for _, s := range e.Ruleset.Phases {
		if s.PhaseID == phaseID {
			return s, true
		}
	}
	return domain.PhaseSkeleton{}, false
}

func ruleTargetsPhase(rule domain.RulesetRule, phaseID string) bool {
	if len(rule.PhaseIDs) == 0 {
		return true
	}
	for _, id := range rule.PhaseIDs {
		if id == phaseID {
			return true
		}
	}
	return false
}

func rolesSatisfied(required []domain.Role, resolved map[domain.Role]bool) bool {
	for _, role := range required {
		if !resolved[role] {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
