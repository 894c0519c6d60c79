package roles

import (
	"regexp"

	"github.com/aquaplan/aquaplan/internal/domain"
)

// triggerPatterns match the routine instructions a trigger-only product
// would otherwise generate. Matching is by keyword against rendered text,
// which is fragile to upstream wording changes; an explicit per-atom tag
// in the template data would be sturdier, but that changes the template
// format, so the keyword mechanism is kept as-is.
var triggerPatterns = map[domain.Role]*regexp.Regexp{
	domain.RoleAlgaecide:        regexp.MustCompile(`(?i)\balgaecide\b|\balgae\s+(treatment|dose|control)\b`),
	domain.RoleKHBuffer:         regexp.MustCompile(`(?i)\bkh\s+buffer\b|\bbuffer\s+dose\b|\braise\s+kh\b`),
	domain.RoleBacterialStarter: regexp.MustCompile(`(?i)\bbacterial?\s+starter\b|\bstarter\s+dose\b`),
	domain.RoleAmmoniaSource:    regexp.MustCompile(`(?i)\bdose\s+ammonia\b|\bammonia\s+dose\b`),
	domain.RoleDechlorinator:    regexp.MustCompile(`(?i)\bdechlorinat\w*\b|\bwater\s+conditioner\b`),
	domain.RoleFertilizer:       regexp.MustCompile(`(?i)\bfertiliz\w*\b`),
	domain.RoleRootTabs:         regexp.MustCompile(`(?i)\broot\s+tabs?\b`),
	domain.RoleGHRemineralizer:  regexp.MustCompile(`(?i)\bremineraliz\w*\b|\braise\s+gh\b`),
}

// SuppressTriggerInstructions drops rendered instructions that schedule a
// trigger-only product routinely. Only roles whose resolved product is
// flagged requires_trigger are considered.
func SuppressTriggerInstructions(instructions []domain.Instruction, resolved Resolved) []domain.Instruction {
	active := activeTriggerPatterns(resolved)
	if len(active) == 0 {
		return instructions
	}
	kept := instructions[:0:0]
	for _, ins := range instructions {
		if matchesAny(ins.Text, active) {
			continue
		}
		kept = append(kept, ins)
	}
	return kept
}

// SuppressTriggerTasks applies the same keyword suppression to task atoms.
func SuppressTriggerTasks(tasks []domain.TaskAtom, resolved Resolved) []domain.TaskAtom {
	active := activeTriggerPatterns(resolved)
	if len(active) == 0 {
		return tasks
	}
	kept := tasks[:0:0]
	for _, task := range tasks {
		if matchesAny(task.Text, active) {
			continue
		}
		kept = append(kept, task)
	}
	return kept
}

func activeTriggerPatterns(resolved Resolved) []*regexp.Regexp {
	var active []*regexp.Regexp
	for _, role := range domain.AllRoles {
		p := resolved.Products[role]
		if p == nil || !p.Constraints.RequiresTrigger {
			continue
		}
		if re, ok := triggerPatterns[role]; ok {
			active = append(active, re)
		}
	}
	return active
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
