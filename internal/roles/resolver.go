// Package roles maps the product catalog plus user-declared custom
// products onto the 8 fixed semantic roles the engine reasons about.
package roles

import (
	"fmt"
	"strings"

	"github.com/aquaplan/aquaplan/internal/calc"
	"github.com/aquaplan/aquaplan/internal/domain"
)

// requiredRoles must resolve for dosing guidance to be complete. A missing
// required role degrades the plan with a warning note; it never aborts.
var requiredRoles = []domain.Role{
	domain.RoleGHRemineralizer,
	domain.RoleKHBuffer,
}

// Resolved is the outcome of role resolution.
type Resolved struct {
	// Products maps each role to its resolved product, or nil.
	Products map[domain.Role]*domain.Product
	// Notes carries required-role warnings and trigger-only notices.
	Notes []domain.Note
}

// Product returns the resolved product for a role, or nil.
func (r Resolved) Product(role domain.Role) *domain.Product {
	return r.Products[role]
}

// Have reports whether a role resolved to a product.
func (r Resolved) Have(role domain.Role) bool {
	return r.Products[role] != nil
}

// RoleSet returns the set of resolved roles, for requires_roles checks.
func (r Resolved) RoleSet() map[domain.Role]bool {
	set := make(map[domain.Role]bool, len(r.Products))
	for role, p := range r.Products {
		if p != nil {
			set[role] = true
		}
	}
	return set
}

// Resolve assigns products to roles. When any custom product is enabled,
// synthetic entries built from the custom list take priority over the
// static catalog. For each role the first selected product of that
// category wins; selection order follows the effective catalog order.
func Resolve(catalog []domain.Product, custom []domain.CustomProduct, selectedIDs []string) Resolved {
	effective, selected := effectiveCatalog(catalog, custom, selectedIDs)

	out := Resolved{Products: make(map[domain.Role]*domain.Product, len(domain.AllRoles))}
	for _, role := range domain.AllRoles {
		out.Products[role] = firstSelected(effective, role, selected)
	}

	for _, role := range requiredRoles {
		if out.Products[role] == nil {
			out.Notes = append(out.Notes, domain.Note{
				Type:    domain.NoteWarning,
				Code:    "missing_role_" + string(role),
				Message: fmt.Sprintf("no product selected for required role %s; dosing guidance for it is omitted", role),
			})
		}
	}

	for _, role := range domain.AllRoles {
		p := out.Products[role]
		if p != nil && p.Constraints.RequiresTrigger {
			out.Notes = append(out.Notes, domain.Note{
				Type:    domain.NoteTriggerOnly,
				Code:    "trigger_only_" + string(role),
				Message: fmt.Sprintf("%s should be used only when a specific trigger occurs, not on a routine schedule", p.DisplayName),
			})
		}
	}
	return out
}

// effectiveCatalog merges custom products ahead of the static catalog and
// returns the selected-ID set. Enabled custom products are implicitly
// selected.
func effectiveCatalog(catalog []domain.Product, custom []domain.CustomProduct, selectedIDs []string) ([]domain.Product, map[string]bool) {
	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	var synthetic []domain.Product
	for _, cp := range custom {
		if !cp.Enabled {
			continue
		}
		entry := SyntheticEntry(cp)
		synthetic = append(synthetic, entry)
		selected[entry.ProductID] = true
	}
	if len(synthetic) == 0 {
		return catalog, selected
	}
	return append(synthetic, catalog...), selected
}

func firstSelected(catalog []domain.Product, role domain.Role, selected map[string]bool) *domain.Product {
	for i := range catalog {
		p := &catalog[i]
		if p.Category == role && selected[p.ProductID] {
			return p
		}
	}
	return nil
}

// SyntheticEntry converts a user-declared custom product into a catalog
// entry of the same shape. Bicarbonate KH buffers and pure-ammonia sources
// derive their effect strength from fixed chemistry formulas.
func SyntheticEntry(cp domain.CustomProduct) domain.Product {
	entry := domain.Product{
		ProductID:   "custom:" + slug(cp.Name),
		DisplayName: cp.Name,
		Category:    cp.Role,
		Dose:        cp.Dose,
	}
	switch {
	case cp.Role == domain.RoleKHBuffer && cp.Bicarbonate:
		entry.Effect = &domain.EffectModel{
			Type:     "kh_delta",
			Strength: calc.BicarbonateKHStrength(cp.MeqPerL),
			Units:    "dKH_per_g_per_10l",
		}
	case cp.Role == domain.RoleAmmoniaSource && cp.PureAmmonia:
		entry.Effect = &domain.EffectModel{
			Type:     "ammonia_ppm",
			Strength: calc.PureAmmoniaDeltaPPM(cp.SolutionPercent),
			Units:    "ppm_per_ml_per_l",
		}
	}
	return entry
}

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	return strings.Trim(s, "_")
}
