package template

import (
	"regexp"
	"strconv"

	"github.com/aquaplan/aquaplan/internal/paths"
)

var (
	braceRe  = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)
	dottedRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)
)

// RenderBraces substitutes {key} placeholders from a flat replacement map.
// Unresolved keys stay as the literal {key} token so a catalog/template
// mismatch is visible in the output rather than silently blanked.
func RenderBraces(tmpl string, replacements map[string]string) string {
	return braceRe.ReplaceAllStringFunc(tmpl, func(token string) string {
		key := token[1 : len(token)-1]
		if v, ok := replacements[key]; ok {
			return v
		}
		return token
	})
}

// RenderDotted substitutes {{a.b.c}} placeholders by path traversal over a
// nested context. Missing or nil values render back as the original token.
func RenderDotted(tmpl string, ctx map[string]any) string {
	return dottedRe.ReplaceAllStringFunc(tmpl, func(token string) string {
		m := dottedRe.FindStringSubmatch(token)
		if m == nil {
			return token
		}
		v, ok := paths.Resolve(ctx, m[1])
		if !ok || v == nil {
			return token
		}
		return displayString(v)
	})
}

// displayString coerces a resolved context value for insertion into text.
func displayString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return FormatNumber(t, 2)
	case float32:
		return FormatNumber(float64(t), 2)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return NotAvailable
	}
}
