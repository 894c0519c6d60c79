// Package expr evaluates the two condition languages used by the plan
// engine: flat clause expressions ("risk_score_1_to_5 >= 4 AND ...") and
// structured when-clause trees. Both evaluators are total and fail closed:
// anything malformed evaluates to false instead of returning an error.
package expr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aquaplan/aquaplan/internal/paths"
)

var (
	andSplit = regexp.MustCompile(`\s+AND\s+`)
	clauseRe = regexp.MustCompile(`^\s*([A-Za-z0-9_.]+)\s*(==|!=|>=|<=|>|<)\s*(.+?)\s*$`)
)

// EvalClauses evaluates a clause expression against a context map.
// Clauses are joined by literal AND; each clause is "key <op> value" with
// op in {==, !=, >=, <=, >, <}. String literals are single-quoted,
// everything else is numeric. An empty expression is vacuously true; any
// parse mismatch makes the whole expression false.
func EvalClauses(expression string, ctx map[string]any) bool {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true
	}
	for _, clause := range andSplit.Split(expression, -1) {
		if !evalClause(clause, ctx) {
			return false
		}
	}
	return true
}

func evalClause(clause string, ctx map[string]any) bool {
	m := clauseRe.FindStringSubmatch(clause)
	if m == nil {
		return false
	}
	key, op, lit := m[1], m[2], m[3]

	got, ok := paths.Resolve(ctx, key)
	if !ok {
		return false
	}

	// Single-quoted literal: string comparison, equality ops only.
	if strings.HasPrefix(lit, "'") && strings.HasSuffix(lit, "'") && len(lit) >= 2 {
		want := lit[1 : len(lit)-1]
		s, isStr := got.(string)
		if !isStr {
			return false
		}
		switch op {
		case "==":
			return s == want
		case "!=":
			return s != want
		default:
			return false
		}
	}

	want, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return false
	}
	gf, numeric := toFloat(got)
	if !numeric {
		return false
	}
	switch op {
	case "==":
		return gf == want
	case "!=":
		return gf != want
	case ">=":
		return gf >= want
	case "<=":
		return gf <= want
	case ">":
		return gf > want
	case "<":
		return gf < want
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
