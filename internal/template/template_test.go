package template

import (
	"math"
	"testing"

	"github.com/aquaplan/aquaplan/internal/domain"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     string
	}{
		{51.0, 2, "51"},
		{51.5, 0, "52"}, // half-up
		{10.250, 2, "10.25"},
		{10.255, 2, "10.26"},
		{0.30000000000000004, 2, "0.3"},
		{7, 1, "7"},
		{math.NaN(), 2, "N/A"},
		{math.Inf(1), 2, "N/A"},
		{math.Inf(-1), 2, "N/A"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.v, tc.decimals); got != tc.want {
			t.Errorf("FormatNumber(%v, %d) = %q, want %q", tc.v, tc.decimals, got, tc.want)
		}
	}
}

func TestFormatRange(t *testing.T) {
	if got := FormatRange(domain.Range{Low: 10, High: 15}, 1); got != "10-15" {
		t.Errorf("FormatRange = %q, want 10-15", got)
	}
	if got := FormatRange(domain.Range{Low: 6.5, High: 6.5}, 1); got != "6.5" {
		t.Errorf("degenerate range = %q, want 6.5", got)
	}
}

func TestFormatOptional(t *testing.T) {
	if got := FormatOptional(nil, 1); got != "N/A" {
		t.Errorf("FormatOptional(nil) = %q", got)
	}
	v := 2.5
	if got := FormatOptional(&v, 1); got != "2.5" {
		t.Errorf("FormatOptional(2.5) = %q", got)
	}
}

func TestRenderBraces(t *testing.T) {
	repl := map[string]string{
		"gh_product":   "ReMineral GH+",
		"gh_dose_g":    "4.2",
		"water_change": "10-15",
	}
	got := RenderBraces("Dose {gh_dose_g} g of {gh_product} after a {water_change} L change.", repl)
	want := "Dose 4.2 g of ReMineral GH+ after a 10-15 L change."
	if got != want {
		t.Errorf("RenderBraces = %q, want %q", got, want)
	}
}

func TestRenderBraces_UnresolvedStaysLiteral(t *testing.T) {
	got := RenderBraces("Use {unknown_key} here.", map[string]string{})
	if got != "Use {unknown_key} here." {
		t.Errorf("unresolved placeholder mangled: %q", got)
	}
}

func TestRenderDotted(t *testing.T) {
	ctx := map[string]any{
		"derived": map[string]any{
			"net_volume_l": 51.0,
		},
		"roles": map[string]any{
			"gh_remineralizer": map[string]any{"name": "ReMineral GH+"},
		},
		"co2": map[string]any{"enabled": true},
	}

	got := RenderDotted("Fill to {{derived.net_volume_l}} L, dose {{roles.gh_remineralizer.name}}, co2={{co2.enabled}}.", ctx)
	want := "Fill to 51 L, dose ReMineral GH+, co2=true."
	if got != want {
		t.Errorf("RenderDotted = %q, want %q", got, want)
	}
}

func TestRenderDotted_MissingStaysLiteral(t *testing.T) {
	got := RenderDotted("value: {{a.b.c}}", map[string]any{"a": map[string]any{}})
	if got != "value: {{a.b.c}}" {
		t.Errorf("missing path mangled: %q", got)
	}

	// An explicit nil also renders back as the token.
	got = RenderDotted("value: {{a.b}}", map[string]any{"a": map[string]any{"b": nil}})
	if got != "value: {{a.b}}" {
		t.Errorf("nil value mangled: %q", got)
	}
}

func TestRenderDotted_WhitespaceTolerant(t *testing.T) {
	ctx := map[string]any{"x": "y"}
	if got := RenderDotted("{{ x }}", ctx); got != "y" {
		t.Errorf("RenderDotted with padding = %q, want y", got)
	}
}
