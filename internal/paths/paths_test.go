package paths

import "testing"

func TestResolve_Nested(t *testing.T) {
	ctx := map[string]any{
		"tank": map[string]any{
			"co2": map[string]any{
				"enabled": true,
			},
			"volume": 60.0,
		},
	}

	v, ok := Resolve(ctx, "tank.co2.enabled")
	if !ok {
		t.Fatal("Resolve: expected ok")
	}
	if v != true {
		t.Errorf("Resolve = %v, want true", v)
	}

	v, ok = Resolve(ctx, "tank.volume")
	if !ok || v != 60.0 {
		t.Errorf("Resolve = %v/%v, want 60/true", v, ok)
	}
}

func TestResolve_Missing(t *testing.T) {
	ctx := map[string]any{"a": map[string]any{"b": 1}}

	cases := []string{"a.b.c", "a.x", "x", "", "a.b.c.d.e"}
	for _, path := range cases {
		if _, ok := Resolve(ctx, path); ok {
			t.Errorf("Resolve(%q): expected miss", path)
		}
	}
}

func TestResolve_NilContext(t *testing.T) {
	if _, ok := Resolve(nil, "a.b"); ok {
		t.Error("Resolve(nil): expected miss")
	}
}

func TestResolve_IntermediateScalar(t *testing.T) {
	ctx := map[string]any{"a": "leaf"}
	if _, ok := Resolve(ctx, "a.b"); ok {
		t.Error("Resolve through scalar: expected miss")
	}
}

func TestEqual_NumericCrossType(t *testing.T) {
	if !Equal(5, 5.0) {
		t.Error("Equal(5, 5.0) = false, want true")
	}
	if !Equal(int64(3), 3) {
		t.Error("Equal(int64(3), 3) = false, want true")
	}
	if Equal(5, 6.0) {
		t.Error("Equal(5, 6.0) = true, want false")
	}
}

func TestEqual_Strings(t *testing.T) {
	if !Equal("inert", "inert") {
		t.Error("Equal on same strings = false")
	}
	if Equal("inert", "soil") {
		t.Error("Equal across strings = true")
	}
	if Equal("5", 5.0) {
		t.Error("Equal(string, number) = true, want false")
	}
}
