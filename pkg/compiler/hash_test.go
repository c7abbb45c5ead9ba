package compiler

import (
	"strings"
	"testing"
)

func TestStableHash_Deterministic(t *testing.T) {
	inputs := []string{
		"",
		"billing-agent:[\"org:42\"]",
		"unknown:[]",
		"a|b|c:[]",
		"düsseldorf:기호",
	}

	for _, in := range inputs {
		first := StableHash(in)
		for i := 0; i < 3; i++ {
			if got := StableHash(in); got != first {
				t.Errorf("StableHash(%q) not stable: %q then %q", in, first, got)
			}
		}
	}
}

func TestStableHash_OrderSensitive(t *testing.T) {
	if StableHash("ab") == StableHash("ba") {
		t.Error("hash should depend on code unit order")
	}
}

func TestStableHash_Base36NonNegative(t *testing.T) {
	// Long adversarial inputs drive the rolling accumulator negative
	// before normalization; the rendered form must stay base-36.
	for _, in := range []string{"x", strings.Repeat("z", 512), "￿￿￿"} {
		got := StableHash(in)
		if got == "" {
			t.Fatalf("StableHash(%q) returned empty string", in)
		}
		if strings.HasPrefix(got, "-") {
			t.Errorf("StableHash(%q) = %q, want non-negative", in, got)
		}
		for _, r := range got {
			if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", r) {
				t.Errorf("StableHash(%q) = %q contains non-base36 rune %q", in, got, r)
			}
		}
	}
}
