package password

import (
	"testing"
)

func TestPolicy_Validate(t *testing.T) {
	p := Policy{MinLength: 10, RequireUpper: true, RequireLower: true, RequireDigit: true, RequireSymbol: true}

	if ok, _ := p.Validate("Str0ng-Enough!"); !ok {
		t.Fatalf("compliant password should pass")
	}

	ok, reasons := p.Validate("short")
	if ok {
		t.Fatalf("weak password should fail")
	}
	want := map[string]bool{"too_short": true, "missing_upper": true, "missing_digit": true, "missing_symbol": true}
	for _, r := range reasons {
		if !want[r] {
			t.Fatalf("unexpected reason %q", r)
		}
		delete(want, r)
	}
	if len(want) != 0 {
		t.Fatalf("missing reasons: %v", want)
	}
}

func TestPolicy_MinLengthCountsRunes(t *testing.T) {
	p := Policy{MinLength: 4}
	if ok, _ := p.Validate("ññññ"); !ok {
		t.Fatalf("rune length should satisfy min length")
	}
}
