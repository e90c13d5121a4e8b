package totp

import (
	"testing"
	"time"
)

func TestVerify_AcceptsCurrentCode(t *testing.T) {
	raw, b32, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret err: %v", err)
	}
	if dec, err := DecodeSecret(b32); err != nil || string(dec) != string(raw) {
		t.Fatalf("DecodeSecret roundtrip failed: %v", err)
	}

	now := time.Unix(1700000000, 0)
	code := GenerateCode(raw, now)
	ok, counter := Verify(raw, code, now, 1, nil)
	if !ok {
		t.Fatalf("expected current code to verify")
	}
	if counter != now.Unix()/30 {
		t.Fatalf("counter mismatch: got %d want %d", counter, now.Unix()/30)
	}
}

func TestVerify_WindowTolerance(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Unix(1700000000, 0)

	// código del step anterior entra con ventana 1, no con ventana 0
	prev := GenerateCode(raw, now.Add(-30*time.Second))
	if ok, _ := Verify(raw, prev, now, 1, nil); !ok {
		t.Fatalf("previous-step code should verify with window 1")
	}
	if ok, _ := Verify(raw, prev, now, 0, nil); ok {
		t.Fatalf("previous-step code should not verify with window 0")
	}
}

func TestVerify_RejectsReplay(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Unix(1700000000, 0)
	code := GenerateCode(raw, now)

	ok, counter := Verify(raw, code, now, 1, nil)
	if !ok {
		t.Fatalf("first use should verify")
	}
	// segundo uso del mismo código con el contador ya quemado
	if ok, _ := Verify(raw, code, now, 1, &counter); ok {
		t.Fatalf("replayed code should be rejected")
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Now()
	for _, code := range []string{"", "12345", "1234567", "abcdef"} {
		if ok, _ := Verify(raw, code, now, 1, nil); ok {
			t.Fatalf("code %q should not verify", code)
		}
	}
}
