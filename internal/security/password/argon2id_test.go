package password

import (
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(Default, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$") {
		t.Fatalf("unexpected PHC prefix: %q", phc)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Fatalf("Verify should accept the original password")
	}
	if Verify("wrong password", phc) {
		t.Fatalf("Verify should reject a wrong password")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	a, _ := Hash(Default, "same input")
	b, _ := Hash(Default, "same input")
	if a == b {
		t.Fatalf("two hashes of the same password should differ (random salt)")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	for _, phc := range []string{
		"",
		"$argon2id$",
		"not a phc string",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
	} {
		if Verify("whatever", phc) {
			t.Fatalf("malformed PHC %q should not verify", phc)
		}
	}
}
