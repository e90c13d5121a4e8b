package jwt

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse_RoundTrip(t *testing.T) {
	ks, err := LoadOrGenerate("")
	if err != nil {
		t.Fatalf("LoadOrGenerate err: %v", err)
	}
	iss := NewIssuer("https://id.example.com", ks, 15*time.Minute)

	tok, exp, err := iss.IssueAccess("user-1", "user@example.com", []string{"admin", "editor"})
	if err != nil {
		t.Fatalf("IssueAccess err: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry should be in the future")
	}

	cl, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if cl.Subject != "user-1" || cl.Email != "user@example.com" {
		t.Fatalf("claims mismatch: %+v", cl)
	}
	if len(cl.Roles) != 2 || cl.Roles[0] != "admin" {
		t.Fatalf("roles mismatch: %v", cl.Roles)
	}
}

func TestParse_RejectsForeignIssuer(t *testing.T) {
	ks, _ := LoadOrGenerate("")
	other := NewIssuer("https://other.example.com", ks, time.Minute)
	tok, _, err := other.IssueAccess("user-1", "a@b.c", nil)
	if err != nil {
		t.Fatal(err)
	}

	mine := NewIssuer("https://id.example.com", ks, time.Minute)
	if _, err := mine.Parse(tok); !errors.Is(err, ErrInvalidIssuer) {
		t.Fatalf("expected ErrInvalidIssuer, got %v", err)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	ks, _ := LoadOrGenerate("")
	iss := NewIssuer("x", ks, time.Minute)
	if _, err := iss.Parse("not.a.jwt"); err == nil {
		t.Fatalf("garbage token should not parse")
	}
}

func TestJWKSJSON_ContainsKID(t *testing.T) {
	ks, _ := LoadOrGenerate("")
	jwks := ks.JWKSJSON()
	if len(jwks) == 0 {
		t.Fatalf("empty jwks")
	}
	if ks.KID == "" {
		t.Fatalf("empty kid")
	}
	if !bytes.Contains(jwks, []byte(ks.KID)) {
		t.Fatalf("jwks should contain the kid")
	}
}
