package secretbox

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(seed byte) string {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	box, err := New(testKey(1))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	msg := "hola mundo, secreto"
	ct, err := box.Encrypt(msg)
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	pt, err := box.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt err: %v", err)
	}
	if pt != msg {
		t.Fatalf("plaintext mismatch: got %q want %q", pt, msg)
	}
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	box, err := New(testKey(100))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	ct, err := box.Encrypt("top secret")
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	parts := strings.Split(ct, "|")
	if len(parts) != 2 {
		t.Fatalf("unexpected ciphertext format")
	}
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatal(err)
	}
	bs[0] ^= 0xff
	tampered := parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)
	if _, err := box.Decrypt(tampered); err == nil {
		t.Fatalf("tampered ciphertext should not decrypt")
	}
}

func TestNew_RejectsBadKey(t *testing.T) {
	if _, err := New("dG9vLXNob3J0"); err == nil {
		t.Fatalf("short key should be rejected")
	}
	if _, err := New("not base64!!"); err == nil {
		t.Fatalf("invalid base64 should be rejected")
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	a, _ := New(testKey(1))
	b, _ := New(testKey(2))
	ct, err := a.Encrypt("secreto")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Decrypt(ct); err == nil {
		t.Fatalf("decrypt with a different key should fail")
	}
}
