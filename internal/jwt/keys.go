package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeySet mantiene una sola clave Ed25519 activa.
type KeySet struct {
	Priv ed25519.PrivateKey
	Pub  ed25519.PublicKey
	KID  string
	Alg  string // "EdDSA"
}

// newFromSeed construye el KeySet desde los 32 bytes de seed.
func newFromSeed(seed []byte) (*KeySet, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("jwt: seed debe tener %d bytes, tiene %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	sum := sha256.Sum256(pub)
	return &KeySet{
		Priv: priv,
		Pub:  pub,
		KID:  base64.RawURLEncoding.EncodeToString(sum[:8]),
		Alg:  "EdDSA",
	}, nil
}

// LoadOrGenerate carga la seed Ed25519 (base64) desde path, o la genera y
// persiste si el archivo no existe. Con path vacío genera una clave efímera.
func LoadOrGenerate(path string) (*KeySet, error) {
	if strings.TrimSpace(path) == "" {
		seed := make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return nil, err
		}
		return newFromSeed(seed)
	}

	if b, err := os.ReadFile(filepath.Clean(path)); err == nil {
		seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(b)))
		if err != nil {
			return nil, fmt.Errorf("jwt: decode seed %s: %w", path, err)
		}
		return newFromSeed(seed)
	}

	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("jwt: mkdir for seed: %w", err)
	}
	if err := os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(seed)), 0o600); err != nil {
		return nil, fmt.Errorf("jwt: persist seed: %w", err)
	}
	return newFromSeed(seed)
}

// ----- JWKS (serialización) -----

type jwk struct {
	Kty string `json:"kty"` // "OKP"
	Crv string `json:"crv"` // "Ed25519"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "EdDSA"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`   // base64url(pub)
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSJSON devuelve el JWKS (solo la pública) en JSON.
func (k *KeySet) JWKSJSON() []byte {
	j := jwks{
		Keys: []jwk{{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: k.KID,
			Alg: k.Alg,
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(k.Pub),
		}},
	}
	b, _ := json.Marshal(j)
	return b
}
