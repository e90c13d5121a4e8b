// Package secretbox cifra secretos en reposo con AES-256-GCM.
// Formato de salida: base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM      = 12  // AES-GCM nonce recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

// Box cifra y descifra con una clave maestra fija.
type Box struct {
	aead cipher.AEAD
}

// New crea un Box desde la clave maestra en base64 (32 bytes decodificados).
// Genere una clave con: openssl rand -base64 32
func New(masterKeyB64 string) (*Box, error) {
	kb64 := strings.TrimSpace(masterKeyB64)
	if kb64 == "" {
		return nil, fmt.Errorf("secretbox: master key vacía; genere una con: openssl rand -base64 32")
	}
	key, err := base64.StdEncoding.DecodeString(kb64)
	if err != nil {
		// Acepta también base64 sin padding.
		key, err = base64.RawStdEncoding.DecodeString(kb64)
		if err != nil {
			return nil, fmt.Errorf("secretbox: decode master key: %w", err)
		}
	}
	if len(key) != requiredKeyLength {
		return nil, fmt.Errorf("secretbox: la clave debe decodificar a %d bytes, obtuvo %d", requiredKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretbox: cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Encrypt(plainText string) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce random: %w", err)
	}

	ct := b.aead.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt descifra un valor producido por Encrypt.
func (b *Box) Decrypt(cipherText string) (string, error) {
	nonceB64, ctB64, ok := strings.Cut(cipherText, sep)
	if !ok {
		return "", fmt.Errorf("secretbox: formato inválido")
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil || len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("secretbox: nonce inválido")
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", fmt.Errorf("secretbox: ciphertext inválido")
	}

	plain, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: open: %w", err)
	}
	return string(plain), nil
}
