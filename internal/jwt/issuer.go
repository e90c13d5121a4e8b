// Package jwt emite y valida access tokens firmados con Ed25519 (EdDSA).
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Issuer firma access tokens con la clave activa.
type Issuer struct {
	Iss       string // "iss"
	Keys      *KeySet
	AccessTTL time.Duration // TTL del access token (ej: 15m)
}

func NewIssuer(iss string, ks *KeySet, accessTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &Issuer{Iss: iss, Keys: ks, AccessTTL: accessTTL}
}

// Claims son las claims relevantes de un access token validado.
type Claims struct {
	Subject string
	Email   string
	Roles   []string
	Expires time.Time
}

// IssueAccess emite un access token para el usuario con sus roles.
func (i *Issuer) IssueAccess(sub, email string, roles []string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":   i.Iss,
		"sub":   sub,
		"email": email,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Keys.Priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Errores de validación.
var (
	ErrInvalidToken  = errors.New("invalid_jwt")
	ErrInvalidIssuer = errors.New("invalid_issuer")
)

// Parse valida firma EdDSA, issuer y exp/nbf con una pequeña tolerancia.
func (i *Issuer) Parse(token string) (*Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != "" && kid != i.Keys.KID {
			return nil, errors.New("kid_unknown")
		}
		return i.Keys.Pub, nil
	}

	tok, err := jwtv5.Parse(token, keyfunc, jwtv5.WithValidMethods([]string{"EdDSA"}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if i.Iss != "" {
		if iss, _ := mc["iss"].(string); iss != i.Iss {
			return nil, ErrInvalidIssuer
		}
	}

	now := time.Now()
	out := &Claims{}
	if expf, ok := mc["exp"].(float64); ok {
		out.Expires = time.Unix(int64(expf), 0)
		if out.Expires.Before(now.Add(-30 * time.Second)) {
			return nil, ErrInvalidToken
		}
	}
	if nbff, ok := mc["nbf"].(float64); ok {
		if time.Unix(int64(nbff), 0).After(now.Add(30 * time.Second)) {
			return nil, ErrInvalidToken
		}
	}

	out.Subject, _ = mc["sub"].(string)
	out.Email, _ = mc["email"].(string)
	if raw, ok := mc["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				out.Roles = append(out.Roles, s)
			}
		}
	}
	return out, nil
}
