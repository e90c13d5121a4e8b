package repository

import (
	"context"
	"time"
)

// Session representa una sesión iniciada (el token opaco vive sólo en el
// cliente; acá se persiste su hash).
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// CreateSessionInput contiene los datos para crear una sesión.
type CreateSessionInput struct {
	UserID    string
	TokenHash string
	TTL       time.Duration
}

// SessionRepository define operaciones sobre sesiones persistidas.
type SessionRepository interface {
	// Create persiste una sesión nueva.
	Create(ctx context.Context, input CreateSessionInput) (*Session, error)

	// GetByHash busca una sesión viva (no revocada, no expirada).
	// Retorna ErrNotFound si no existe o ya no es válida.
	GetByHash(ctx context.Context, tokenHash string) (*Session, error)

	// Revoke marca la sesión como revocada. Idempotente: revocar una sesión
	// inexistente o ya revocada no es error.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAllForUser revoca todas las sesiones vivas del usuario.
	RevokeAllForUser(ctx context.Context, userID string) error
}
