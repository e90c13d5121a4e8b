package repository

import (
	"context"
	"time"
)

// EmailToken representa un token temporal enviado por email.
type EmailToken struct {
	ID        string
	UserID    string
	Email     string
	Purpose   EmailTokenPurpose
	TokenHash string // sha256 del token opaco, nunca el token en claro
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// EmailTokenPurpose indica el propósito del token.
type EmailTokenPurpose string

const (
	EmailTokenConfirm       EmailTokenPurpose = "email_confirm"
	EmailTokenPasswordReset EmailTokenPurpose = "password_reset"
)

// CreateEmailTokenInput contiene los datos para crear un token de email.
type CreateEmailTokenInput struct {
	UserID    string
	Email     string
	Purpose   EmailTokenPurpose
	TokenHash string
	TTL       time.Duration
}

// EmailTokenRepository define operaciones sobre tokens de email temporales.
type EmailTokenRepository interface {
	// Create crea un token nuevo. Tokens vivos previos del mismo
	// usuario/propósito quedan invalidados.
	Create(ctx context.Context, input CreateEmailTokenInput) (*EmailToken, error)

	// Consume valida y marca como usado un token en una sola operación.
	// El token debe coincidir en hash, propósito y usuario, no estar usado
	// y no haber expirado. Retorna ErrNotFound si no coincide ninguna fila
	// y ErrTokenExpired si existe pero ya no es válido.
	Consume(ctx context.Context, purpose EmailTokenPurpose, userID, tokenHash string) error

	// DeleteExpired elimina tokens vencidos (cleanup). Retorna cuántos borró.
	DeleteExpired(ctx context.Context) (int, error)
}
