package repository

import (
	"context"
	"time"
)

// User representa un usuario del sistema.
type User struct {
	ID            string
	Email         string // siempre lowercase
	Name          string
	PasswordHash  string // PHC argon2id, nunca se expone
	EmailVerified bool

	// Two-factor. TOTPSecretEnc guarda el secreto cifrado (AES-GCM).
	// TOTPConfirmedAt == nil significa que el segundo factor no está activo,
	// aunque exista un secreto pendiente de verificación.
	TOTPSecretEnc   string
	TOTPConfirmedAt *time.Time
	TOTPLastUsedAt  *time.Time

	// Lockout. LockoutUntil == nil o en el pasado significa desbloqueado.
	FailedLogins int
	LockoutUntil *time.Time

	CreatedAt time.Time
}

// LockedOut reporta si el usuario está bloqueado en el instante dado.
func (u *User) LockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}

// TwoFactorEnabled reporta si el segundo factor está activo.
func (u *User) TwoFactorEnabled() bool {
	return u.TOTPConfirmedAt != nil && u.TOTPSecretEnc != ""
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Email        string
	Name         string
	PasswordHash string
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// GetByEmail busca un usuario por email (case-insensitive).
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID busca un usuario por ID.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, userID string) (*User, error)

	// List retorna todos los usuarios ordenados por email.
	List(ctx context.Context) ([]User, error)

	// Create crea un nuevo usuario. Retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// Delete elimina un usuario; las asignaciones de roles se eliminan en
	// cascada. Retorna ErrNotFound si no existe.
	Delete(ctx context.Context, userID string) error

	// SetEmailVerified marca el email como verificado.
	SetEmailVerified(ctx context.Context, userID string, verified bool) error

	// UpdatePasswordHash reemplaza el hash del password.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// RecordLoginFailure incrementa el contador de fallos y, si alcanza
	// maxAttempts, fija LockoutUntil = now+lockFor y resetea el contador.
	// Retorna true si el usuario quedó bloqueado por esta llamada.
	RecordLoginFailure(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (bool, error)

	// ResetLoginFailures pone el contador de fallos en cero.
	ResetLoginFailures(ctx context.Context, userID string) error

	// SetLockout fija (o limpia, con nil) LockoutUntil.
	SetLockout(ctx context.Context, userID string, until *time.Time) error

	// SetTOTPSecret guarda un secreto TOTP cifrado sin confirmar.
	// Limpia cualquier confirmación previa.
	SetTOTPSecret(ctx context.Context, userID, secretEnc string) error

	// ConfirmTOTP marca el secreto actual como confirmado (2FA activo).
	ConfirmTOTP(ctx context.Context, userID string) error

	// ClearTOTP elimina secreto y confirmación (2FA inactivo).
	ClearTOTP(ctx context.Context, userID string) error

	// UpdateTOTPUsedAt registra el último uso del secreto (anti-replay).
	UpdateTOTPUsedAt(ctx context.Context, userID string, t time.Time) error
}
