package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

// ─── UserRepository ───

type userRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, email, COALESCE(name, ''), password_hash, email_verified,
	COALESCE(totp_secret_enc, ''), totp_confirmed_at, totp_last_used_at,
	failed_logins, lockout_until, created_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.EmailVerified,
		&u.TOTPSecretEnc, &u.TOTPConfirmedAt, &u.TOTPLastUsedAt,
		&u.FailedLogins, &u.LockoutUntil, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: scan user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user WHERE email = lower($1) LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query, strings.TrimSpace(email)))
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, userID))
}

func (r *userRepo) List(ctx context.Context) ([]repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user ORDER BY email`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pg: list users: %w", err)
	}
	defer rows.Close()

	var users []repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	u := &repository.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	const query = `
		INSERT INTO app_user (id, email, name, password_hash, email_verified, failed_logins, created_at)
		VALUES ($1, $2, $3, $4, false, 0, $5)
	`
	_, err := r.pool.Exec(ctx, query, u.ID, u.Email, nullIfEmpty(u.Name), u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("pg: insert user: %w", err)
	}
	return u, nil
}

func (r *userRepo) Delete(ctx context.Context, userID string) error {
	// user_role, email_token y session caen por FK ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("pg: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	return r.exec(ctx, `UPDATE app_user SET email_verified = $2 WHERE id = $1`, userID, verified)
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return r.exec(ctx, `UPDATE app_user SET password_hash = $2 WHERE id = $1`, userID, newHash)
}

func (r *userRepo) RecordLoginFailure(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (bool, error) {
	// Una sola sentencia: incrementa y, al llegar al umbral, bloquea y
	// resetea el contador.
	const query = `
		UPDATE app_user SET
			failed_logins = CASE WHEN failed_logins + 1 >= $2 THEN 0 ELSE failed_logins + 1 END,
			lockout_until = CASE WHEN failed_logins + 1 >= $2 THEN NOW() + $3::interval ELSE lockout_until END
		WHERE id = $1
		RETURNING failed_logins = 0 AND lockout_until IS NOT NULL AND lockout_until > NOW()
	`
	interval := fmt.Sprintf("%d seconds", int(lockFor.Seconds()))
	var locked bool
	err := r.pool.QueryRow(ctx, query, userID, maxAttempts, interval).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, repository.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("pg: record login failure: %w", err)
	}
	return locked, nil
}

func (r *userRepo) ResetLoginFailures(ctx context.Context, userID string) error {
	return r.exec(ctx, `UPDATE app_user SET failed_logins = 0 WHERE id = $1`, userID)
}

func (r *userRepo) SetLockout(ctx context.Context, userID string, until *time.Time) error {
	return r.exec(ctx, `UPDATE app_user SET lockout_until = $2, failed_logins = 0 WHERE id = $1`, userID, until)
}

func (r *userRepo) SetTOTPSecret(ctx context.Context, userID, secretEnc string) error {
	const query = `
		UPDATE app_user SET totp_secret_enc = $2, totp_confirmed_at = NULL, totp_last_used_at = NULL
		WHERE id = $1
	`
	return r.exec(ctx, query, userID, secretEnc)
}

func (r *userRepo) ConfirmTOTP(ctx context.Context, userID string) error {
	const query = `
		UPDATE app_user SET totp_confirmed_at = NOW()
		WHERE id = $1 AND totp_secret_enc IS NOT NULL AND totp_secret_enc <> ''
	`
	return r.exec(ctx, query, userID)
}

func (r *userRepo) ClearTOTP(ctx context.Context, userID string) error {
	const query = `
		UPDATE app_user SET totp_secret_enc = NULL, totp_confirmed_at = NULL, totp_last_used_at = NULL
		WHERE id = $1
	`
	return r.exec(ctx, query, userID)
}

func (r *userRepo) UpdateTOTPUsedAt(ctx context.Context, userID string, t time.Time) error {
	return r.exec(ctx, `UPDATE app_user SET totp_last_used_at = $2 WHERE id = $1`, userID, t)
}

// exec ejecuta un UPDATE que debe afectar exactamente una fila.
func (r *userRepo) exec(ctx context.Context, query string, userID string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, append([]any{userID}, args...)...)
	if err != nil {
		return fmt.Errorf("pg: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// nullIfEmpty retorna nil si el string está vacío.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
