package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

// ─── EmailTokenRepository ───

type emailTokenRepo struct{ pool *pgxpool.Pool }

func (r *emailTokenRepo) Create(ctx context.Context, input repository.CreateEmailTokenInput) (*repository.EmailToken, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Un solo token vivo por usuario/propósito: emitir uno nuevo invalida
	// los anteriores.
	const invalidate = `
		UPDATE email_token SET used_at = NOW()
		WHERE user_id = $1 AND purpose = $2 AND used_at IS NULL
	`
	if _, err := tx.Exec(ctx, invalidate, input.UserID, string(input.Purpose)); err != nil {
		return nil, fmt.Errorf("pg: invalidate prior tokens: %w", err)
	}

	now := time.Now().UTC()
	token := &repository.EmailToken{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Email:     input.Email,
		Purpose:   input.Purpose,
		TokenHash: input.TokenHash,
		ExpiresAt: now.Add(input.TTL),
		CreatedAt: now,
	}

	const insert = `
		INSERT INTO email_token (id, user_id, email, purpose, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, insert,
		token.ID, token.UserID, token.Email, string(token.Purpose),
		token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("pg: insert email token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pg: commit tx: %w", err)
	}
	return token, nil
}

func (r *emailTokenRepo) Consume(ctx context.Context, purpose repository.EmailTokenPurpose, userID, tokenHash string) error {
	// UPDATE condicional: valida y marca como usado en una sola operación,
	// un token nunca se consume dos veces.
	const consume = `
		UPDATE email_token SET used_at = NOW()
		WHERE user_id = $1 AND purpose = $2 AND token_hash = $3
		  AND used_at IS NULL AND expires_at > NOW()
	`
	tag, err := r.pool.Exec(ctx, consume, userID, string(purpose), tokenHash)
	if err != nil {
		return fmt.Errorf("pg: consume email token: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguir token inexistente de token vencido/ya usado.
	const exists = `
		SELECT 1 FROM email_token
		WHERE user_id = $1 AND purpose = $2 AND token_hash = $3
		LIMIT 1
	`
	var one int
	err = r.pool.QueryRow(ctx, exists, userID, string(purpose), tokenHash).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("pg: check email token: %w", err)
	}
	return repository.ErrTokenExpired
}

func (r *emailTokenRepo) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM email_token WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("pg: delete expired tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
