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

// ─── SessionRepository ───

type sessionRepo struct{ pool *pgxpool.Pool }

func (r *sessionRepo) Create(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	now := time.Now().UTC()
	sess := &repository.Session{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		TokenHash: input.TokenHash,
		ExpiresAt: now.Add(input.TTL),
		CreatedAt: now,
	}

	const query = `
		INSERT INTO session (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, sess.ID, sess.UserID, sess.TokenHash, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("pg: insert session: %w", err)
	}
	return sess, nil
}

func (r *sessionRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.Session, error) {
	const query = `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM session
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`
	var sess repository.Session
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&sess.ID, &sess.UserID, &sess.TokenHash, &sess.ExpiresAt, &sess.RevokedAt, &sess.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get session: %w", err)
	}
	return &sess, nil
}

func (r *sessionRepo) Revoke(ctx context.Context, tokenHash string) error {
	const query = `UPDATE session SET revoked_at = NOW() WHERE token_hash = $1 AND revoked_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("pg: revoke session: %w", err)
	}
	return nil
}

func (r *sessionRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	const query = `UPDATE session SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("pg: revoke sessions: %w", err)
	}
	return nil
}
