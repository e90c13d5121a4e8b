package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	sess := &repository.Session{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		TokenHash: input.TokenHash,
		ExpiresAt: now.Add(input.TTL),
		CreatedAt: now,
	}
	r.s.sessions[sess.TokenHash] = sess

	cp := *sess
	return &cp, nil
}

func (r *sessionRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[tokenHash]
	if !ok || sess.RevokedAt != nil || !sess.ExpiresAt.After(time.Now().UTC()) {
		return nil, repository.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *sessionRepo) Revoke(ctx context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if sess, ok := r.s.sessions[tokenHash]; ok && sess.RevokedAt == nil {
		now := time.Now().UTC()
		sess.RevokedAt = &now
	}
	return nil
}

func (r *sessionRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.RevokedAt == nil {
			sess.RevokedAt = &now
		}
	}
	return nil
}
