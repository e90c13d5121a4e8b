package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

type emailTokenRepo struct{ s *Store }

func (r *emailTokenRepo) Create(ctx context.Context, input repository.CreateEmailTokenInput) (*repository.EmailToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()

	// Invalidar tokens vivos previos del mismo usuario/propósito.
	for _, tok := range r.s.emailTokens {
		if tok.UserID == input.UserID && tok.Purpose == input.Purpose && tok.UsedAt == nil {
			used := now
			tok.UsedAt = &used
		}
	}

	token := &repository.EmailToken{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Email:     input.Email,
		Purpose:   input.Purpose,
		TokenHash: input.TokenHash,
		ExpiresAt: now.Add(input.TTL),
		CreatedAt: now,
	}
	r.s.emailTokens[token.ID] = token

	cp := *token
	return &cp, nil
}

func (r *emailTokenRepo) Consume(ctx context.Context, purpose repository.EmailTokenPurpose, userID, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	found := false
	for _, tok := range r.s.emailTokens {
		if tok.UserID != userID || tok.Purpose != purpose || tok.TokenHash != tokenHash {
			continue
		}
		found = true
		if tok.UsedAt == nil && tok.ExpiresAt.After(now) {
			tok.UsedAt = &now
			return nil
		}
	}
	if found {
		return repository.ErrTokenExpired
	}
	return repository.ErrNotFound
}

func (r *emailTokenRepo) DeleteExpired(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	deleted := 0
	for id, tok := range r.s.emailTokens {
		if tok.ExpiresAt.Before(now) {
			delete(r.s.emailTokens, id)
			deleted++
		}
	}
	return deleted, nil
}
