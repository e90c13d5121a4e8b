package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usersByMail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r.s.users[id]), nil
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) List(ctx context.Context) ([]repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]repository.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, *cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, exists := r.s.usersByMail[email]; exists {
		return nil, repository.ErrConflict
	}

	u := &repository.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.s.users[u.ID] = u
	r.s.usersByMail[email] = u.ID
	return cloneUser(u), nil
}

func (r *userRepo) Delete(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, userID)
	delete(r.s.usersByMail, u.Email)
	delete(r.s.userRoles, userID)
	for id, tok := range r.s.emailTokens {
		if tok.UserID == userID {
			delete(r.s.emailTokens, id)
		}
	}
	for hash, sess := range r.s.sessions {
		if sess.UserID == userID {
			delete(r.s.sessions, hash)
		}
	}
	return nil
}

func (r *userRepo) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	return r.update(userID, func(u *repository.User) {
		u.EmailVerified = verified
	})
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return r.update(userID, func(u *repository.User) {
		u.PasswordHash = newHash
	})
}

func (r *userRepo) RecordLoginFailure(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (bool, error) {
	locked := false
	err := r.update(userID, func(u *repository.User) {
		u.FailedLogins++
		if u.FailedLogins >= maxAttempts {
			until := time.Now().UTC().Add(lockFor)
			u.LockoutUntil = &until
			u.FailedLogins = 0
			locked = true
		}
	})
	return locked, err
}

func (r *userRepo) ResetLoginFailures(ctx context.Context, userID string) error {
	return r.update(userID, func(u *repository.User) {
		u.FailedLogins = 0
	})
}

func (r *userRepo) SetLockout(ctx context.Context, userID string, until *time.Time) error {
	return r.update(userID, func(u *repository.User) {
		u.LockoutUntil = until
		u.FailedLogins = 0
	})
}

func (r *userRepo) SetTOTPSecret(ctx context.Context, userID, secretEnc string) error {
	return r.update(userID, func(u *repository.User) {
		u.TOTPSecretEnc = secretEnc
		u.TOTPConfirmedAt = nil
		u.TOTPLastUsedAt = nil
	})
}

func (r *userRepo) ConfirmTOTP(ctx context.Context, userID string) error {
	return r.update(userID, func(u *repository.User) {
		if u.TOTPSecretEnc != "" {
			now := time.Now().UTC()
			u.TOTPConfirmedAt = &now
		}
	})
}

func (r *userRepo) ClearTOTP(ctx context.Context, userID string) error {
	return r.update(userID, func(u *repository.User) {
		u.TOTPSecretEnc = ""
		u.TOTPConfirmedAt = nil
		u.TOTPLastUsedAt = nil
	})
}

func (r *userRepo) UpdateTOTPUsedAt(ctx context.Context, userID string, t time.Time) error {
	return r.update(userID, func(u *repository.User) {
		tt := t
		u.TOTPLastUsedAt = &tt
	})
}

func (r *userRepo) update(userID string, fn func(*repository.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}
