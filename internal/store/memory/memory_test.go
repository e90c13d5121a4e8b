package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

func newUser(t *testing.T, st *Store, email string) *repository.User {
	t.Helper()
	u, err := st.Users().Create(context.Background(), repository.CreateUserInput{
		Email:        email,
		PasswordHash: "$argon2id$fake",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	st := New()

	u := newUser(t, st, "Ana@Example.COM")
	if u.Email != "ana@example.com" {
		t.Fatalf("email should be lowercased, got %q", u.Email)
	}

	got, err := st.Users().GetByEmail(ctx, "ANA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("lookup mismatch")
	}

	if _, err := st.Users().Create(ctx, repository.CreateUserInput{Email: "ana@example.com", PasswordHash: "x"}); !repository.IsConflict(err) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
	if _, err := st.Users().GetByEmail(ctx, "nadie@example.com"); !repository.IsNotFound(err) {
		t.Fatalf("missing user should be not found, got %v", err)
	}
}

func TestUsers_LoginFailureLockout(t *testing.T) {
	ctx := context.Background()
	st := New()
	u := newUser(t, st, "lock@example.com")

	for i := 0; i < 2; i++ {
		locked, err := st.Users().RecordLoginFailure(ctx, u.ID, 3, 5*time.Minute)
		if err != nil {
			t.Fatalf("RecordLoginFailure: %v", err)
		}
		if locked {
			t.Fatalf("attempt %d should not lock yet", i+1)
		}
	}
	locked, err := st.Users().RecordLoginFailure(ctx, u.ID, 3, 5*time.Minute)
	if err != nil {
		t.Fatalf("RecordLoginFailure: %v", err)
	}
	if !locked {
		t.Fatalf("third failure should lock")
	}

	got, _ := st.Users().GetByID(ctx, u.ID)
	if !got.LockedOut(time.Now().UTC()) {
		t.Fatalf("user should be locked out")
	}
	if got.FailedLogins != 0 {
		t.Fatalf("counter should reset on lock, got %d", got.FailedLogins)
	}

	// desbloqueo administrativo
	if err := st.Users().SetLockout(ctx, u.ID, nil); err != nil {
		t.Fatalf("SetLockout: %v", err)
	}
	got, _ = st.Users().GetByID(ctx, u.ID)
	if got.LockedOut(time.Now().UTC()) {
		t.Fatalf("user should be unlocked")
	}
}

func TestUsers_TOTPLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New()
	u := newUser(t, st, "totp@example.com")

	if err := st.Users().SetTOTPSecret(ctx, u.ID, "enc-secret"); err != nil {
		t.Fatal(err)
	}
	got, _ := st.Users().GetByID(ctx, u.ID)
	if got.TwoFactorEnabled() {
		t.Fatalf("pending secret should not count as enabled")
	}

	if err := st.Users().ConfirmTOTP(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = st.Users().GetByID(ctx, u.ID)
	if !got.TwoFactorEnabled() {
		t.Fatalf("confirmed secret should count as enabled")
	}

	if err := st.Users().ClearTOTP(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = st.Users().GetByID(ctx, u.ID)
	if got.TwoFactorEnabled() || got.TOTPSecretEnc != "" {
		t.Fatalf("clear should remove the secret entirely")
	}
}

func TestRoles_CreateRenameNormalization(t *testing.T) {
	ctx := context.Background()
	st := New()

	r, err := st.Roles().Create(ctx, "Editor")
	if err != nil {
		t.Fatal(err)
	}
	if r.NormalizedName != "EDITOR" {
		t.Fatalf("normalized name should be upper, got %q", r.NormalizedName)
	}

	if _, err := st.Roles().Create(ctx, "editor"); !repository.IsConflict(err) {
		t.Fatalf("same normalized name should conflict, got %v", err)
	}

	renamed, err := st.Roles().Rename(ctx, r.ID, "Editor2")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.NormalizedName != "EDITOR2" {
		t.Fatalf("rename should renormalize, got %q", renamed.NormalizedName)
	}
	if _, err := st.Roles().GetByName(ctx, "editor"); !repository.IsNotFound(err) {
		t.Fatalf("old name should be gone, got %v", err)
	}
	if _, err := st.Roles().Rename(ctx, "no-such-id", "X"); !repository.IsNotFound(err) {
		t.Fatalf("rename of unknown role should be not found, got %v", err)
	}
}

func TestRoles_DeleteRefusedWhenAssigned(t *testing.T) {
	ctx := context.Background()
	st := New()
	u := newUser(t, st, "asig@example.com")
	r, _ := st.Roles().Create(ctx, "auditor")

	if err := st.Roles().AddUserRoles(ctx, u.ID, []string{"auditor"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Roles().Delete(ctx, r.ID); !errors.Is(err, repository.ErrRoleInUse) {
		t.Fatalf("delete of assigned role should be refused, got %v", err)
	}

	if err := st.Roles().RemoveAllUserRoles(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if err := st.Roles().Delete(ctx, r.ID); err != nil {
		t.Fatalf("delete after unassign should work: %v", err)
	}
}

func TestRoles_AddUserRolesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	st := New()
	u := newUser(t, st, "all@example.com")
	_, _ = st.Roles().Create(ctx, "viewer")

	err := st.Roles().AddUserRoles(ctx, u.ID, []string{"viewer", "ghost"})
	if !repository.IsNotFound(err) {
		t.Fatalf("unknown role should fail the whole call, got %v", err)
	}
	roles, _ := st.Roles().RolesForUser(ctx, u.ID)
	if len(roles) != 0 {
		t.Fatalf("no role should be assigned on failure, got %v", roles)
	}
}

func TestEmailTokens_ConsumeLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New()
	u := newUser(t, st, "tok@example.com")

	_, err := st.EmailTokens().Create(ctx, repository.CreateEmailTokenInput{
		UserID: u.ID, Email: u.Email, Purpose: repository.EmailTokenConfirm,
		TokenHash: "hash-1", TTL: time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	// un segundo token del mismo propósito invalida el primero
	if _, err := st.EmailTokens().Create(ctx, repository.CreateEmailTokenInput{
		UserID: u.ID, Email: u.Email, Purpose: repository.EmailTokenConfirm,
		TokenHash: "hash-2", TTL: time.Hour,
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.EmailTokens().Consume(ctx, repository.EmailTokenConfirm, u.ID, "hash-1"); !errors.Is(err, repository.ErrTokenExpired) {
		t.Fatalf("superseded token should not consume, got %v", err)
	}

	if err := st.EmailTokens().Consume(ctx, repository.EmailTokenConfirm, u.ID, "hash-2"); err != nil {
		t.Fatalf("live token should consume: %v", err)
	}
	// consumir dos veces no va
	if err := st.EmailTokens().Consume(ctx, repository.EmailTokenConfirm, u.ID, "hash-2"); !errors.Is(err, repository.ErrTokenExpired) {
		t.Fatalf("used token should not consume again, got %v", err)
	}
}

func TestEmailTokens_Expired(t *testing.T) {
	ctx := context.Background()
	st := New()
	u := newUser(t, st, "exp@example.com")

	if _, err := st.EmailTokens().Create(ctx, repository.CreateEmailTokenInput{
		UserID: u.ID, Email: u.Email, Purpose: repository.EmailTokenPasswordReset,
		TokenHash: "hash-exp", TTL: -time.Minute,
	}); err != nil {
		t.Fatal(err)
	}
	err := st.EmailTokens().Consume(ctx, repository.EmailTokenPasswordReset, u.ID, "hash-exp")
	if !errors.Is(err, repository.ErrTokenExpired) {
		t.Fatalf("expired token should report expiry, got %v", err)
	}
}

func TestSessions_RevokeIdempotent(t *testing.T) {
	ctx := context.Background()
	st := New()
	u := newUser(t, st, "ses@example.com")

	if _, err := st.Sessions().Create(ctx, repository.CreateSessionInput{
		UserID: u.ID, TokenHash: "s-hash", TTL: time.Hour,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Sessions().GetByHash(ctx, "s-hash"); err != nil {
		t.Fatalf("live session should resolve: %v", err)
	}

	if err := st.Sessions().Revoke(ctx, "s-hash"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Sessions().GetByHash(ctx, "s-hash"); !repository.IsNotFound(err) {
		t.Fatalf("revoked session should not resolve, got %v", err)
	}
	// repetir no es error
	if err := st.Sessions().Revoke(ctx, "s-hash"); err != nil {
		t.Fatalf("second revoke should be a no-op: %v", err)
	}
	if err := st.Sessions().Revoke(ctx, "never-existed"); err != nil {
		t.Fatalf("unknown token revoke should be a no-op: %v", err)
	}
}

func TestUsers_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	st := New()
	u := newUser(t, st, "bye@example.com")
	_, _ = st.Roles().Create(ctx, "member")
	_ = st.Roles().AddUserRoles(ctx, u.ID, []string{"member"})
	_, _ = st.Sessions().Create(ctx, repository.CreateSessionInput{UserID: u.ID, TokenHash: "bye-hash", TTL: time.Hour})
	_, _ = st.EmailTokens().Create(ctx, repository.CreateEmailTokenInput{
		UserID: u.ID, Email: u.Email, Purpose: repository.EmailTokenConfirm, TokenHash: "bye-tok", TTL: time.Hour,
	})

	if err := st.Users().Delete(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Users().GetByID(ctx, u.ID); !repository.IsNotFound(err) {
		t.Fatalf("deleted user should be gone, got %v", err)
	}
	if roles, _ := st.Roles().RolesForUser(ctx, u.ID); len(roles) != 0 {
		t.Fatalf("assignments should be gone, got %v", roles)
	}
	if _, err := st.Sessions().GetByHash(ctx, "bye-hash"); !repository.IsNotFound(err) {
		t.Fatalf("sessions should be gone, got %v", err)
	}
	if err := st.Users().Delete(ctx, u.ID); !repository.IsNotFound(err) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}
