package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	dto "github.com/dropDatabas3/idmanager/internal/http/dto/admin"
	"github.com/dropDatabas3/idmanager/internal/store/memory"
)

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.New()
}

func seedUser(t *testing.T, st *memory.Store, email string) *repository.User {
	t.Helper()
	u, err := st.Users().Create(context.Background(), repository.CreateUserInput{
		Email:        email,
		PasswordHash: "$argon2id$fake",
	})
	require.NoError(t, err)
	return u
}

func seedRole(t *testing.T, st *memory.Store, name string) *repository.Role {
	t.Helper()
	r, err := st.Roles().Create(context.Background(), name)
	require.NoError(t, err)
	return r
}

func TestRoles_UpsertCreateAndRename(t *testing.T) {
	st := newTestStore(t)
	svc := NewRolesService(st)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, dto.UpsertRoleRequest{Name: "Editor"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Editor", created.Name)
	require.Equal(t, "EDITOR", created.NormalizedName)

	// mismo nombre (distinta capitalización) es conflicto
	_, err = svc.Upsert(ctx, dto.UpsertRoleRequest{Name: "EDITOR"})
	require.ErrorIs(t, err, ErrRoleExists)

	// con ID se renombra en lugar de crear
	renamed, err := svc.Upsert(ctx, dto.UpsertRoleRequest{ID: created.ID, Name: "Editor2"})
	require.NoError(t, err)
	require.Equal(t, created.ID, renamed.ID)
	require.Equal(t, "Editor2", renamed.Name)
	require.Equal(t, "EDITOR2", renamed.NormalizedName)

	// el nombre viejo quedó libre
	_, err = st.Roles().GetByName(ctx, "Editor")
	require.True(t, repository.IsNotFound(err))

	// renombrar un ID inexistente
	_, err = svc.Upsert(ctx, dto.UpsertRoleRequest{ID: "no-such-id", Name: "Whatever"})
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestRoles_DeleteRefusedWhileAssigned(t *testing.T) {
	st := newTestStore(t)
	svc := NewRolesService(st)
	ctx := context.Background()

	u := seedUser(t, st, "editor@example.com")
	r := seedRole(t, st, "editor")
	require.NoError(t, st.Roles().AddUserRoles(ctx, u.ID, []string{"editor"}))

	err := svc.Delete(ctx, r.ID)
	require.ErrorIs(t, err, ErrRoleInUse)

	// sigue existiendo
	_, err = st.Roles().GetByName(ctx, "editor")
	require.NoError(t, err)

	// sin asignaciones ya se puede borrar
	require.NoError(t, st.Roles().RemoveAllUserRoles(ctx, u.ID))
	require.NoError(t, svc.Delete(ctx, r.ID))
	_, err = st.Roles().GetByName(ctx, "editor")
	require.True(t, repository.IsNotFound(err))
}

func TestUsers_ManageRolesFullReplace(t *testing.T) {
	st := newTestStore(t)
	svc := NewUsersService(st)
	ctx := context.Background()

	u := seedUser(t, st, "multi@example.com")
	seedRole(t, st, "editor")
	seedRole(t, st, "viewer")
	seedRole(t, st, "auditor")
	require.NoError(t, st.Roles().AddUserRoles(ctx, u.ID, []string{"editor", "viewer"}))

	resp, err := svc.ManageRoles(ctx, dto.ManageUserRolesRequest{
		UserID: u.ID,
		Roles:  []string{"auditor", "AUDITOR", " viewer "},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"auditor", "viewer"}, resp.Roles)

	// lista vacía deja al usuario sin roles
	resp, err = svc.ManageRoles(ctx, dto.ManageUserRolesRequest{UserID: u.ID})
	require.NoError(t, err)
	require.Empty(t, resp.Roles)

	// la proyección de selección muestra todo el catálogo sin marcas
	got, err := svc.RolesOf(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Roles, 3)
	for _, rs := range got.Roles {
		require.False(t, rs.Selected, "role %s should be unselected", rs.Name)
	}

	_, err = svc.RolesOf(ctx, "no-such-user")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUsers_ManageRolesUnknownRoleLeavesAssignmentsIntact(t *testing.T) {
	st := newTestStore(t)
	svc := NewUsersService(st)
	ctx := context.Background()

	u := seedUser(t, st, "intact@example.com")
	seedRole(t, st, "editor")
	require.NoError(t, st.Roles().AddUserRoles(ctx, u.ID, []string{"editor"}))

	_, err := svc.ManageRoles(ctx, dto.ManageUserRolesRequest{
		UserID: u.ID,
		Roles:  []string{"editor", "ghost-role"},
	})
	require.ErrorIs(t, err, ErrRoleNotFound)

	// el remove total no corrió: conserva sus roles previos
	roles, err := st.Roles().RolesForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"editor"}, roles)
}

func TestUsers_ManageRolesUnknownUser(t *testing.T) {
	st := newTestStore(t)
	svc := NewUsersService(st)

	_, err := svc.ManageRoles(context.Background(), dto.ManageUserRolesRequest{
		UserID: "no-such-user",
		Roles:  []string{"editor"},
	})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUsers_LockUnlockToggle(t *testing.T) {
	st := newTestStore(t)
	svc := NewUsersService(st)
	ctx := context.Background()

	u := seedUser(t, st, "toggle@example.com")

	// primer toggle: bloquea por un horizonte lejano
	resp, err := svc.LockUnlock(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, resp.LockedOut)
	require.NotNil(t, resp.LockoutUntil)
	require.True(t, resp.LockoutUntil.After(time.Now().Add(24*time.Hour)))

	got, _ := st.Users().GetByID(ctx, u.ID)
	require.True(t, got.LockedOut(time.Now().UTC()))

	// segundo toggle: desbloquea
	resp, err = svc.LockUnlock(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, resp.LockedOut)
	require.Nil(t, resp.LockoutUntil)

	got, _ = st.Users().GetByID(ctx, u.ID)
	require.False(t, got.LockedOut(time.Now().UTC()))

	_, err = svc.LockUnlock(ctx, "no-such-user")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUsers_DeleteRemovesUserAndAssignments(t *testing.T) {
	st := newTestStore(t)
	svc := NewUsersService(st)
	ctx := context.Background()

	u := seedUser(t, st, "bye@example.com")
	seedRole(t, st, "editor")
	require.NoError(t, st.Roles().AddUserRoles(ctx, u.ID, []string{"editor"}))

	require.NoError(t, svc.Delete(ctx, u.ID))

	_, err := st.Users().GetByID(ctx, u.ID)
	require.True(t, repository.IsNotFound(err))

	// el rol sobrevive y queda libre para borrar
	rolesSvc := NewRolesService(st)
	role, err := st.Roles().GetByName(ctx, "editor")
	require.NoError(t, err)
	require.NoError(t, rolesSvc.Delete(ctx, role.ID))

	require.ErrorIs(t, svc.Delete(ctx, "no-such-user"), ErrUserNotFound)
}

func TestUsers_ListIncludesRolesAndLockState(t *testing.T) {
	st := newTestStore(t)
	svc := NewUsersService(st)
	ctx := context.Background()

	a := seedUser(t, st, "a@example.com")
	seedUser(t, st, "b@example.com")
	seedRole(t, st, "editor")
	require.NoError(t, st.Roles().AddUserRoles(ctx, a.ID, []string{"editor"}))
	_, err := svc.LockUnlock(ctx, a.ID)
	require.NoError(t, err)

	resp, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Users, 2)

	byEmail := map[string]dto.UserItem{}
	for _, u := range resp.Users {
		byEmail[u.Email] = u
	}
	require.True(t, byEmail["a@example.com"].LockedOut)
	require.Equal(t, []string{"editor"}, byEmail["a@example.com"].Roles)
	require.False(t, byEmail["b@example.com"].LockedOut)
	require.Empty(t, byEmail["b@example.com"].Roles)
}
