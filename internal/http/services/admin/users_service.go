package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	dto "github.com/dropDatabas3/idmanager/internal/http/dto/admin"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	"github.com/dropDatabas3/idmanager/internal/store"
)

// UsersService administra usuarios: listado, roles, lockout y baja.
type UsersService interface {
	List(ctx context.Context) (*dto.UserListResponse, error)

	// RolesOf devuelve el catálogo completo de roles marcando cuáles
	// tiene asignados el usuario.
	RolesOf(ctx context.Context, userID string) (*dto.UserRoleSelectionResponse, error)

	// ManageRoles reemplaza POR COMPLETO los roles del usuario por la
	// lista dada. Una lista vacía deja al usuario sin roles.
	ManageRoles(ctx context.Context, in dto.ManageUserRolesRequest) (*dto.UserRolesResponse, error)

	// LockUnlock es un toggle: un usuario desbloqueado queda bloqueado
	// de forma indefinida, uno bloqueado queda desbloqueado.
	LockUnlock(ctx context.Context, userID string) (*dto.LockUnlockUserResponse, error)

	// Delete elimina el usuario y todo lo suyo: roles, sesiones y
	// tokens pendientes.
	Delete(ctx context.Context, userID string) error
}

// indefiniteLock es el horizonte del bloqueo administrativo.
const indefiniteLock = 100 * 365 * 24 * time.Hour

type usersService struct {
	store store.Store
}

// NewUsersService crea el servicio de usuarios.
func NewUsersService(st store.Store) UsersService {
	return &usersService{store: st}
}

func (s *usersService) List(ctx context.Context) (*dto.UserListResponse, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := &dto.UserListResponse{Users: make([]dto.UserItem, 0, len(users))}
	for _, u := range users {
		roles, err := s.store.Roles().RolesForUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out.Users = append(out.Users, dto.UserItem{
			ID:               u.ID,
			Email:            u.Email,
			Name:             u.Name,
			EmailVerified:    u.EmailVerified,
			TwoFactorEnabled: u.TwoFactorEnabled(),
			LockedOut:        u.LockedOut(now),
			LockoutUntil:     u.LockoutUntil,
			Roles:            roles,
			CreatedAt:        u.CreatedAt,
		})
	}
	return out, nil
}

func (s *usersService) RolesOf(ctx context.Context, userID string) (*dto.UserRoleSelectionResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingFields
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	assigned, err := s.store.Roles().RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(assigned))
	for _, name := range assigned {
		have[strings.ToUpper(name)] = true
	}

	all, err := s.store.Roles().List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.UserRoleSelectionResponse{
		UserID: userID,
		Email:  user.Email,
		Roles:  make([]dto.RoleSelection, 0, len(all)),
	}
	for _, r := range all {
		out.Roles = append(out.Roles, dto.RoleSelection{
			Name:     r.Name,
			Selected: have[r.NormalizedName],
		})
	}
	return out, nil
}

func (s *usersService) ManageRoles(ctx context.Context, in dto.ManageUserRolesRequest) (*dto.UserRolesResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.users"),
		logger.Op("ManageRoles"),
	)

	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" {
		return nil, ErrMissingFields
	}

	if _, err := s.store.Users().GetByID(ctx, in.UserID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	log = log.With(logger.UserID(in.UserID))

	// Se validan TODOS los nombres antes de tocar nada: así el remove
	// total nunca corre para una lista que iba a fallar.
	names := dedupeNames(in.Roles)
	for _, name := range names {
		if _, err := s.store.Roles().GetByName(ctx, name); err != nil {
			if repository.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
			}
			return nil, err
		}
	}

	if err := s.store.Roles().RemoveAllUserRoles(ctx, in.UserID); err != nil {
		log.Error("failed to clear user roles", logger.Err(err))
		return nil, err
	}
	if len(names) > 0 {
		if err := s.store.Roles().AddUserRoles(ctx, in.UserID, names); err != nil {
			log.Error("failed to assign user roles", logger.Err(err))
			return nil, err
		}
	}

	roles, err := s.store.Roles().RolesForUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	log.Info("user roles replaced", logger.Int("count", len(roles)))
	return &dto.UserRolesResponse{UserID: in.UserID, Roles: roles}, nil
}

func (s *usersService) LockUnlock(ctx context.Context, userID string) (*dto.LockUnlockUserResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.users"),
		logger.Op("LockUnlock"),
	)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingFields
	}
	log = log.With(logger.UserID(userID))

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	var until *time.Time
	if user.LockedOut(now) {
		// desbloquear: el lockout termina ahora
		until = &now
	} else {
		t := now.Add(indefiniteLock)
		until = &t
	}
	if err := s.store.Users().SetLockout(ctx, userID, until); err != nil {
		log.Error("failed to set lockout", logger.Err(err))
		return nil, err
	}

	locked := until.After(now)
	log.Info("lockout toggled", logger.Bool("locked", locked))
	resp := &dto.LockUnlockUserResponse{UserID: userID, LockedOut: locked}
	if locked {
		resp.LockoutUntil = until
	}
	return resp, nil
}

func (s *usersService) Delete(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingFields
	}
	err := s.store.Users().Delete(ctx, userID)
	if repository.IsNotFound(err) {
		return ErrUserNotFound
	}
	if err != nil {
		logger.From(ctx).With(logger.Layer("service"), logger.Op("DeleteUser"), logger.UserID(userID)).
			Error("user delete failed", logger.Err(err))
	}
	return err
}

func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToUpper(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
