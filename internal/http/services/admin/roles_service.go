// Package admin contiene los servicios de administración de roles y
// usuarios. Todas las operaciones asumen un caller ya autenticado con
// rol admin; la autorización vive en el router.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	dto "github.com/dropDatabas3/idmanager/internal/http/dto/admin"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	"github.com/dropDatabas3/idmanager/internal/store"
)

// RolesService administra el catálogo de roles.
type RolesService interface {
	List(ctx context.Context) (*dto.RoleListResponse, error)

	// Upsert crea un rol nuevo (sin ID) o renombra uno existente (con
	// ID). El nombre normalizado se recalcula siempre.
	Upsert(ctx context.Context, in dto.UpsertRoleRequest) (*dto.RoleItem, error)

	// Delete borra un rol. Se niega si el rol tiene al menos una
	// asignación viva.
	Delete(ctx context.Context, roleID string) error
}

// Errores de administración
var (
	ErrMissingFields = fmt.Errorf("missing required fields")
	ErrRoleNotFound  = fmt.Errorf("role not found")
	ErrRoleExists    = fmt.Errorf("role name already exists")
	ErrRoleInUse     = fmt.Errorf("role has active assignments")
	ErrUserNotFound  = fmt.Errorf("user not found")
)

type rolesService struct {
	store store.Store
}

// NewRolesService crea el servicio de roles.
func NewRolesService(st store.Store) RolesService {
	return &rolesService{store: st}
}

func (s *rolesService) List(ctx context.Context) (*dto.RoleListResponse, error) {
	roles, err := s.store.Roles().List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.RoleListResponse{Roles: make([]dto.RoleItem, 0, len(roles))}
	for _, r := range roles {
		out.Roles = append(out.Roles, toRoleItem(&r))
	}
	return out, nil
}

func (s *rolesService) Upsert(ctx context.Context, in dto.UpsertRoleRequest) (*dto.RoleItem, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.roles"),
		logger.Op("Upsert"),
	)

	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrMissingFields
	}

	var (
		role *repository.Role
		err  error
	)
	if in.ID == "" {
		role, err = s.store.Roles().Create(ctx, in.Name)
	} else {
		role, err = s.store.Roles().Rename(ctx, in.ID, in.Name)
	}
	if err != nil {
		switch {
		case repository.IsConflict(err):
			return nil, ErrRoleExists
		case repository.IsNotFound(err):
			return nil, ErrRoleNotFound
		}
		log.Error("role upsert failed", logger.Err(err))
		return nil, err
	}

	log.Info("role upserted", logger.String("role", role.NormalizedName))
	item := toRoleItem(role)
	return &item, nil
}

func (s *rolesService) Delete(ctx context.Context, roleID string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return ErrMissingFields
	}
	err := s.store.Roles().Delete(ctx, roleID)
	switch {
	case err == nil:
		return nil
	case repository.IsNotFound(err):
		return ErrRoleNotFound
	case errors.Is(err, repository.ErrRoleInUse):
		return ErrRoleInUse
	}
	logger.From(ctx).With(logger.Layer("service"), logger.Op("DeleteRole")).
		Error("role delete failed", logger.Err(err))
	return err
}

func toRoleItem(r *repository.Role) dto.RoleItem {
	return dto.RoleItem{
		ID:             r.ID,
		Name:           r.Name,
		NormalizedName: r.NormalizedName,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
