package repository

import (
	"context"
	"time"
)

// Role representa un rol definido en el sistema.
// NormalizedName es la forma canónica (uppercase) usada para unicidad y
// comparación; Name conserva la forma de despliegue.
type Role struct {
	ID             string
	Name           string
	NormalizedName string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RoleRepository define operaciones sobre roles y asignaciones user-role.
type RoleRepository interface {
	// List retorna todos los roles ordenados por nombre normalizado.
	List(ctx context.Context) ([]Role, error)

	// GetByID busca un rol por ID. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, roleID string) (*Role, error)

	// GetByName busca un rol por nombre (comparación normalizada).
	GetByName(ctx context.Context, name string) (*Role, error)

	// Create crea un rol con NormalizedName = upper(name).
	// Retorna ErrConflict si el nombre normalizado ya existe.
	Create(ctx context.Context, name string) (*Role, error)

	// Rename actualiza Name y NormalizedName de un rol existente.
	Rename(ctx context.Context, roleID, newName string) (*Role, error)

	// Delete elimina un rol. Retorna ErrRoleInUse si tiene >=1 asignación
	// (conteo vivo, nunca cacheado) y ErrNotFound si no existe.
	Delete(ctx context.Context, roleID string) error

	// AssignmentCount retorna cuántos usuarios tienen asignado el rol.
	AssignmentCount(ctx context.Context, roleID string) (int, error)

	// RolesForUser retorna los nombres de rol asignados al usuario.
	RolesForUser(ctx context.Context, userID string) ([]string, error)

	// RemoveAllUserRoles elimina todas las asignaciones del usuario.
	RemoveAllUserRoles(ctx context.Context, userID string) error

	// AddUserRoles asigna los roles indicados (por nombre) al usuario.
	// Nombres desconocidos retornan ErrNotFound.
	AddUserRoles(ctx context.Context, userID string, roleNames []string) error
}
