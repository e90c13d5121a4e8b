package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

type roleRepo struct{ s *Store }

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (r *roleRepo) List(ctx context.Context) ([]repository.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := make([]repository.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		roles = append(roles, *cloneRole(role))
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].NormalizedName < roles[j].NormalizedName })
	return roles, nil
}

func (r *roleRepo) GetByID(ctx context.Context, roleID string) (*repository.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[roleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRole(role), nil
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*repository.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.rolesByNorm[normalize(name)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRole(r.s.roles[id]), nil
}

func (r *roleRepo) Create(ctx context.Context, name string) (*repository.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	norm := normalize(name)
	if _, exists := r.s.rolesByNorm[norm]; exists {
		return nil, repository.ErrConflict
	}

	now := time.Now().UTC()
	role := &repository.Role{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		NormalizedName: norm,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.s.roles[role.ID] = role
	r.s.rolesByNorm[norm] = role.ID
	return cloneRole(role), nil
}

func (r *roleRepo) Rename(ctx context.Context, roleID, newName string) (*repository.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	role, ok := r.s.roles[roleID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	norm := normalize(newName)
	if otherID, exists := r.s.rolesByNorm[norm]; exists && otherID != roleID {
		return nil, repository.ErrConflict
	}

	delete(r.s.rolesByNorm, role.NormalizedName)
	role.Name = strings.TrimSpace(newName)
	role.NormalizedName = norm
	role.UpdatedAt = time.Now().UTC()
	r.s.rolesByNorm[norm] = roleID
	return cloneRole(role), nil
}

func (r *roleRepo) Delete(ctx context.Context, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	role, ok := r.s.roles[roleID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, assigned := range r.s.userRoles {
		if assigned[roleID] {
			return repository.ErrRoleInUse
		}
	}
	delete(r.s.roles, roleID)
	delete(r.s.rolesByNorm, role.NormalizedName)
	return nil
}

func (r *roleRepo) AssignmentCount(ctx context.Context, roleID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, assigned := range r.s.userRoles {
		if assigned[roleID] {
			count++
		}
	}
	return count, nil
}

func (r *roleRepo) RolesForUser(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var names []string
	for roleID := range r.s.userRoles[userID] {
		if role, ok := r.s.roles[roleID]; ok {
			names = append(names, role.Name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return normalize(names[i]) < normalize(names[j]) })
	return names, nil
}

func (r *roleRepo) RemoveAllUserRoles(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.userRoles, userID)
	return nil
}

// AddUserRoles valida todos los nombres antes de asignar, así una llamada
// con un rol desconocido no deja asignaciones a medias.
func (r *roleRepo) AddUserRoles(ctx context.Context, userID string, roleNames []string) error {
	if len(roleNames) == 0 {
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]string, 0, len(roleNames))
	for _, name := range roleNames {
		id, ok := r.s.rolesByNorm[normalize(name)]
		if !ok {
			return fmt.Errorf("memory: role %q: %w", name, repository.ErrNotFound)
		}
		ids = append(ids, id)
	}

	assigned := r.s.userRoles[userID]
	if assigned == nil {
		assigned = make(map[string]bool)
		r.s.userRoles[userID] = assigned
	}
	for _, id := range ids {
		assigned[id] = true
	}
	return nil
}
