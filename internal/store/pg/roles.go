package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

// ─── RoleRepository ───

type roleRepo struct{ pool *pgxpool.Pool }

// Normalize retorna la forma canónica de un nombre de rol.
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func scanRole(row pgx.Row) (*repository.Role, error) {
	var role repository.Role
	err := row.Scan(&role.ID, &role.Name, &role.NormalizedName, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: scan role: %w", err)
	}
	return &role, nil
}

func (r *roleRepo) List(ctx context.Context) ([]repository.Role, error) {
	const query = `
		SELECT id, name, normalized_name, created_at, updated_at
		FROM role ORDER BY normalized_name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pg: list roles: %w", err)
	}
	defer rows.Close()

	var roles []repository.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

func (r *roleRepo) GetByID(ctx context.Context, roleID string) (*repository.Role, error) {
	const query = `SELECT id, name, normalized_name, created_at, updated_at FROM role WHERE id = $1`
	return scanRole(r.pool.QueryRow(ctx, query, roleID))
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*repository.Role, error) {
	const query = `SELECT id, name, normalized_name, created_at, updated_at FROM role WHERE normalized_name = $1`
	return scanRole(r.pool.QueryRow(ctx, query, Normalize(name)))
}

func (r *roleRepo) Create(ctx context.Context, name string) (*repository.Role, error) {
	role := &repository.Role{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		NormalizedName: Normalize(name),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	const query = `
		INSERT INTO role (id, name, normalized_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`
	_, err := r.pool.Exec(ctx, query, role.ID, role.Name, role.NormalizedName, role.CreatedAt)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("pg: insert role: %w", err)
	}
	return role, nil
}

func (r *roleRepo) Rename(ctx context.Context, roleID, newName string) (*repository.Role, error) {
	const query = `
		UPDATE role SET name = $2, normalized_name = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, normalized_name, created_at, updated_at
	`
	role, err := scanRole(r.pool.QueryRow(ctx, query, roleID, strings.TrimSpace(newName), Normalize(newName)))
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	return role, err
}

func (r *roleRepo) Delete(ctx context.Context, roleID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Conteo vivo dentro de la misma TX: un rol con asignaciones no se borra.
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM user_role WHERE role_id = $1`, roleID).Scan(&count); err != nil {
		return fmt.Errorf("pg: count assignments: %w", err)
	}
	if count > 0 {
		return repository.ErrRoleInUse
	}

	tag, err := tx.Exec(ctx, `DELETE FROM role WHERE id = $1`, roleID)
	if err != nil {
		return fmt.Errorf("pg: delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *roleRepo) AssignmentCount(ctx context.Context, roleID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_role WHERE role_id = $1`, roleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pg: count assignments: %w", err)
	}
	return count, nil
}

func (r *roleRepo) RolesForUser(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT r.name FROM role r
		JOIN user_role ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.normalized_name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pg: roles for user: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("pg: scan role name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *roleRepo) RemoveAllUserRoles(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_role WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("pg: remove user roles: %w", err)
	}
	return nil
}

func (r *roleRepo) AddUserRoles(ctx context.Context, userID string, roleNames []string) error {
	if len(roleNames) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, name := range roleNames {
		var roleID string
		err := tx.QueryRow(ctx, `SELECT id FROM role WHERE normalized_name = $1`, Normalize(name)).Scan(&roleID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("pg: role %q: %w", name, repository.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("pg: lookup role %q: %w", name, err)
		}

		const insert = `
			INSERT INTO user_role (user_id, role_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id, role_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, insert, userID, roleID); err != nil {
			return fmt.Errorf("pg: assign role %q: %w", name, err)
		}
	}

	return tx.Commit(ctx)
}
