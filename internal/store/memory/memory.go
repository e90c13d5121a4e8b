// Package memory implementa el data access layer en memoria.
// Pensado para desarrollo y tests; no persiste nada.
package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

// Store guarda todo en maps protegidos por un mutex compartido.
type Store struct {
	mu sync.RWMutex

	users       map[string]*repository.User       // por ID
	usersByMail map[string]string                 // email -> ID
	roles       map[string]*repository.Role       // por ID
	rolesByNorm map[string]string                 // normalized_name -> ID
	userRoles   map[string]map[string]bool        // userID -> set de roleID
	emailTokens map[string]*repository.EmailToken // por ID
	sessions    map[string]*repository.Session    // por token hash
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		users:       make(map[string]*repository.User),
		usersByMail: make(map[string]string),
		roles:       make(map[string]*repository.Role),
		rolesByNorm: make(map[string]string),
		userRoles:   make(map[string]map[string]bool),
		emailTokens: make(map[string]*repository.EmailToken),
		sessions:    make(map[string]*repository.Session),
	}
}

func (s *Store) Users() repository.UserRepository             { return &userRepo{s: s} }
func (s *Store) Roles() repository.RoleRepository             { return &roleRepo{s: s} }
func (s *Store) EmailTokens() repository.EmailTokenRepository { return &emailTokenRepo{s: s} }
func (s *Store) Sessions() repository.SessionRepository       { return &sessionRepo{s: s} }

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

// cloneUser copia el struct para no exponer punteros internos.
func cloneUser(u *repository.User) *repository.User {
	cp := *u
	return &cp
}

func cloneRole(r *repository.Role) *repository.Role {
	cp := *r
	return &cp
}
