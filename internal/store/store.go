// Package store selecciona y construye el data access layer concreto.
// Los adapters (pg, memory) implementan las interfaces de
// internal/domain/repository; los services nunca ven el driver.
package store

import (
	"context"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

// Store agrupa los repositorios sobre una misma conexión de datos.
type Store interface {
	Users() repository.UserRepository
	Roles() repository.RoleRepository
	EmailTokens() repository.EmailTokenRepository
	Sessions() repository.SessionRepository

	// Ping verifica que la conexión subyacente esté viva.
	Ping(ctx context.Context) error
	Close() error
}

// Config configuración del storage.
type Config struct {
	// Driver: "postgres" (alias "pg") o "memory".
	Driver string

	// DSN cadena de conexión (solo postgres).
	DSN string

	MaxOpenConns int
	MaxIdleConns int
}
