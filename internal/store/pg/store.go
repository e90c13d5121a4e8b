// Package pg implementa el adapter PostgreSQL.
// Usa pgxpool directamente, SQL plano y sin ORM.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
)

// Config configuración de la conexión.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store implementa el data access layer sobre PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open crea el pool y verifica la conexión.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Users() repository.UserRepository             { return &userRepo{pool: s.pool} }
func (s *Store) Roles() repository.RoleRepository             { return &roleRepo{pool: s.pool} }
func (s *Store) EmailTokens() repository.EmailTokenRepository { return &emailTokenRepo{pool: s.pool} }
func (s *Store) Sessions() repository.SessionRepository       { return &sessionRepo{pool: s.pool} }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool expone el pool subyacente (migraciones, health checks).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// isUniqueViolation detecta violaciones de constraint UNIQUE.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
