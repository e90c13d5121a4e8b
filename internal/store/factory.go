package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idmanager/internal/store/memory"
	"github.com/dropDatabas3/idmanager/internal/store/pg"
)

// New abre el Store según cfg.Driver.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "postgres", "pg":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store: postgres driver requires a DSN")
		}
		return pg.Open(ctx, pg.Config{
			DSN:          cfg.DSN,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		})
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
