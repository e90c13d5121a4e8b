// Aplica las migraciones embebidas contra un Postgres dado por DSN.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/idmanager/internal/store/pg"
	migrations "github.com/dropDatabas3/idmanager/migrations/postgres"
)

func main() {
	var (
		flagDSN     = flag.String("dsn", "", "DSN de Postgres (o env STORAGE_DSN)")
		flagEnvFile = flag.String("env-file", ".env", "ruta al .env (opcional)")
		flagTimeout = flag.Duration("timeout", 60*time.Second, "timeout total")
	)
	flag.Parse()

	if *flagEnvFile != "" {
		_ = godotenv.Load(*flagEnvFile)
	}

	dsn := *flagDSN
	if dsn == "" {
		dsn = os.Getenv("STORAGE_DSN")
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "missing DSN: use -dsn or STORAGE_DSN")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flagTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	res, err := pg.Migrate(ctx, pool, migrations.FS, migrations.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("applied=%d skipped=%d\n", len(res.Applied), len(res.Skipped))
}
