package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/idmanager/internal/bootstrap"
	"github.com/dropDatabas3/idmanager/internal/config"
	"github.com/dropDatabas3/idmanager/internal/http/router"
	"github.com/dropDatabas3/idmanager/internal/http/server"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

func main() {
	var (
		flagConfig  = flag.String("config", "config.yaml", "ruta al YAML de configuración")
		flagEnvFile = flag.String("env-file", ".env", "ruta al .env (opcional)")
		flagNoSeed  = flag.Bool("no-seed", false, "saltear el bootstrap del primer admin")
	)
	flag.Parse()

	// .env es opcional: si no está, seguimos con el ambiente tal cual.
	if *flagEnvFile != "" {
		_ = godotenv.Load(*flagEnvFile)
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "idmanager",
	})
	defer func() { _ = logger.L().Sync() }()

	ctx := context.Background()
	app, err := server.Build(ctx, cfg)
	if err != nil {
		logger.L().Fatal("failed to build application", logger.Err(err))
	}
	defer app.Close()

	if !*flagNoSeed {
		if err := bootstrap.CheckAndCreateAdmin(ctx, bootstrap.AdminConfig{
			Store:         app.Store,
			AdminRole:     router.AdminRole,
			SkipPrompt:    os.Getenv("ADMIN_EMAIL") != "",
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		}); err != nil {
			logger.L().Fatal("admin bootstrap failed", logger.Err(err))
		}
	}

	if err := app.Run(ctx); err != nil {
		logger.L().Fatal("server exited with error", logger.Err(err))
	}
}
