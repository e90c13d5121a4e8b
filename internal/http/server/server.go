// Package server arma la aplicación completa: store, cache, issuer,
// mailer, servicios, controllers y el http.Server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/idmanager/internal/cache"
	"github.com/dropDatabas3/idmanager/internal/config"
	"github.com/dropDatabas3/idmanager/internal/email"
	adminctrl "github.com/dropDatabas3/idmanager/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/idmanager/internal/http/controllers/auth"
	"github.com/dropDatabas3/idmanager/internal/http/metrics"
	mw "github.com/dropDatabas3/idmanager/internal/http/middlewares"
	"github.com/dropDatabas3/idmanager/internal/http/router"
	adminsvc "github.com/dropDatabas3/idmanager/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/idmanager/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/idmanager/internal/jwt"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	"github.com/dropDatabas3/idmanager/internal/rate"
	"github.com/dropDatabas3/idmanager/internal/security/password"
	"github.com/dropDatabas3/idmanager/internal/security/secretbox"
	"github.com/dropDatabas3/idmanager/internal/store"
	"github.com/dropDatabas3/idmanager/internal/store/pg"
	migrations "github.com/dropDatabas3/idmanager/migrations/postgres"
)

// App es la aplicación armada y lista para servir.
type App struct {
	Config  *config.Config
	Store   store.Store
	Cache   cache.Client
	Issuer  *jwtx.Issuer
	Handler http.Handler

	cleanups []func() error
}

// Build conecta todas las piezas a partir de la config.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Store
	st, err := store.New(ctx, store.Config{
		Driver:       cfg.Storage.Driver,
		DSN:          cfg.Storage.DSN,
		MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Storage.Postgres.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	app.Store = st
	app.cleanups = append(app.cleanups, func() error { st.Close(); return nil })

	// Migraciones embebidas (sólo postgres)
	if pgStore, ok := st.(*pg.Store); ok && cfg.Flags.Migrate {
		res, err := pg.Migrate(ctx, pgStore.Pool(), migrations.FS, migrations.Dir)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.L().Info("migrations applied",
			logger.Int("applied", len(res.Applied)),
			logger.Int("skipped", len(res.Skipped)))
	}

	// Cache
	c, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Host:     cfg.Cache.Redis.Host,
		Port:     cfg.Cache.Redis.Port,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}
	app.Cache = c
	app.cleanups = append(app.cleanups, c.Close)

	// Keys + issuer
	ks, err := jwtx.LoadOrGenerate(cfg.JWT.KeyPath)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("jwt keys: %w", err)
	}
	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, ks, cfg.AccessTTLDuration())
	app.Issuer = issuer

	// Secretbox para secretos TOTP en reposo
	var box *secretbox.Box
	if cfg.Security.SecretBoxMasterKey != "" {
		box, err = secretbox.New(cfg.Security.SecretBoxMasterKey)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("secretbox: %w", err)
		}
	}

	// Mailer
	var sender email.Sender = email.NoopSender{}
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			FromEmail:          cfg.SMTP.From,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		})
	}
	mailer := email.NewMailer(sender, cfg.Email.BaseURL)

	// Password policy + blacklist
	policy := password.Policy{
		MinLength:     cfg.Security.PasswordPolicy.MinLength,
		RequireUpper:  cfg.Security.PasswordPolicy.RequireUpper,
		RequireLower:  cfg.Security.PasswordPolicy.RequireLower,
		RequireDigit:  cfg.Security.PasswordPolicy.RequireDigit,
		RequireSymbol: cfg.Security.PasswordPolicy.RequireSymbol,
	}
	var blacklist *password.Blacklist
	if cfg.Security.PasswordBlacklistPath != "" {
		blacklist, err = password.LoadBlacklist(cfg.Security.PasswordBlacklistPath)
		if err != nil {
			logger.L().Warn("password blacklist not loaded", logger.Err(err))
		}
	}

	// Servicios
	authServices := authsvc.New(authsvc.Deps{
		Store:              st,
		Cache:              c,
		Issuer:             issuer,
		Mailer:             mailer,
		Box:                box,
		Policy:             policy,
		Blacklist:          blacklist,
		SessionTTL:         cfg.SessionTTLDuration,
		VerifyTTL:          cfg.Auth.Verify.TTL,
		ResetTTL:           cfg.Auth.Reset.TTL,
		LockoutMaxAttempts: cfg.Auth.Lockout.MaxAttempts,
		LockoutDuration:    cfg.LockoutDuration(),
		TOTPIssuer:         cfg.Auth.TOTP.Issuer,
		AllowRoleSelection: cfg.Register.AllowRoleSelection,
	})
	rolesService := adminsvc.NewRolesService(st)
	usersService := adminsvc.NewUsersService(st)

	// Métricas
	metricsCfg := metrics.Config{Registry: prometheus.DefaultRegisterer}
	if pgStore, ok := st.(*pg.Store); ok {
		metricsCfg.Pool = pgStore.Pool
	}
	metricsHandler, err := metrics.Register(metricsCfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	// Rate limiters por endpoint
	var loginLimiter, forgotLimiter, twoFactorLimiter mw.RateLimiter
	if cfg.Rate.Enabled {
		loginLimiter = rate.NewLimiter(c, cfg.Rate.Login.Limit, mustDuration(cfg.Rate.Login.Window))
		forgotLimiter = rate.NewLimiter(c, cfg.Rate.Forgot.Limit, mustDuration(cfg.Rate.Forgot.Window))
		twoFactorLimiter = rate.NewLimiter(c, cfg.Rate.TwoFactor.Limit, mustDuration(cfg.Rate.TwoFactor.Window))
	}

	app.Handler = router.New(router.Deps{
		Auth:             authctrl.NewControllers(authServices),
		Admin:            adminctrl.NewControllers(rolesService, usersService),
		Issuer:           issuer,
		LoginLimiter:     loginLimiter,
		ForgotLimiter:    forgotLimiter,
		TwoFactorLimiter: twoFactorLimiter,
		MetricsHandler:   metricsHandler,
		JWKS:             ks.JWKSJSON(),
		Health: func(r *http.Request) error {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := st.Ping(ctx); err != nil {
				return fmt.Errorf("store: %w", err)
			}
			if err := c.Ping(ctx); err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			return nil
		},
	})

	return app, nil
}

// Close libera los recursos en orden inverso al armado.
func (a *App) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			logger.L().Warn("cleanup failed", logger.Err(err))
		}
	}
}

// Run sirve HTTP hasta SIGINT/SIGTERM y apaga con gracia.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.L().Info("http server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.L().Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
