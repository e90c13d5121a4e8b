// Package router arma el árbol de rutas HTTP completo.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/idmanager/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/idmanager/internal/http/controllers/auth"
	httperrors "github.com/dropDatabas3/idmanager/internal/http/errors"
	"github.com/dropDatabas3/idmanager/internal/http/metrics"
	mw "github.com/dropDatabas3/idmanager/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/idmanager/internal/jwt"
)

// AdminRole es el rol requerido por toda la API de administración.
const AdminRole = "admin"

// Deps contiene todo lo que el router necesita para montar las rutas.
type Deps struct {
	Auth  *authctrl.Controllers
	Admin *adminctrl.Controllers

	Issuer *jwtx.Issuer

	// Limiters opcionales por endpoint sensible. Nil desactiva el límite.
	LoginLimiter     mw.RateLimiter
	ForgotLimiter    mw.RateLimiter
	TwoFactorLimiter mw.RateLimiter

	// MetricsHandler sirve /metrics (promhttp). Nil lo deja sin montar.
	MetricsHandler http.Handler

	// JWKS es el JSON de claves públicas para /.well-known/jwks.json.
	JWKS []byte

	// Health chequea las dependencias (store, cache) para /healthz.
	Health func(r *http.Request) error
}

// New construye el router con la cadena de middlewares base:
// recover, request-id, métricas, logging y security headers.
func New(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(metrics.WithMetrics)
	r.Use(mw.WithLogging())
	r.Use(mw.WithSecurityHeaders())

	mountAuthRoutes(r, deps)
	mountAdminRoutes(r, deps)
	mountSystemRoutes(r, deps)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	return r
}

// rateLimit arma el middleware de rate limit por IP, o un no-op si no
// hay limiter configurado.
func rateLimit(l mw.RateLimiter) func(http.Handler) http.Handler {
	return mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: l,
		KeyFunc: mw.IPOnlyRateKey,
	})
}
