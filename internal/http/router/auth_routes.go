package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/idmanager/internal/http/middlewares"
)

// mountAuthRoutes registra el flujo completo de autenticación.
func mountAuthRoutes(r chi.Router, deps Deps) {
	c := deps.Auth
	if c == nil {
		return
	}

	// Endpoints públicos. Todo lo que toca credenciales va con no-store
	// y rate limit por IP.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())

		r.With(rateLimit(deps.LoginLimiter)).Post("/login", c.Login.Login)
		r.Get("/auth/register", c.Register.Options)
		r.Post("/auth/register", c.Register.Register)
		r.Get("/confirm-email", c.Email.ConfirmEmail)
		r.With(rateLimit(deps.ForgotLimiter)).Post("/forgot-password", c.Email.ForgotPassword)
		r.Post("/reset-password", c.Email.ResetPassword)
		r.With(rateLimit(deps.TwoFactorLimiter)).Post("/auth/verify-authenticator", c.TwoFactor.Verify)
	})

	// Endpoints que requieren access token válido.
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth(deps.Issuer))
		r.Use(mw.WithNoStore())

		r.Get("/me", c.Me.Me)
		r.Post("/logout", c.Logout.Logout)
		r.With(rateLimit(deps.TwoFactorLimiter)).Get("/auth/enable-authenticator", c.TwoFactor.Enroll)
		r.With(rateLimit(deps.TwoFactorLimiter)).Post("/auth/enable-authenticator", c.TwoFactor.Activate)
		r.Get("/auth/remove-authenticator", c.TwoFactor.Remove)
	})
}
