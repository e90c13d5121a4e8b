// Package auth contiene los servicios del flujo de autenticación:
// login con password, registro, confirmación de email, reset de
// password, segundo factor TOTP y logout.
package auth

import (
	"time"

	"github.com/dropDatabas3/idmanager/internal/cache"
	"github.com/dropDatabas3/idmanager/internal/email"
	jwtx "github.com/dropDatabas3/idmanager/internal/jwt"
	"github.com/dropDatabas3/idmanager/internal/security/password"
	"github.com/dropDatabas3/idmanager/internal/security/secretbox"
	"github.com/dropDatabas3/idmanager/internal/store"
)

// Deps agrupa las dependencias compartidas por los servicios de auth.
type Deps struct {
	Store  store.Store
	Cache  cache.Client
	Issuer *jwtx.Issuer
	Mailer *email.Mailer
	Box    *secretbox.Box

	Policy    password.Policy
	Blacklist *password.Blacklist

	// SessionTTL resuelve el TTL de sesión según remember_me.
	SessionTTL func(remember bool) time.Duration

	VerifyTTL time.Duration // vida del código de confirmación de email
	ResetTTL  time.Duration // vida del código de reset de password

	LockoutMaxAttempts int
	LockoutDuration    time.Duration

	// TOTPIssuer es el label que muestran las apps authenticator.
	TOTPIssuer string

	AllowRoleSelection bool
}

// Services reúne los servicios de auth ya construidos.
type Services struct {
	Login     LoginService
	Register  RegisterService
	Email     EmailFlowsService
	TwoFactor TwoFactorService
	Logout    LogoutService
	Profile   ProfileService
}

// New construye el set completo de servicios de auth.
func New(deps Deps) *Services {
	if deps.Policy == (password.Policy{}) {
		deps.Policy = password.DefaultPolicy
	}
	if deps.SessionTTL == nil {
		deps.SessionTTL = func(bool) time.Duration { return 12 * time.Hour }
	}
	if deps.VerifyTTL == 0 {
		deps.VerifyTTL = 48 * time.Hour
	}
	if deps.ResetTTL == 0 {
		deps.ResetTTL = time.Hour
	}
	if deps.LockoutMaxAttempts == 0 {
		deps.LockoutMaxAttempts = 5
	}
	if deps.LockoutDuration == 0 {
		deps.LockoutDuration = 5 * time.Minute
	}
	return &Services{
		Login:     &loginService{deps: deps},
		Register:  &registerService{deps: deps},
		Email:     &emailFlowsService{deps: deps},
		TwoFactor: &twoFactorService{deps: deps},
		Logout:    &logoutService{deps: deps},
		Profile:   &profileService{deps: deps},
	}
}
