package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	"github.com/dropDatabas3/idmanager/internal/security/password"
	tokens "github.com/dropDatabas3/idmanager/internal/security/token"
)

// LoginService maneja el login con email + password.
type LoginService interface {
	// LoginPassword valida credenciales y devuelve exactamente uno de los
	// tres estados: succeeded, requires_two_factor o locked_out. Las
	// credenciales inválidas se reportan como error.
	LoginPassword(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error)
}

// Errores de login
var (
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrLockedOut          = fmt.Errorf("account locked out")
	ErrInvalidReturnURL   = fmt.Errorf("return url must be a local path")
	ErrTokenIssueFailed   = fmt.Errorf("failed to issue token")
)

const (
	twoFactorKeyPrefix = "twofactor:token:"
	twoFactorTokenTTL  = 5 * time.Minute
)

// pendingChallenge es lo que queda en cache entre el login y el segundo paso.
type pendingChallenge struct {
	UserID     string `json:"user_id"`
	RememberMe bool   `json:"remember_me"`
	ReturnURL  string `json:"return_url,omitempty"`
}

type loginService struct {
	deps Deps
}

func (s *loginService) LoginPassword(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("LoginPassword"),
	)

	// Paso 0: normalización y validación mínima
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if in.ReturnURL != "" && !IsLocalPath(in.ReturnURL) {
		return nil, ErrInvalidReturnURL
	}

	// Paso 1: buscar usuario
	user, err := s.deps.Store.Users().GetByEmail(ctx, in.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("user not found")
			return nil, ErrInvalidCredentials
		}
		log.Error("user lookup failed", logger.Err(err))
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))
	now := time.Now().UTC()

	// Paso 2: el lockout manda sobre todo lo demás, incluso con password
	// correcta no se revela nada más que el estado bloqueado.
	if user.LockedOut(now) {
		log.Info("login rejected, account locked")
		return nil, ErrLockedOut
	}

	// Paso 3: verificar password
	if !password.Verify(in.Password, user.PasswordHash) {
		lockedNow, ferr := s.deps.Store.Users().RecordLoginFailure(ctx, user.ID, s.deps.LockoutMaxAttempts, s.deps.LockoutDuration)
		if ferr != nil {
			log.Error("failed to record login failure", logger.Err(ferr))
		}
		if lockedNow {
			log.Warn("account locked after repeated failures")
			return nil, ErrLockedOut
		}
		return nil, ErrInvalidCredentials
	}

	// Paso 4: si el usuario tiene TOTP activo, el login queda pendiente
	// de un segundo paso. No se emite sesión todavía.
	if user.TwoFactorEnabled() {
		tok, err := tokens.GenerateOpaqueToken(32)
		if err != nil {
			log.Error("failed to generate two-factor token", logger.Err(err))
			return nil, ErrTokenIssueFailed
		}
		payload, _ := json.Marshal(pendingChallenge{
			UserID:     user.ID,
			RememberMe: in.RememberMe,
			ReturnURL:  in.ReturnURL,
		})
		if err := s.deps.Cache.Set(ctx, twoFactorKeyPrefix+tok, string(payload), twoFactorTokenTTL); err != nil {
			log.Error("failed to store two-factor challenge", logger.Err(err))
			return nil, ErrTokenIssueFailed
		}
		log.Info("two-factor challenge issued")
		return &dto.LoginResponse{
			Status:         dto.OutcomeRequiresTwoFactor,
			TwoFactorToken: tok,
		}, nil
	}

	// Paso 5: emitir sesión + access token
	resp, err := finalizeLogin(ctx, s.deps, user, in.RememberMe, in.ReturnURL)
	if err != nil {
		return nil, err
	}
	log.Info("login succeeded")
	return resp, nil
}

// finalizeLogin resetea el contador de fallos, crea la sesión opaca y
// emite el access token. Lo comparten el login directo y el segundo
// paso TOTP.
func finalizeLogin(ctx context.Context, deps Deps, user *repository.User, remember bool, returnURL string) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("finalizeLogin"), logger.UserID(user.ID))

	if err := deps.Store.Users().ResetLoginFailures(ctx, user.ID); err != nil {
		// no bloquea el login, sólo deja el contador sucio
		log.Warn("failed to reset login failures", logger.Err(err))
	}

	roles, err := deps.Store.Roles().RolesForUser(ctx, user.ID)
	if err != nil {
		log.Error("failed to load user roles", logger.Err(err))
		return nil, err
	}

	sessTok, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return nil, ErrTokenIssueFailed
	}
	if _, err := deps.Store.Sessions().Create(ctx, repository.CreateSessionInput{
		UserID:    user.ID,
		TokenHash: tokens.SHA256Base64URL(sessTok),
		TTL:       deps.SessionTTL(remember),
	}); err != nil {
		log.Error("failed to create session", logger.Err(err))
		return nil, err
	}

	access, exp, err := deps.Issuer.IssueAccess(user.ID, user.Email, roles)
	if err != nil {
		log.Error("failed to issue access token", logger.Err(err))
		return nil, ErrTokenIssueFailed
	}

	return &dto.LoginResponse{
		Status:       dto.OutcomeSucceeded,
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(exp).Seconds()),
		SessionToken: sessTok,
		ReturnURL:    returnURL,
	}, nil
}

// IsLocalPath acepta sólo paths relativos al propio host. Rechaza
// URLs absolutas, protocol-relative ("//host") y backslashes que
// algunos browsers normalizan a slash.
func IsLocalPath(u string) bool {
	if u == "" {
		return false
	}
	if !strings.HasPrefix(u, "/") {
		return false
	}
	if strings.HasPrefix(u, "//") || strings.HasPrefix(u, "/\\") {
		return false
	}
	if strings.ContainsAny(u, "\r\n") {
		return false
	}
	return true
}
