package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	"github.com/dropDatabas3/idmanager/internal/http/metrics"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	"github.com/dropDatabas3/idmanager/internal/security/password"
	tokens "github.com/dropDatabas3/idmanager/internal/security/token"
)

// RegisterService maneja el alta de usuarios.
type RegisterService interface {
	// Register valida el payload, crea el usuario y dispara el mail de
	// confirmación. Si la validación falla no se crea nada.
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResponse, error)

	// Options reporta si el alta acepta selección de roles y, en ese
	// caso, el catálogo vigente. El catálogo se consulta en vivo.
	Options(ctx context.Context) (*dto.RegisterOptionsResponse, error)
}

// Errores de registro
var (
	ErrPasswordMismatch = fmt.Errorf("password and confirmation do not match")
	ErrEmailInUse       = fmt.Errorf("email already in use")
	ErrRoleNotAllowed   = fmt.Errorf("role selection not allowed")
	ErrInvalidEmail     = fmt.Errorf("invalid email")
	ErrBlacklistedPass  = fmt.Errorf("password is too common")
	ErrUserCreateFailed = fmt.Errorf("failed to create user")
	ErrUnknownRole      = fmt.Errorf("unknown role")
)

// WeakPasswordError lleva los motivos concretos del rechazo de policy.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return "password does not meet policy: " + strings.Join(e.Reasons, ", ")
}

type registerService struct {
	deps Deps
}

func (s *registerService) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	// Toda la validación ocurre ANTES de tocar el store: un payload
	// inválido jamás deja un usuario a medias.
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Name == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if !looksLikeEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		return nil, &WeakPasswordError{Reasons: reasons}
	}
	if s.deps.Blacklist != nil && s.deps.Blacklist.Contains(in.Password) {
		return nil, ErrBlacklistedPass
	}
	if len(in.Roles) > 0 && !s.deps.AllowRoleSelection {
		return nil, ErrRoleNotAllowed
	}

	hash, err := password.Hash(password.Default, in.Password)
	if err != nil {
		log.Error("password hashing failed", logger.Err(err))
		return nil, ErrUserCreateFailed
	}

	user, err := s.deps.Store.Users().Create(ctx, repository.CreateUserInput{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, ErrEmailInUse
		}
		log.Error("user create failed", logger.Err(err))
		return nil, ErrUserCreateFailed
	}

	log = log.With(logger.UserID(user.ID))

	// Roles opcionales del alta (sólo si la instancia lo permite).
	if len(in.Roles) > 0 {
		if err := s.deps.Store.Roles().AddUserRoles(ctx, user.ID, in.Roles); err != nil {
			if repository.IsNotFound(err) {
				// rollback manual: el alta con rol inexistente no debe quedar
				_ = s.deps.Store.Users().Delete(ctx, user.ID)
				return nil, fmt.Errorf("%w: %v", ErrUnknownRole, err)
			}
			log.Error("failed to assign roles at register", logger.Err(err))
		}
	}

	// Confirmación por mail: best-effort, el alta ya quedó hecha.
	sent := s.sendConfirmation(ctx, user.ID, user.Email, user.Name)

	return &dto.RegisterResponse{
		UserID:           user.ID,
		Email:            user.Email,
		ConfirmationSent: sent,
	}, nil
}

func (s *registerService) sendConfirmation(ctx context.Context, userID, email, name string) bool {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("sendConfirmation"), logger.UserID(userID))

	code, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		log.Error("failed to generate confirmation code", logger.Err(err))
		return false
	}
	if _, err := s.deps.Store.EmailTokens().Create(ctx, repository.CreateEmailTokenInput{
		UserID:    userID,
		Email:     email,
		Purpose:   repository.EmailTokenConfirm,
		TokenHash: tokens.SHA256Base64URL(code),
		TTL:       s.deps.VerifyTTL,
	}); err != nil {
		log.Error("failed to persist confirmation token", logger.Err(err))
		return false
	}
	if s.deps.Mailer == nil {
		return false
	}
	err = s.deps.Mailer.SendConfirmation(email, name, userID, code, s.deps.VerifyTTL)
	metrics.RecordEmailSent("confirm", err)
	if err != nil {
		log.Warn("confirmation email failed", logger.Err(err))
		return false
	}
	return true
}

func (s *registerService) Options(ctx context.Context) (*dto.RegisterOptionsResponse, error) {
	out := &dto.RegisterOptionsResponse{AllowRoleSelection: s.deps.AllowRoleSelection}
	if !s.deps.AllowRoleSelection {
		return out, nil
	}
	roles, err := s.deps.Store.Roles().List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		out.Roles = append(out.Roles, r.Name)
	}
	return out, nil
}

// looksLikeEmail es deliberadamente laxo: el mail de confirmación es la
// verdadera validación.
func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n")
}
