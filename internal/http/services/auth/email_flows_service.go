package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	"github.com/dropDatabas3/idmanager/internal/http/metrics"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	"github.com/dropDatabas3/idmanager/internal/security/password"
	tokens "github.com/dropDatabas3/idmanager/internal/security/token"
)

// EmailFlowsService maneja confirmación de email y reset de password.
type EmailFlowsService interface {
	// ConfirmEmail consume el código enviado por mail y marca el email
	// como verificado.
	ConfirmEmail(ctx context.Context, in dto.ConfirmEmailRequest) error

	// ForgotPassword dispara el mail de reset. La respuesta es idéntica
	// exista o no la cuenta.
	ForgotPassword(ctx context.Context, in dto.ForgotPasswordRequest) error

	// ResetPassword consume el código de reset y cambia la password.
	// Revoca todas las sesiones vivas del usuario.
	ResetPassword(ctx context.Context, in dto.ResetPasswordRequest) error
}

// Errores de los flujos de email
var (
	ErrTokenInvalid = fmt.Errorf("token invalid or already used")
	ErrTokenExpired = fmt.Errorf("token expired")
)

type emailFlowsService struct {
	deps Deps
}

func (s *emailFlowsService) ConfirmEmail(ctx context.Context, in dto.ConfirmEmailRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.email"),
		logger.Op("ConfirmEmail"),
	)

	in.UserID = strings.TrimSpace(in.UserID)
	in.Code = strings.TrimSpace(in.Code)
	if in.UserID == "" || in.Code == "" {
		return ErrMissingFields
	}

	err := s.deps.Store.EmailTokens().Consume(ctx, repository.EmailTokenConfirm, in.UserID, tokens.SHA256Base64URL(in.Code))
	if err != nil {
		if errors.Is(err, repository.ErrTokenExpired) {
			return ErrTokenExpired
		}
		if repository.IsNotFound(err) {
			return ErrTokenInvalid
		}
		log.Error("confirm token consume failed", logger.Err(err))
		return err
	}

	if err := s.deps.Store.Users().SetEmailVerified(ctx, in.UserID, true); err != nil {
		log.Error("failed to mark email verified", logger.Err(err), logger.UserID(in.UserID))
		return err
	}
	log.Info("email confirmed", logger.UserID(in.UserID))
	return nil
}

func (s *emailFlowsService) ForgotPassword(ctx context.Context, in dto.ForgotPasswordRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.email"),
		logger.Op("ForgotPassword"),
	)

	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return ErrMissingFields
	}

	// A partir de acá todo es best-effort y silencioso: la respuesta al
	// cliente no cambia exista o no la cuenta.
	user, err := s.deps.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if !repository.IsNotFound(err) {
			log.Error("user lookup failed", logger.Err(err))
		}
		return nil
	}

	code, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		log.Error("failed to generate reset code", logger.Err(err))
		return nil
	}
	if _, err := s.deps.Store.EmailTokens().Create(ctx, repository.CreateEmailTokenInput{
		UserID:    user.ID,
		Email:     user.Email,
		Purpose:   repository.EmailTokenPasswordReset,
		TokenHash: tokens.SHA256Base64URL(code),
		TTL:       s.deps.ResetTTL,
	}); err != nil {
		log.Error("failed to persist reset token", logger.Err(err))
		return nil
	}
	if s.deps.Mailer != nil {
		merr := s.deps.Mailer.SendPasswordReset(user.Email, user.Name, user.ID, code, s.deps.ResetTTL)
		metrics.RecordEmailSent("reset", merr)
		if merr != nil {
			log.Warn("reset email failed", logger.Err(merr), logger.UserID(user.ID))
		}
	}
	return nil
}

func (s *emailFlowsService) ResetPassword(ctx context.Context, in dto.ResetPasswordRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.email"),
		logger.Op("ResetPassword"),
	)

	in.UserID = strings.TrimSpace(in.UserID)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Code = strings.TrimSpace(in.Code)
	if (in.UserID == "" && in.Email == "") || in.Code == "" || in.Password == "" {
		return ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		return &WeakPasswordError{Reasons: reasons}
	}
	if s.deps.Blacklist != nil && s.deps.Blacklist.Contains(in.Password) {
		return ErrBlacklistedPass
	}

	if in.UserID == "" {
		// Cuenta identificada por email: un email desconocido se reporta
		// igual que un token inválido, sin revelar existencia.
		user, err := s.deps.Store.Users().GetByEmail(ctx, in.Email)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrTokenInvalid
			}
			log.Error("user lookup failed", logger.Err(err))
			return err
		}
		in.UserID = user.ID
	}

	err := s.deps.Store.EmailTokens().Consume(ctx, repository.EmailTokenPasswordReset, in.UserID, tokens.SHA256Base64URL(in.Code))
	if err != nil {
		if errors.Is(err, repository.ErrTokenExpired) {
			return ErrTokenExpired
		}
		if repository.IsNotFound(err) {
			return ErrTokenInvalid
		}
		log.Error("reset token consume failed", logger.Err(err))
		return err
	}

	hash, err := password.Hash(password.Default, in.Password)
	if err != nil {
		log.Error("password hashing failed", logger.Err(err))
		return err
	}
	if err := s.deps.Store.Users().UpdatePasswordHash(ctx, in.UserID, hash); err != nil {
		log.Error("failed to update password", logger.Err(err), logger.UserID(in.UserID))
		return err
	}

	// Cambió la credencial: afuera todas las sesiones previas.
	if err := s.deps.Store.Sessions().RevokeAllForUser(ctx, in.UserID); err != nil {
		log.Warn("failed to revoke sessions after reset", logger.Err(err), logger.UserID(in.UserID))
	}
	// El reset también limpia un posible lockout vigente.
	if err := s.deps.Store.Users().SetLockout(ctx, in.UserID, nil); err != nil {
		log.Warn("failed to reset login failures", logger.Err(err), logger.UserID(in.UserID))
	}
	log.Info("password reset", logger.UserID(in.UserID))
	return nil
}
