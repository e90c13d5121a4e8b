package auth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	tokens "github.com/dropDatabas3/idmanager/internal/security/token"
)

// LogoutService revoca sesiones.
type LogoutService interface {
	// Logout revoca la sesión del token dado. Es idempotente: repetir el
	// logout o pasar un token desconocido no es error.
	Logout(ctx context.Context, sessionToken string) error
}

type logoutService struct {
	deps Deps
}

func (s *logoutService) Logout(ctx context.Context, sessionToken string) error {
	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" {
		return nil
	}
	err := s.deps.Store.Sessions().Revoke(ctx, tokens.SHA256Base64URL(sessionToken))
	if err != nil {
		logger.From(ctx).With(logger.Layer("service"), logger.Op("Logout")).
			Error("session revoke failed", logger.Err(err))
	}
	return err
}
