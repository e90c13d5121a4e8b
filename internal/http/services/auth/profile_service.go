package auth

import (
	"context"

	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

// ProfileService expone los datos del usuario autenticado.
type ProfileService interface {
	Me(ctx context.Context, userID string) (*dto.MeResponse, error)
}

type profileService struct {
	deps Deps
}

func (s *profileService) Me(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.deps.Store.Roles().RolesForUser(ctx, userID)
	if err != nil {
		logger.From(ctx).With(logger.Layer("service"), logger.Op("Me"), logger.UserID(userID)).
			Error("failed to load roles", logger.Err(err))
		return nil, err
	}
	return &dto.MeResponse{
		UserID:           user.ID,
		Email:            user.Email,
		Name:             user.Name,
		EmailVerified:    user.EmailVerified,
		TwoFactorEnabled: user.TwoFactorEnabled(),
		Roles:            roles,
	}, nil
}
