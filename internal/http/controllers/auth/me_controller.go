package auth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/idmanager/internal/http/errors"
	"github.com/dropDatabas3/idmanager/internal/http/middlewares"
	svc "github.com/dropDatabas3/idmanager/internal/http/services/auth"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

// MeController expone el perfil del usuario autenticado.
type MeController struct {
	service svc.ProfileService
}

// NewMeController crea el controller de perfil.
func NewMeController(service svc.ProfileService) *MeController {
	return &MeController{service: service}
}

// Me devuelve los datos del usuario del token.
// GET /me  (requiere auth)
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	resp, err := c.service.Me(ctx, userID)
	if err != nil {
		log.Error("profile lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
