package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/idmanager/internal/http/errors"
	svc "github.com/dropDatabas3/idmanager/internal/http/services/auth"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

// LogoutController maneja POST /logout.
type LogoutController struct {
	service svc.LogoutService
}

// NewLogoutController crea el controller de logout.
func NewLogoutController(service svc.LogoutService) *LogoutController {
	return &LogoutController{service: service}
}

// Logout revoca la sesión. Siempre responde 200: repetir un logout no
// es un error.
// POST /logout
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	var req dto.LogoutRequest
	// body opcional: el token puede venir en JSON o en X-Session-Token
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if req.SessionToken == "" {
		req.SessionToken = strings.TrimSpace(r.Header.Get("X-Session-Token"))
	}

	if err := c.service.Logout(ctx, req.SessionToken); err != nil {
		log.Error("logout failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
