package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/idmanager/internal/http/errors"
	"github.com/dropDatabas3/idmanager/internal/http/metrics"
	svc "github.com/dropDatabas3/idmanager/internal/http/services/auth"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

// LoginController maneja POST /login.
type LoginController struct {
	service svc.LoginService
}

// NewLoginController crea el controller de login.
func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// Login procesa el login con password.
// POST /login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, err := c.service.LoginPassword(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrInvalidReturnURL):
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("return_url must be a local path"))
		case errors.Is(err, svc.ErrInvalidCredentials):
			metrics.RecordLoginOutcome("failed")
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		case errors.Is(err, svc.ErrLockedOut):
			metrics.RecordLoginOutcome("locked_out")
			httperrors.WriteError(w, httperrors.ErrAccountLocked)
		default:
			log.Error("login failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	metrics.RecordLoginOutcome(string(resp.Status))
	writeJSON(w, http.StatusOK, resp)
}
