package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/idmanager/internal/http/errors"
	svc "github.com/dropDatabas3/idmanager/internal/http/services/auth"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

// RegisterController maneja POST /auth/register.
type RegisterController struct {
	service svc.RegisterService
}

// NewRegisterController crea el controller de registro.
func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

// Options devuelve qué acepta el formulario de alta.
// GET /auth/register
func (c *RegisterController) Options(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Options"))

	resp, err := c.service.Options(ctx)
	if err != nil {
		log.Error("register options failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Register procesa el alta de un usuario.
// POST /auth/register
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	var req dto.RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, err := c.service.Register(ctx, req)
	if err != nil {
		var weak *svc.WeakPasswordError
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrInvalidEmail):
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("invalid email"))
		case errors.Is(err, svc.ErrPasswordMismatch):
			httperrors.WriteError(w, httperrors.ErrUnprocessableEntity.WithDetail("password and confirmation do not match"))
		case errors.As(err, &weak):
			httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(strings.Join(weak.Reasons, ", ")))
		case errors.Is(err, svc.ErrBlacklistedPass):
			httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail("password is too common"))
		case errors.Is(err, svc.ErrEmailInUse):
			httperrors.WriteError(w, httperrors.ErrEmailAlreadyInUse)
		case errors.Is(err, svc.ErrRoleNotAllowed):
			httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("role selection is disabled"))
		case errors.Is(err, svc.ErrUnknownRole):
			httperrors.WriteError(w, httperrors.ErrRoleNotFound)
		default:
			log.Error("register failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
