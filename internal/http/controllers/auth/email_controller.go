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
	"go.uber.org/zap"
)

// EmailController maneja confirmación de email y reset de password.
type EmailController struct {
	service svc.EmailFlowsService
}

// NewEmailController crea el controller de flujos de email.
func NewEmailController(service svc.EmailFlowsService) *EmailController {
	return &EmailController{service: service}
}

// ConfirmEmail consume el link de confirmación.
// GET /confirm-email?userId=...&code=...
func (c *EmailController) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("EmailController.ConfirmEmail"))

	req := dto.ConfirmEmailRequest{
		UserID: r.URL.Query().Get("userId"),
		Code:   r.URL.Query().Get("code"),
	}

	if err := c.service.ConfirmEmail(ctx, req); err != nil {
		c.writeTokenError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// ForgotPassword dispara el mail de reset. Responde 202 siempre.
// POST /forgot-password
func (c *EmailController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("EmailController.ForgotPassword"))

	var req dto.ForgotPasswordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if err := c.service.ForgotPassword(ctx, req); err != nil {
		if errors.Is(err, svc.ErrMissingFields) {
			httperrors.WriteError(w, httperrors.ErrMissingFields)
			return
		}
		// cualquier otra cosa ya fue tragada por el servicio
		log.Error("forgot password failed", logger.Err(err))
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ResetPassword consume el código de reset y cambia la password.
// POST /reset-password
func (c *EmailController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("EmailController.ResetPassword"))

	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if err := c.service.ResetPassword(ctx, req); err != nil {
		var weak *svc.WeakPasswordError
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrPasswordMismatch):
			httperrors.WriteError(w, httperrors.ErrUnprocessableEntity.WithDetail("password and confirmation do not match"))
		case errors.As(err, &weak):
			httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(strings.Join(weak.Reasons, ", ")))
		case errors.Is(err, svc.ErrBlacklistedPass):
			httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail("password is too common"))
		default:
			c.writeTokenError(w, err, log)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

func (c *EmailController) writeTokenError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrTokenExpired):
		httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithDetail("token expired"))
	case errors.Is(err, svc.ErrTokenInvalid):
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)
	default:
		log.Error("email flow failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
