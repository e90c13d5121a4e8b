package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/idmanager/internal/http/errors"
	"github.com/dropDatabas3/idmanager/internal/http/metrics"
	"github.com/dropDatabas3/idmanager/internal/http/middlewares"
	svc "github.com/dropDatabas3/idmanager/internal/http/services/auth"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

// TwoFactorController maneja el enrolamiento y la verificación TOTP.
type TwoFactorController struct {
	service svc.TwoFactorService
}

// NewTwoFactorController crea el controller TOTP.
func NewTwoFactorController(service svc.TwoFactorService) *TwoFactorController {
	return &TwoFactorController{service: service}
}

// Enroll devuelve un secreto nuevo para cargar en la app authenticator.
// GET /auth/enable-authenticator  (requiere auth)
func (c *TwoFactorController) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TwoFactorController.Enroll"))

	userID := middlewares.GetUserID(ctx)
	cl := middlewares.GetClaims(ctx)
	if userID == "" || cl == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	resp, err := c.service.Enroll(ctx, userID, cl.Email)
	if err != nil {
		log.Error("totp enroll failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Activate confirma el enrolamiento con el primer código válido.
// POST /auth/enable-authenticator  (requiere auth)
func (c *TwoFactorController) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TwoFactorController.Activate"))

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.ActivateTwoFactorRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if err := c.service.Activate(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrInvalidTwoFactorCode):
			httperrors.WriteError(w, httperrors.ErrInvalidTwoFactorCode)
		case errors.Is(err, svc.ErrTwoFactorNotEnrolled):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("no pending enrollment"))
		default:
			log.Error("totp activate failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "two_factor_enabled"})
}

// Remove desactiva TOTP para el usuario autenticado.
// GET /auth/remove-authenticator  (requiere auth)
func (c *TwoFactorController) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TwoFactorController.Remove"))

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	if err := c.service.Remove(ctx, userID); err != nil {
		log.Error("totp remove failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "two_factor_disabled"})
}

// Verify completa el segundo paso del login.
// POST /auth/verify-authenticator
func (c *TwoFactorController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TwoFactorController.Verify"))

	var req dto.VerifyTwoFactorRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, err := c.service.VerifyChallenge(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrTwoFactorTokenInvalid):
			httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithDetail("two-factor token invalid or expired"))
		case errors.Is(err, svc.ErrInvalidTwoFactorCode):
			metrics.RecordLoginOutcome("failed")
			httperrors.WriteError(w, httperrors.ErrInvalidTwoFactorCode)
		case errors.Is(err, svc.ErrLockedOut):
			metrics.RecordLoginOutcome("locked_out")
			httperrors.WriteError(w, httperrors.ErrAccountLocked)
		default:
			log.Error("totp verify failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	metrics.RecordLoginOutcome(string(resp.Status))
	writeJSON(w, http.StatusOK, resp)
}
