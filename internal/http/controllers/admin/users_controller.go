package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/idmanager/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/idmanager/internal/http/errors"
	svc "github.com/dropDatabas3/idmanager/internal/http/services/admin"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	"go.uber.org/zap"
)

// UsersController maneja la administración de usuarios.
type UsersController struct {
	service svc.UsersService
}

// NewUsersController crea el controller de usuarios.
func NewUsersController(service svc.UsersService) *UsersController {
	return &UsersController{service: service}
}

// List devuelve todos los usuarios con sus roles.
// GET /user
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.List"))

	resp, err := c.service.List(ctx)
	if err != nil {
		log.Error("user list failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Roles devuelve los roles actuales de un usuario.
// GET /user/manage-role?userId=...
func (c *UsersController) Roles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Roles"))

	resp, err := c.service.RolesOf(ctx, r.URL.Query().Get("userId"))
	if err != nil {
		c.writeUserError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ManageRoles reemplaza los roles de un usuario.
// POST /user/manage-role
func (c *UsersController) ManageRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.ManageRoles"))

	var req dto.ManageUserRolesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, err := c.service.ManageRoles(ctx, req)
	if err != nil {
		c.writeUserError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// LockUnlock alterna el bloqueo administrativo de un usuario.
// POST /user/lock-unlock-user
func (c *UsersController) LockUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.LockUnlock"))

	var req dto.LockUnlockUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, err := c.service.LockUnlock(ctx, req.UserID)
	if err != nil {
		c.writeUserError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete elimina un usuario en forma definitiva.
// POST /user/delete
func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Delete"))

	var req dto.DeleteUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if err := c.service.Delete(ctx, req.UserID); err != nil {
		c.writeUserError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (c *UsersController) writeUserError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)
	case errors.Is(err, svc.ErrRoleNotFound):
		httperrors.WriteError(w, httperrors.ErrRoleNotFound)
	default:
		log.Error("user admin operation failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
