package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/idmanager/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/idmanager/internal/http/errors"
	svc "github.com/dropDatabas3/idmanager/internal/http/services/admin"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

// RolesController maneja el CRUD de roles.
type RolesController struct {
	service svc.RolesService
}

// NewRolesController crea el controller de roles.
func NewRolesController(service svc.RolesService) *RolesController {
	return &RolesController{service: service}
}

// List devuelve todos los roles.
// GET /role
func (c *RolesController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RolesController.List"))

	resp, err := c.service.List(ctx)
	if err != nil {
		log.Error("role list failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Upsert crea o renombra un rol.
// POST /role/upsert
func (c *RolesController) Upsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RolesController.Upsert"))

	var req dto.UpsertRoleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	created := req.ID == ""
	resp, err := c.service.Upsert(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrRoleNotFound):
			httperrors.WriteError(w, httperrors.ErrRoleNotFound)
		case errors.Is(err, svc.ErrRoleExists):
			httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("role name already exists"))
		default:
			log.Error("role upsert failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// Delete borra un rol sin asignaciones.
// POST /role/delete
func (c *RolesController) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RolesController.Delete"))

	var req dto.DeleteRoleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if err := c.service.Delete(ctx, req.ID); err != nil {
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		case errors.Is(err, svc.ErrRoleNotFound):
			httperrors.WriteError(w, httperrors.ErrRoleNotFound)
		case errors.Is(err, svc.ErrRoleInUse):
			httperrors.WriteError(w, httperrors.ErrRoleInUse)
		default:
			log.Error("role delete failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
