package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/idmanager/internal/http/middlewares"
)

// mountAdminRoutes registra la API de administración. Todo el grupo
// exige access token con rol admin.
func mountAdminRoutes(r chi.Router, deps Deps) {
	c := deps.Admin
	if c == nil {
		return
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth(deps.Issuer))
		r.Use(mw.RequireRole(AdminRole))
		r.Use(mw.WithNoStore())

		r.Get("/role", c.Roles.List)
		r.Post("/role/upsert", c.Roles.Upsert)
		r.Post("/role/delete", c.Roles.Delete)

		r.Get("/user", c.Users.List)
		r.Get("/user/manage-role", c.Users.Roles)
		r.Post("/user/manage-role", c.Users.ManageRoles)
		r.Post("/user/lock-unlock-user", c.Users.LockUnlock)
		r.Post("/user/delete", c.Users.Delete)
	})
}
