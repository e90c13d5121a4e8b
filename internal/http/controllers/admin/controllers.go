// Package admin contiene los controllers de la API de administración.
package admin

import (
	"encoding/json"
	"net/http"

	svc "github.com/dropDatabas3/idmanager/internal/http/services/admin"
)

// maxBodyBytes limita el body de los requests admin; 64KB da margen
// para listas de roles largas.
const maxBodyBytes = 64 << 10

// Controllers agrupa los controllers de admin.
type Controllers struct {
	Roles *RolesController
	Users *UsersController
}

// NewControllers crea el agregador de controllers admin.
func NewControllers(roles svc.RolesService, users svc.UsersService) *Controllers {
	return &Controllers{
		Roles: NewRolesController(roles),
		Users: NewUsersController(users),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
