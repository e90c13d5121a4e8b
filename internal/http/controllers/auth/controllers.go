// Package auth contiene los controllers del flujo de autenticación.
package auth

import (
	"encoding/json"
	"net/http"

	svc "github.com/dropDatabas3/idmanager/internal/http/services/auth"
)

// maxBodyBytes limita el body de todos los payloads de auth, que son
// JSON chicos.
const maxBodyBytes = 4 << 10

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login     *LoginController
	Register  *RegisterController
	Email     *EmailController
	TwoFactor *TwoFactorController
	Logout    *LogoutController
	Me        *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s *svc.Services) *Controllers {
	return &Controllers{
		Login:     NewLoginController(s.Login),
		Register:  NewRegisterController(s.Register),
		Email:     NewEmailController(s.Email),
		TwoFactor: NewTwoFactorController(s.TwoFactor),
		Logout:    NewLogoutController(s.Logout),
		Me:        NewMeController(s.Profile),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
