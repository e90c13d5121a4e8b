package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/idmanager/internal/http/errors"
	jwtx "github.com/dropDatabas3/idmanager/internal/jwt"
)

// RequireAuth valida Authorization: Bearer <JWT> y guarda las claims en el contexto.
// Si el token es inválido o no está presente, responde 401.
func RequireAuth(issuer *jwtx.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			claims, err := issuer.Parse(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="`+err.Error()+`"`)
				errors.WriteError(w, errors.ErrTokenInvalid.WithDetail(err.Error()))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			if claims.Subject != "" {
				ctx = WithUserID(ctx, claims.Subject)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole valida que las claims del contexto incluyan el rol dado.
// Debe usarse después de RequireAuth. La comparación ignora mayúsculas,
// igual que la forma normalizada de los roles.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cl := GetClaims(r.Context())
			if cl == nil {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("no claims in context"))
				return
			}
			for _, have := range cl.Roles {
				if strings.EqualFold(have, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			errors.WriteError(w, errors.ErrForbidden.WithDetail("role "+role+" required"))
		})
	}
}
