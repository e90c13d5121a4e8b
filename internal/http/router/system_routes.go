package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/idmanager/internal/observability/logger"
)

// mountSystemRoutes registra health, métricas y el JWKS público.
func mountSystemRoutes(r chi.Router, deps Deps) {
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := "ok"
		code := http.StatusOK
		if deps.Health != nil {
			if err := deps.Health(req); err != nil {
				logger.From(req.Context()).Warn("health check failed", logger.Err(err))
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	if len(deps.JWKS) > 0 {
		r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Cache-Control", "public, max-age=300")
			_, _ = w.Write(deps.JWKS)
		})
	}
}
