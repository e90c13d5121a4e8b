package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idmanager/internal/cache"
	authctrl "github.com/dropDatabas3/idmanager/internal/http/controllers/auth"
	authsvc "github.com/dropDatabas3/idmanager/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/idmanager/internal/jwt"
	"github.com/dropDatabas3/idmanager/internal/store/memory"
)

func newTestRouter(t *testing.T) (*jwtx.Issuer, http.Handler) {
	t.Helper()

	ks, err := jwtx.LoadOrGenerate("")
	require.NoError(t, err)
	issuer := jwtx.NewIssuer("idmanager-test", ks, 5*time.Minute)

	c, err := cache.New(cache.Config{Driver: "memory"})
	require.NoError(t, err)

	services := authsvc.New(authsvc.Deps{
		Store:  memory.New(),
		Cache:  c,
		Issuer: issuer,
	})
	return issuer, New(Deps{
		Auth:   authctrl.NewControllers(services),
		Issuer: issuer,
	})
}

func TestRouter_LogoutRequiresAuth(t *testing.T) {
	issuer, h := newTestRouter(t)

	// sin access token no hay logout
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// con access token responde 200 aun sin sesión viva (idempotente)
	tok, _, err := issuer.IssueAccess("user-1", "ana@example.com", nil)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_LoginRejectsOversizedBody(t *testing.T) {
	_, h := newTestRouter(t)

	body := `{"email":"a@example.com","password":"` + strings.Repeat("x", 8<<10) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_UnknownRouteIs404(t *testing.T) {
	_, h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no-such-route", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
