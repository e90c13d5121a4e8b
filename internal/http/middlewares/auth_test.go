package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/idmanager/internal/jwt"
)

func newTestIssuer(t *testing.T) *jwtx.Issuer {
	t.Helper()
	ks, err := jwtx.LoadOrGenerate("")
	require.NoError(t, err)
	return jwtx.NewIssuer("idmanager-test", ks, 5*time.Minute)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_MissingAndMalformedToken(t *testing.T) {
	iss := newTestIssuer(t)
	h := RequireAuth(iss)(okHandler())

	// sin header
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")

	// header sin esquema bearer
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// token basura
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ValidTokenExposesClaims(t *testing.T) {
	iss := newTestIssuer(t)
	tok, _, err := iss.IssueAccess("user-1", "ana@example.com", []string{"admin"})
	require.NoError(t, err)

	var gotUserID string
	var gotClaims *jwtx.Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		gotClaims = GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	RequireAuth(iss)(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", gotUserID)
	require.NotNil(t, gotClaims)
	require.Equal(t, "ana@example.com", gotClaims.Email)
}

func TestRequireRole_EnforcesRole(t *testing.T) {
	iss := newTestIssuer(t)
	chain := func(roles []string) (int, http.Header) {
		tok, _, err := iss.IssueAccess("user-1", "ana@example.com", roles)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/role", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		RequireAuth(iss)(RequireRole("admin")(okHandler())).ServeHTTP(rec, req)
		return rec.Code, rec.Header()
	}

	code, _ := chain([]string{"admin"})
	require.Equal(t, http.StatusOK, code)

	// el match de rol ignora mayúsculas
	code, _ = chain([]string{"ADMIN"})
	require.Equal(t, http.StatusOK, code)

	code, _ = chain([]string{"editor"})
	require.Equal(t, http.StatusForbidden, code)

	code, _ = chain(nil)
	require.Equal(t, http.StatusForbidden, code)
}

func TestRequireRole_WithoutAuthIsUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRole("admin")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/role", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
