package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-assess/internal/rbac"
)

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("s3cret")
	tok, err := a.IssueJWT(Claims{Sub: "u1", Role: "student", TenantID: "t1", OrgID: "o1"})
	require.NoError(t, err)

	var seenRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "u1", actor.UserID)
		assert.Equal(t, "t1", actor.TenantID)
		assert.Equal(t, "o1", actor.OrgID)
		seenRole = rbac.RoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "student", seenRole)

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic " + tok,
		"bad sig":      "Bearer " + mustIssue(t, NewAuthService("other")),
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	a := NewAuthService("s3cret")
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }
	tok := mustIssue(t, a)

	a.now = func() time.Time { return issued.Add(9 * time.Hour) }
	_, err := a.Parse(tok)
	assert.Error(t, err)
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	a := NewAuthService("s3cret")
	h := LoginHandler(a, Admin{User: "admin", PassHash: string(hash), TenantID: "t1"})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"pw"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func mustIssue(t *testing.T, a *AuthService) string {
	t.Helper()
	tok, err := a.IssueJWT(Claims{Sub: "u1", Role: "student"})
	require.NoError(t, err)
	return tok
}
