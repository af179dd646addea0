package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

var authTestSecret = []byte("test-secret")

func signedToken(t *testing.T, secret []byte, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn))}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestRequireBearerTokenRejectsMissingHeader(t *testing.T) {
	called := false
	handler := RequireBearerToken(authTestSecret, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/jobs/1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)
}

func TestRequireBearerTokenRejectsBadSignature(t *testing.T) {
	handler := RequireBearerToken(authTestSecret, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {})

	req := httptest.NewRequest(http.MethodGet, "/jobs/1", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, []byte("wrong-secret"), time.Hour))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireBearerTokenRejectsExpiredToken(t *testing.T) {
	handler := RequireBearerToken(authTestSecret, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {})

	req := httptest.NewRequest(http.MethodGet, "/jobs/1", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, authTestSecret, -time.Hour))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireBearerTokenAcceptsValidToken(t *testing.T) {
	called := false
	handler := RequireBearerToken(authTestSecret, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/jobs/1", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, authTestSecret, time.Hour))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	require.True(t, called)
}
