package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/schoolsync/internal/server/storage/sqlite"
	"github.com/iudanet/schoolsync/pkg/api"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, func()) {
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)

	handler := NewAuthHandler(testLogger(), store, store, testJWTConfig())

	cleanup := func() {
		_ = store.Close()
	}

	return handler, cleanup
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func registerTestUser(t *testing.T, handler *AuthHandler) api.RegisterResponse {
	w := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		SchoolName: "School #7",
		Username:   "teacher1",
		Password:   "strongpassword",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.RegisterResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func loginTestUser(t *testing.T, handler *AuthHandler) api.TokenResponse {
	w := postJSON(t, handler.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "teacher1",
		Password: "strongpassword",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	resp := registerTestUser(t, handler)
	assert.NotEmpty(t, resp.UserID)
	assert.NotEmpty(t, resp.SchoolID)
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	tests := []struct {
		name string
		req  api.RegisterRequest
	}{
		{"short username", api.RegisterRequest{SchoolName: "s", Username: "ab", Password: "strongpassword"}},
		{"bad username chars", api.RegisterRequest{SchoolName: "s", Username: "te acher", Password: "strongpassword"}},
		{"short password", api.RegisterRequest{SchoolName: "s", Username: "teacher1", Password: "short"}},
		{"missing school name", api.RegisterRequest{Username: "teacher1", Password: "strongpassword"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, handler.Register, "/api/v1/auth/register", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthHandler_Register_DuplicateUsername(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	registerTestUser(t, handler)

	w := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		SchoolName: "Another School",
		Username:   "teacher1",
		Password:   "strongpassword",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	reg := registerTestUser(t, handler)
	tokens := loginTestUser(t, handler)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Greater(t, tokens.ExpiresIn, int64(0))

	// Access token несет идентичность пользователя и школы
	claims, err := ValidateAccessToken(testJWTConfig(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, claims.UserID)
	assert.Equal(t, reg.SchoolID, claims.SchoolID)
}

func TestAuthHandler_Login_WrongCredentials(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	registerTestUser(t, handler)

	// Неверный пароль и несуществующий пользователь неразличимы
	wrongPass := postJSON(t, handler.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "teacher1",
		Password: "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)

	noUser := postJSON(t, handler.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "ghost",
		Password: "whatever123",
	})
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
}

func TestAuthHandler_Refresh_Rotation(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	registerTestUser(t, handler)
	tokens := loginTestUser(t, handler)

	w := postJSON(t, handler.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var refreshed api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&refreshed))
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	// Старый refresh token отозван ротацией
	reuse := postJSON(t, handler.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, reuse.Code)
}

func TestAuthHandler_Refresh_Unknown(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	w := postJSON(t, handler.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: "unknown-token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	registerTestUser(t, handler)
	tokens := loginTestUser(t, handler)

	w := postJSON(t, handler.Logout, "/api/v1/auth/logout", api.LogoutRequest{
		RefreshToken: tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Отозванный токен больше не обменивается
	refresh := postJSON(t, handler.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, refresh.Code)

	// Повторный logout с тем же токеном идемпотентен
	again := postJSON(t, handler.Logout, "/api/v1/auth/logout", api.LogoutRequest{
		RefreshToken: tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusNoContent, again.Code)
}
