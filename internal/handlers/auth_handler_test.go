package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lingoroots/backend/internal/auth/middleware"
	"github.com/lingoroots/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		serviceErr     error
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "success",
			body:           `{"email":"ama@example.com","password":"Passw0rd!","displayName":"Ama"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate email",
			serviceErr:     fmt.Errorf("%w: email already exists", models.ErrConflict),
			body:           `{"email":"ama@example.com","password":"Passw0rd!","displayName":"Ama"}`,
			expectedStatus: http.StatusConflict,
			expectedError:  "email already exists",
		},
		{
			name:           "invalid input",
			serviceErr:     fmt.Errorf("%w: invalid email format", models.ErrInvalidInput),
			body:           `{"email":"nope","password":"Passw0rd!","displayName":"Ama"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid email format",
		},
		{
			name:           "malformed body",
			body:           `{"email":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices()
			s.auth.err = tt.serviceErr
			router := newTestRouter(s)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, errorMessage(t, w), tt.expectedError)
				return
			}

			var tokens models.TokenPair
			require.NoError(t, json.NewDecoder(w.Body).Decode(&tokens))
			assert.Equal(t, "access", tokens.AccessToken)
			assert.Equal(t, "access", getCookieValue(w, middleware.AccessTokenCookie))
			assert.Equal(t, "refresh", getCookieValue(w, RefreshTokenCookie))
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	s := newTestServices()
	router := newTestRouter(s)

	w := do(t, router, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "ama@example.com", Password: "Passw0rd!"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "refresh", getCookieValue(w, RefreshTokenCookie))

	s.auth.err = fmt.Errorf("%w: invalid email or password", models.ErrNotLoggedIn)
	w = do(t, router, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "ama@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "not logged in: invalid email or password", errorMessage(t, w))
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("token from body", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: "old"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "old", s.auth.refreshedOld)
		assert.Equal(t, "refresh", getCookieValue(w, RefreshTokenCookie))
	})

	t.Run("token from cookie", func(t *testing.T) {
		s := newTestServices()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "cookie-token"})
		w := httptest.NewRecorder()
		newTestRouter(s).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "cookie-token", s.auth.refreshedOld)
	})

	t.Run("missing token", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodPost, "/api/v1/auth/refresh", "", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "refresh token required", errorMessage(t, w))
	})

	t.Run("rejected token clears cookies", func(t *testing.T) {
		s := newTestServices()
		s.auth.err = fmt.Errorf("%w: invalid refresh token", models.ErrNotLoggedIn)
		w := do(t, newTestRouter(s), http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: "stale"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		for _, cookie := range w.Result().Cookies() {
			assert.Equal(t, -1, cookie.MaxAge, cookie.Name)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	s := newTestServices()
	w := do(t, newTestRouter(s), http.MethodPost, "/api/v1/auth/logout", "", models.RefreshRequest{RefreshToken: "mine"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mine", s.auth.loggedOut)
	assert.Len(t, w.Result().Cookies(), 2)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	s := newTestServices()
	router := newTestRouter(s)

	w := do(t, router, http.MethodPost, "/api/v1/auth/password-reset", "", models.PasswordResetRequest{Email: "ama@example.com"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/auth/password-reset/confirm", "", models.PasswordResetConfirmRequest{Token: "t", Password: "N3wPassw0rd!"})
	assert.Equal(t, http.StatusOK, w.Code)

	s.auth.err = fmt.Errorf("%w: reset token is invalid or expired", models.ErrInvalidInput)
	w = do(t, router, http.MethodPost, "/api/v1/auth/password-reset/confirm", "", models.PasswordResetConfirmRequest{Token: "t", Password: "N3wPassw0rd!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "reset token is invalid or expired")
}
