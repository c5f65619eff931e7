package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	authmw "github.com/lingoroots/backend/internal/auth/middleware"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

// RefreshTokenCookie holds the refresh token set by sign-in
const RefreshTokenCookie = "refresh_token"

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates sign-up data, creates a learner with empty progress and returns a token pair.
	//
	// If the email is taken, an error wrapping models.ErrConflict is returned; invalid data wraps models.ErrInvalidInput.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPair, error)
	// Method Login checks email and password and returns a token pair.
	//
	// Wrong credentials are reported with an error wrapping models.ErrNotLoggedIn.
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error)
	// Method Refresh rotates "refreshToken" and returns a new token pair.
	//
	// An unknown, invalid or expired token is reported with an error wrapping models.ErrNotLoggedIn.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	// Method Logout forgets "refreshToken".
	Logout(ctx context.Context, refreshToken string) error
	// Method RequestPasswordReset mails a reset link when the account exists.
	RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error
	// Method ResetPassword sets a new password using a reset token.
	ResetPassword(ctx context.Context, req *models.PasswordResetConfirmRequest) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService   AuthService
	accessMaxAge  time.Duration
	refreshMaxAge time.Duration
}

// NewAuthHandler creates a new auth handler.
// accessMaxAge and refreshMaxAge set the lifetime of the token cookies.
func NewAuthHandler(authService AuthService, logger *zap.Logger, accessMaxAge, refreshMaxAge time.Duration) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		authService:   authService,
		accessMaxAge:  accessMaxAge,
		refreshMaxAge: refreshMaxAge,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.Post("/password-reset", h.RequestPasswordReset)
		r.Post("/password-reset/confirm", h.ResetPassword)
	})
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Create a learner account with empty progress. Tokens are returned in the body and as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Sign-up data"
// @Success 201 {object} models.TokenPair
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Email already exists"
// @Failure 500 {object} map[string]string
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to register user")
		return
	}

	h.setTokenCookies(w, tokens)
	h.RespondJSON(w, http.StatusCreated, tokens)
}

// Login handles POST /auth/login
// @Summary Login user
// @Description Authenticate with email and password. Tokens are returned in the body and as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to login user")
		return
	}

	h.setTokenCookies(w, tokens)
	h.RespondJSON(w, http.StatusOK, tokens)
}

// Refresh handles POST /auth/refresh
// @Summary Refresh access token
// @Description Rotate the refresh token. The token can be provided in the request body or as a cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest false "Refresh token (optional if using cookie)"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} map[string]string "Refresh token required"
// @Failure 401 {object} map[string]string "Invalid or expired refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshToken(r)
	if refreshToken == "" {
		h.RespondError(w, http.StatusBadRequest, "refresh token required")
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.clearTokenCookies(w)
		h.HandleServiceError(w, err, "failed to refresh tokens")
		return
	}

	h.setTokenCookies(w, tokens)
	h.RespondJSON(w, http.StatusOK, tokens)
}

// Logout handles POST /auth/logout
// @Summary Logout user
// @Description Forget the refresh token and clear the token cookies
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest false "Refresh token (optional if using cookie)"
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), h.refreshToken(r)); err != nil {
		h.HandleServiceError(w, err, "failed to logout")
		return
	}

	h.clearTokenCookies(w)
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// RequestPasswordReset handles POST /auth/password-reset
// @Summary Request a password reset
// @Description Mail a one-hour reset link. The answer is the same whether or not the account exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordResetRequest true "Account email"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid email"
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), &req); err != nil {
		h.HandleServiceError(w, err, "failed to request password reset")
		return
	}

	h.RespondJSON(w, http.StatusAccepted, map[string]string{"message": "if the account exists, a reset link has been sent"})
}

// ResetPassword handles POST /auth/password-reset/confirm
// @Summary Set a new password
// @Description Set a new password with a reset token. Every session of the user is signed out.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordResetConfirmRequest true "Reset token and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid token or weak password"
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetConfirmRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		h.HandleServiceError(w, err, "failed to reset password")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// refreshToken reads the token from the JSON body, falling back to the cookie
func (h *AuthHandler) refreshToken(r *http.Request) string {
	var req models.RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeBody(r, &req); err == nil && req.RefreshToken != "" {
			return req.RefreshToken
		}
	}
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// setTokenCookies sets access and refresh tokens as HTTP-only cookies
func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, tokens *models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(h.accessMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{authmw.AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
