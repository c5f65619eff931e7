package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

// ProfileService is the interface that wraps methods for profile and user administration.
type ProfileService interface {
	// Method GetProfile returns the user together with their progress.
	GetProfile(ctx context.Context, userID int) (*models.UserProfile, error)
	// Method UpdateProfile applies the non-nil fields of "req".
	UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.UserProfile, error)
	// Method SelectLanguage sets the language the user is learning. The language must exist and be active.
	SelectLanguage(ctx context.Context, userID int, req *models.SelectLanguageRequest) error
	// Method ListUsers returns one page of users and the total count.
	ListUsers(ctx context.Context, page, count int) ([]models.UserListItem, int, error)
	// Method UpdateRole changes the role of "userID". An admin cannot change their own role.
	UpdateRole(ctx context.Context, actorID, userID int, role models.Role) error
}

// ProgressService is the interface that wraps methods for progress ledger writes.
type ProgressService interface {
	GetProgress(ctx context.Context, userID int) (*models.Progress, error)
	// Method CompleteLesson marks the lesson completed. Repeated calls award nothing.
	CompleteLesson(ctx context.Context, userID int, languageID string, lessonID int) (*models.ProgressUpdate, error)
	// Method RecordQuizResult records a client-computed score.
	//
	// A repeated "idempotencyKey" is applied once; an empty key makes every call a new result.
	RecordQuizResult(ctx context.Context, userID int, languageID string, quizID int, req *models.QuizResultRequest, idempotencyKey string) (*models.ProgressUpdate, error)
}

// UserListResponse is one page of users
type UserListResponse struct {
	Items []models.UserListItem `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Count int                   `json:"count"`
}

// ProfileHandler handles the current user's profile and admin user management
type ProfileHandler struct {
	BaseHandler
	profileService  ProfileService
	progressService ProgressService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService, progressService ProgressService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		profileService:  profileService,
		progressService: progressService,
	}
}

// RegisterRoutes registers profile routes.
// authMiddleware guards /me, adminMiddleware guards /admin/users.
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.GetProfile)
		r.Patch("/me", h.UpdateProfile)
		r.Get("/me/progress", h.GetProgress)
		r.Put("/me/language", h.SelectLanguage)
	})

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Get("/admin/users", h.ListUsers)
		r.Put("/admin/users/{userID}/role", h.UpdateRole)
	})
}

// GetProfile handles GET /me
// @Summary Get current user
// @Description Get the signed-in user with their progress. A lapsed streak is reported as 0.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} map[string]string
// @Router /me [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to get profile")
		return
	}

	h.RespondJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /me
// @Summary Update current user
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /me [patch]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to update profile")
		return
	}

	h.RespondJSON(w, http.StatusOK, profile)
}

// GetProgress handles GET /me/progress
// @Summary Get current user's progress
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Progress
// @Failure 401 {object} map[string]string
// @Router /me/progress [get]
func (h *ProfileHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	progress, err := h.progressService.GetProgress(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to get progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// SelectLanguage handles PUT /me/language
// @Summary Select learning language
// @Tags profile
// @Accept json
// @Security BearerAuth
// @Param request body models.SelectLanguageRequest true "Language"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Language not found"
// @Router /me/language [put]
func (h *ProfileHandler) SelectLanguage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.SelectLanguageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.profileService.SelectLanguage(r.Context(), userID, &req); err != nil {
		h.HandleServiceError(w, err, "failed to select language")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUsers handles GET /admin/users
// @Summary List users
// @Description Paged user list for administrators
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param count query int false "Page size" default(20)
// @Success 200 {object} UserListResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /admin/users [get]
func (h *ProfileHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid page parameter")
		return
	}
	count, err := queryInt(r, "count", 20)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid count parameter")
		return
	}

	users, total, err := h.profileService.ListUsers(r.Context(), page, count)
	if err != nil {
		h.HandleServiceError(w, err, "failed to list users")
		return
	}

	h.RespondJSON(w, http.StatusOK, UserListResponse{Items: users, Total: total, Page: page, Count: count})
}

// UpdateRole handles PUT /admin/users/{userID}/role
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Param request body models.UpdateRoleRequest true "New role"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/users/{userID}/role [put]
func (h *ProfileHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.userID(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathInt(w, r, "userID")
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.profileService.UpdateRole(r.Context(), actorID, userID, req.Role); err != nil {
		h.HandleServiceError(w, err, "failed to update role")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
