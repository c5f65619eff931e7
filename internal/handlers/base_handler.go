package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	authmw "github.com/lingoroots/backend/internal/auth/middleware"
	"github.com/lingoroots/backend/internal/models"
	"github.com/lingoroots/backend/internal/quizrunner"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// HandleServiceError maps a service error to a status code.
// Client errors carry their message; anything else is logged and answered with fallback.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(fallback, zap.Error(err))
		h.RespondError(w, status, fallback)
		return
	}
	h.RespondError(w, status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict), errors.Is(err, quizrunner.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v, answering 400 on failure
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeBody(r, v); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// userID returns the authenticated user, answering 401 when there is none
func (h *BaseHandler) userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := authmw.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}

// canEdit reports whether the caller may see unpublished content
func canEdit(r *http.Request) bool {
	role, ok := authmw.GetRole(r.Context())
	return ok && role >= models.RoleContentCreator
}

// pathInt parses a positive integer URL parameter, answering 400 on failure
func (h *BaseHandler) pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		h.RespondError(w, http.StatusBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
