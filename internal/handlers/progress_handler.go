package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader lets clients retry a quiz result without counting it twice
const IdempotencyKeyHeader = "Idempotency-Key"

// ProgressHandler handles progress ledger writes
type ProgressHandler struct {
	BaseHandler
	progressService ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		progressService: progressService,
	}
}

// RegisterRoutes registers progress routes behind authMiddleware
func (h *ProgressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/languages/{languageID}/lessons/{lessonID}/complete", h.CompleteLesson)
		r.Post("/languages/{languageID}/quizzes/{quizID}/results", h.RecordQuizResult)
	})
}

// CompleteLesson handles POST /languages/{languageID}/lessons/{lessonID}/complete
// @Summary Complete a lesson
// @Description Mark a lesson completed and award its points once. Repeated calls return applied=false.
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param lessonID path int true "Lesson ID"
// @Success 200 {object} models.ProgressUpdate
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /languages/{languageID}/lessons/{lessonID}/complete [post]
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	lessonID, ok := h.pathInt(w, r, "lessonID")
	if !ok {
		return
	}

	update, err := h.progressService.CompleteLesson(r.Context(), userID, chi.URLParam(r, "languageID"), lessonID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to complete lesson")
		return
	}

	h.RespondJSON(w, http.StatusOK, update)
}

// RecordQuizResult handles POST /languages/{languageID}/quizzes/{quizID}/results
// @Summary Record a quiz result
// @Description Record a score computed by the client. Send an Idempotency-Key header to make retries safe.
// @Tags progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param quizID path int true "Quiz ID"
// @Param Idempotency-Key header string false "Client-chosen key of this result"
// @Param request body models.QuizResultRequest true "Score"
// @Success 200 {object} models.ProgressUpdate
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Quiz not found"
// @Router /languages/{languageID}/quizzes/{quizID}/results [post]
func (h *ProgressHandler) RecordQuizResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	quizID, ok := h.pathInt(w, r, "quizID")
	if !ok {
		return
	}

	var req models.QuizResultRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	update, err := h.progressService.RecordQuizResult(r.Context(), userID, chi.URLParam(r, "languageID"), quizID, &req, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		h.HandleServiceError(w, err, "failed to record quiz result")
		return
	}

	h.RespondJSON(w, http.StatusOK, update)
}
