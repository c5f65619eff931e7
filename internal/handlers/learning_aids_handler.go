package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

// FeedbackService is the interface that wraps generation of answer explanations.
type FeedbackService interface {
	// Method Generate explains why the correct answer is right.
	//
	// An upstream failure wraps models.ErrUnavailable.
	Generate(ctx context.Context, req *models.FeedbackRequest) (*models.FeedbackResponse, error)
}

// AudioService is the interface that wraps vocabulary audio generation.
type AudioService interface {
	GenerateLessonAudio(ctx context.Context, languageID string, lessonID int) (*models.AudioGenerationResult, error)
}

// LearningAidsHandler serves generated feedback and lesson audio
type LearningAidsHandler struct {
	BaseHandler
	feedbackService FeedbackService
	audioService    AudioService
}

// NewLearningAidsHandler creates a new handler for feedback and audio
func NewLearningAidsHandler(feedbackService FeedbackService, audioService AudioService, logger *zap.Logger) *LearningAidsHandler {
	return &LearningAidsHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		feedbackService: feedbackService,
		audioService:    audioService,
	}
}

// RegisterRoutes registers feedback and audio routes.
// feedbackLimiter throttles calls to the hosted model.
func (h *LearningAidsHandler) RegisterRoutes(r chi.Router, authMiddleware, editorMiddleware, feedbackLimiter func(http.Handler) http.Handler) {
	r.With(authMiddleware, feedbackLimiter).Post("/feedback", h.GenerateFeedback)
	r.With(editorMiddleware).Post("/languages/{languageID}/lessons/{lessonID}/audio", h.GenerateLessonAudio)
}

// GenerateFeedback handles POST /feedback
// @Summary Explain an answer
// @Description Ask the hosted model why the correct answer is right
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.FeedbackRequest true "Question and answers"
// @Success 200 {object} models.FeedbackResponse
// @Failure 400 {object} map[string]string
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 502 {object} map[string]string "Feedback unavailable"
// @Router /feedback [post]
func (h *LearningAidsHandler) GenerateFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.feedbackService.Generate(r.Context(), &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to generate feedback")
		return
	}
	h.RespondJSON(w, http.StatusOK, resp)
}

// GenerateLessonAudio handles POST /languages/{languageID}/lessons/{lessonID}/audio
// @Summary Generate vocabulary audio
// @Description Synthesize audio for vocabulary terms of a lesson that have none yet
// @Tags lessons
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param lessonID path int true "Lesson ID"
// @Success 200 {object} models.AudioGenerationResult
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string "Speech synthesis unavailable"
// @Router /languages/{languageID}/lessons/{lessonID}/audio [post]
func (h *LearningAidsHandler) GenerateLessonAudio(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := h.pathInt(w, r, "lessonID")
	if !ok {
		return
	}

	result, err := h.audioService.GenerateLessonAudio(r.Context(), chi.URLParam(r, "languageID"), lessonID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to generate audio")
		return
	}
	h.RespondJSON(w, http.StatusOK, result)
}
