package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lingoroots/backend/internal/services"
	"go.uber.org/zap"
)

// AttemptService is the interface that wraps the quiz runner transitions.
//
// Every method except Start reports an attempt of another user as not found.
// A transition not allowed from the attempt's state wraps quizrunner.ErrInvalidTransition.
type AttemptService interface {
	Start(ctx context.Context, userID int, languageID string, quizID int) (*services.AttemptResponse, error)
	Get(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error)
	Present(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error)
	Submit(ctx context.Context, userID int, attemptID, answer string) (*services.AttemptResponse, error)
	// Method Next advances past the answered question; finishing the quiz records its score.
	Next(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error)
}

// AnswerRequest carries the learner's answer to the current question
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// AttemptHandler drives quiz attempts
type AttemptHandler struct {
	BaseHandler
	attemptService AttemptService
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(attemptService AttemptService, logger *zap.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		attemptService: attemptService,
	}
}

// RegisterRoutes registers attempt routes behind authMiddleware
func (h *AttemptHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/languages/{languageID}/quizzes/{quizID}/attempts", h.Start)
		r.Route("/attempts/{attemptID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/present", h.Present)
			r.Post("/answer", h.Submit)
			r.Post("/next", h.Next)
		})
	})
}

// Start handles POST /languages/{languageID}/quizzes/{quizID}/attempts
// @Summary Start a quiz attempt
// @Description Start an attempt on a snapshot of the quiz. An empty quiz completes at once and earns nothing. Inactive languages answer 404.
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param quizID path int true "Quiz ID"
// @Success 201 {object} services.AttemptResponse
// @Failure 404 {object} map[string]string "Quiz not found"
// @Router /languages/{languageID}/quizzes/{quizID}/attempts [post]
func (h *AttemptHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	quizID, ok := h.pathInt(w, r, "quizID")
	if !ok {
		return
	}

	resp, err := h.attemptService.Start(r.Context(), userID, chi.URLParam(r, "languageID"), quizID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to start attempt")
		return
	}
	h.RespondJSON(w, http.StatusCreated, resp)
}

// Get handles GET /attempts/{attemptID}
// @Summary Get a quiz attempt
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param attemptID path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} map[string]string
// @Router /attempts/{attemptID} [get]
func (h *AttemptHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "failed to get attempt", func(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error) {
		return h.attemptService.Get(ctx, userID, attemptID)
	})
}

// Present handles POST /attempts/{attemptID}/present
// @Summary Present the current question
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param attemptID path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Router /attempts/{attemptID}/present [post]
func (h *AttemptHandler) Present(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "failed to present question", func(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error) {
		return h.attemptService.Present(ctx, userID, attemptID)
	})
}

// Submit handles POST /attempts/{attemptID}/answer
// @Summary Answer the current question
// @Description The question must be presented first. Each question accepts one answer.
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attemptID path string true "Attempt ID"
// @Param request body AnswerRequest true "Answer"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Router /attempts/{attemptID}/answer [post]
func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	h.transition(w, r, "failed to submit answer", func(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error) {
		return h.attemptService.Submit(ctx, userID, attemptID, req.Answer)
	})
}

// Next handles POST /attempts/{attemptID}/next
// @Summary Go to the next question
// @Description Finishing the last question completes the attempt and records its score.
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param attemptID path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Router /attempts/{attemptID}/next [post]
func (h *AttemptHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "failed to advance attempt", func(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error) {
		return h.attemptService.Next(ctx, userID, attemptID)
	})
}

func (h *AttemptHandler) transition(w http.ResponseWriter, r *http.Request, fallback string,
	fn func(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error)) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	resp, err := fn(r.Context(), userID, chi.URLParam(r, "attemptID"))
	if err != nil {
		h.HandleServiceError(w, err, fallback)
		return
	}
	h.RespondJSON(w, http.StatusOK, resp)
}
