package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

// LanguageService is the interface that wraps methods for language management.
type LanguageService interface {
	// Method ListLanguages returns languages sorted by name; inactive ones only when "includeInactive" is set.
	ListLanguages(ctx context.Context, includeInactive bool) ([]models.Language, error)
	GetLanguage(ctx context.Context, id string, includeInactive bool) (*models.Language, error)
	CreateLanguage(ctx context.Context, req *models.CreateLanguageRequest) (*models.Language, error)
	UpdateLanguage(ctx context.Context, id string, req *models.UpdateLanguageRequest) (*models.Language, error)
	// Method DeleteLanguage removes a language with its lessons and quizzes.
	DeleteLanguage(ctx context.Context, id string) error
}

// LessonService is the interface that wraps methods for lesson management.
type LessonService interface {
	// Method GetLessons returns the lessons of a language sorted by order, flagged with what "userID" completed.
	GetLessons(ctx context.Context, languageID string, userID int, includeInactive bool) ([]models.LessonListItem, error)
	GetLesson(ctx context.Context, languageID string, lessonID int, includeInactive bool) (*models.Lesson, error)
	CreateLesson(ctx context.Context, languageID string, req *models.CreateLessonRequest) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, languageID string, lessonID int, req *models.UpdateLessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, languageID string, lessonID int) error
}

// QuizService is the interface that wraps methods for quiz management.
type QuizService interface {
	GetQuizzes(ctx context.Context, languageID string, lessonID *int, userID int, includeInactive bool) ([]models.QuizListItem, error)
	// Method GetQuiz returns a quiz without its answers.
	GetQuiz(ctx context.Context, languageID string, quizID int, includeInactive bool) (*models.QuizView, error)
	// Method GetQuizForEdit returns a quiz with its answers.
	GetQuizForEdit(ctx context.Context, languageID string, quizID int) (*models.Quiz, error)
	GetQuizByLesson(ctx context.Context, languageID string, lessonID int, includeInactive bool) (*models.QuizView, error)
	CreateQuiz(ctx context.Context, languageID string, req *models.CreateQuizRequest) (*models.Quiz, error)
	UpdateQuiz(ctx context.Context, languageID string, quizID int, req *models.UpdateQuizRequest) (*models.Quiz, error)
	DeleteQuiz(ctx context.Context, languageID string, quizID int) error
}

// ContentHandler handles languages, lessons and quizzes
type ContentHandler struct {
	BaseHandler
	languageService LanguageService
	lessonService   LessonService
	quizService     QuizService
}

// NewContentHandler creates a new content handler
func NewContentHandler(languageService LanguageService, lessonService LessonService, quizService QuizService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		languageService: languageService,
		lessonService:   lessonService,
		quizService:     quizService,
	}
}

// RegisterRoutes registers content routes.
// Reads need authMiddleware, lesson and quiz writes editorMiddleware, language writes adminMiddleware.
func (h *ContentHandler) RegisterRoutes(r chi.Router, authMiddleware, editorMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/languages", h.ListLanguages)
		r.Get("/languages/{languageID}", h.GetLanguage)
		r.Get("/languages/{languageID}/lessons", h.GetLessons)
		r.Get("/languages/{languageID}/lessons/{lessonID}", h.GetLesson)
		r.Get("/languages/{languageID}/lessons/{lessonID}/quiz", h.GetQuizByLesson)
		r.Get("/languages/{languageID}/quizzes", h.GetQuizzes)
		r.Get("/languages/{languageID}/quizzes/{quizID}", h.GetQuiz)
	})

	r.Group(func(r chi.Router) {
		r.Use(editorMiddleware)
		r.Post("/languages/{languageID}/lessons", h.CreateLesson)
		r.Patch("/languages/{languageID}/lessons/{lessonID}", h.UpdateLesson)
		r.Delete("/languages/{languageID}/lessons/{lessonID}", h.DeleteLesson)
		r.Get("/languages/{languageID}/quizzes/{quizID}/edit", h.GetQuizForEdit)
		r.Post("/languages/{languageID}/quizzes", h.CreateQuiz)
		r.Patch("/languages/{languageID}/quizzes/{quizID}", h.UpdateQuiz)
		r.Delete("/languages/{languageID}/quizzes/{quizID}", h.DeleteQuiz)
	})

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware)
		r.Post("/languages", h.CreateLanguage)
		r.Patch("/languages/{languageID}", h.UpdateLanguage)
		r.Delete("/languages/{languageID}", h.DeleteLanguage)
	})
}

// ListLanguages handles GET /languages
// @Summary List languages
// @Description Learners see active languages only; content creators and admins see all of them.
// @Tags languages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Language
// @Failure 401 {object} map[string]string
// @Router /languages [get]
func (h *ContentHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.languageService.ListLanguages(r.Context(), canEdit(r))
	if err != nil {
		h.HandleServiceError(w, err, "failed to list languages")
		return
	}
	h.RespondJSON(w, http.StatusOK, languages)
}

// GetLanguage handles GET /languages/{languageID}
// @Summary Get a language
// @Tags languages
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Success 200 {object} models.Language
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID} [get]
func (h *ContentHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	language, err := h.languageService.GetLanguage(r.Context(), chi.URLParam(r, "languageID"), canEdit(r))
	if err != nil {
		h.HandleServiceError(w, err, "failed to get language")
		return
	}
	h.RespondJSON(w, http.StatusOK, language)
}

// CreateLanguage handles POST /languages
// @Summary Create a language
// @Tags languages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateLanguageRequest true "Language"
// @Success 201 {object} models.Language
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Language already exists"
// @Router /languages [post]
func (h *ContentHandler) CreateLanguage(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLanguageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	language, err := h.languageService.CreateLanguage(r.Context(), &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to create language")
		return
	}
	h.RespondJSON(w, http.StatusCreated, language)
}

// UpdateLanguage handles PATCH /languages/{languageID}
// @Summary Update a language
// @Tags languages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param request body models.UpdateLanguageRequest true "Fields to change"
// @Success 200 {object} models.Language
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID} [patch]
func (h *ContentHandler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateLanguageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	language, err := h.languageService.UpdateLanguage(r.Context(), chi.URLParam(r, "languageID"), &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to update language")
		return
	}
	h.RespondJSON(w, http.StatusOK, language)
}

// DeleteLanguage handles DELETE /languages/{languageID}
// @Summary Delete a language
// @Tags languages
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID} [delete]
func (h *ContentHandler) DeleteLanguage(w http.ResponseWriter, r *http.Request) {
	if err := h.languageService.DeleteLanguage(r.Context(), chi.URLParam(r, "languageID")); err != nil {
		h.HandleServiceError(w, err, "failed to delete language")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLessons handles GET /languages/{languageID}/lessons
// @Summary List lessons of a language
// @Description Lessons sorted by order, each flagged with whether the current user completed it
// @Tags lessons
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Success 200 {array} models.LessonListItem
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/lessons [get]
func (h *ContentHandler) GetLessons(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	lessons, err := h.lessonService.GetLessons(r.Context(), chi.URLParam(r, "languageID"), userID, canEdit(r))
	if err != nil {
		h.HandleServiceError(w, err, "failed to list lessons")
		return
	}
	h.RespondJSON(w, http.StatusOK, lessons)
}

// GetLesson handles GET /languages/{languageID}/lessons/{lessonID}
// @Summary Get a lesson
// @Tags lessons
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param lessonID path int true "Lesson ID"
// @Success 200 {object} models.Lesson
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/lessons/{lessonID} [get]
func (h *ContentHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := h.pathInt(w, r, "lessonID")
	if !ok {
		return
	}

	lesson, err := h.lessonService.GetLesson(r.Context(), chi.URLParam(r, "languageID"), lessonID, canEdit(r))
	if err != nil {
		h.HandleServiceError(w, err, "failed to get lesson")
		return
	}
	h.RespondJSON(w, http.StatusOK, lesson)
}

// CreateLesson handles POST /languages/{languageID}/lessons
// @Summary Create a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param request body models.CreateLessonRequest true "Lesson"
// @Success 201 {object} models.Lesson
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Language not found"
// @Router /languages/{languageID}/lessons [post]
func (h *ContentHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLessonRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	lesson, err := h.lessonService.CreateLesson(r.Context(), chi.URLParam(r, "languageID"), &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to create lesson")
		return
	}
	h.RespondJSON(w, http.StatusCreated, lesson)
}

// UpdateLesson handles PATCH /languages/{languageID}/lessons/{lessonID}
// @Summary Update a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param lessonID path int true "Lesson ID"
// @Param request body models.UpdateLessonRequest true "Fields to change"
// @Success 200 {object} models.Lesson
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/lessons/{lessonID} [patch]
func (h *ContentHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := h.pathInt(w, r, "lessonID")
	if !ok {
		return
	}

	var req models.UpdateLessonRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	lesson, err := h.lessonService.UpdateLesson(r.Context(), chi.URLParam(r, "languageID"), lessonID, &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to update lesson")
		return
	}
	h.RespondJSON(w, http.StatusOK, lesson)
}

// DeleteLesson handles DELETE /languages/{languageID}/lessons/{lessonID}
// @Summary Delete a lesson
// @Tags lessons
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param lessonID path int true "Lesson ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/lessons/{lessonID} [delete]
func (h *ContentHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := h.pathInt(w, r, "lessonID")
	if !ok {
		return
	}

	if err := h.lessonService.DeleteLesson(r.Context(), chi.URLParam(r, "languageID"), lessonID); err != nil {
		h.HandleServiceError(w, err, "failed to delete lesson")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetQuizzes handles GET /languages/{languageID}/quizzes
// @Summary List quizzes
// @Description Quizzes of a language with the current user's score, optionally narrowed to one lesson
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param lessonId query int false "Lesson ID"
// @Success 200 {array} models.QuizListItem
// @Failure 400 {object} map[string]string
// @Router /languages/{languageID}/quizzes [get]
func (h *ContentHandler) GetQuizzes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var lessonID *int
	if r.URL.Query().Get("lessonId") != "" {
		id, err := queryInt(r, "lessonId", 0)
		if err != nil || id < 1 {
			h.RespondError(w, http.StatusBadRequest, "invalid lessonId parameter")
			return
		}
		lessonID = &id
	}

	quizzes, err := h.quizService.GetQuizzes(r.Context(), chi.URLParam(r, "languageID"), lessonID, userID, canEdit(r))
	if err != nil {
		h.HandleServiceError(w, err, "failed to list quizzes")
		return
	}
	h.RespondJSON(w, http.StatusOK, quizzes)
}

// GetQuiz handles GET /languages/{languageID}/quizzes/{quizID}
// @Summary Get a quiz
// @Description The quiz without correct answers or explanations
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param quizID path int true "Quiz ID"
// @Success 200 {object} models.QuizView
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/quizzes/{quizID} [get]
func (h *ContentHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.pathInt(w, r, "quizID")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuiz(r.Context(), chi.URLParam(r, "languageID"), quizID, canEdit(r))
	if err != nil {
		h.HandleServiceError(w, err, "failed to get quiz")
		return
	}
	h.RespondJSON(w, http.StatusOK, quiz)
}

// GetQuizByLesson handles GET /languages/{languageID}/lessons/{lessonID}/quiz
// @Summary Get the quiz of a lesson
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param lessonID path int true "Lesson ID"
// @Success 200 {object} models.QuizView
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/lessons/{lessonID}/quiz [get]
func (h *ContentHandler) GetQuizByLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := h.pathInt(w, r, "lessonID")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuizByLesson(r.Context(), chi.URLParam(r, "languageID"), lessonID, canEdit(r))
	if err != nil {
		h.HandleServiceError(w, err, "failed to get quiz")
		return
	}
	h.RespondJSON(w, http.StatusOK, quiz)
}

// GetQuizForEdit handles GET /languages/{languageID}/quizzes/{quizID}/edit
// @Summary Get a quiz with answers
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param quizID path int true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/quizzes/{quizID}/edit [get]
func (h *ContentHandler) GetQuizForEdit(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.pathInt(w, r, "quizID")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuizForEdit(r.Context(), chi.URLParam(r, "languageID"), quizID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to get quiz")
		return
	}
	h.RespondJSON(w, http.StatusOK, quiz)
}

// CreateQuiz handles POST /languages/{languageID}/quizzes
// @Summary Create a quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param request body models.CreateQuizRequest true "Quiz"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /languages/{languageID}/quizzes [post]
func (h *ContentHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuizRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	quiz, err := h.quizService.CreateQuiz(r.Context(), chi.URLParam(r, "languageID"), &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to create quiz")
		return
	}
	h.RespondJSON(w, http.StatusCreated, quiz)
}

// UpdateQuiz handles PATCH /languages/{languageID}/quizzes/{quizID}
// @Summary Update a quiz
// @Description Questions, when present, replace the whole list
// @Tags quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param quizID path int true "Quiz ID"
// @Param request body models.UpdateQuizRequest true "Fields to change"
// @Success 200 {object} models.Quiz
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/quizzes/{quizID} [patch]
func (h *ContentHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.pathInt(w, r, "quizID")
	if !ok {
		return
	}

	var req models.UpdateQuizRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	quiz, err := h.quizService.UpdateQuiz(r.Context(), chi.URLParam(r, "languageID"), quizID, &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to update quiz")
		return
	}
	h.RespondJSON(w, http.StatusOK, quiz)
}

// DeleteQuiz handles DELETE /languages/{languageID}/quizzes/{quizID}
// @Summary Delete a quiz
// @Tags quizzes
// @Security BearerAuth
// @Param languageID path string true "Language ID"
// @Param quizID path int true "Quiz ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /languages/{languageID}/quizzes/{quizID} [delete]
func (h *ContentHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.pathInt(w, r, "quizID")
	if !ok {
		return
	}

	if err := h.quizService.DeleteQuiz(r.Context(), chi.URLParam(r, "languageID"), quizID); err != nil {
		h.HandleServiceError(w, err, "failed to delete quiz")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
