package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lingoroots/backend/internal/auth/middleware"
	"github.com/lingoroots/backend/internal/auth/service"
	"github.com/lingoroots/backend/internal/models"
	"github.com/lingoroots/backend/internal/quizrunner"
	"github.com/lingoroots/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTokens = service.NewTokenGenerator("handler-test-secret", time.Hour, 24*time.Hour)

// fakes return canned values and remember what they were called with

type fakeAuthService struct {
	tokens       *models.TokenPair
	err          error
	refreshedOld string
	loggedOut    string
}

func (f *fakeAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPair, error) {
	return f.tokens, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error) {
	return f.tokens, f.err
}

func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	f.refreshedOld = refreshToken
	return f.tokens, f.err
}

func (f *fakeAuthService) Logout(ctx context.Context, refreshToken string) error {
	f.loggedOut = refreshToken
	return f.err
}

func (f *fakeAuthService) RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error {
	return f.err
}

func (f *fakeAuthService) ResetPassword(ctx context.Context, req *models.PasswordResetConfirmRequest) error {
	return f.err
}

type fakeProfileService struct {
	profile   *models.UserProfile
	users     []models.UserListItem
	total     int
	err       error
	page      int
	count     int
	roleActor int
	roleUser  int
	role      models.Role
	selected  string
}

func (f *fakeProfileService) GetProfile(ctx context.Context, userID int) (*models.UserProfile, error) {
	return f.profile, f.err
}

func (f *fakeProfileService) UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.UserProfile, error) {
	return f.profile, f.err
}

func (f *fakeProfileService) SelectLanguage(ctx context.Context, userID int, req *models.SelectLanguageRequest) error {
	f.selected = req.LanguageID
	return f.err
}

func (f *fakeProfileService) ListUsers(ctx context.Context, page, count int) ([]models.UserListItem, int, error) {
	f.page, f.count = page, count
	return f.users, f.total, f.err
}

func (f *fakeProfileService) UpdateRole(ctx context.Context, actorID, userID int, role models.Role) error {
	f.roleActor, f.roleUser, f.role = actorID, userID, role
	return f.err
}

type fakeProgressService struct {
	update   *models.ProgressUpdate
	progress *models.Progress
	err      error
	key      string
	userID   int
	lang     string
	refID    int
}

func (f *fakeProgressService) GetProgress(ctx context.Context, userID int) (*models.Progress, error) {
	return f.progress, f.err
}

func (f *fakeProgressService) CompleteLesson(ctx context.Context, userID int, languageID string, lessonID int) (*models.ProgressUpdate, error) {
	f.userID, f.lang, f.refID = userID, languageID, lessonID
	return f.update, f.err
}

func (f *fakeProgressService) RecordQuizResult(ctx context.Context, userID int, languageID string, quizID int, req *models.QuizResultRequest, idempotencyKey string) (*models.ProgressUpdate, error) {
	f.userID, f.lang, f.refID, f.key = userID, languageID, quizID, idempotencyKey
	return f.update, f.err
}

type fakeLanguageService struct {
	languages       []models.Language
	err             error
	includeInactive bool
}

func (f *fakeLanguageService) ListLanguages(ctx context.Context, includeInactive bool) ([]models.Language, error) {
	f.includeInactive = includeInactive
	return f.languages, f.err
}

func (f *fakeLanguageService) GetLanguage(ctx context.Context, id string, includeInactive bool) (*models.Language, error) {
	f.includeInactive = includeInactive
	for _, l := range f.languages {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("language %w", models.ErrNotFound)
}

func (f *fakeLanguageService) CreateLanguage(ctx context.Context, req *models.CreateLanguageRequest) (*models.Language, error) {
	return &models.Language{ID: req.ID, Name: req.Name}, f.err
}

func (f *fakeLanguageService) UpdateLanguage(ctx context.Context, id string, req *models.UpdateLanguageRequest) (*models.Language, error) {
	return &models.Language{ID: id}, f.err
}

func (f *fakeLanguageService) DeleteLanguage(ctx context.Context, id string) error {
	return f.err
}

type fakeLessonService struct {
	lessons         []models.LessonListItem
	err             error
	userID          int
	includeInactive bool
}

func (f *fakeLessonService) GetLessons(ctx context.Context, languageID string, userID int, includeInactive bool) ([]models.LessonListItem, error) {
	f.userID = userID
	f.includeInactive = includeInactive
	return f.lessons, f.err
}

func (f *fakeLessonService) GetLesson(ctx context.Context, languageID string, lessonID int, includeInactive bool) (*models.Lesson, error) {
	f.includeInactive = includeInactive
	return &models.Lesson{ID: lessonID, LanguageID: languageID}, f.err
}

func (f *fakeLessonService) CreateLesson(ctx context.Context, languageID string, req *models.CreateLessonRequest) (*models.Lesson, error) {
	return &models.Lesson{ID: 1, LanguageID: languageID, Title: req.Title}, f.err
}

func (f *fakeLessonService) UpdateLesson(ctx context.Context, languageID string, lessonID int, req *models.UpdateLessonRequest) (*models.Lesson, error) {
	return &models.Lesson{ID: lessonID, LanguageID: languageID}, f.err
}

func (f *fakeLessonService) DeleteLesson(ctx context.Context, languageID string, lessonID int) error {
	return f.err
}

type fakeQuizService struct {
	err      error
	lessonID *int
}

func (f *fakeQuizService) GetQuizzes(ctx context.Context, languageID string, lessonID *int, userID int, includeInactive bool) ([]models.QuizListItem, error) {
	f.lessonID = lessonID
	return []models.QuizListItem{}, f.err
}

func (f *fakeQuizService) GetQuiz(ctx context.Context, languageID string, quizID int, includeInactive bool) (*models.QuizView, error) {
	return &models.QuizView{ID: quizID}, f.err
}

func (f *fakeQuizService) GetQuizForEdit(ctx context.Context, languageID string, quizID int) (*models.Quiz, error) {
	return &models.Quiz{ID: quizID}, f.err
}

func (f *fakeQuizService) GetQuizByLesson(ctx context.Context, languageID string, lessonID int, includeInactive bool) (*models.QuizView, error) {
	return &models.QuizView{LessonID: lessonID}, f.err
}

func (f *fakeQuizService) CreateQuiz(ctx context.Context, languageID string, req *models.CreateQuizRequest) (*models.Quiz, error) {
	return &models.Quiz{ID: 1, LessonID: req.LessonID}, f.err
}

func (f *fakeQuizService) UpdateQuiz(ctx context.Context, languageID string, quizID int, req *models.UpdateQuizRequest) (*models.Quiz, error) {
	return &models.Quiz{ID: quizID}, f.err
}

func (f *fakeQuizService) DeleteQuiz(ctx context.Context, languageID string, quizID int) error {
	return f.err
}

type fakeAttemptService struct {
	resp   *services.AttemptResponse
	err    error
	answer string
	userID int
	id     string
}

func (f *fakeAttemptService) Start(ctx context.Context, userID int, languageID string, quizID int) (*services.AttemptResponse, error) {
	f.userID = userID
	return f.resp, f.err
}

func (f *fakeAttemptService) Get(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error) {
	f.userID, f.id = userID, attemptID
	return f.resp, f.err
}

func (f *fakeAttemptService) Present(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error) {
	f.userID, f.id = userID, attemptID
	return f.resp, f.err
}

func (f *fakeAttemptService) Submit(ctx context.Context, userID int, attemptID, answer string) (*services.AttemptResponse, error) {
	f.userID, f.id, f.answer = userID, attemptID, answer
	return f.resp, f.err
}

func (f *fakeAttemptService) Next(ctx context.Context, userID int, attemptID string) (*services.AttemptResponse, error) {
	f.userID, f.id = userID, attemptID
	return f.resp, f.err
}

type fakeAchievementService struct {
	achievements []models.Achievement
	err          error
}

func (f *fakeAchievementService) ListAchievements(ctx context.Context, userID int) ([]models.Achievement, error) {
	return f.achievements, f.err
}

type fakeLeaderboardService struct {
	entries []models.LeaderboardEntry
	err     error
	limit   int
}

func (f *fakeLeaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

type fakeFeedbackService struct {
	resp *models.FeedbackResponse
	err  error
}

func (f *fakeFeedbackService) Generate(ctx context.Context, req *models.FeedbackRequest) (*models.FeedbackResponse, error) {
	return f.resp, f.err
}

type fakeAudioService struct {
	result *models.AudioGenerationResult
	err    error
}

func (f *fakeAudioService) GenerateLessonAudio(ctx context.Context, languageID string, lessonID int) (*models.AudioGenerationResult, error) {
	return f.result, f.err
}

// testServices holds the fakes behind a test router
type testServices struct {
	auth        *fakeAuthService
	profile     *fakeProfileService
	progress    *fakeProgressService
	language    *fakeLanguageService
	lesson      *fakeLessonService
	quiz        *fakeQuizService
	attempt     *fakeAttemptService
	achievement *fakeAchievementService
	leaderboard *fakeLeaderboardService
	feedback    *fakeFeedbackService
	audio       *fakeAudioService
}

func newTestServices() *testServices {
	return &testServices{
		auth:        &fakeAuthService{tokens: &models.TokenPair{AccessToken: "access", RefreshToken: "refresh"}},
		profile:     &fakeProfileService{},
		progress:    &fakeProgressService{update: &models.ProgressUpdate{Applied: true, PointsAwarded: 50}},
		language:    &fakeLanguageService{languages: []models.Language{{ID: "duala", Name: "Duala", IsActive: true}}},
		lesson:      &fakeLessonService{lessons: []models.LessonListItem{}},
		quiz:        &fakeQuizService{},
		attempt:     &fakeAttemptService{resp: &services.AttemptResponse{Attempt: quizrunner.View{ID: "att-1"}}},
		achievement: &fakeAchievementService{achievements: []models.Achievement{}},
		leaderboard: &fakeLeaderboardService{entries: []models.LeaderboardEntry{}},
		feedback:    &fakeFeedbackService{resp: &models.FeedbackResponse{Feedback: "Because."}},
		audio:       &fakeAudioService{result: &models.AudioGenerationResult{LessonID: 4, Terms: []string{}}},
	}
}

// newTestRouter mounts every handler under /api/v1 the way the API binary does
func newTestRouter(s *testServices) chi.Router {
	logger := zap.NewNop()
	authMW := middleware.AuthMiddleware(testTokens)
	editorMW := middleware.RoleMiddleware(testTokens, models.RoleContentCreator)
	adminMW := middleware.RoleMiddleware(testTokens, models.RoleAdmin)
	noLimit := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		NewAuthHandler(s.auth, logger, time.Hour, 24*time.Hour).RegisterRoutes(r)
		NewProfileHandler(s.profile, s.progress, logger).RegisterRoutes(r, authMW, adminMW)
		NewContentHandler(s.language, s.lesson, s.quiz, logger).RegisterRoutes(r, authMW, editorMW, adminMW)
		NewProgressHandler(s.progress, logger).RegisterRoutes(r, authMW)
		NewAttemptHandler(s.attempt, logger).RegisterRoutes(r, authMW)
		NewAchievementHandler(s.achievement, s.leaderboard, logger).RegisterRoutes(r, authMW)
		NewLearningAidsHandler(s.feedback, s.audio, logger).RegisterRoutes(r, authMW, editorMW, noLimit)
	})
	return r
}

func bearer(t *testing.T, userID int, role models.Role) string {
	t.Helper()
	access, _, err := testTokens.GenerateTokens(userID, int(role))
	require.NoError(t, err)
	return "Bearer " + access
}

// do sends a request; auth is an Authorization header value or ""
func do(t *testing.T, r http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response["error"]
}

func getCookieValue(w *httptest.ResponseRecorder, name string) string {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{fmt.Errorf("lesson %w", models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad", models.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: taken", models.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: wrong state", quizrunner.ErrInvalidTransition), http.StatusConflict},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrNotLoggedIn, http.StatusUnauthorized},
		{fmt.Errorf("%w: gemini", models.ErrUnavailable), http.StatusBadGateway},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusOf(tt.err))
		})
	}
}

func TestHandleServiceError_HidesInternalErrors(t *testing.T) {
	h := BaseHandler{Logger: zap.NewNop()}
	w := httptest.NewRecorder()

	h.HandleServiceError(w, fmt.Errorf("dial tcp 10.0.0.5:3306: refused"), "failed to get lesson")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to get lesson", errorMessage(t, w))
}
