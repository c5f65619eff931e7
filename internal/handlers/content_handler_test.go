package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/lingoroots/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHandler_Languages(t *testing.T) {
	t.Run("learners see active languages only", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/languages", bearer(t, 7, models.RoleLearner), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, s.language.includeInactive)
	})

	t.Run("editors see every language", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/languages", bearer(t, 2, models.RoleContentCreator), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, s.language.includeInactive)
	})

	t.Run("unknown language", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/languages/klingon", bearer(t, 7, models.RoleLearner), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "language not found", errorMessage(t, w))
	})
}

func TestContentHandler_Permissions(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		role           models.Role
		body           any
		expectedStatus int
	}{
		{"learner cannot create language", http.MethodPost, "/api/v1/languages", models.RoleLearner, models.CreateLanguageRequest{ID: "bassa", Name: "Bassa"}, http.StatusForbidden},
		{"editor cannot create language", http.MethodPost, "/api/v1/languages", models.RoleContentCreator, models.CreateLanguageRequest{ID: "bassa", Name: "Bassa"}, http.StatusForbidden},
		{"admin creates language", http.MethodPost, "/api/v1/languages", models.RoleAdmin, models.CreateLanguageRequest{ID: "bassa", Name: "Bassa"}, http.StatusCreated},
		{"admin deletes language", http.MethodDelete, "/api/v1/languages/duala", models.RoleAdmin, nil, http.StatusNoContent},
		{"learner cannot create lesson", http.MethodPost, "/api/v1/languages/duala/lessons", models.RoleLearner, models.CreateLessonRequest{Title: "Greetings"}, http.StatusForbidden},
		{"editor creates lesson", http.MethodPost, "/api/v1/languages/duala/lessons", models.RoleContentCreator, models.CreateLessonRequest{Title: "Greetings"}, http.StatusCreated},
		{"editor updates lesson", http.MethodPatch, "/api/v1/languages/duala/lessons/4", models.RoleContentCreator, models.UpdateLessonRequest{}, http.StatusOK},
		{"admin deletes lesson", http.MethodDelete, "/api/v1/languages/duala/lessons/4", models.RoleAdmin, nil, http.StatusNoContent},
		{"learner cannot see answers", http.MethodGet, "/api/v1/languages/duala/quizzes/10/edit", models.RoleLearner, nil, http.StatusForbidden},
		{"editor sees answers", http.MethodGet, "/api/v1/languages/duala/quizzes/10/edit", models.RoleContentCreator, nil, http.StatusOK},
		{"editor creates quiz", http.MethodPost, "/api/v1/languages/duala/quizzes", models.RoleContentCreator, models.CreateQuizRequest{LessonID: 4, Title: "Greetings"}, http.StatusCreated},
		{"editor deletes quiz", http.MethodDelete, "/api/v1/languages/duala/quizzes/10", models.RoleContentCreator, nil, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices()
			w := do(t, newTestRouter(s), tt.method, tt.path, bearer(t, 3, tt.role), tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestContentHandler_Lessons(t *testing.T) {
	s := newTestServices()
	s.lesson.lessons = []models.LessonListItem{{ID: 1, Title: "Greetings", Completed: true}}
	router := newTestRouter(s)

	w := do(t, router, http.MethodGet, "/api/v1/languages/duala/lessons", bearer(t, 7, models.RoleLearner), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, s.lesson.userID)
	assert.False(t, s.lesson.includeInactive)
	assert.Contains(t, w.Body.String(), `"completed":true`)

	w = do(t, router, http.MethodGet, "/api/v1/languages/duala/lessons/4", bearer(t, 2, models.RoleContentCreator), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.lesson.includeInactive)

	w = do(t, router, http.MethodGet, "/api/v1/languages/duala/lessons/zero", bearer(t, 7, models.RoleLearner), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid lessonID parameter", errorMessage(t, w))

	s.lesson.err = fmt.Errorf("lesson %w", models.ErrNotFound)
	w = do(t, router, http.MethodGet, "/api/v1/languages/duala/lessons/99", bearer(t, 7, models.RoleLearner), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentHandler_Quizzes(t *testing.T) {
	t.Run("filter by lesson", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/languages/duala/quizzes?lessonId=4", bearer(t, 7, models.RoleLearner), nil)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, s.quiz.lessonID)
		assert.Equal(t, 4, *s.quiz.lessonID)
	})

	t.Run("no filter", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/languages/duala/quizzes", bearer(t, 7, models.RoleLearner), nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, s.quiz.lessonID)
	})

	t.Run("bad filter", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/languages/duala/quizzes?lessonId=-1", bearer(t, 7, models.RoleLearner), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("quiz of a lesson", func(t *testing.T) {
		s := newTestServices()
		w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/languages/duala/lessons/4/quiz", bearer(t, 7, models.RoleLearner), nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"lessonId":4`)
	})

	t.Run("invalid questions", func(t *testing.T) {
		s := newTestServices()
		s.quiz.err = fmt.Errorf("%w: question 1 needs at least two options", models.ErrInvalidInput)
		w := do(t, newTestRouter(s), http.MethodPost, "/api/v1/languages/duala/quizzes", bearer(t, 2, models.RoleContentCreator), models.CreateQuizRequest{LessonID: 4})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorMessage(t, w), "at least two options")
	})
}
