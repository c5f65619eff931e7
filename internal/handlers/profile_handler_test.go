package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/lingoroots/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileHandler_GetProfile(t *testing.T) {
	s := newTestServices()
	s.profile.profile = &models.UserProfile{
		User:     models.User{ID: 7, DisplayName: "Ama", Role: models.RoleLearner},
		Progress: models.Progress{Points: 120, CompletedLessons: []int{1}, QuizScores: map[int]int{}, Badges: []string{}},
	}
	router := newTestRouter(s)

	t.Run("requires a token", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("returns profile", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/me", bearer(t, 7, models.RoleLearner), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var profile models.UserProfile
		require.NoError(t, json.NewDecoder(w.Body).Decode(&profile))
		assert.Equal(t, "Ama", profile.DisplayName)
		assert.Equal(t, 120, profile.Progress.Points)
		assert.Equal(t, models.RoleLearner, profile.Role)
	})
}

func TestProfileHandler_SelectLanguage(t *testing.T) {
	s := newTestServices()
	router := newTestRouter(s)

	w := do(t, router, http.MethodPut, "/api/v1/me/language", bearer(t, 7, models.RoleLearner), models.SelectLanguageRequest{LanguageID: "duala"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "duala", s.profile.selected)

	s.profile.err = fmt.Errorf("language %w", models.ErrNotFound)
	w = do(t, router, http.MethodPut, "/api/v1/me/language", bearer(t, 7, models.RoleLearner), models.SelectLanguageRequest{LanguageID: "klingon"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileHandler_GetProgress(t *testing.T) {
	s := newTestServices()
	s.progress.progress = &models.Progress{Points: 50, CurrentStreak: 2}

	w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/me/progress", bearer(t, 7, models.RoleLearner), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var progress models.Progress
	require.NoError(t, json.NewDecoder(w.Body).Decode(&progress))
	assert.Equal(t, 2, progress.CurrentStreak)
}

func TestProfileHandler_ListUsers(t *testing.T) {
	tests := []struct {
		name           string
		role           models.Role
		query          string
		expectedStatus int
		expectedPage   int
		expectedCount  int
	}{
		{name: "learner forbidden", role: models.RoleLearner, expectedStatus: http.StatusForbidden},
		{name: "content creator forbidden", role: models.RoleContentCreator, expectedStatus: http.StatusForbidden},
		{name: "admin defaults", role: models.RoleAdmin, expectedStatus: http.StatusOK, expectedPage: 1, expectedCount: 20},
		{name: "admin paged", role: models.RoleAdmin, query: "?page=3&count=5", expectedStatus: http.StatusOK, expectedPage: 3, expectedCount: 5},
		{name: "bad page", role: models.RoleAdmin, query: "?page=x", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices()
			s.profile.users = []models.UserListItem{{ID: 7, DisplayName: "Ama", Role: models.RoleLearner}}
			s.profile.total = 41

			w := do(t, newTestRouter(s), http.MethodGet, "/api/v1/admin/users"+tt.query, bearer(t, 1, tt.role), nil)
			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp UserListResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, 41, resp.Total)
			assert.Equal(t, tt.expectedPage, s.profile.page)
			assert.Equal(t, tt.expectedCount, s.profile.count)
		})
	}
}

func TestProfileHandler_UpdateRole(t *testing.T) {
	s := newTestServices()
	router := newTestRouter(s)

	w := do(t, router, http.MethodPut, "/api/v1/admin/users/9/role", bearer(t, 1, models.RoleAdmin), map[string]string{"role": "contentCreator"})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, s.profile.roleActor)
	assert.Equal(t, 9, s.profile.roleUser)
	assert.Equal(t, models.RoleContentCreator, s.profile.role)

	w = do(t, router, http.MethodPut, "/api/v1/admin/users/9/role", bearer(t, 1, models.RoleAdmin), map[string]string{"role": "emperor"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPut, "/api/v1/admin/users/abc/role", bearer(t, 1, models.RoleAdmin), map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid userID parameter", errorMessage(t, w))

	s.profile.err = fmt.Errorf("%w: cannot change your own role", models.ErrForbidden)
	w = do(t, router, http.MethodPut, "/api/v1/admin/users/1/role", bearer(t, 1, models.RoleAdmin), map[string]string{"role": "learner"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
