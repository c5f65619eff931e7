package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lingoroots/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAchievementRepository_ListForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewAchievementRepository(db)

	earned := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM achievements a\s+LEFT JOIN user_achievements ua`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "icon", "rule_kind", "threshold", "earned_at"}).
			AddRow("first-lesson", "First Lesson Complete", "", "book-open", "lessons_completed", 1, earned).
			AddRow("streak-starter", "Streak Starter", "", "flame", "streak_days", 3, nil))

	achievements, err := repo.ListForUser(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, achievements, 2)
	require.NotNil(t, achievements[0].DateEarned)
	assert.Equal(t, earned, *achievements[0].DateEarned)
	assert.Equal(t, models.RuleLessonsCompleted, achievements[0].Rule)
	assert.Nil(t, achievements[1].DateEarned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAchievementRepository_ListAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewAchievementRepository(db)

	mock.ExpectQuery(`SELECT id, name, description, icon, rule_kind, threshold FROM achievements`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "icon", "rule_kind", "threshold"}).
			AddRow("quiz-whiz", "Quiz Whiz", "", "award", "perfect_quiz", 0))

	achievements, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RulePerfectQuiz, achievements[0].Rule)
}
