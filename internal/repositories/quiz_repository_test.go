package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lingoroots/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQuizTestRepository(t *testing.T) (*quizRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewQuizRepository(db), mock, func() { db.Close() }
}

var questionColumns = []string{"id", "text", "type", "options", "correct_answer", "points", "explanation"}

func TestQuizRepository_ListByLanguage(t *testing.T) {
	columns := []string{"id", "language_id", "lesson_id", "title", "description", "passing_score", "question_count", "total_points", "score"}
	lessonID := 4

	tests := []struct {
		name      string
		lessonID  *int
		setupMock func(sqlmock.Sqlmock)
	}{
		{
			name: "all quizzes",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM quizzes q.*WHERE q.language_id = \? GROUP BY`).
					WithArgs(7, "dua").
					WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "dua", 4, "Greetings quiz", "", 70, 3, 30, 20))
			},
		},
		{
			name:     "filtered by lesson",
			lessonID: &lessonID,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`WHERE q.language_id = \? AND q.lesson_id = \?`).
					WithArgs(7, "dua", 4).
					WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "dua", 4, "Greetings quiz", "", 70, 3, 30, 20))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupQuizTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			quizzes, err := repo.ListByLanguage(context.Background(), "dua", tt.lessonID, 7)
			require.NoError(t, err)
			require.Len(t, quizzes, 1)
			assert.Equal(t, 30, quizzes[0].TotalPoints)
			require.NotNil(t, quizzes[0].PassingScore)
			assert.Equal(t, 70, *quizzes[0].PassingScore)
			require.NotNil(t, quizzes[0].Score)
			assert.Equal(t, 20, *quizzes[0].Score)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQuizRepository_GetByID(t *testing.T) {
	t.Run("with questions", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM quizzes\s+WHERE id = \? AND language_id = \?`).
			WithArgs(1, "dua").
			WillReturnRows(sqlmock.NewRows([]string{"id", "language_id", "lesson_id", "title", "description", "passing_score"}).
				AddRow(1, "dua", 4, "Greetings quiz", "", nil))
		mock.ExpectQuery(`FROM quiz_questions\s+WHERE quiz_id = \?\s+ORDER BY position`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(questionColumns).
				AddRow(10, "Hello?", "multiple-choice", []byte(`["Mbolo","Na"]`), "Mbolo", 10, "").
				AddRow(11, "Thanks?", "fill-blank", []byte(`[]`), "Na som", 20, "polite"))

		quiz, err := repo.GetByID(context.Background(), "dua", 1)
		require.NoError(t, err)
		assert.Nil(t, quiz.PassingScore)
		require.Len(t, quiz.Questions, 2)
		assert.Equal(t, []string{"Mbolo", "Na"}, quiz.Questions[0].Options)
		assert.Equal(t, models.QuestionFillBlank, quiz.Questions[1].Type)
		assert.Equal(t, 30, quiz.TotalPoints())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM quizzes`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "dua", 1)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestQuizRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupQuizTestRepository(t)
	defer cleanup()

	passing := 60
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO quizzes`).
		WithArgs("dua", 4, "Greetings quiz", "", 60).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(`INSERT INTO quiz_questions .* VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\), \(\?, \?, \?, \?, \?, \?, \?, \?\)`).
		WithArgs(
			3, 0, "Hello?", models.QuestionMultipleChoice, `["Mbolo","Na"]`, "Mbolo", 10, "",
			3, 1, "Thanks?", models.QuestionFillBlank, "[]", "Na som", 20, "",
		).
		WillReturnResult(sqlmock.NewResult(10, 2))
	mock.ExpectCommit()

	quiz := &models.Quiz{
		LanguageID:   "dua",
		LessonID:     4,
		Title:        "Greetings quiz",
		PassingScore: &passing,
		Questions: []models.Question{
			{Text: "Hello?", Type: models.QuestionMultipleChoice, Options: []string{"Mbolo", "Na"}, CorrectAnswer: "Mbolo", Points: 10},
			{Text: "Thanks?", Type: models.QuestionFillBlank, CorrectAnswer: "Na som", Points: 20},
		},
	}
	require.NoError(t, repo.Create(context.Background(), quiz))
	assert.Equal(t, 3, quiz.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepository_Update(t *testing.T) {
	t.Run("replaces questions", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		title := "Renamed"
		questions := []models.QuestionRequest{{Text: "Water?", Type: models.QuestionFillBlank, CorrectAnswer: "madiba", Points: 5}}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(3, "dua").WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(true))
		mock.ExpectExec(`UPDATE quizzes SET title = \? WHERE id = \?`).WithArgs("Renamed", 3).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM quiz_questions WHERE quiz_id = \?`).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`INSERT INTO quiz_questions`).WillReturnResult(sqlmock.NewResult(20, 1))
		mock.ExpectCommit()

		err := repo.Update(context.Background(), "dua", 3, &models.UpdateQuizRequest{Title: &title, Questions: &questions})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing quiz", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		title := "Renamed"
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
		mock.ExpectRollback()

		err := repo.Update(context.Background(), "dua", 3, &models.UpdateQuizRequest{Title: &title})
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
