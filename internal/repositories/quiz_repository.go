package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lingoroots/backend/internal/models"
)

var errQuizNotFound = fmt.Errorf("quiz %w", models.ErrNotFound)

type quizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db *sql.DB) *quizRepository {
	return &quizRepository{db: db}
}

// ListByLanguage lists quizzes of a language, optionally of one lesson,
// with question totals and the stored score of userID
func (r *quizRepository) ListByLanguage(ctx context.Context, languageID string, lessonID *int, userID int) ([]models.QuizListItem, error) {
	query := `
		SELECT
			q.id,
			q.language_id,
			q.lesson_id,
			q.title,
			q.description,
			q.passing_score,
			COUNT(qq.id) AS question_count,
			COALESCE(SUM(qq.points), 0) AS total_points,
			uqs.score
		FROM quizzes q
		LEFT JOIN quiz_questions qq ON qq.quiz_id = q.id
		LEFT JOIN user_quiz_scores uqs ON uqs.quiz_id = q.id AND uqs.user_id = ?
		WHERE q.language_id = ?`
	args := []any{userID, languageID}
	if lessonID != nil {
		query += ` AND q.lesson_id = ?`
		args = append(args, *lessonID)
	}
	query += `
		GROUP BY q.id, uqs.score
		ORDER BY q.lesson_id, q.id
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]models.QuizListItem, 0)
	for rows.Next() {
		var q models.QuizListItem
		var passing, score sql.NullInt64
		err := rows.Scan(
			&q.ID,
			&q.LanguageID,
			&q.LessonID,
			&q.Title,
			&q.Description,
			&passing,
			&q.QuestionCount,
			&q.TotalPoints,
			&score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		q.PassingScore = nullIntPtr(passing)
		q.Score = nullIntPtr(score)
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return quizzes, nil
}

// GetByID retrieves a quiz with its ordered questions
func (r *quizRepository) GetByID(ctx context.Context, languageID string, id int) (*models.Quiz, error) {
	query := `
		SELECT id, language_id, lesson_id, title, description, passing_score
		FROM quizzes
		WHERE id = ? AND language_id = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, id, languageID)
}

// GetFirstByLesson retrieves the earliest quiz attached to a lesson
func (r *quizRepository) GetFirstByLesson(ctx context.Context, languageID string, lessonID int) (*models.Quiz, error) {
	query := `
		SELECT id, language_id, lesson_id, title, description, passing_score
		FROM quizzes
		WHERE lesson_id = ? AND language_id = ?
		ORDER BY id
		LIMIT 1
	`
	return r.getOne(ctx, query, lessonID, languageID)
}

func (r *quizRepository) getOne(ctx context.Context, query string, args ...any) (*models.Quiz, error) {
	var quiz models.Quiz
	var passing sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&quiz.ID,
		&quiz.LanguageID,
		&quiz.LessonID,
		&quiz.Title,
		&quiz.Description,
		&passing,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	quiz.PassingScore = nullIntPtr(passing)

	questions, err := r.questions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return &quiz, nil
}

func (r *quizRepository) questions(ctx context.Context, quizID int) ([]models.Question, error) {
	query := `
		SELECT id, text, type, options, correct_answer, points, explanation
		FROM quiz_questions
		WHERE quiz_id = ?
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]models.Question, 0)
	for rows.Next() {
		var q models.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &options, &q.CorrectAnswer, &q.Points, &q.Explanation); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := decodeJSONColumn(options, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return questions, nil
}

// Create inserts a quiz and its questions in one transaction
func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO quizzes (language_id, lesson_id, title, description, passing_score)
			VALUES (?, ?, ?, ?, ?)
		`
		result, err := tx.ExecContext(ctx, query, quiz.LanguageID, quiz.LessonID, quiz.Title, quiz.Description, intPtrValue(quiz.PassingScore))
		if err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		quiz.ID = int(id)

		return insertQuestions(ctx, tx, quiz.ID, quiz.Questions)
	})
}

// Update applies a partial update; a non-nil question list replaces the stored one
func (r *quizRepository) Update(ctx context.Context, languageID string, id int, req *models.UpdateQuizRequest) error {
	var setParts []string
	var args []any

	if req.Title != nil {
		setParts = append(setParts, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *req.Description)
	}
	if req.PassingScore != nil {
		setParts = append(setParts, "passing_score = ?")
		args = append(args, *req.PassingScore)
	}
	if len(setParts) == 0 && req.Questions == nil {
		return fmt.Errorf("%w: no fields to update", models.ErrInvalidInput)
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM quizzes WHERE id = ? AND language_id = ?)`, id, languageID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check quiz existence: %w", err)
		}
		if !exists {
			return errQuizNotFound
		}

		if len(setParts) > 0 {
			query := `UPDATE quizzes SET ` + strings.Join(setParts, ", ") + ` WHERE id = ?`
			if _, err := tx.ExecContext(ctx, query, append(args, id)...); err != nil {
				return fmt.Errorf("failed to update quiz: %w", err)
			}
		}

		if req.Questions != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_questions WHERE quiz_id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete questions: %w", err)
			}
			if err := insertQuestions(ctx, tx, id, models.ToQuestions(*req.Questions)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a quiz with its questions
func (r *quizRepository) Delete(ctx context.Context, languageID string, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ? AND language_id = ?`, id, languageID)
	if err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return expectOneRow(result, errQuizNotFound)
}

func insertQuestions(ctx context.Context, tx queryer, quizID int, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(questions))
	args := make([]any, 0, len(questions)*8)
	for i, q := range questions {
		options, err := encodeJSONColumn(q.Options)
		if err != nil {
			return err
		}
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, quizID, i, q.Text, q.Type, options, q.CorrectAnswer, q.Points, q.Explanation)
	}

	query := `
		INSERT INTO quiz_questions (quiz_id, position, text, type, options, correct_answer, points, explanation)
		VALUES ` + strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert questions: %w", err)
	}
	return nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func intPtrValue(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
