package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lingoroots/backend/internal/models"
)

var errLessonNotFound = fmt.Errorf("lesson %w", models.ErrNotFound)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

// ListByLanguage returns the lessons of a language sorted by order,
// flagging the ones userID has completed
func (r *lessonRepository) ListByLanguage(ctx context.Context, languageID string, userID int) ([]models.LessonListItem, error) {
	query := `
		SELECT
			l.id,
			l.language_id,
			l.title,
			l.description,
			l.category,
			l.` + "`order`" + `,
			l.estimated_time_minutes,
			CASE WHEN ucl.lesson_id IS NOT NULL THEN 1 ELSE 0 END AS completed
		FROM lessons l
		LEFT JOIN user_completed_lessons ucl ON ucl.lesson_id = l.id AND ucl.user_id = ?
		WHERE l.language_id = ?
		ORDER BY l.` + "`order`" + `, l.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, languageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]models.LessonListItem, 0)
	for rows.Next() {
		var lesson models.LessonListItem
		var completed int
		err := rows.Scan(
			&lesson.ID,
			&lesson.LanguageID,
			&lesson.Title,
			&lesson.Description,
			&lesson.Category,
			&lesson.Order,
			&lesson.EstimatedTimeMinutes,
			&completed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lesson.Completed = completed == 1
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return lessons, nil
}

// GetByID retrieves a lesson of a language
func (r *lessonRepository) GetByID(ctx context.Context, languageID string, id int) (*models.Lesson, error) {
	query := `
		SELECT id, language_id, title, description, category, ` + "`order`" + `,
			estimated_time_minutes, vocabulary, dialogues, cultural_notes, video_url
		FROM lessons
		WHERE id = ? AND language_id = ?
		LIMIT 1
	`

	var lesson models.Lesson
	var vocabulary, dialogues []byte
	err := r.db.QueryRowContext(ctx, query, id, languageID).Scan(
		&lesson.ID,
		&lesson.LanguageID,
		&lesson.Title,
		&lesson.Description,
		&lesson.Category,
		&lesson.Order,
		&lesson.EstimatedTimeMinutes,
		&vocabulary,
		&dialogues,
		&lesson.CulturalNotes,
		&lesson.VideoURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by id: %w", err)
	}

	if err := decodeJSONColumn(vocabulary, &lesson.Vocabulary); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary: %w", err)
	}
	if err := decodeJSONColumn(dialogues, &lesson.Dialogues); err != nil {
		return nil, fmt.Errorf("failed to decode dialogues: %w", err)
	}
	return &lesson, nil
}

// Create inserts a lesson and bumps the language lesson count
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	vocabulary, err := encodeJSONColumn(lesson.Vocabulary)
	if err != nil {
		return err
	}
	dialogues, err := encodeJSONColumn(lesson.Dialogues)
	if err != nil {
		return err
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO lessons (language_id, title, description, category, ` + "`order`" + `,
				estimated_time_minutes, vocabulary, dialogues, cultural_notes, video_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := tx.ExecContext(ctx, query,
			lesson.LanguageID, lesson.Title, lesson.Description, lesson.Category, lesson.Order,
			lesson.EstimatedTimeMinutes, vocabulary, dialogues, lesson.CulturalNotes, lesson.VideoURL,
		)
		if err != nil {
			return fmt.Errorf("failed to create lesson: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		lesson.ID = int(id)

		if _, err := tx.ExecContext(ctx, `UPDATE languages SET lesson_count = lesson_count + 1 WHERE id = ?`, lesson.LanguageID); err != nil {
			return fmt.Errorf("failed to update lesson count: %w", err)
		}
		return nil
	})
}

// Update applies a partial update
func (r *lessonRepository) Update(ctx context.Context, languageID string, id int, req *models.UpdateLessonRequest) error {
	var setParts []string
	var args []any

	add := func(column string, value any) {
		setParts = append(setParts, column+" = ?")
		args = append(args, value)
	}

	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.Order != nil {
		add("`order`", *req.Order)
	}
	if req.EstimatedTimeMinutes != nil {
		add("estimated_time_minutes", *req.EstimatedTimeMinutes)
	}
	if req.Vocabulary != nil {
		v, err := encodeJSONColumn(*req.Vocabulary)
		if err != nil {
			return err
		}
		add("vocabulary", v)
	}
	if req.Dialogues != nil {
		d, err := encodeJSONColumn(*req.Dialogues)
		if err != nil {
			return err
		}
		add("dialogues", d)
	}
	if req.CulturalNotes != nil {
		add("cultural_notes", *req.CulturalNotes)
	}
	if req.VideoURL != nil {
		add("video_url", *req.VideoURL)
	}
	if len(setParts) == 0 {
		return fmt.Errorf("%w: no fields to update", models.ErrInvalidInput)
	}

	args = append(args, id, languageID)
	query := `UPDATE lessons SET ` + strings.Join(setParts, ", ") + ` WHERE id = ? AND language_id = ?`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return nil
}

// UpdateVocabulary replaces the vocabulary list, used to write back audio urls
func (r *lessonRepository) UpdateVocabulary(ctx context.Context, id int, vocabulary []models.VocabularyItem) error {
	v, err := encodeJSONColumn(vocabulary)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE lessons SET vocabulary = ? WHERE id = ?`, v, id); err != nil {
		return fmt.Errorf("failed to update vocabulary: %w", err)
	}
	return nil
}

// Delete removes a lesson and decrements the language lesson count
func (r *lessonRepository) Delete(ctx context.Context, languageID string, id int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = ? AND language_id = ?`, id, languageID)
		if err != nil {
			return fmt.Errorf("failed to delete lesson: %w", err)
		}
		if err := expectOneRow(result, errLessonNotFound); err != nil {
			return err
		}
		query := `UPDATE languages SET lesson_count = GREATEST(lesson_count - 1, 0) WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, languageID); err != nil {
			return fmt.Errorf("failed to update lesson count: %w", err)
		}
		return nil
	})
}

// encodeJSONColumn returns a string: MySQL refuses JSON values sent with the binary charset
func encodeJSONColumn(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode json column: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

func decodeJSONColumn[T any](data []byte, dst *[]T) error {
	if len(data) == 0 {
		*dst = []T{}
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}
