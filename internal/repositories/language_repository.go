package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lingoroots/backend/internal/models"
)

var errLanguageNotFound = fmt.Errorf("language %w", models.ErrNotFound)

type languageRepository struct {
	db *sql.DB
}

// NewLanguageRepository creates a new language repository
func NewLanguageRepository(db *sql.DB) *languageRepository {
	return &languageRepository{db: db}
}

// List returns languages ordered by name
func (r *languageRepository) List(ctx context.Context, includeInactive bool) ([]models.Language, error) {
	query := `SELECT id, name, description, image_url, is_active, lesson_count FROM languages`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query languages: %w", err)
	}
	defer rows.Close()

	languages := make([]models.Language, 0)
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.ImageURL, &l.IsActive, &l.LessonCount); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return languages, nil
}

// GetByID retrieves a language by its code
func (r *languageRepository) GetByID(ctx context.Context, id string) (*models.Language, error) {
	query := `
		SELECT id, name, description, image_url, is_active, lesson_count
		FROM languages
		WHERE id = ?
		LIMIT 1
	`
	var l models.Language
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.Name, &l.Description, &l.ImageURL, &l.IsActive, &l.LessonCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errLanguageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get language: %w", err)
	}
	return &l, nil
}

// Create inserts a language
func (r *languageRepository) Create(ctx context.Context, l *models.Language) error {
	query := `
		INSERT INTO languages (id, name, description, image_url, is_active)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, l.ID, l.Name, l.Description, l.ImageURL, l.IsActive); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("language %q already exists: %w", l.ID, models.ErrConflict)
		}
		return fmt.Errorf("failed to create language: %w", err)
	}
	return nil
}

// Update applies a partial update
func (r *languageRepository) Update(ctx context.Context, id string, req *models.UpdateLanguageRequest) error {
	var setParts []string
	var args []any

	if req.Name != nil {
		setParts = append(setParts, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *req.Description)
	}
	if req.ImageURL != nil {
		setParts = append(setParts, "image_url = ?")
		args = append(args, *req.ImageURL)
	}
	if req.IsActive != nil {
		setParts = append(setParts, "is_active = ?")
		args = append(args, *req.IsActive)
	}
	if len(setParts) == 0 {
		return fmt.Errorf("%w: no fields to update", models.ErrInvalidInput)
	}

	args = append(args, id)
	query := `UPDATE languages SET ` + strings.Join(setParts, ", ") + ` WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	return nil
}

// Delete removes a language; lessons and quizzes go with it
func (r *languageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM languages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete language: %w", err)
	}
	return expectOneRow(result, errLanguageNotFound)
}
