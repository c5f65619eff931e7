package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lingoroots/backend/internal/models"
)

// LanguageRepository is the interface that wraps methods for languages table data access
type LanguageRepository interface {
	List(ctx context.Context, includeInactive bool) ([]models.Language, error)
	GetByID(ctx context.Context, id string) (*models.Language, error)
	Create(ctx context.Context, l *models.Language) error
	Update(ctx context.Context, id string, req *models.UpdateLanguageRequest) error
	Delete(ctx context.Context, id string) error
}

type languageService struct {
	repo LanguageRepository
}

// NewLanguageService creates a new language service
func NewLanguageService(repo LanguageRepository) *languageService {
	return &languageService{repo: repo}
}

// ListLanguages returns active languages, or all of them for content editors
func (s *languageService) ListLanguages(ctx context.Context, includeInactive bool) ([]models.Language, error) {
	return s.repo.List(ctx, includeInactive)
}

// GetLanguage returns a language. Inactive languages are hidden unless includeInactive is set.
func (s *languageService) GetLanguage(ctx context.Context, id string, includeInactive bool) (*models.Language, error) {
	language, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !language.IsActive && !includeInactive {
		return nil, fmt.Errorf("language %w", models.ErrNotFound)
	}
	return language, nil
}

// CreateLanguage adds a course language
func (s *languageService) CreateLanguage(ctx context.Context, req *models.CreateLanguageRequest) (*models.Language, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	language := &models.Language{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	}
	if err := s.repo.Create(ctx, language); err != nil {
		return nil, err
	}
	return language, nil
}

// UpdateLanguage applies a partial update and returns the language
func (s *languageService) UpdateLanguage(ctx context.Context, id string, req *models.UpdateLanguageRequest) (*models.Language, error) {
	trimPtr(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// DeleteLanguage removes a language together with its lessons and quizzes
func (s *languageService) DeleteLanguage(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// visibleLanguage reports an inactive language as not found unless includeInactive is set
func visibleLanguage(ctx context.Context, repo LanguageReader, id string, includeInactive bool) error {
	language, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !language.IsActive && !includeInactive {
		return fmt.Errorf("language %w", models.ErrNotFound)
	}
	return nil
}
