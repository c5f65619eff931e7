package services

import (
	"context"
	"sort"
	"strings"

	"github.com/lingoroots/backend/internal/models"
)

// LessonRepository is the interface that wraps methods for lessons table data access
type LessonRepository interface {
	// ListByLanguage returns lessons of a language with the completion flag of userID
	ListByLanguage(ctx context.Context, languageID string, userID int) ([]models.LessonListItem, error)
	// GetByID returns a lesson of a language.
	//
	// A lesson of another language is reported as not found.
	GetByID(ctx context.Context, languageID string, id int) (*models.Lesson, error)
	// Create inserts a lesson and increments the lesson count of its language
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, languageID string, id int, req *models.UpdateLessonRequest) error
	// Delete removes a lesson and decrements the lesson count of its language
	Delete(ctx context.Context, languageID string, id int) error
}

type lessonService struct {
	repo         LessonRepository
	languageRepo LanguageReader
}

// NewLessonService creates a new lesson service
func NewLessonService(repo LessonRepository, languageRepo LanguageReader) *lessonService {
	return &lessonService{
		repo:         repo,
		languageRepo: languageRepo,
	}
}

// GetLessons returns the lessons of a language sorted by order
func (s *lessonService) GetLessons(ctx context.Context, languageID string, userID int, includeInactive bool) ([]models.LessonListItem, error) {
	if err := visibleLanguage(ctx, s.languageRepo, languageID, includeInactive); err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListByLanguage(ctx, languageID, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].Order < lessons[j].Order
	})
	return lessons, nil
}

// GetLesson returns a lesson of a language
func (s *lessonService) GetLesson(ctx context.Context, languageID string, lessonID int, includeInactive bool) (*models.Lesson, error) {
	if err := visibleLanguage(ctx, s.languageRepo, languageID, includeInactive); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, languageID, lessonID)
}

// CreateLesson adds a lesson to a language
func (s *lessonService) CreateLesson(ctx context.Context, languageID string, req *models.CreateLessonRequest) (*models.Lesson, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.languageRepo.GetByID(ctx, languageID); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		LanguageID:           languageID,
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		Order:                req.Order,
		EstimatedTimeMinutes: req.EstimatedTimeMinutes,
		Vocabulary:           nonNil(req.Vocabulary),
		Dialogues:            nonNil(req.Dialogues),
		CulturalNotes:        req.CulturalNotes,
		VideoURL:             req.VideoURL,
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// UpdateLesson applies a partial update and returns the lesson
func (s *lessonService) UpdateLesson(ctx context.Context, languageID string, lessonID int, req *models.UpdateLessonRequest) (*models.Lesson, error) {
	trimPtr(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, languageID, lessonID, req); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, languageID, lessonID)
}

// DeleteLesson removes a lesson
func (s *lessonService) DeleteLesson(ctx context.Context, languageID string, lessonID int) error {
	return s.repo.Delete(ctx, languageID, lessonID)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
