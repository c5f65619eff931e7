package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/lingoroots/backend/internal/models"
)

// QuizRepository is the interface that wraps methods for quizzes and quiz_questions data access
type QuizRepository interface {
	// ListByLanguage returns quizzes of a language, optionally of one lesson, with the score of userID
	ListByLanguage(ctx context.Context, languageID string, lessonID *int, userID int) ([]models.QuizListItem, error)
	// GetByID returns a quiz with its ordered questions
	GetByID(ctx context.Context, languageID string, id int) (*models.Quiz, error)
	// GetFirstByLesson returns the first quiz attached to a lesson
	GetFirstByLesson(ctx context.Context, languageID string, lessonID int) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, languageID string, id int, req *models.UpdateQuizRequest) error
	Delete(ctx context.Context, languageID string, id int) error
}

// LessonReader looks a lesson up within a language
type LessonReader interface {
	GetByID(ctx context.Context, languageID string, id int) (*models.Lesson, error)
}

type quizService struct {
	repo         QuizRepository
	lessonRepo   LessonReader
	languageRepo LanguageReader
}

// NewQuizService creates a new quiz service
func NewQuizService(repo QuizRepository, lessonRepo LessonReader, languageRepo LanguageReader) *quizService {
	return &quizService{
		repo:         repo,
		lessonRepo:   lessonRepo,
		languageRepo: languageRepo,
	}
}

// GetQuizzes lists quizzes of a language, or of one of its lessons when lessonID is set
func (s *quizService) GetQuizzes(ctx context.Context, languageID string, lessonID *int, userID int, includeInactive bool) ([]models.QuizListItem, error) {
	if err := visibleLanguage(ctx, s.languageRepo, languageID, includeInactive); err != nil {
		return nil, err
	}
	return s.repo.ListByLanguage(ctx, languageID, lessonID, userID)
}

// GetQuiz returns a quiz as learners see it, without answers
func (s *quizService) GetQuiz(ctx context.Context, languageID string, quizID int, includeInactive bool) (*models.QuizView, error) {
	if err := visibleLanguage(ctx, s.languageRepo, languageID, includeInactive); err != nil {
		return nil, err
	}
	quiz, err := s.repo.GetByID(ctx, languageID, quizID)
	if err != nil {
		return nil, err
	}
	view := quiz.View()
	return &view, nil
}

// GetQuizForEdit returns a quiz with answers for content editors
func (s *quizService) GetQuizForEdit(ctx context.Context, languageID string, quizID int) (*models.Quiz, error) {
	return s.repo.GetByID(ctx, languageID, quizID)
}

// GetQuizByLesson returns the first quiz of a lesson without answers
func (s *quizService) GetQuizByLesson(ctx context.Context, languageID string, lessonID int, includeInactive bool) (*models.QuizView, error) {
	if err := visibleLanguage(ctx, s.languageRepo, languageID, includeInactive); err != nil {
		return nil, err
	}
	quiz, err := s.repo.GetFirstByLesson(ctx, languageID, lessonID)
	if err != nil {
		return nil, err
	}
	view := quiz.View()
	return &view, nil
}

// CreateQuiz adds a quiz to a lesson of the language
func (s *quizService) CreateQuiz(ctx context.Context, languageID string, req *models.CreateQuizRequest) (*models.Quiz, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkQuestions(req.Questions); err != nil {
		return nil, err
	}
	if _, err := s.lessonRepo.GetByID(ctx, languageID, req.LessonID); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		LanguageID:   languageID,
		LessonID:     req.LessonID,
		Title:        req.Title,
		Description:  req.Description,
		PassingScore: req.PassingScore,
		Questions:    models.ToQuestions(req.Questions),
	}
	if err := s.repo.Create(ctx, quiz); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, languageID, quiz.ID)
}

// UpdateQuiz applies a partial update and returns the quiz with answers
func (s *quizService) UpdateQuiz(ctx context.Context, languageID string, quizID int, req *models.UpdateQuizRequest) (*models.Quiz, error) {
	trimPtr(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Questions != nil {
		if err := checkQuestions(*req.Questions); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, languageID, quizID, req); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, languageID, quizID)
}

// DeleteQuiz removes a quiz
func (s *quizService) DeleteQuiz(ctx context.Context, languageID string, quizID int) error {
	return s.repo.Delete(ctx, languageID, quizID)
}

// checkQuestions enforces rules struct tags cannot express: a quiz has questions,
// and a multiple-choice question offers at least two distinct options, one of which is the answer.
func checkQuestions(questions []models.QuestionRequest) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: a quiz needs at least one question", models.ErrInvalidInput)
	}
	for i, q := range questions {
		if q.Type != models.QuestionMultipleChoice {
			continue
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", models.ErrInvalidInput, i+1)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, option := range q.Options {
			if _, dup := seen[option]; dup {
				return fmt.Errorf("%w: question %d has duplicate option %q", models.ErrInvalidInput, i+1, option)
			}
			seen[option] = struct{}{}
		}
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("%w: question %d answer must be one of its options", models.ErrInvalidInput, i+1)
		}
	}
	return nil
}
