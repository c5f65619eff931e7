package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lingoroots/backend/internal/feedback"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

// defaultFeedbackLanguage is used when the request names no known language
const defaultFeedbackLanguage = "Duala"

// FeedbackGenerator produces tutor feedback text
type FeedbackGenerator interface {
	Generate(ctx context.Context, p feedback.Prompt) (string, error)
}

type feedbackService struct {
	generator    FeedbackGenerator
	languageRepo LanguageReader
	logger       *zap.Logger
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(generator FeedbackGenerator, languageRepo LanguageReader, logger *zap.Logger) *feedbackService {
	return &feedbackService{
		generator:    generator,
		languageRepo: languageRepo,
		logger:       logger,
	}
}

// Generate explains a quiz answer. Upstream failures are reported as models.ErrUnavailable
// without their details.
func (s *feedbackService) Generate(ctx context.Context, req *models.FeedbackRequest) (*models.FeedbackResponse, error) {
	req.Question = strings.TrimSpace(req.Question)
	req.CorrectAnswer = strings.TrimSpace(req.CorrectAnswer)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	text, err := s.generator.Generate(ctx, feedback.Prompt{
		Language:      s.languageName(ctx, req.LanguageID),
		Question:      req.Question,
		Answer:        strings.TrimSpace(req.UserAnswer),
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Error("failed to generate feedback", zap.Error(err))
		return nil, fmt.Errorf("%w: feedback is temporarily unavailable", models.ErrUnavailable)
	}
	return &models.FeedbackResponse{Feedback: text}, nil
}

func (s *feedbackService) languageName(ctx context.Context, languageID string) string {
	if languageID == "" || s.languageRepo == nil {
		return defaultFeedbackLanguage
	}
	language, err := s.languageRepo.GetByID(ctx, languageID)
	if err != nil {
		return defaultFeedbackLanguage
	}
	return language.Name
}
