package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lingoroots/backend/internal/models"
	"github.com/lingoroots/backend/internal/quizrunner"
	"go.uber.org/zap"
)

// AttemptStore persists quiz attempts between requests
type AttemptStore interface {
	// Create stores a new attempt; an existing id is a conflict
	Create(ctx context.Context, a *quizrunner.Attempt) error
	// Get loads an attempt; unknown or expired ids wrap models.ErrNotFound
	Get(ctx context.Context, id string) (*quizrunner.Attempt, error)
	// Update applies fn atomically; an error from fn aborts without writing
	Update(ctx context.Context, id string, fn func(*quizrunner.Attempt) error) (*quizrunner.Attempt, error)
}

// AttemptRecorder writes the score of a completed attempt to the progress ledger
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, a *quizrunner.Attempt) (*models.ProgressUpdate, error)
}

// AttemptResponse is returned by attempt transitions
type AttemptResponse struct {
	Attempt  quizrunner.View        `json:"attempt"`
	Feedback *quizrunner.Feedback   `json:"feedback,omitempty"`
	Progress *models.ProgressUpdate `json:"progress,omitempty"`
}

var errAttemptNotFound = fmt.Errorf("attempt %w", models.ErrNotFound)

type attemptService struct {
	store        AttemptStore
	quizRepo     QuizReader
	languageRepo LanguageReader
	recorder     AttemptRecorder
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

// NewAttemptService creates a new quiz attempt service
func NewAttemptService(store AttemptStore, quizRepo QuizReader, languageRepo LanguageReader, recorder AttemptRecorder, logger *zap.Logger) *attemptService {
	return &attemptService{
		store:        store,
		quizRepo:     quizRepo,
		languageRepo: languageRepo,
		recorder:     recorder,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Start begins an attempt on a snapshot of the quiz
func (s *attemptService) Start(ctx context.Context, userID int, languageID string, quizID int) (*AttemptResponse, error) {
	if err := visibleLanguage(ctx, s.languageRepo, languageID, false); err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetByID(ctx, languageID, quizID)
	if err != nil {
		return nil, err
	}

	attempt := quizrunner.Start(s.newID(), userID, *quiz, s.now())
	if err := s.store.Create(ctx, attempt); err != nil {
		return nil, err
	}

	resp := &AttemptResponse{}
	if unrecorded(attempt) {
		if attempt, resp.Progress, err = s.record(ctx, attempt); err != nil {
			return nil, err
		}
	}
	resp.Attempt = attempt.View()
	return resp, nil
}

// Get returns the current view of an attempt owned by userID
func (s *attemptService) Get(ctx context.Context, userID int, attemptID string) (*AttemptResponse, error) {
	attempt, err := s.store.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, errAttemptNotFound
	}
	return &AttemptResponse{Attempt: attempt.View()}, nil
}

// Present shows the current question and starts waiting for its answer
func (s *attemptService) Present(ctx context.Context, userID int, attemptID string) (*AttemptResponse, error) {
	attempt, err := s.store.Update(ctx, attemptID, func(a *quizrunner.Attempt) error {
		if a.UserID != userID {
			return errAttemptNotFound
		}
		_, err := a.Present(s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AttemptResponse{Attempt: attempt.View()}, nil
}

// Submit grades the answer of the current question
func (s *attemptService) Submit(ctx context.Context, userID int, attemptID, answer string) (*AttemptResponse, error) {
	var feedback quizrunner.Feedback
	attempt, err := s.store.Update(ctx, attemptID, func(a *quizrunner.Attempt) error {
		if a.UserID != userID {
			return errAttemptNotFound
		}
		var err error
		feedback, err = a.Submit(answer, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AttemptResponse{Attempt: attempt.View(), Feedback: &feedback}, nil
}

// Next moves past the answered question. Finishing the last one records the score.
// Calling Next on a completed attempt whose score is not yet recorded retries the write.
func (s *attemptService) Next(ctx context.Context, userID int, attemptID string) (*AttemptResponse, error) {
	attempt, err := s.store.Update(ctx, attemptID, func(a *quizrunner.Attempt) error {
		if a.UserID != userID {
			return errAttemptNotFound
		}
		if unrecorded(a) {
			return nil
		}
		return a.Next(s.now())
	})
	if err != nil {
		return nil, err
	}

	resp := &AttemptResponse{}
	if unrecorded(attempt) {
		if attempt, resp.Progress, err = s.record(ctx, attempt); err != nil {
			return nil, err
		}
	}
	resp.Attempt = attempt.View()
	return resp, nil
}

// unrecorded reports whether a completed attempt still owes its ledger write.
// An attempt on a quiz without questions earns nothing and is never recorded.
func unrecorded(a *quizrunner.Attempt) bool {
	return a.Completed() && !a.ProgressRecorded && len(a.Questions) > 0
}

// record writes the attempt score to the ledger and marks the attempt.
// The ledger write is idempotent per attempt; after a failure the attempt stays
// completed but unrecorded and the next call to Next retries.
func (s *attemptService) record(ctx context.Context, attempt *quizrunner.Attempt) (*quizrunner.Attempt, *models.ProgressUpdate, error) {
	progress, err := s.recorder.RecordAttempt(ctx, attempt)
	if err != nil {
		s.logger.Error("failed to record quiz attempt",
			zap.String("attempt_id", attempt.ID),
			zap.Int("user_id", attempt.UserID),
			zap.Error(err),
		)
		return nil, nil, err
	}

	marked, err := s.store.Update(ctx, attempt.ID, func(a *quizrunner.Attempt) error {
		a.ProgressRecorded = true
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to mark attempt recorded", zap.String("attempt_id", attempt.ID), zap.Error(err))
		attempt.ProgressRecorded = true
		return attempt, progress, nil
	}
	return marked, progress, nil
}
