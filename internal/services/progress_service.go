package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lingoroots/backend/internal/ledger"
	"github.com/lingoroots/backend/internal/models"
	"github.com/lingoroots/backend/internal/quizrunner"
	"github.com/lingoroots/backend/internal/tasks"
	"go.uber.org/zap"
)

const maxIdempotencyKeyLength = 64

// ProgressRepository is the interface that wraps progress persistence
type ProgressRepository interface {
	// Get loads the progress of a user.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound is returned together with "nil" value.
	Get(ctx context.Context, userID int) (*models.Progress, error)
	// Apply locks the user's progress, runs mutate on it and commits the outcome with the event row
	// in one transaction.
	//
	// An event id that was applied before is not applied again; the current progress is returned
	// with "false". Nothing is written when mutate fails or reports no change.
	Apply(ctx context.Context, ev models.ProgressEvent, mutate func(models.Progress) (ledger.Outcome, error)) (ledger.Outcome, bool, error)
}

// AchievementCatalog lists achievement definitions
type AchievementCatalog interface {
	ListAll(ctx context.Context) ([]models.Achievement, error)
}

// ProgressUserRepository is the user data the progress service needs
type ProgressUserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	// ResetStaleStreaks zeroes current streaks of users not active on or after activeSince
	ResetStaleStreaks(ctx context.Context, activeSince time.Time) (int, error)
}

// LeaderboardScoreWriter publishes new point totals
type LeaderboardScoreWriter interface {
	SetScore(ctx context.Context, userID int, displayName string, points int) error
}

type progressService struct {
	repo         ProgressRepository
	achievements AchievementCatalog
	userRepo     ProgressUserRepository
	lessonRepo   LessonReader
	quizRepo     QuizReader
	languageRepo LanguageReader
	leaderboard  LeaderboardScoreWriter
	emails       EmailEnqueuer
	ledger       *ledger.Ledger
	logger       *zap.Logger
	now          func() time.Time
}

// QuizReader looks a quiz up within a language
type QuizReader interface {
	GetByID(ctx context.Context, languageID string, id int) (*models.Quiz, error)
}

// NewProgressService creates a new progress service
func NewProgressService(
	repo ProgressRepository,
	achievements AchievementCatalog,
	userRepo ProgressUserRepository,
	lessonRepo LessonReader,
	quizRepo QuizReader,
	languageRepo LanguageReader,
	leaderboard LeaderboardScoreWriter,
	emails EmailEnqueuer,
	policy ledger.ScoringPolicy,
	logger *zap.Logger,
) *progressService {
	return &progressService{
		repo:         repo,
		achievements: achievements,
		userRepo:     userRepo,
		lessonRepo:   lessonRepo,
		quizRepo:     quizRepo,
		languageRepo: languageRepo,
		leaderboard:  leaderboard,
		emails:       emails,
		ledger:       ledger.New(policy),
		logger:       logger,
		now:          time.Now,
	}
}

// GetProgress returns the progress of a user with the streak as of today
func (s *progressService) GetProgress(ctx context.Context, userID int) (*models.Progress, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.CurrentStreak = ledger.EffectiveStreak(*p, s.now())
	return p, nil
}

// CompleteLesson marks a lesson completed. Only the first completion awards points.
func (s *progressService) CompleteLesson(ctx context.Context, userID int, languageID string, lessonID int) (*models.ProgressUpdate, error) {
	if err := visibleLanguage(ctx, s.languageRepo, languageID, false); err != nil {
		return nil, err
	}
	if _, err := s.lessonRepo.GetByID(ctx, languageID, lessonID); err != nil {
		return nil, err
	}

	ev := models.ProgressEvent{
		UserID:  userID,
		EventID: fmt.Sprintf("lesson:%d", lessonID),
		Kind:    models.EventLessonCompleted,
		RefID:   lessonID,
	}
	return s.apply(ctx, ev, ledger.Event{
		Kind:  models.EventLessonCompleted,
		RefID: lessonID,
		At:    s.now(),
	})
}

// RecordQuizResult records a quiz score reported by the client.
// Requests carrying the same idempotency key are applied once; without a key every call counts.
func (s *progressService) RecordQuizResult(ctx context.Context, userID int, languageID string, quizID int, req *models.QuizResultRequest, idempotencyKey string) (*models.ProgressUpdate, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if len(idempotencyKey) > maxIdempotencyKeyLength {
		return nil, fmt.Errorf("%w: idempotency key is too long", models.ErrInvalidInput)
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	if err := visibleLanguage(ctx, s.languageRepo, languageID, false); err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetByID(ctx, languageID, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz has no questions", models.ErrInvalidInput)
	}

	ev := models.ProgressEvent{
		UserID:  userID,
		EventID: fmt.Sprintf("quiz-result:%d:%s", quizID, idempotencyKey),
		Kind:    models.EventQuizCompleted,
		RefID:   quizID,
	}
	return s.apply(ctx, ev, ledger.Event{
		Kind:           models.EventQuizCompleted,
		RefID:          quizID,
		PointsEarned:   req.PointsEarned,
		PointsPossible: quiz.TotalPoints(),
		QuestionCount:  len(quiz.Questions),
		At:             s.now(),
	})
}

// RecordAttempt records the score of a completed quiz attempt, once per attempt
func (s *progressService) RecordAttempt(ctx context.Context, a *quizrunner.Attempt) (*models.ProgressUpdate, error) {
	if !a.Completed() {
		return nil, fmt.Errorf("%w: attempt is not completed", quizrunner.ErrInvalidTransition)
	}

	ev := models.ProgressEvent{
		UserID:  a.UserID,
		EventID: "quiz-attempt:" + a.ID,
		Kind:    models.EventQuizCompleted,
		RefID:   a.QuizID,
	}
	at := a.UpdatedAt
	if a.CompletedAt != nil {
		at = *a.CompletedAt
	}
	return s.apply(ctx, ev, ledger.Event{
		Kind:           models.EventQuizCompleted,
		RefID:          a.QuizID,
		PointsEarned:   a.Score,
		PointsPossible: a.TotalPoints(),
		QuestionCount:  len(a.Questions),
		At:             at,
	})
}

// ResetInactiveStreaks zeroes the streak of everyone who was not active yesterday or today
func (s *progressService) ResetInactiveStreaks(ctx context.Context) (int, error) {
	yesterday := ledger.Day(s.now()).AddDate(0, 0, -1)
	return s.userRepo.ResetStaleStreaks(ctx, yesterday)
}

func (s *progressService) apply(ctx context.Context, ev models.ProgressEvent, lev ledger.Event) (*models.ProgressUpdate, error) {
	achievements, err := s.achievements.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out, applied, err := s.repo.Apply(ctx, ev, func(p models.Progress) (ledger.Outcome, error) {
		return s.ledger.Apply(p, lev, achievements)
	})
	if err != nil {
		return nil, err
	}

	update := &models.ProgressUpdate{
		Progress:  out.Progress,
		NewBadges: []string{},
		Applied:   applied,
	}
	if applied {
		update.PointsAwarded = out.PointsAwarded
		if out.NewBadges != nil {
			update.NewBadges = out.NewBadges
		}
		if ev.Kind == models.EventQuizCompleted {
			s.logger.Debug("Quiz result applied",
				zap.Int("user_id", ev.UserID),
				zap.Int("quiz_id", ev.RefID),
				zap.String("policy", string(s.ledger.Policy())),
				zap.Int("points_awarded", out.PointsAwarded))
		}
		s.afterCommit(ctx, ev.UserID, out, achievements)
	}
	return update, nil
}

// afterCommit publishes the new state. The ledger write already succeeded, so
// failures here are logged and left to the periodic leaderboard rebuild.
func (s *progressService) afterCommit(ctx context.Context, userID int, out ledger.Outcome, achievements []models.Achievement) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load user after progress update", zap.Int("user_id", userID), zap.Error(err))
		return
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.SetScore(ctx, userID, user.DisplayName, out.Progress.Points); err != nil {
			s.logger.Warn("failed to update leaderboard", zap.Int("user_id", userID), zap.Error(err))
		}
	}

	if s.emails == nil {
		return
	}
	for _, badge := range out.NewBadges {
		for _, a := range achievements {
			if a.ID != badge {
				continue
			}
			err := s.emails.EnqueueEmail(ctx, tasks.EmailPayload{
				To:       user.Email,
				Template: tasks.EmailAchievement,
				Data: map[string]string{
					"name":        user.DisplayName,
					"achievement": a.Name,
					"description": a.Description,
				},
			})
			if err != nil {
				s.logger.Warn("failed to enqueue achievement email", zap.String("achievement", a.ID), zap.Error(err))
			}
		}
	}
}
