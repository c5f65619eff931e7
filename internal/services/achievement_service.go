package services

import (
	"context"

	"github.com/lingoroots/backend/internal/models"
)

// AchievementRepository is the interface that wraps methods for achievements data access
type AchievementRepository interface {
	ListAll(ctx context.Context) ([]models.Achievement, error)
	// ListForUser returns every achievement, with DateEarned set for those the user earned
	ListForUser(ctx context.Context, userID int) ([]models.Achievement, error)
}

type achievementService struct {
	repo AchievementRepository
}

// NewAchievementService creates a new achievement service
func NewAchievementService(repo AchievementRepository) *achievementService {
	return &achievementService{repo: repo}
}

// ListAchievements returns all achievements marked with what userID earned
func (s *achievementService) ListAchievements(ctx context.Context, userID int) ([]models.Achievement, error) {
	return s.repo.ListForUser(ctx, userID)
}
