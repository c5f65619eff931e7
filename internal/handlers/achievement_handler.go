package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// AchievementService is the interface that wraps the badge catalog.
type AchievementService interface {
	// Method ListAchievements returns every badge, with DateEarned set on the ones "userID" has.
	ListAchievements(ctx context.Context, userID int) ([]models.Achievement, error)
}

// LeaderboardService is the interface that wraps the ranking of users by points.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// AchievementHandler serves badges and the leaderboard
type AchievementHandler struct {
	BaseHandler
	achievementService AchievementService
	leaderboardService LeaderboardService
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(achievementService AchievementService, leaderboardService LeaderboardService, logger *zap.Logger) *AchievementHandler {
	return &AchievementHandler{
		BaseHandler:        BaseHandler{Logger: logger},
		achievementService: achievementService,
		leaderboardService: leaderboardService,
	}
}

// RegisterRoutes registers achievement routes. The leaderboard is public.
func (h *AchievementHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/leaderboard", h.GetLeaderboard)
	r.With(authMiddleware).Get("/achievements", h.ListAchievements)
}

// ListAchievements handles GET /achievements
// @Summary List achievements
// @Description Every badge, with dateEarned set on the ones the current user has earned
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Achievement
// @Failure 401 {object} map[string]string
// @Router /achievements [get]
func (h *AchievementHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	achievements, err := h.achievementService.ListAchievements(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to list achievements")
		return
	}
	h.RespondJSON(w, http.StatusOK, achievements)
}

// GetLeaderboard handles GET /leaderboard
// @Summary Get the leaderboard
// @Description Users ranked by points
// @Tags achievements
// @Produce json
// @Param limit query int false "Number of entries (1-100)" default(10)
// @Success 200 {array} models.LeaderboardEntry
// @Failure 400 {object} map[string]string
// @Router /leaderboard [get]
func (h *AchievementHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultLeaderboardLimit)
	if err != nil || limit < 1 || limit > maxLeaderboardLimit {
		h.RespondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	entries, err := h.leaderboardService.GetLeaderboard(r.Context(), limit)
	if err != nil {
		h.HandleServiceError(w, err, "failed to get leaderboard")
		return
	}
	h.RespondJSON(w, http.StatusOK, entries)
}
