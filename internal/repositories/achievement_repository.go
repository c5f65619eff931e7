package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lingoroots/backend/internal/models"
)

type achievementRepository struct {
	db *sql.DB
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *sql.DB) *achievementRepository {
	return &achievementRepository{db: db}
}

// ListAll returns every achievement definition
func (r *achievementRepository) ListAll(ctx context.Context) ([]models.Achievement, error) {
	query := `SELECT id, name, description, icon, rule_kind, threshold FROM achievements ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	achievements := make([]models.Achievement, 0)
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Rule, &a.Threshold); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return achievements, nil
}

// ListForUser returns every achievement with DateEarned set for those userID holds
func (r *achievementRepository) ListForUser(ctx context.Context, userID int) ([]models.Achievement, error) {
	query := `
		SELECT a.id, a.name, a.description, a.icon, a.rule_kind, a.threshold, ua.earned_at
		FROM achievements a
		LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = ?
		ORDER BY ua.earned_at IS NULL, ua.earned_at, a.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user achievements: %w", err)
	}
	defer rows.Close()

	achievements := make([]models.Achievement, 0)
	for rows.Next() {
		var a models.Achievement
		var earned sql.NullTime
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Rule, &a.Threshold, &earned); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		if earned.Valid {
			t := earned.Time.In(time.UTC)
			a.DateEarned = &t
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return achievements, nil
}
