package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lingoroots/backend/internal/models"
)

type passwordResetRepository struct {
	db *sql.DB
}

// NewPasswordResetRepository creates a new password reset token repository
func NewPasswordResetRepository(db *sql.DB) *passwordResetRepository {
	return &passwordResetRepository{db: db}
}

// Create stores a reset token, replacing any earlier token of the same user
func (r *passwordResetRepository) Create(ctx context.Context, t *models.PasswordResetToken) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = ?`, t.UserID); err != nil {
			return fmt.Errorf("failed to delete previous reset tokens: %w", err)
		}
		query := `INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, query, t.UserID, t.Token, t.ExpiresAt); err != nil {
			return fmt.Errorf("failed to create reset token: %w", err)
		}
		return nil
	})
}

// GetByToken looks a reset token up
func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	query := `SELECT id, user_id, token, expires_at FROM password_reset_tokens WHERE token = ? LIMIT 1`

	t := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reset token %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return t, nil
}

// DeleteByUserID removes all reset tokens of a user
func (r *passwordResetRepository) DeleteByUserID(ctx context.Context, userID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}
