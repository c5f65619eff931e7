package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lingoroots/backend/internal/models"
)

var errTokenNotFound = fmt.Errorf("token %w", models.ErrNotFound)

// userTokenRepository stores refresh tokens
type userTokenRepository struct {
	db *sql.DB
}

// NewUserTokenRepository creates a new user token repository
func NewUserTokenRepository(db *sql.DB) *userTokenRepository {
	return &userTokenRepository{
		db: db,
	}
}

// Create inserts a new user token into the database
func (r *userTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	query := `
		INSERT INTO user_tokens (user_id, token)
		VALUES (?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, userToken.UserID, userToken.Token); err != nil {
		return fmt.Errorf("failed to create user token: %w", err)
	}
	return nil
}

// GetByToken retrieves a user token by token string
func (r *userTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	query := `
		SELECT id, user_id, token
		FROM user_tokens
		WHERE token = ?
		LIMIT 1
	`

	userToken := &models.UserToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&userToken.ID,
		&userToken.UserID,
		&userToken.Token,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user token by token: %w", err)
	}
	return userToken, nil
}

// UpdateToken swaps oldToken for newToken, which rotates a refresh token in place
func (r *userTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	query := `
		UPDATE user_tokens
		SET token = ?, created_at = CURRENT_TIMESTAMP
		WHERE token = ? AND user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, newToken, oldToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update user token: %w", err)
	}
	if err := expectOneRow(result, errTokenNotFound); err != nil {
		return err
	}
	return nil
}

// DeleteByToken deletes a token record by token string
func (r *userTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete user token: %w", err)
	}
	return nil
}

// DeleteByUserID signs a user out everywhere
func (r *userTokenRepository) DeleteByUserID(ctx context.Context, userID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return nil
}

// DeleteExpiredTokens deletes tokens created at or before expiryTime
func (r *userTokenRepository) DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE created_at <= ?`, expiryTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}
