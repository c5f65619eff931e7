package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

var errUserNotFound = fmt.Errorf("user %w", models.ErrNotFound)

// userRepository stores accounts in the users table
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, display_name, first_name, last_name, email, password_hash, role, selected_language_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	var selected sql.NullString
	err := row.Scan(
		&user.ID,
		&user.DisplayName,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&selected,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if selected.Valid {
		user.SelectedLanguageID = &selected.String
	}
	return user, nil
}

// Create inserts a user with zero-valued progress
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, display_name, first_name, last_name, role)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.DisplayName, user.FirstName, user.LastName, user.Role)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("email already registered: %w", models.ErrConflict)
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// GetByID retrieves a user by id
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by id", zap.Error(err), zap.Int("user_id", id))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by normalized e-mail
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// UpdateProfile applies a partial update of the name fields
func (r *userRepository) UpdateProfile(ctx context.Context, id int, req *models.UpdateProfileRequest) error {
	var setParts []string
	var args []any

	if req.DisplayName != nil {
		setParts = append(setParts, "display_name = ?")
		args = append(args, *req.DisplayName)
	}
	if req.FirstName != nil {
		setParts = append(setParts, "first_name = ?")
		args = append(args, *req.FirstName)
	}
	if req.LastName != nil {
		setParts = append(setParts, "last_name = ?")
		args = append(args, *req.LastName)
	}
	if len(setParts) == 0 {
		return nil
	}

	query := `UPDATE users SET ` + strings.Join(setParts, ", ") + ` WHERE id = ?`
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return expectOneRowOrExists(ctx, r.db, result, id)
}

// UpdateSelectedLanguage sets the language the user is learning
func (r *userRepository) UpdateSelectedLanguage(ctx context.Context, id int, languageID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET selected_language_id = ? WHERE id = ?`, languageID, id)
	if err != nil {
		return fmt.Errorf("failed to update selected language: %w", err)
	}
	return expectOneRowOrExists(ctx, r.db, result, id)
}

// UpdatePassword replaces the password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOneRowOrExists(ctx, r.db, result, id)
}

// UpdateRole changes the role of a user
func (r *userRepository) UpdateRole(ctx context.Context, id int, role models.Role) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return expectOneRowOrExists(ctx, r.db, result, id)
}

// List returns a page of users ordered by id together with the total count
func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.UserListItem, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `
		SELECT id, display_name, email, role, points, created_at
		FROM users
		ORDER BY id
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.UserListItem, 0)
	for rows.Next() {
		var u models.UserListItem
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role, &u.Points, &u.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}
	return users, total, nil
}

// TopByPoints returns the highest scoring users; Rank is left for the caller
func (r *userRepository) TopByPoints(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT id, display_name, points
		FROM users
		ORDER BY points DESC, id ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Points); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

// ResetStaleStreaks zeroes current streaks of users inactive since before the given day
func (r *userRepository) ResetStaleStreaks(ctx context.Context, activeSince time.Time) (int, error) {
	query := `
		UPDATE users
		SET current_streak = 0
		WHERE current_streak > 0 AND (last_active_on IS NULL OR last_active_on < ?)
	`
	result, err := r.db.ExecContext(ctx, query, activeSince.Format(time.DateOnly))
	if err != nil {
		r.logger.Error("failed to reset streaks", zap.Error(err))
		return 0, fmt.Errorf("failed to reset streaks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// expectOneRowOrExists distinguishes "no such user" from "nothing changed":
// MySQL reports 0 affected rows when the new values equal the old ones.
func expectOneRowOrExists(ctx context.Context, db *sql.DB, result sql.Result, id int) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return errUserNotFound
	}
	return nil
}
