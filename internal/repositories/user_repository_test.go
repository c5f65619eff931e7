package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lingoroots/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupUserTestRepository creates a user repository with a mock database
func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewUserRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

var userRowColumns = []string{"id", "display_name", "first_name", "last_name", "email", "password_hash", "role", "selected_language_id", "created_at"}

func TestNewUserRepository(t *testing.T) {
	db := &sql.DB{}
	logger := zap.NewNop()

	repo := NewUserRepository(db, logger)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
	assert.Equal(t, logger, repo.logger)
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedID    int
		expectedError error
		wantErr       bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("ada@example.com", "hash", "Ada", "Ada", "Lovelace", models.RoleLearner).
					WillReturnResult(sqlmock.NewResult(12, 1))
			},
			expectedID: 12,
		},
		{
			name: "duplicate email",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
			},
			expectedError: models.ErrConflict,
			wantErr:       true,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			user := &models.User{
				Email:        "ada@example.com",
				PasswordHash: "hash",
				DisplayName:  "Ada",
				FirstName:    "Ada",
				LastName:     "Lovelace",
				Role:         models.RoleLearner,
			}
			err := repo.Create(context.Background(), user)

			if tt.wantErr {
				require.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedID, user.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		check         func(t *testing.T, u *models.User)
	}{
		{
			name: "found with selected language",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(userRowColumns).
					AddRow(3, "Ada", "Ada", "L", "ada@example.com", "hash", 2, "dua", created)
				mock.ExpectQuery(`SELECT .* FROM users WHERE email = \?`).
					WithArgs("ada@example.com").
					WillReturnRows(rows)
			},
			check: func(t *testing.T, u *models.User) {
				assert.Equal(t, 3, u.ID)
				assert.Equal(t, models.RoleContentCreator, u.Role)
				require.NotNil(t, u.SelectedLanguageID)
				assert.Equal(t, "dua", *u.SelectedLanguageID)
				assert.Equal(t, created, u.CreatedAt)
			},
		},
		{
			name: "found without selected language",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(userRowColumns).
					AddRow(3, "Ada", "", "", "ada@example.com", "hash", 1, nil, created)
				mock.ExpectQuery(`SELECT .* FROM users WHERE email = \?`).WillReturnRows(rows)
			},
			check: func(t *testing.T, u *models.User) {
				assert.Nil(t, u.SelectedLanguageID)
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE email = \?`).WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			u, err := repo.GetByEmail(context.Background(), "ada@example.com")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, u)
			} else {
				require.NoError(t, err)
				tt.check(t, u)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	name := "Ada L."

	t.Run("updates given fields", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE users SET display_name = \? WHERE id = \?`).
			WithArgs(name, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateProfile(context.Background(), 3, &models.UpdateProfileRequest{DisplayName: &name})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unchanged values of existing user", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE users SET display_name = \?`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.UpdateProfile(context.Background(), 3, &models.UpdateProfileRequest{DisplayName: &name})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE users SET display_name = \?`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.UpdateProfile(context.Background(), 3, &models.UpdateProfileRequest{DisplayName: &name})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("nothing to update", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		assert.NoError(t, repo.UpdateProfile(context.Background(), 3, &models.UpdateProfileRequest{}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_TopByPoints(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "display_name", "points"}).
		AddRow(2, "Bea", 300).
		AddRow(1, "Ade", 150)
	mock.ExpectQuery(`SELECT id, display_name, points\s+FROM users\s+ORDER BY points DESC`).
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := repo.TopByPoints(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].UserID)
	assert.Equal(t, 300, entries[0].Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ResetStaleStreaks(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE users\s+SET current_streak = 0`).
		WithArgs("2024-05-05").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.ResetStaleStreaks(context.Background(), time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(`SELECT id, display_name, email, role, points, created_at`).
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name", "email", "role", "points", "created_at"}).
			AddRow(21, "Zed", "z@example.com", 3, 0, created))

	users, total, err := repo.List(context.Background(), 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
