package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lingoroots/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageRepository_List(t *testing.T) {
	tests := []struct {
		name            string
		includeInactive bool
		queryPattern    string
	}{
		{name: "active only", includeInactive: false, queryPattern: `FROM languages WHERE is_active = TRUE ORDER BY name`},
		{name: "all", includeInactive: true, queryPattern: `FROM languages ORDER BY name`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			repo := NewLanguageRepository(db)

			mock.ExpectQuery(tt.queryPattern).WillReturnRows(
				sqlmock.NewRows([]string{"id", "name", "description", "image_url", "is_active", "lesson_count"}).
					AddRow("dua", "Duala", "Coastal Cameroon", "", true, 12),
			)

			languages, err := repo.List(context.Background(), tt.includeInactive)
			require.NoError(t, err)
			require.Len(t, languages, 1)
			assert.Equal(t, 12, languages[0].LessonCount)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLanguageRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewLanguageRepository(db)

	mock.ExpectExec(`INSERT INTO languages`).
		WithArgs("dua", "Duala", "", "", true).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err = repo.Create(context.Background(), &models.Language{ID: "dua", Name: "Duala", IsActive: true})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestLanguageRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewLanguageRepository(db)

	mock.ExpectExec(`DELETE FROM languages WHERE id = \?`).WithArgs("xx").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "xx"), models.ErrNotFound)
}
