package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lingoroots/backend/internal/ledger"
	"github.com/lingoroots/backend/internal/models"
	"go.uber.org/zap"
)

const (
	defaultUsersPageSize = 20
	maxUsersPageSize     = 100
)

// ProfileUserRepository is the interface that wraps methods for users table data access needed by profile service
type ProfileUserRepository interface {
	// GetByID retrieves a user by ID
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// UpdateProfile updates the non-nil name fields of req
	UpdateProfile(ctx context.Context, id int, req *models.UpdateProfileRequest) error
	// UpdateSelectedLanguage stores the language the user is learning
	UpdateSelectedLanguage(ctx context.Context, id int, languageID string) error
	// UpdateRole changes the role of a user
	UpdateRole(ctx context.Context, id int, role models.Role) error
	// List returns a page of users and the total number of users
	List(ctx context.Context, limit, offset int) ([]models.UserListItem, int, error)
}

// ProgressReader loads a user's progress
type ProgressReader interface {
	Get(ctx context.Context, userID int) (*models.Progress, error)
}

// LanguageReader looks a language up by id
type LanguageReader interface {
	GetByID(ctx context.Context, id string) (*models.Language, error)
}

// LeaderboardNameWriter keeps display names on the cached leaderboard current
type LeaderboardNameWriter interface {
	SetName(ctx context.Context, userID int, displayName string) error
}

type profileService struct {
	userRepo     ProfileUserRepository
	progressRepo ProgressReader
	languageRepo LanguageReader
	leaderboard  LeaderboardNameWriter
	logger       *zap.Logger
	now          func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(
	userRepo ProfileUserRepository,
	progressRepo ProgressReader,
	languageRepo LanguageReader,
	leaderboard LeaderboardNameWriter,
	logger *zap.Logger,
) *profileService {
	return &profileService{
		userRepo:     userRepo,
		progressRepo: progressRepo,
		languageRepo: languageRepo,
		leaderboard:  leaderboard,
		logger:       logger,
		now:          time.Now,
	}
}

// GetProfile returns the user with progress. A lapsed streak reads as zero
// even before the nightly reset has run.
func (s *profileService) GetProfile(ctx context.Context, userID int) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress, err := s.progressRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress.CurrentStreak = ledger.EffectiveStreak(*progress, s.now())

	return &models.UserProfile{User: *user, Progress: *progress}, nil
}

// UpdateProfile changes names of the user and returns the new profile
func (s *profileService) UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.UserProfile, error) {
	trimPtr(req.DisplayName)
	trimPtr(req.FirstName)
	trimPtr(req.LastName)

	if req.DisplayName == nil && req.FirstName == nil && req.LastName == nil {
		return nil, fmt.Errorf("%w: nothing to update", models.ErrInvalidInput)
	}
	if req.DisplayName != nil && *req.DisplayName == "" {
		return nil, fmt.Errorf("%w: display name cannot be empty", models.ErrInvalidInput)
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, req); err != nil {
		return nil, err
	}

	if req.DisplayName != nil && s.leaderboard != nil {
		if err := s.leaderboard.SetName(ctx, userID, *req.DisplayName); err != nil {
			s.logger.Warn("failed to update leaderboard name", zap.Int("user_id", userID), zap.Error(err))
		}
	}

	return s.GetProfile(ctx, userID)
}

// SelectLanguage sets the language the user is learning; it must exist and be active
func (s *profileService) SelectLanguage(ctx context.Context, userID int, req *models.SelectLanguageRequest) error {
	languageID := strings.TrimSpace(req.LanguageID)
	if languageID == "" {
		return fmt.Errorf("%w: language id is required", models.ErrInvalidInput)
	}

	language, err := s.languageRepo.GetByID(ctx, languageID)
	if err != nil {
		return err
	}
	if !language.IsActive {
		return fmt.Errorf("%w: language %s is not available", models.ErrInvalidInput, languageID)
	}

	return s.userRepo.UpdateSelectedLanguage(ctx, userID, languageID)
}

// ListUsers returns a page of users for administrators
func (s *profileService) ListUsers(ctx context.Context, page, count int) ([]models.UserListItem, int, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = defaultUsersPageSize
	}
	if count > maxUsersPageSize {
		count = maxUsersPageSize
	}
	return s.userRepo.List(ctx, count, (page-1)*count)
}

// UpdateRole changes the role of userID. Administrators cannot change their own role.
func (s *profileService) UpdateRole(ctx context.Context, actorID, userID int, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role", models.ErrInvalidInput)
	}
	if actorID == userID {
		return fmt.Errorf("%w: cannot change your own role", models.ErrForbidden)
	}
	return s.userRepo.UpdateRole(ctx, userID, role)
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
