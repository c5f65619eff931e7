package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lingoroots/backend/internal/auth/service"
	"github.com/lingoroots/backend/internal/models"
	"github.com/lingoroots/backend/internal/tasks"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetTTL is how long a reset link stays valid
const PasswordResetTTL = time.Hour

// UserRepository is the interface that wraps methods for users table data access needed by auth service
type UserRepository interface {
	// Method Create inserts a new user with zero progress.
	//
	// "user" parameter is used to create a new user; its ID is set on success.
	//
	// If a user with the same email exists, an error wrapping models.ErrConflict is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method GetByEmail retrieves a user by normalized email.
	//
	// If user with such email does not exist, an error wrapping models.ErrNotFound is returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method UpdatePassword replaces the password hash of a user.
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// UserTokenRepository is the interface that wraps methods for user_tokens table data access
type UserTokenRepository interface {
	// Method Create stores a refresh token.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method GetByToken retrieves a refresh token record.
	//
	// If the token is unknown, an error wrapping models.ErrNotFound is returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	// Method UpdateToken replaces oldToken of userID by newToken.
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	// Method DeleteByToken deletes a refresh token. Deleting an unknown token is not an error.
	DeleteByToken(ctx context.Context, token string) error
	// Method DeleteByUserID deletes every refresh token of a user.
	DeleteByUserID(ctx context.Context, userID int) error
}

// PasswordResetRepository is the interface that wraps methods for password_reset_tokens table data access
type PasswordResetRepository interface {
	// Method Create replaces any pending reset token of the user by t.
	Create(ctx context.Context, t *models.PasswordResetToken) error
	// Method GetByToken retrieves a reset token.
	//
	// If the token is unknown, an error wrapping models.ErrNotFound is returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	// Method DeleteByUserID deletes reset tokens of a user.
	DeleteByUserID(ctx context.Context, userID int) error
}

// EmailEnqueuer schedules e-mails for the worker
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, p tasks.EmailPayload) error
}

type authService struct {
	userRepo         UserRepository
	userTokenRepo    UserTokenRepository
	resetRepo        PasswordResetRepository
	emails           EmailEnqueuer
	tokenGenerator   *service.TokenGenerator
	logger           *zap.Logger
	passwordResetURL string
	now              func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	resetRepo PasswordResetRepository,
	emails EmailEnqueuer,
	tokenGenerator *service.TokenGenerator,
	logger *zap.Logger,
	passwordResetURL string,
) *authService {
	return &authService{
		userRepo:         userRepo,
		userTokenRepo:    userTokenRepo,
		resetRepo:        resetRepo,
		emails:           emails,
		tokenGenerator:   tokenGenerator,
		logger:           logger,
		passwordResetURL: passwordResetURL,
		now:              time.Now,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// passwordRegex validates password: at least 8 chars, uppercase, lowercase, number, special: !_?^&+-=|
var passwordRegex = []*regexp.Regexp{
	regexp.MustCompile(`.{8,}`),
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`[0-9]`),
	regexp.MustCompile(`[!_?^&+\-=|]`),
}

var (
	errInvalidCredentials = fmt.Errorf("%w: invalid credentials", models.ErrNotLoggedIn)
	errInvalidRefresh     = fmt.Errorf("%w: invalid or expired refresh token", models.ErrNotLoggedIn)
	errInvalidResetToken  = fmt.Errorf("%w: invalid or expired reset token", models.ErrInvalidInput)
	errWeakPassword       = fmt.Errorf("%w: password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character (!_?^&+-=|)", models.ErrInvalidInput)
)

// Register creates a learner account with empty progress and signs it in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPair, error) {
	email, err := s.checkRegisterCredentials(ctx, req)
	if err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		DisplayName:  strings.TrimSpace(req.DisplayName),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleLearner,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// The account exists at this point; a lost welcome e-mail must not fail sign-up.
	s.enqueueEmail(ctx, tasks.EmailPayload{
		To:       user.Email,
		Template: tasks.EmailWelcome,
		Data:     map[string]string{"name": user.DisplayName},
	})

	return generateAndSaveTokens(ctx, s.tokenGenerator, s.userTokenRepo, user.ID, user.Role)
}

// Login authenticates a user by email and password
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", models.ErrInvalidInput)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", models.ErrInvalidInput)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	return generateAndSaveTokens(ctx, s.tokenGenerator, s.userTokenRepo, user.ID, user.Role)
}

// Refresh rotates a refresh token and issues a new token pair
//
// The stored-token lookup and the signature check do not depend on each other,
// so they run in parallel.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, errInvalidRefresh
	}

	errorChan := make(chan error, 2)
	userTokenChan := make(chan *models.UserToken, 1)

	go func() {
		userToken, err := s.userTokenRepo.GetByToken(ctx, refreshToken)
		if errors.Is(err, models.ErrNotFound) {
			errorChan <- errInvalidRefresh
			userTokenChan <- nil
			return
		}
		if err != nil {
			errorChan <- fmt.Errorf("failed to get user token by refresh token: %w", err)
			userTokenChan <- nil
			return
		}
		userTokenChan <- userToken
		errorChan <- nil
	}()

	go func() {
		if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
			if delErr := s.userTokenRepo.DeleteByToken(ctx, refreshToken); delErr != nil {
				s.logger.Warn("failed to delete invalid refresh token", zap.Error(delErr))
			}
			errorChan <- errInvalidRefresh
			return
		}
		errorChan <- nil
	}()

	var firstErr error
	for range 2 {
		if err := <-errorChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	userToken := <-userTokenChan

	user, err := s.userRepo.GetByID(ctx, userToken.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(userToken.UserID, int(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, userToken.UserID); err != nil {
		return nil, err
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Logout forgets a refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return s.userTokenRepo.DeleteByToken(ctx, refreshToken)
}

// RequestPasswordReset mails a one-hour reset link when the account exists.
// Unknown e-mails succeed silently so the endpoint cannot be used to probe accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", models.ErrInvalidInput)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(PasswordResetTTL),
	}
	if err := s.resetRepo.Create(ctx, token); err != nil {
		return err
	}

	s.enqueueEmail(ctx, tasks.EmailPayload{
		To:       user.Email,
		Template: tasks.EmailPasswordReset,
		Data: map[string]string{
			"name": user.DisplayName,
			"link": s.resetLink(token.Token),
		},
	})
	return nil
}

// ResetPassword sets a new password using a reset token and signs the user out everywhere
func (s *authService) ResetPassword(ctx context.Context, req *models.PasswordResetConfirmRequest) error {
	if !validPassword(req.Password) {
		return errWeakPassword
	}

	token, err := s.resetRepo.GetByToken(ctx, strings.TrimSpace(req.Token))
	if errors.Is(err, models.ErrNotFound) {
		return errInvalidResetToken
	}
	if err != nil {
		return err
	}
	if !s.now().Before(token.ExpiresAt) {
		return errInvalidResetToken
	}

	// The token is consumed before the password changes so it can never be replayed.
	if err := s.resetRepo.DeleteByUserID(ctx, token.UserID); err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, token.UserID, string(passwordHash)); err != nil {
		return err
	}

	if err := s.userTokenRepo.DeleteByUserID(ctx, token.UserID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens", zap.Int("user_id", token.UserID), zap.Error(err))
	}
	return nil
}

func (s *authService) resetLink(token string) string {
	u, err := url.Parse(s.passwordResetURL)
	if err != nil {
		return s.passwordResetURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *authService) enqueueEmail(ctx context.Context, p tasks.EmailPayload) {
	if s.emails == nil {
		return
	}
	if err := s.emails.EnqueueEmail(ctx, p); err != nil {
		s.logger.Warn("failed to enqueue email", zap.String("template", string(p.Template)), zap.Error(err))
	}
}

// checkRegisterCredentials validates sign-up input and returns the normalized email
//
// The password check and the email uniqueness lookup are independent, so they run in parallel.
func (s *authService) checkRegisterCredentials(ctx context.Context, req *models.RegisterRequest) (string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return "", fmt.Errorf("%w: display name cannot be empty", models.ErrInvalidInput)
	}
	if len([]rune(displayName)) > 64 {
		return "", fmt.Errorf("%w: display name must be at most 64 characters", models.ErrInvalidInput)
	}

	validationErrors := make(chan error, 2)

	go func() {
		if !validPassword(req.Password) {
			validationErrors <- errWeakPassword
			return
		}
		validationErrors <- nil
	}()

	go func() {
		if !emailRegex.MatchString(email) {
			validationErrors <- fmt.Errorf("%w: invalid email format", models.ErrInvalidInput)
			return
		}
		exists, err := s.userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check email: %w", err)
			return
		}
		if exists {
			validationErrors <- fmt.Errorf("%w: email already exists", models.ErrConflict)
			return
		}
		validationErrors <- nil
	}()

	var firstErr error
	for range 2 {
		if err := <-validationErrors; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	return email, nil
}

func validPassword(password string) bool {
	for _, regex := range passwordRegex {
		if !regex.MatchString(password) {
			return false
		}
	}
	return true
}

// generateAndSaveTokens issues a token pair and stores the refresh token
func generateAndSaveTokens(ctx context.Context, tokenGenerator *service.TokenGenerator,
	userTokenRepo UserTokenRepository, userID int, role models.Role) (*models.TokenPair, error) {
	accessToken, refreshToken, err := tokenGenerator.GenerateTokens(userID, int(role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	userToken := &models.UserToken{
		UserID: userID,
		Token:  refreshToken,
	}
	if err := userTokenRepo.Create(ctx, userToken); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
