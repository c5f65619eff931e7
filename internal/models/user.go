package models

import (
	"fmt"
	"time"
)

// Role is ordered: a higher role includes the permissions of the lower ones
type Role int

const (
	RoleLearner        Role = 1
	RoleContentCreator Role = 2
	RoleAdmin          Role = 3
)

var roleNames = map[Role]string{
	RoleLearner:        "learner",
	RoleContentCreator: "contentCreator",
	RoleAdmin:          "admin",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole converts a role name into a Role
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// MarshalText encodes the role by name
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText decodes a role name
func (r *Role) UnmarshalText(b []byte) error {
	role, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// User represents an account
type User struct {
	ID                 int       `json:"id"`
	DisplayName        string    `json:"displayName"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Role               Role      `json:"role"`
	SelectedLanguageID *string   `json:"selectedLanguageId"`
	CreatedAt          time.Time `json:"createdAt"`
}

// UserProfile is the current user together with their progress
type UserProfile struct {
	User
	Progress Progress `json:"progress"`
}

// UserListItem represents a user in admin list responses
type UserListItem struct {
	ID          int       `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// LoginRequest represents a sign-in request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token when it is not sent as a cookie
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned by sign-up, sign-in and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// PasswordResetRequest asks for a reset e-mail
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest sets a new password using a reset token
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=64"`
	FirstName   *string `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName    *string `json:"lastName,omitempty" validate:"omitempty,max=64"`
}

// SelectLanguageRequest chooses the language the user is learning
type SelectLanguageRequest struct {
	LanguageID string `json:"languageId" validate:"required"`
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required"`
}
