package models

import "time"

// UserToken represents a refresh token for a user
type UserToken struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Token  string `json:"token"`
}

// PasswordResetToken is a one-time token mailed to the user
type PasswordResetToken struct {
	ID        int
	UserID    int
	Token     string
	ExpiresAt time.Time
}
