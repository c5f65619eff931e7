// Package service issues and validates the JWT pair used for sessions
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned for malformed, expired or wrongly typed tokens
var ErrInvalidToken = errors.New("invalid token")

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry, refreshExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:             []byte(secret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// RefreshTokenExpiry reports how long refresh tokens live
func (tg *TokenGenerator) RefreshTokenExpiry() time.Duration {
	return tg.refreshTokenExpiry
}

// GenerateTokens returns an access token carrying user_id and role and an opaque refresh token.
// The refresh token is bound to a user only through the user_tokens table.
func (tg *TokenGenerator) GenerateTokens(userID int, role int) (string, string, error) {
	now := time.Now()

	accessToken, err := tg.sign(jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(tg.accessTokenExpiry).Unix(),
		"iat":     now.Unix(),
		"type":    tokenTypeAccess,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := tg.sign(jwt.MapClaims{
		"jti":  uuid.NewString(),
		"exp":  now.Add(tg.refreshTokenExpiry).Unix(),
		"iat":  now.Unix(),
		"type": tokenTypeRefresh,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// ValidateAccessToken validates an access token and returns the userID and role
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (int, int, error) {
	claims, err := tg.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return 0, 0, err
	}

	// numeric claims decode as float64
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, 0, fmt.Errorf("%w: user_id not found", ErrInvalidToken)
	}
	role, ok := claims["role"].(float64)
	if !ok {
		return 0, 0, fmt.Errorf("%w: role not found", ErrInvalidToken)
	}

	return int(userID), int(role), nil
}

// ValidateRefreshToken validates a refresh token
func (tg *TokenGenerator) ValidateRefreshToken(tokenString string) error {
	_, err := tg.parse(tokenString, tokenTypeRefresh)
	return err
}

func (tg *TokenGenerator) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(tg.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

func (tg *TokenGenerator) parse(tokenString, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tg.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	if t, _ := claims["type"].(string); t != wantType {
		return nil, fmt.Errorf("%w: not a %s token", ErrInvalidToken, wantType)
	}
	return claims, nil
}
