package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/mcq-engine/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidShellKey   = errors.New("invalid shell key")
	ErrShellKeyNotSet    = errors.New("shell key hash is not configured")
	ErrInvalidTokenClaim = errors.New("invalid token claims")
)

// TokenType distinguishes learner vs author launch tokens.
type TokenType string

const (
	TokenTypeLearner TokenType = "learner"
	TokenTypeAuthor  TokenType = "author"
)

// Claims extends JWT standard claims with launch context.
type Claims struct {
	jwt.RegisteredClaims
	TokenType  TokenType `json:"token_type"`
	UserID     string    `json:"user_id"`
	ActivityID string    `json:"activity_id,omitempty"` // empty means any activity
}

// AllowsActivity reports whether the token was issued for the activity.
func (c *Claims) AllowsActivity(activityID uuid.UUID) bool {
	return c.ActivityID == "" || c.ActivityID == activityID.String()
}

// AuthService issues and validates launch tokens.
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// HashShellKey hashes a shell key with the configured bcrypt cost.
func (s *AuthService) HashShellKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckShellKey compares a presented shell key against the configured hash.
func (s *AuthService) CheckShellKey(key string) error {
	if s.cfg.ShellKeyHash == "" {
		return ErrShellKeyNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.ShellKeyHash), []byte(key)); err != nil {
		return ErrInvalidShellKey
	}
	return nil
}

// GenerateToken creates a launch token. activityID may be empty for author tokens.
func (s *AuthService) GenerateToken(tokenType TokenType, userID, activityID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType:  tokenType,
		UserID:     userID,
		ActivityID: activityID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidTokenClaim
	}
	return claims, nil
}
