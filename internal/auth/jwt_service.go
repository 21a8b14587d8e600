package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/platform/logger"
)

const (
	// MinSecretLength is the minimum accepted signing secret length.
	MinSecretLength = 32

	// DefaultTokenLifetime applies when NewJWTService receives a non-positive lifetime.
	DefaultTokenLifetime = 24 * time.Hour

	clockSkew = 2 * time.Minute
)

// TokenService issues and validates bearer tokens.
type TokenService interface {
	// IssueToken creates a signed token for subject.
	IssueToken(ctx context.Context, subject string) (string, error)

	// ValidateToken checks signature and time claims and returns the claims.
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// Claims are the validated claims of a token.
type Claims struct {
	Subject   string    `json:"sub"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	ID        string    `json:"jti"`
}

// JWTService implements TokenService using HMAC-SHA256 signing.
type JWTService struct {
	signingKey []byte
	lifetime   time.Duration
	timeFunc   func() time.Time
}

var _ TokenService = (*JWTService)(nil)

// NewJWTService creates a JWTService. The secret must be at least
// MinSecretLength characters.
func NewJWTService(secret string, lifetime time.Duration) (*JWTService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &JWTService{
		signingKey: []byte(secret),
		lifetime:   lifetime,
		timeFunc:   time.Now,
	}, nil
}

// WithTimeFunc replaces the clock used for issuing and validating tokens.
func (s *JWTService) WithTimeFunc(fn func() time.Time) *JWTService {
	s.timeFunc = fn
	return s
}

// IssueToken creates a signed JWT for subject.
func (s *JWTService) IssueToken(ctx context.Context, subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject cannot be empty")
	}
	now := s.timeFunc()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		ID:        uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign token",
			"error", err,
			"subject", subject,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a token and returns its claims. Expired tokens
// yield ErrExpiredToken; every other validation failure yields
// ErrInvalidToken or ErrTokenNotYetValid.
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token validation failed: token not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("token validation failed",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	registered, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || registered.Subject == "" {
		log.Debug("token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		Subject: registered.Subject,
		ID:      registered.ID,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
