package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/radiusdt/dsp-console/internal/config"
	"github.com/radiusdt/dsp-console/internal/models"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims carries the actor of a console session.
type Claims struct {
	UserID  int64     `json:"user_id"`
	Manager bool      `json:"manager"`
	Type    TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Actor returns the identity the claims grant.
func (c *Claims) Actor() models.Actor {
	return models.Actor{UserID: c.UserID, Manager: c.Manager}
}

// TokenPair is the login response.
type TokenPair struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	UserType string `json:"user_type"`
}

// TokenManager issues and validates HS256 tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs a fresh access/refresh pair for u.
func (m *TokenManager) IssuePair(u *models.User) (*TokenPair, error) {
	access, err := m.sign(u, AccessToken, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(u, RefreshToken, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh, UserType: u.UserType()}, nil
}

func (m *TokenManager) sign(u *models.User, typ TokenType, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:  u.ID,
		Manager: u.Manager,
		Type:    typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", u.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse validates tokenString and checks it is of the expected type. All
// failures wrap models.ErrUnauthorized.
func (m *TokenManager) Parse(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", models.ErrUnauthorized)
		}
		return nil, fmt.Errorf("invalid token: %w", models.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", models.ErrUnauthorized)
	}
	if claims.Type != expected {
		return nil, fmt.Errorf("invalid token type: %w", models.ErrUnauthorized)
	}
	return claims, nil
}
