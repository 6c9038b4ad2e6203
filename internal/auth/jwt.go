// Package auth issues and validates the JWT tokens that authenticate
// CraftLink users on both the HTTP API and the websocket gateway.
package auth

import (
	"errors"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const issuer = "craftlink"

// Token subjects distinguish access tokens from refresh tokens so one can
// never be replayed as the other.
const (
	subjectAccess  = "access"
	subjectRefresh = "refresh"
)

// UserClaims carries the authenticated user's identity inside a JWT
type UserClaims struct {
	UserID uint   `json:"user_id"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair bundles the tokens returned after a successful login
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenService signs and validates user tokens
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given signing secret and
// token lifetimes
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// GeneratePair issues an access/refresh token pair for a user
func (s *TokenService) GeneratePair(user *models.User) (*TokenPair, error) {
	access, err := s.generate(user, subjectAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generate(user, subjectRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *TokenService) generate(user *models.User, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: user.ID,
		Phone:  user.Phone,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAccessToken parses and verifies an access token
func (s *TokenService) ValidateAccessToken(tokenString string) (*UserClaims, error) {
	return s.validate(tokenString, subjectAccess)
}

// ValidateRefreshToken parses and verifies a refresh token
func (s *TokenService) ValidateRefreshToken(tokenString string) (*UserClaims, error) {
	return s.validate(tokenString, subjectRefresh)
}

func (s *TokenService) validate(tokenString, subject string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Reject anything but HMAC before touching the secret
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject != subject {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AccessTTL returns the configured access token lifetime
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}
