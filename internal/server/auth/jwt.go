// Package auth issues and verifies the signed session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Kind separates access tokens from refresh tokens so one can never be
// presented in place of the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims carried by both token kinds. Generation is set on refresh tokens
// only and is checked against the user's current refresh generation.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Kind       Kind   `json:"kind"`
	Generation int64  `json:"generation,omitempty"`
}

// TokenService signs and verifies HS256 tokens with a single secret.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret []byte, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccessToken(userID, email string) (string, error) {
	return s.issue(Claims{UserID: userID, Email: email, Kind: KindAccess}, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(userID, email string, generation int64) (string, error) {
	return s.issue(Claims{UserID: userID, Email: email, Kind: KindRefresh, Generation: generation}, s.refreshTTL)
}

func (s *TokenService) issue(c Claims, ttl time.Duration) (string, error) {
	now := s.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature, expiry and kind. Errors are one of
// common.ErrTokenExpired, common.ErrInvalidSignature or common.ErrMalformedToken.
func (s *TokenService) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, common.ErrInvalidSignature
		default:
			return nil, common.ErrMalformedToken
		}
	}

	if !token.Valid || claims.Kind != kind || claims.UserID == "" {
		return nil, common.ErrMalformedToken
	}

	return claims, nil
}
