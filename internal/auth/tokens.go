package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hisab/internal/core"
)

// TokenManager issues and verifies the signed access and refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      core.Clock
}

// Claims carried by both token kinds. TokenType distinguishes access from
// refresh so one can never stand in for the other.
type Claims struct {
	UserID    int64  `json:"uid"`
	IsAdmin   bool   `json:"adm"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// NewTokenManager creates a token manager signing with HMAC-SHA256.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, clock core.Clock) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clock,
	}
}

// TokenPair bundles the two tokens returned on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in seconds
}

// Issue creates a fresh access/refresh pair for the user.
func (m *TokenManager) Issue(user core.User) (TokenPair, error) {
	access, err := m.sign(user, tokenTypeAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(user, tokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (m *TokenManager) VerifyAccess(token string) (Claims, error) {
	return m.verify(token, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (m *TokenManager) VerifyRefresh(token string) (Claims, error) {
	return m.verify(token, tokenTypeRefresh)
}

func (m *TokenManager) sign(user core.User, tokenType string, ttl time.Duration) (string, error) {
	now := m.clock.Now()
	claims := Claims{
		UserID:    user.ID,
		IsAdmin:   user.IsAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (m *TokenManager) verify(token, wantType string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.clock.Now))
	if err != nil || !parsed.Valid {
		return Claims{}, core.ErrUnauthorized
	}
	if claims.TokenType != wantType {
		return Claims{}, core.ErrUnauthorized
	}
	return claims, nil
}
