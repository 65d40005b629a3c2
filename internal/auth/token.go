package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"viewora-deals/internal/domain"
)

// Identity is the resolved caller of a REST request or realtime channel.
type Identity struct {
	UserID     string
	Username   string
	Role       domain.UserRole
	IsApproved bool
}

func (id Identity) IsApprovedBroker() bool {
	return id.Role == domain.RoleBroker && id.IsApproved
}

type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the HS256 tokens the auth service mints.
// This service only verifies; Issue exists for tooling and tests.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

func (s *TokenService) Issue(identity Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: identity.Username,
		Role:     string(identity.Role),
		Approved: identity.IsApproved,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.secret)
}

// Verify parses the token and returns the caller's identity. Any parse or
// validation failure maps to ErrUnauthenticated.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, domain.ErrUnauthenticated
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, domain.ErrUnauthenticated
	}

	if c.Subject == "" {
		return Identity{}, domain.ErrUnauthenticated
	}

	return Identity{
		UserID:     c.Subject,
		Username:   c.Username,
		Role:       domain.UserRole(c.Role),
		IsApproved: c.Approved,
	}, nil
}
