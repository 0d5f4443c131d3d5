package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harentsoaR/clinic-api/internal/models"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrBadToken      = errors.New("invalid token")
	ErrMissingSecret = errors.New("JWT secret is not configured")
)

// Claims binds a token to one account identifier (username for admins, email
// for doctors and patients) carried in the subject, plus the signed role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256 tokens. It holds no state beyond the
// key, so issued tokens are never stored server-side.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock swaps the time source used for issuing and expiry checks.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	c := *s
	c.now = now
	return &c
}

// GenerateJWT creates a signed token for identifier and role.
func (s *TokenSigner) GenerateJWT(identifier string, role models.Role) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	issuedAt := s.now()
	claims := &Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identifier,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateJWT checks signature and expiry. Every failure is reported as
// ErrBadToken; callers never learn why a token was rejected.
func (s *TokenSigner) ValidateJWT(tokenStr string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) {
			// block alg confusion
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrBadToken
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrBadToken
	}
	return claims, nil
}
