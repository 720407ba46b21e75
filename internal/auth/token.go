package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"proctor-quiz-service/internal/domain"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Identity is the verified caller extracted from a bearer token.
type Identity struct {
	Subject string
	Role    string
	Name    string
}

type claims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed access tokens carrying
// subject, role and display name.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given identity.
func (m *TokenManager) Issue(subject, role, name string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// Verify parses and validates a token, returning the caller identity.
func (m *TokenManager) Verify(raw string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, domain.ErrUnauthenticated
	}
	c, ok := parsed.Claims.(*claims)
	if !ok {
		return Identity{}, domain.ErrUnauthenticated
	}
	return Identity{Subject: c.Subject, Role: c.Role, Name: c.Name}, nil
}
