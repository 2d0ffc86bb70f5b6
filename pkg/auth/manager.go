package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/waw-schedule/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrTokenInvalid = errors.New("token is invalid")

// Payload is what a session token says about its holder.
type Payload struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   []string
}

type Claims struct {
	UserID string   `json:"userid"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Role   []string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager provides logic for JWT generation and parsing.
type TokenManager interface {
	NewJWT(payload Payload) (string, time.Duration, error)
	Parse(accessToken string) (*Claims, error)
	TTL() time.Duration
}

type Manager struct {
	signingKey     string
	accessTokenTTL time.Duration
	now            func() time.Time
}

func NewManager(cfg config.JWTConfig) (*Manager, error) {
	if cfg.SigningKey == "" {
		return nil, errors.New("empty signing key")
	}

	if cfg.AccessTokenTTL == 0 {
		return nil, errors.New("empty access token ttl")
	}

	return &Manager{
		signingKey:     cfg.SigningKey,
		accessTokenTTL: cfg.AccessTokenTTL,
		now:            time.Now,
	}, nil
}

func (m *Manager) TTL() time.Duration {
	return m.accessTokenTTL
}

func (m *Manager) NewJWT(payload Payload) (string, time.Duration, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: payload.UserID.String(),
		Email:  payload.Email,
		Name:   payload.Name,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenTTL)),
		},
	})

	accessToken, err := token.SignedString([]byte(m.signingKey))
	if err != nil {
		return "", 0, errors.New("sign jwt failed")
	}

	return accessToken, m.accessTokenTTL, nil
}

// Parse verifies the signature and expiry. Expired tokens wrap jwt.ErrTokenExpired,
// everything else wraps ErrTokenInvalid.
func (m *Manager) Parse(accessToken string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(accessToken, &claims, func(token *jwt.Token) (i interface{}, err error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(m.signingKey), nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	return &claims, nil
}
