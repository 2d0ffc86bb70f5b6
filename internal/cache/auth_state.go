package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const authStateCacheTTL = 10 * time.Minute

// AuthState is the slice of a user row the session check needs.
// LastLogoutAt is unix milliseconds, 0 when the user never logged out.
type AuthState struct {
	UserID       string `json:"user_id"`
	LastLogoutAt int64  `json:"last_logout_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

func BuildAuthState(userID uuid.UUID, lastLogoutAt *time.Time) *AuthState {
	state := &AuthState{
		UserID:    userID.String(),
		UpdatedAt: time.Now().Unix(),
	}
	if lastLogoutAt != nil {
		state.LastLogoutAt = lastLogoutAt.UnixMilli()
	}
	return state
}

// LastLogout converts the cached cutoff back to a time, nil when unset.
func (s *AuthState) LastLogout() *time.Time {
	if s == nil || s.LastLogoutAt == 0 {
		return nil
	}
	t := time.UnixMilli(s.LastLogoutAt)
	return &t
}

type AuthStateStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*AuthState, bool, error)
	Set(ctx context.Context, state *AuthState) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

func authStateKey(userID uuid.UUID) string {
	return fmt.Sprintf("auth:user:%s", userID)
}

type redisAuthStateStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisAuthStateStore(client redis.UniversalClient) AuthStateStore {
	return &redisAuthStateStore{client: client, ttl: authStateCacheTTL}
}

func (s *redisAuthStateStore) Get(ctx context.Context, userID uuid.UUID) (*AuthState, bool, error) {
	raw, err := s.client.Get(ctx, authStateKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get auth state failed: %w", err)
	}

	var state AuthState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, fmt.Errorf("decode auth state failed: %w", err)
	}

	return &state, true, nil
}

func (s *redisAuthStateStore) Set(ctx context.Context, state *AuthState) error {
	if state == nil || state.UserID == "" {
		return nil
	}

	id, err := uuid.Parse(state.UserID)
	if err != nil {
		return fmt.Errorf("auth state user id: %w", err)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode auth state failed: %w", err)
	}

	return s.client.Set(ctx, authStateKey(id), raw, s.ttl).Err()
}

func (s *redisAuthStateStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, authStateKey(userID)).Err()
}

// NopAuthStateStore is used when Redis is disabled; every lookup misses.
type NopAuthStateStore struct{}

func (NopAuthStateStore) Get(context.Context, uuid.UUID) (*AuthState, bool, error) {
	return nil, false, nil
}

func (NopAuthStateStore) Set(context.Context, *AuthState) error {
	return nil
}

func (NopAuthStateStore) Delete(context.Context, uuid.UUID) error {
	return nil
}
