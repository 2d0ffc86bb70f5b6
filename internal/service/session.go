package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waw-schedule/backend/internal/cache"
	"github.com/waw-schedule/backend/internal/domain"
	"github.com/waw-schedule/backend/internal/repository"
	"github.com/waw-schedule/backend/pkg/auth"
	"github.com/waw-schedule/backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionService struct {
	tokenManager auth.TokenManager
	users        repository.Users
	authState    cache.AuthStateStore
}

func newSessionService(tokenManager auth.TokenManager, users repository.Users, authState cache.AuthStateStore) *sessionService {
	return &sessionService{
		tokenManager: tokenManager,
		users:        users,
		authState:    authState,
	}
}

// Validate rejects tokens issued before the user's last logout, compared at
// one second resolution since iat carries whole seconds.
func (s *sessionService) Validate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}

	claims, err := s.tokenManager.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}

	if claims.IssuedAt == nil {
		return nil, ErrAuthRequired
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrAuthRequired
	}

	lastLogout, err := s.lastLogout(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAuthRequired
		}
		return nil, err
	}

	if lastLogout != nil && claims.IssuedAt.Unix() < lastLogout.Unix() {
		return nil, ErrAuthRequired
	}

	return claims, nil
}

func (s *sessionService) lastLogout(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	state, hit, err := s.authState.Get(ctx, userID)
	if err != nil {
		logger.Warn("auth state cache read failed", zap.String("userid", userID.String()), zap.Error(err))
	}
	if hit {
		return state.LastLogout(), nil
	}

	user, err := s.users.GetOneByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load user for session check failed: %w", err)
	}

	if err := s.authState.Set(ctx, cache.BuildAuthState(user.ID, user.LastLogoutAt)); err != nil {
		logger.Warn("auth state cache write failed", zap.String("userid", userID.String()), zap.Error(err))
	}

	return user.LastLogoutAt, nil
}
