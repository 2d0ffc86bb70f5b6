package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/waw-schedule/backend/internal/cache"
	"github.com/waw-schedule/backend/pkg/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAuthState struct {
	states map[uuid.UUID]*cache.AuthState
	getErr error
	sets   int
}

func (m *memoryAuthState) Get(_ context.Context, id uuid.UUID) (*cache.AuthState, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	s, ok := m.states[id]
	return s, ok, nil
}

func (m *memoryAuthState) Set(_ context.Context, s *cache.AuthState) error {
	m.sets++
	m.states[uuid.MustParse(s.UserID)] = s
	return nil
}

func (m *memoryAuthState) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.states, id)
	return nil
}

func TestSessionService_Validate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	tokens, err := f.users.SignIn(ctx, "ronaldo@mail.com", "Password123")
	require.NoError(t, err)

	claims, err := f.sessions.Validate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "ronaldo@mail.com", claims.Email)

	_, err = f.sessions.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = f.sessions.Validate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionService_RevokedAfterLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	tokens, err := f.users.SignIn(ctx, "ronaldo@mail.com", "Password123")
	require.NoError(t, err)

	f.clock.Advance(5 * time.Second)
	require.NoError(t, f.users.Logout(ctx, user.ID))

	_, err = f.sessions.Validate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestSessionService_SameSecondLogoutKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	token, _, err := f.tokens.NewJWT(auth.Payload{UserID: user.ID, Email: user.Email})
	require.NoError(t, err)
	claims, err := f.tokens.Parse(token)
	require.NoError(t, err)

	// logout within the same second as iat
	f.clock.now = claims.IssuedAt.Time.Add(500 * time.Millisecond)
	require.NoError(t, f.users.Logout(ctx, user.ID))

	_, err = f.sessions.Validate(ctx, token)
	assert.NoError(t, err)
}

func TestSessionService_UnknownUser(t *testing.T) {
	f := newFixture(t)

	token, _, err := f.tokens.NewJWT(auth.Payload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = f.sessions.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestSessionService_UsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := signUpVerified(t, f, "ronaldo@mail.com")

	state := &memoryAuthState{states: map[uuid.UUID]*cache.AuthState{}}
	sessions := newSessionService(f.tokens, f.store.Repositories().Users, state)

	tokens, err := f.users.SignIn(ctx, "ronaldo@mail.com", "Password123")
	require.NoError(t, err)

	_, err = sessions.Validate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 1, state.sets)

	future := time.Now().Add(time.Hour)
	state.states[user.ID] = cache.BuildAuthState(user.ID, &future)
	_, err = sessions.Validate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrAuthRequired)

	state.getErr = errors.New("redis down")
	_, err = sessions.Validate(ctx, tokens.AccessToken)
	assert.NoError(t, err)
}
