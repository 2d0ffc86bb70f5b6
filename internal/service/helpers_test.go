package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/waw-schedule/backend/internal/cache"
	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/repository/repotest"
	"github.com/waw-schedule/backend/pkg/auth"
	"github.com/waw-schedule/backend/pkg/hash"
	"github.com/waw-schedule/backend/pkg/otp"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixedCode string

func (c fixedCode) RandomCode(int) string { return string(c) }

type sentEmails struct {
	mu   sync.Mutex
	sent []CodeEmailInput
	err  error
}

func (s *sentEmails) SendCode(_ context.Context, input CodeEmailInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, input)
	return s.err
}

func (s *sentEmails) Deliver(input CodeEmailInput) error {
	return s.SendCode(context.Background(), input)
}

func (s *sentEmails) last() CodeEmailInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return CodeEmailInput{}
	}
	return s.sent[len(s.sent)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *repotest.Store
	users    *userService
	sessions *sessionService
	emails   *sentEmails
	tokens   *auth.Manager
	clock    *clock
	cfg      config.AuthConfig
}

// codeSequence hands out its codes in order, repeating the last one.
type codeSequence struct {
	mu    sync.Mutex
	codes []string
}

func (s *codeSequence) RandomCode(int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.codes[0]
	if len(s.codes) > 1 {
		s.codes = s.codes[1:]
	}
	return code
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCodes(t, fixedCode("AB12CD"))
}

func newFixtureWithCodes(t *testing.T, codes otp.Generator) *fixture {
	t.Helper()

	authConfig := config.AuthConfig{
		JWT:                    config.JWTConfig{SigningKey: "test-secret", AccessTokenTTL: time.Hour},
		VerificationCodeLength: 6,
		CodeValidMinutes:       "1",
		MaskUnknownResetEmail:  true,
	}

	tokens, err := auth.NewManager(authConfig.JWT)
	require.NoError(t, err)

	store := repotest.NewStore()
	repos := store.Repositories()
	emails := &sentEmails{}
	c := &clock{now: time.Now()}
	authState := cache.NopAuthStateStore{}

	return &fixture{
		store: store,
		users: newUserService(repos,
			hash.NewBcryptHasher(bcrypt.MinCost),
			tokens,
			codes,
			emails,
			authState,
			authConfig,
			c.Now,
		),
		sessions: newSessionService(tokens, repos.Users, authState),
		emails:   emails,
		tokens:   tokens,
		clock:    c,
		cfg:      authConfig,
	}
}
