package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/waw-schedule/backend/internal/authz"
	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/repository/repotest"
	"github.com/waw-schedule/backend/internal/service"
	"github.com/waw-schedule/backend/pkg/auth"
	"github.com/waw-schedule/backend/pkg/hash"
	"github.com/waw-schedule/backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testCode = "AB12CD"

type fixedCode string

func (c fixedCode) RandomCode(int) string { return string(c) }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *repotest.Store
	clock  *testClock
	config *config.Config
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:    config.EnvTest,
		Cookie: config.CookieConfig{Secret: "cookie-secret"},
		Auth: config.AuthConfig{
			JWT:                    config.JWTConfig{SigningKey: "jwt-secret", AccessTokenTTL: 24 * time.Hour},
			VerificationCodeLength: 6,
			CodeValidMinutes:       "1",
			MaskUnknownResetEmail:  true,
		},
		Limiter: config.Limiter{Global: "1000", Auth: "1000"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	require.NoError(t, err)
	enforcer, err := authz.New()
	require.NoError(t, err)

	store := repotest.NewStore()
	clock := &testClock{now: time.Now()}
	services := service.NewServices(service.Deps{
		Config:       cfg,
		Hasher:       hash.NewBcryptHasher(bcrypt.MinCost),
		TokenManager: tokenManager,
		OtpGenerator: fixedCode(testCode),
		Repos:        store.Repositories(),
		Clock:        clock.Now,
	})

	validator.RegisterGinValidator()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "test-request")
		c.Next()
	})
	NewHandler(services, enforcer, cfg).Init(router)

	return &testServer{t: t, router: router, store: store, clock: clock, config: cfg}
}

func (s *testServer) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func accessCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == AccessTokenCookie {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]interface{}](t, w)["errorCode"].(string)
}

// signUpAndLogin registers a verified account and returns its id and session cookie.
func (s *testServer) signUpAndLogin(name, email string) (uuid.UUID, *http.Cookie) {
	s.t.Helper()

	w := s.do(http.MethodPost, "/signup", map[string]string{"name": name, "email": email, "password": "PlainPassword"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	user := decode[userResponse](s.t, w)

	w = s.do(http.MethodPost, "/verifyEmail", map[string]string{"userid": user.UserID.String(), "verificationCode": testCode})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/login", map[string]string{"email": email, "password": "PlainPassword"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	cookie := accessCookie(w)
	require.NotNil(s.t, cookie)

	return user.UserID, cookie
}
