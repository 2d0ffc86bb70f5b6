package service

import (
	"context"
	"time"

	"github.com/waw-schedule/backend/internal/cache"
	"github.com/waw-schedule/backend/internal/config"
	"github.com/waw-schedule/backend/internal/domain"
	"github.com/waw-schedule/backend/internal/repository"
	"github.com/waw-schedule/backend/pkg/auth"
	emailProvider "github.com/waw-schedule/backend/pkg/email"
	"github.com/waw-schedule/backend/pkg/hash"
	"github.com/waw-schedule/backend/pkg/otp"

	"github.com/google/uuid"
)

type Services struct {
	Users        Users
	Sessions     Sessions
	Emails       Emails
	Availability Availability
}

type Deps struct {
	Config       *config.Config
	Hasher       hash.PasswordHasher
	TokenManager auth.TokenManager
	OtpGenerator otp.Generator
	EmailSender  emailProvider.Sender
	AuthState    cache.AuthStateStore
	Repos        *repository.Repositories
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func NewServices(deps Deps) *Services {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.AuthState == nil {
		deps.AuthState = cache.NopAuthStateStore{}
	}

	emails := newEmailsService(deps.EmailSender, deps.Config)

	return &Services{
		Users: newUserService(deps.Repos,
			deps.Hasher,
			deps.TokenManager,
			deps.OtpGenerator,
			emails,
			deps.AuthState,
			deps.Config.Auth,
			deps.Clock,
		),
		Sessions:     newSessionService(deps.TokenManager, deps.Repos.Users, deps.AuthState),
		Emails:       emails,
		Availability: newAvailabilityService(deps.Repos.Availability, deps.Repos.Users),
	}
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

type Tokens struct {
	AccessToken string
	AccessTTL   time.Duration
}

type Users interface {
	SignUp(ctx context.Context, input SignUpInput) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	SignIn(ctx context.Context, email, password string) (*Tokens, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	VerifyEmail(ctx context.Context, userID uuid.UUID, code string) error
	ResendVerificationCode(ctx context.Context, userID uuid.UUID) error
	UpdateBasic(ctx context.Context, userID uuid.UUID, patch domain.UserPatch) (*domain.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	InitEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error
	VerifyEmailChange(ctx context.Context, userID uuid.UUID, code string) error
	InitPasswordReset(ctx context.Context, email string) error
	VerifyPasswordReset(ctx context.Context, email, code string) error
	ApplyPasswordReset(ctx context.Context, email, newPassword string) error
}

type Sessions interface {
	// Validate returns the claims of a token that is still usable.
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

type Emails interface {
	SendCode(ctx context.Context, input CodeEmailInput) error
	Deliver(input CodeEmailInput) error
}

type Availability interface {
	Replace(ctx context.Context, userID uuid.UUID, slots []domain.TimeSlot) error
	Get(ctx context.Context, userID uuid.UUID) ([]domain.TimeSlot, error)
}
