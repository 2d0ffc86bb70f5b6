package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/waw-schedule/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Users              Users
	EmailVerifications EmailVerifications
	EmailChanges       EmailChanges
	PasswordResets     PasswordResets
	Availability       Availability
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:              newUserRepository(db),
		EmailVerifications: newEmailVerificationRepository(db),
		EmailChanges:       newEmailChangeRepository(db),
		PasswordResets:     newPasswordResetRepository(db),
		Availability:       newAvailabilityRepository(db),
	}
}

type Users interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create inserts the user together with its verification row.
	Create(ctx context.Context, user *domain.User, verification *domain.EmailVerification) error
	GetAll(ctx context.Context) ([]domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	SetLastLogout(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateBasic(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type EmailVerifications interface {
	GetOneByUserID(ctx context.Context, userID uuid.UUID) (*domain.EmailVerification, error)
	IsCodeValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error)
	MarkVerified(ctx context.Context, userID uuid.UUID) error
	Regenerate(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error
}

type EmailChanges interface {
	Replace(ctx context.Context, request *domain.EmailChangeRequest) error
	IsCodeValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error)
	// Apply marks the request verified and moves the user to the new email.
	Apply(ctx context.Context, userID uuid.UUID) (string, error)
}

type PasswordResets interface {
	Replace(ctx context.Context, request *domain.PasswordResetRequest) error
	IsCodeValid(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error)
	MarkVerified(ctx context.Context, userID uuid.UUID) error
	IsVerified(ctx context.Context, userID uuid.UUID) (bool, error)
	// Consume stores the new password hash and deletes the request.
	Consume(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

type Availability interface {
	Replace(ctx context.Context, userID uuid.UUID, slots []domain.TimeSlot) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.TimeSlot, error)
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx failed: %w", err)
	}

	return nil
}
