package domain

import (
	"time"

	"github.com/google/uuid"
)

// EmailVerification holds the signup confirmation code, one row per user.
type EmailVerification struct {
	UserID    uuid.UUID `db:"user_id"`
	Code      string    `db:"code"`
	ExpiresAt time.Time `db:"expires_at"`
	Verified  bool      `db:"verified"`
	UpdatedAt time.Time `db:"updated_at"`
}

// EmailChangeRequest is a pending switch to NewEmail.
type EmailChangeRequest struct {
	UserID       uuid.UUID `db:"user_id"`
	CurrentEmail string    `db:"current_email"`
	NewEmail     string    `db:"new_email"`
	Code         string    `db:"code"`
	ExpiresAt    time.Time `db:"expires_at"`
	Verified     bool      `db:"verified"`
	CreatedAt    time.Time `db:"created_at"`
}

const (
	PasswordResetPending  = "pending"
	PasswordResetVerified = "verified"
)

type PasswordResetRequest struct {
	UserID    uuid.UUID `db:"user_id"`
	Code      string    `db:"code"`
	ExpiresAt time.Time `db:"expires_at"`
	Verified  bool      `db:"verified"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}
